package pgn

import "strings"

// Board orientations.
const (
	OrientationWhite = "white"
	OrientationBlack = "black"
)

// Headers is the insertion-ordered tag bag of one game, plus the board
// orientation resolved once at parse time.
type Headers struct {
	keys        []string
	values      map[string]string
	orientation string
}

// NewHeaders returns an empty bag oriented white.
func NewHeaders() *Headers {
	return &Headers{values: map[string]string{}, orientation: OrientationWhite}
}

// Set records a tag value. A repeated tag keeps its original position
// and takes the new value (last occurrence wins).
func (h *Headers) Set(tag, value string) {
	if _, ok := h.values[tag]; !ok {
		h.keys = append(h.keys, tag)
	}
	h.values[tag] = value
}

// Get looks up a tag value.
func (h *Headers) Get(tag string) (string, bool) {
	v, ok := h.values[tag]
	return v, ok
}

// Tags returns the tag names in insertion order.
func (h *Headers) Tags() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Orientation returns the cached board orientation.
func (h *Headers) Orientation() string { return h.orientation }

// ResolveHeaders builds the header bag from the token stream and fixes
// the orientation: an explicit Orientation tag wins verbatim, otherwise
// a FEN tag's side-to-move field decides, otherwise white.
func ResolveHeaders(tokens []Token) *Headers {
	h := NewHeaders()
	for _, tok := range tokens {
		if tok.Kind == TokenHeader {
			h.Set(tok.Tag, tok.Value)
		}
	}
	h.orientation = resolveOrientation(h)
	return h
}

func resolveOrientation(h *Headers) string {
	if v, ok := h.Get("Orientation"); ok {
		return v
	}
	if fen, ok := h.Get("FEN"); ok {
		fields := strings.Fields(fen)
		if len(fields) >= 2 && fields[1] == "b" {
			return OrientationBlack
		}
	}
	return OrientationWhite
}
