package gametree

import (
	"fmt"
	"strconv"
	"strings"
)

// Path locates a node by the sequence of child indices from the root.
// The empty path is the root. Paths are positional: any structural
// mutation of the tree can invalidate previously captured paths, so they
// must be re-resolved (or re-validated via NodeAt) after a mutation.
type Path []int

// Root is the empty path.
var Root = Path{}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Child returns a new path descending into child i.
func (p Path) Child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Parent returns the path without its last index. The root's parent is
// the root itself.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Root
	}
	return p[:len(p)-1].Clone()
}

// IsRoot reports whether the path addresses the root node.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Equal reports whether two paths address the same location.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// HasMorePriority reports whether p comes before q in the mainline-first,
// depth-first reading order of the tree. A strict prefix outranks all of
// its extensions, and at the first differing index the smaller index wins.
// Equal paths have no priority over each other.
func (p Path) HasMorePriority(q Path) bool {
	for i := range p {
		if i >= len(q) {
			// q is a strict prefix of p.
			return false
		}
		if p[i] != q[i] {
			return p[i] < q[i]
		}
	}
	return len(p) < len(q)
}

// String renders the path as dot-separated indices ("" for the root).
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

// ParsePath parses the wire form produced by String.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Root, nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad index %q", ErrInvalidPath, part)
		}
		p[i] = n
	}
	return p, nil
}
