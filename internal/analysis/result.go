package analysis

// Score is one engine evaluation, in centipawns or moves-to-mate.
type Score struct {
	CP   int  `json:"cp"`
	Mate int  `json:"mate,omitempty"`
	Has  bool `json:"-"`
}

// PV is one ranked principal variation.
type PV struct {
	Rank  int      `json:"rank"` // 1 is the engine's best line
	Score Score    `json:"score"`
	Moves []string `json:"moves"`
}

// EngineResult is a transient, non-authoritative evaluation of one
// (tab, position) pair. It never mutates the game tree; the caller
// decides whether to play a suggested move through the ordinary tree
// operations. Generation is stamped when the producing session starts
// and the consumer drops any result whose generation no longer matches
// the tab.
type EngineResult struct {
	Tab        string   `json:"tab"`
	Engine     string   `json:"engine"`
	Generation uint64   `json:"generation"`
	FEN        string   `json:"fen"`
	Line       []string `json:"line"` // moves from the game start to the position
	PVs        []PV     `json:"lines"`
	Depth      int      `json:"progress"` // non-decreasing within a session
	Finished   bool     `json:"finished"`
}

// TaskProgress is the id-tagged progress stream shared by non-engine
// background work (bulk import, database search). The same
// discard-by-identity rule applies: events for an id that is no longer
// active are ignored.
type TaskProgress struct {
	ID       string `json:"id"`
	Done     int    `json:"progress"`
	Total    int    `json:"total"`
	Finished bool   `json:"finished"`
	Err      string `json:"error,omitempty"`
}

// Event is the orchestrator's only outward channel: exactly one of the
// fields is set.
type Event struct {
	BestMoves *EngineResult `json:"bestMovesUpdate,omitempty"`
	Task      *TaskProgress `json:"taskProgress,omitempty"`
}
