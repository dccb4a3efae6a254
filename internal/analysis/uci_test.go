package analysis

import "testing"

func TestParseInfo_Centipawns(t *testing.T) {
	line := "info depth 18 seldepth 24 multipv 1 score cp 35 nodes 1200000 nps 900000 pv e2e4 e7e5 g1f3"
	info, ok := ParseInfo(line)
	if !ok {
		t.Fatal("expected a parseable info line")
	}
	if info.Depth != 18 {
		t.Errorf("depth = %d", info.Depth)
	}
	if info.Rank != 1 {
		t.Errorf("rank = %d", info.Rank)
	}
	if !info.Score.Has || info.Score.CP != 35 || info.Score.Mate != 0 {
		t.Errorf("score = %+v", info.Score)
	}
	if len(info.Moves) != 3 || info.Moves[0] != "e2e4" {
		t.Errorf("pv = %v", info.Moves)
	}
}

func TestParseInfo_MateAndMultiPV(t *testing.T) {
	line := "info depth 12 multipv 3 score mate 2 pv d1h5 g6h5"
	info, ok := ParseInfo(line)
	if !ok {
		t.Fatal("expected ok")
	}
	if info.Rank != 3 {
		t.Errorf("rank = %d", info.Rank)
	}
	if info.Score.Mate != 2 {
		t.Errorf("mate = %d", info.Score.Mate)
	}
}

func TestParseInfo_Rejects(t *testing.T) {
	cases := []string{
		"info depth 5 currmove e2e4 currmovenumber 1", // no pv
		"bestmove e2e4",
		"readyok",
	}
	for _, line := range cases {
		if _, ok := ParseInfo(line); ok {
			t.Errorf("ParseInfo(%q) should not parse", line)
		}
	}
}

func TestIsBestMove(t *testing.T) {
	if !IsBestMove("bestmove e2e4 ponder e7e5") {
		t.Error("bestmove line not recognized")
	}
	if IsBestMove("info depth 1 pv e2e4") {
		t.Error("info line misread as bestmove")
	}
}
