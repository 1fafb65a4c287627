package review

import "testing"

func TestSelectKeyMoments(t *testing.T) {
	plies := []PlyRecord{
		{Ply: 1, Side: White, Move: "e4", Tag: TagBest, Swing: 10},
		{Ply: 2, Side: Black, Move: "f6", Tag: TagBlunder, Swing: -600},
		{Ply: 3, Side: White, Move: "Nc3", Tag: TagMistake, Swing: 200},
		{Ply: 4, Side: Black, Move: "g5", Tag: TagBest, Swing: 300},
		{Ply: 5, Side: White, Move: "Qd2", Tag: TagMissedMate, Swing: -50},
		{Ply: 6, Side: Black, Move: "h6", Tag: TagGood, Swing: 250},
		{Ply: 7, Side: White, Move: "a3", Tag: TagInaccuracy, Swing: -120},
	}

	got := SelectKeyMoments(plies, 4, 3)
	want := []struct {
		ply    int
		reason Reason
	}{
		{2, ReasonBlunder},
		{5, ReasonMissedMate},
		{3, ReasonMistake},
		{4, ReasonLargestSwing},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d moments, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Ply != w.ply || got[i].Reason != w.reason {
			t.Errorf("moment %d = ply %d (%s), want ply %d (%s)", i, got[i].Ply, got[i].Reason, w.ply, w.reason)
		}
		if got[i].Rank != i+1 {
			t.Errorf("moment %d rank = %d, want %d", i, got[i].Rank, i+1)
		}
	}
}

func TestSelectKeyMomentsUnique(t *testing.T) {
	plies := []PlyRecord{
		{Ply: 1, Tag: TagBlunder, Swing: -900},
		{Ply: 2, Tag: TagBest, Swing: 0},
	}
	got := SelectKeyMoments(plies, 10, 5)
	if len(got) != 1 {
		t.Fatalf("got %d moments, want 1: %+v", len(got), got)
	}
	if got[0].Reason != ReasonBlunder {
		t.Errorf("reason = %s, want %s", got[0].Reason, ReasonBlunder)
	}
}

func TestSelectKeyMomentsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		plies []PlyRecord
		limit int
	}{
		{"no plies", nil, 10},
		{"zero limit", []PlyRecord{{Ply: 1, Tag: TagBlunder, Swing: 500}}, 0},
		{"quiet game", []PlyRecord{{Ply: 1, Tag: TagBest}, {Ply: 2, Tag: TagBest}}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectKeyMoments(tt.plies, tt.limit, 5)
			if got == nil {
				t.Fatal("SelectKeyMoments returned nil, want empty slice")
			}
			if len(got) != 0 {
				t.Errorf("got %d moments, want 0", len(got))
			}
		})
	}
}
