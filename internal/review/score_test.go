package review

import (
	"encoding/json"
	"testing"
)

func TestEvaluationScoreOrdering(t *testing.T) {
	// Ascending order, worst for the side to move first.
	ordered := []Evaluation{
		MateIn(0),
		MateIn(-1),
		MateIn(-5),
		Centipawns(-60000),
		Centipawns(-300),
		Centipawns(0),
		Centipawns(45),
		Centipawns(60000),
		MateIn(12),
		MateIn(5),
		MateIn(1),
	}
	for i := 1; i < len(ordered); i++ {
		lo, hi := ordered[i-1], ordered[i]
		if lo.Score() > hi.Score() {
			t.Errorf("Score(%s) = %d > Score(%s) = %d", lo, lo.Score(), hi, hi.Score())
		}
	}

	// Every mate outranks every finite value.
	if MateIn(MaxMateMoves+50).Score() <= Centipawns(1<<30).Score() {
		t.Errorf("long mate does not outrank clamped finite score")
	}
	if MateIn(-(MaxMateMoves + 50)).Score() >= Centipawns(-(1 << 30)).Score() {
		t.Errorf("long mated score does not sit below clamped finite score")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		eval   Evaluation
		toMove Side
		want   NormalizedScore
	}{
		{"white cp", Centipawns(120), White, 120},
		{"black cp", Centipawns(120), Black, -120},
		{"white mates", MateIn(2), White, MateScore - 2},
		{"black mates", MateIn(2), Black, -(MateScore - 2)},
		{"black mated", MateIn(-3), Black, MateScore - 3},
		{"white checkmated", MateIn(0), White, -MateScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.eval, tt.toMove); got != tt.want {
				t.Errorf("Normalize(%s, %s) = %d, want %d", tt.eval, tt.toMove, got, tt.want)
			}
		})
	}
}

func TestEvaluationNegate(t *testing.T) {
	if got := MateIn(3).Negate(); got != MateIn(-3) {
		t.Errorf("MateIn(3).Negate() = %s, want #-3", got)
	}
	if got := Centipawns(-75).Negate(); got != Centipawns(75) {
		t.Errorf("Centipawns(-75).Negate() = %s, want +0.75", got)
	}
	n, ok := MateIn(0).Negate().MatingIn()
	if !ok || n != 0 {
		t.Errorf("checkmated position negated = (%d, %v), want mate delivered (0, true)", n, ok)
	}
}

func TestEvaluationString(t *testing.T) {
	tests := map[string]Evaluation{
		"+1.25": Centipawns(125),
		"-0.50": Centipawns(-50),
		"+0.05": Centipawns(5),
		"#3":    MateIn(3),
		"#-5":   MateIn(-5),
	}
	for want, e := range tests {
		if got := e.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestEvaluationJSON(t *testing.T) {
	for _, e := range []Evaluation{Centipawns(-40), MateIn(4), MateIn(0)} {
		data, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", e, err)
		}
		var got Evaluation
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if got != e {
			t.Errorf("JSON %s decoded to %s, want %s", data, got, e)
		}
	}

	var e Evaluation
	if err := json.Unmarshal([]byte(`{}`), &e); err == nil {
		t.Error("expected error for evaluation without cp or mate")
	}
}
