package rcv

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestSelectBatchEliminations(t *testing.T) {
	for _, tt := range []struct {
		name     string
		tallies  map[CandidateID]decimal.Decimal
		wantElim map[CandidateID]bool
	}{
		{
			// S4: A=100, B=1, C=2, D=3. Running sum at D is 1+2+3=6 < 100 (A,
			// the next-highest untouched tally), so B, C, D batch-eliminate
			// together.
			name: "S4 batch elimination",
			tallies: map[CandidateID]decimal.Decimal{
				"A": d("100"), "B": d("1"), "C": d("2"), "D": d("3"),
			},
			wantElim: map[CandidateID]bool{"B": true, "C": true, "D": true},
		},
		{
			name: "no batch possible",
			tallies: map[CandidateID]decimal.Decimal{
				"A": d("10"), "B": d("9"), "C": d("8"),
			},
			wantElim: map[CandidateID]bool{},
		},
		{
			name: "degenerate single-candidate batch is suppressed",
			tallies: map[CandidateID]decimal.Decimal{
				"A": d("100"), "B": d("1"),
			},
			wantElim: map[CandidateID]bool{},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := selectBatchEliminations(tt.tallies)
			gotSet := map[CandidateID]bool{}
			for _, e := range got {
				gotSet[e.Candidate] = true
			}
			if len(gotSet) != len(tt.wantElim) {
				t.Fatalf("selectBatchEliminations(%v) = %v, want %v", tt.tallies, gotSet, tt.wantElim)
			}
			for c := range tt.wantElim {
				if !gotSet[c] {
					t.Errorf("expected %s to be batch-eliminated, got %v", c, gotSet)
				}
			}
		})
	}
}
