package rcv

import (
	"testing"

	"github.com/shopspring/decimal"
)

func toDecimals(m map[CandidateID]string) map[CandidateID]decimal.Decimal {
	out := make(map[CandidateID]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = d(v)
	}
	return out
}

func TestComputeThreshold(t *testing.T) {
	arith := NewDecimalArith(4)

	for _, tt := range []struct {
		name            string
		tallies         map[CandidateID]string
		numberOfWinners int
		hareQuota       bool
		nonInteger      bool
		want            string
	}{
		{
			// S1: 5+3+2=10 ballots, N=1 -> D=2 -> floor(10/2)+1 = 6.
			name:            "S1 single-winner threshold",
			tallies:         map[CandidateID]string{"A": "5", "B": "3", "C": "2"},
			numberOfWinners: 1,
			want:            "6",
		},
		{
			// S5: 100 ballots, N=2 -> D=3 -> floor(100/3)+1 = 34.
			name:            "S5 multi-seat threshold",
			tallies:         map[CandidateID]string{"A": "60", "B": "34", "C": "6"},
			numberOfWinners: 2,
			want:            "34",
		},
		{
			name:            "hare quota uses D=N",
			tallies:         map[CandidateID]string{"A": "10", "B": "10"},
			numberOfWinners: 2,
			hareQuota:       true,
			want:            "11",
		},
		{
			name:            "non-integer threshold adds smallest unit at scale",
			tallies:         map[CandidateID]string{"A": "10", "B": "10"},
			numberOfWinners: 1,
			nonInteger:      true,
			want:            "10.0001",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := computeThreshold(arith, toDecimals(tt.tallies), tt.numberOfWinners, tt.hareQuota, tt.nonInteger)
			want := d(tt.want)
			if !got.Equal(want) {
				t.Fatalf("computeThreshold(...) = %s, want %s", got, want)
			}
		})
	}
}
