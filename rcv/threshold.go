package rcv

import "github.com/shopspring/decimal"

// computeThreshold implements ThresholdPolicy (spec §4.3.3): the winning
// threshold as a function of the sum of continuing tallies, the number of
// winners still sought, and the Droop/Hare and integer/non-integer
// switches in Config.
func computeThreshold(arith DecimalArith, tallies map[CandidateID]decimal.Decimal, numberOfWinners int, hareQuota bool, nonInteger bool) decimal.Decimal {
	v := decimal.Zero
	for _, t := range tallies {
		v = v.Add(t)
	}

	d := numberOfWinners + 1
	if hareQuota {
		d = numberOfWinners
	}
	if d <= 0 {
		d = 1
	}
	divisor := decimal.NewFromInt(int64(d))

	if nonInteger {
		// floor(V/D) at the configured scale, plus the smallest representable
		// unit at that scale.
		floor := v.DivRound(divisor, int32(arith.Scale())+divGuardDigits).Truncate(int32(arith.Scale()))
		return floor.Add(arith.SmallestUnit())
	}

	// integer floor(V/D) + 1
	floor := v.DivRound(divisor, divGuardDigits).Truncate(0)
	return floor.Add(decimal.NewFromInt(1))
}
