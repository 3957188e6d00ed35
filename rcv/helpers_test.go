package rcv_test

import (
	"github.com/civictab/rcvtab/rcv"
	"github.com/shopspring/decimal"
)

func rankSet(candidates ...rcv.CandidateID) rcv.RankSet {
	s := make(rcv.RankSet, len(candidates))
	for _, c := range candidates {
		s[c] = struct{}{}
	}
	return s
}

// plainBallot builds a ballot from an ordered list of single-candidate
// ranks, ranks starting at 1.
func plainBallot(precinct string, candidates ...rcv.CandidateID) rcv.Ballot {
	ranks := make(map[int]rcv.RankSet, len(candidates))
	for i, c := range candidates {
		ranks[i+1] = rankSet(c)
	}
	return rcv.Ballot{Ranks: ranks, Precinct: precinct, MaxRank: len(candidates)}
}

func repeat(b rcv.Ballot, n int) []rcv.Ballot {
	out := make([]rcv.Ballot, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func numericConfig(candidates []rcv.CandidateID, numberOfWinners int, mode rcv.WinnerElectionMode) rcv.Config {
	return rcv.Config{
		NumberOfWinners:                numberOfWinners,
		WinnerElectionMode:             mode,
		OvervoteRule:                   rcv.ExhaustIfMultipleContinuing,
		TiebreakMode:                   rcv.TiebreakRandom,
		RandomSeed:                     1,
		MaxRankingsAllowed:             rcv.MaxRankings{Unlimited: true},
		MaxSkippedRanksAllowed:         rcv.MaxSkippedRanks{Unlimited: true},
		DecimalPlacesForVoteArithmetic: 4,
		Candidates:                     candidates,
	}
}

// conservationHolds checks universal invariant 1 (spec §8): for every
// round, tallies + residual + exhausted value sums to the ballot count.
func conservationHolds(t interface{ Fatalf(string, ...any) }, result rcv.TabulationResult, totalBallots int) {
	for _, r := range result.Rounds {
		sum := decimal.Zero
		for _, v := range r.Tallies {
			sum = sum.Add(v)
		}
		sum = sum.Add(r.ResidualSurplus)
		for _, o := range r.BallotOutcomes {
			if o.Exhausted {
				sum = sum.Add(o.FractionalValue)
			}
		}
		want := decimal.NewFromInt(int64(totalBallots))
		if !sum.Equal(want) {
			t.Fatalf("round %d: conservation violated: tallies+residual+exhausted = %s, want %s", r.Round, sum, want)
		}
	}
}
