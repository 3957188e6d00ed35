package rcv

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolveByPriorRounds(t *testing.T) {
	// S6: two candidates tied in round 3 at 10 votes each; in round 2 they
	// had 9 and 11 respectively. The round-2-lower (9) loses.
	history := []map[CandidateID]decimal.Decimal{
		{"A": d("8"), "B": d("8")},   // round 1
		{"A": d("9"), "B": d("11")},  // round 2
	}

	chosen, _, ok := resolveByPriorRounds([]CandidateID{"A", "B"}, false, history)
	if !ok {
		t.Fatalf("resolveByPriorRounds: expected a decision")
	}
	if chosen != "A" {
		t.Errorf("resolveByPriorRounds loser = %s, want A (lower round-2 count)", chosen)
	}

	chosenWinner, _, ok := resolveByPriorRounds([]CandidateID{"A", "B"}, true, history)
	if !ok {
		t.Fatalf("resolveByPriorRounds: expected a decision")
	}
	if chosenWinner != "B" {
		t.Errorf("resolveByPriorRounds winner = %s, want B (higher round-2 count)", chosenWinner)
	}
}

func TestResolveByPriorRoundsNeverSeparates(t *testing.T) {
	history := []map[CandidateID]decimal.Decimal{
		{"A": d("8"), "B": d("8")},
	}
	_, _, ok := resolveByPriorRounds([]CandidateID{"A", "B"}, false, history)
	if ok {
		t.Fatalf("resolveByPriorRounds: expected no decision when every prior round ties")
	}
}

func TestTieBreakerDeterministicByPermutation(t *testing.T) {
	cfg := baseConfigInternal()
	cfg.TiebreakMode = TiebreakUsePermutationInConfig
	cfg.CandidatePermutation = []CandidateID{"C", "A", "B"}

	tb := newTieBreaker(cfg, nil)

	loser, _, err := tb.resolve(1, []CandidateID{"A", "B"}, false, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// last in the permutation among {A,B} is B
	if loser != "B" {
		t.Errorf("permutation loser = %s, want B", loser)
	}

	winner, _, err := tb.resolve(1, []CandidateID{"A", "B"}, true, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if winner != "A" {
		t.Errorf("permutation winner = %s, want A", winner)
	}
}

func TestTieBreakerRandomIsSeedDeterministic(t *testing.T) {
	cfg := baseConfigInternal()
	cfg.TiebreakMode = TiebreakRandom
	cfg.RandomSeed = 42

	tied := []CandidateID{"A", "B", "C", "D"}

	first, _, err := newTieBreaker(cfg, nil).resolve(1, tied, false, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, _, err := newTieBreaker(cfg, nil).resolve(1, tied, false, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first != second {
		t.Errorf("same seed produced different outcomes: %s vs %s", first, second)
	}
}

func baseConfigInternal() Config {
	return Config{
		NumberOfWinners:                1,
		WinnerElectionMode:             SingleWinner,
		OvervoteRule:                   ExhaustImmediately,
		TiebreakMode:                   TiebreakRandom,
		MaxRankingsAllowed:             MaxRankings{Unlimited: true},
		MaxSkippedRanksAllowed:         MaxSkippedRanks{Unlimited: true},
		DecimalPlacesForVoteArithmetic: 4,
		Candidates:                     []CandidateID{"A", "B", "C", "D"},
	}
}
