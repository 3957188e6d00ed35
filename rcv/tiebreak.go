package rcv

import (
	"math/rand/v2"
	"slices"

	"github.com/shopspring/decimal"
)

// TieBreakRequest is what the engine yields when it needs an interactive
// decision (spec §9, design note 4). The core stays single-threaded: the
// caller supplies a TieBreakResponse and the engine resumes from where it
// left off.
type TieBreakRequest struct {
	Round       int
	Candidates  []CandidateID
	ForWinner   bool // true when picking a winner among ties, false when picking a loser
	Explanation string
}

// TieBreakResponse answers a TieBreakRequest.
type TieBreakResponse struct {
	Chosen CandidateID
}

// InteractiveResolver supplies the human (or external collaborator)
// decision for TiebreakInteractive and TiebreakPreviousRoundCountsThenInteractive.
// When nil and the engine needs one, it returns ErrTieBreakInputRequired.
type InteractiveResolver func(TieBreakRequest) (TieBreakResponse, error)

// tieBreaker deterministically resolves a tie among candidates, per spec
// §4.5. The PRNG and permutation are prepared once at construction from
// Config; the round history is passed to each resolve call.
type tieBreaker struct {
	mode        TiebreakMode
	rng         *rand.Rand
	permutation []CandidateID
	interactive InteractiveResolver
}

func newTieBreaker(cfg Config, interactive InteractiveResolver) *tieBreaker {
	tb := &tieBreaker{
		mode:        cfg.TiebreakMode,
		interactive: interactive,
	}

	if cfg.TiebreakMode == TiebreakRandom || cfg.TiebreakMode == TiebreakPreviousRoundCountsThenRandom ||
		cfg.TiebreakMode == TiebreakGeneratePermutation {
		seed := uint64(cfg.RandomSeed)
		tb.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	}

	switch cfg.TiebreakMode {
	case TiebreakUsePermutationInConfig:
		tb.permutation = append([]CandidateID(nil), cfg.CandidatePermutation...)
	case TiebreakGeneratePermutation:
		perm := append([]CandidateID(nil), cfg.Candidates...)
		tb.rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		tb.permutation = perm
	}

	return tb
}

// resolve picks one candidate out of tied, per spec §4.5. forWinner
// selects the symmetric winner-side rule (pick highest/first instead of
// lowest/last). roundTallies holds every completed round's tally map, round
// 1 at index 0, used by the previousRoundCounts* modes.
func (tb *tieBreaker) resolve(round int, tied []CandidateID, forWinner bool, roundTallies []map[CandidateID]decimal.Decimal) (CandidateID, string, error) {
	sorted := append([]CandidateID(nil), tied...)
	slices.Sort(sorted)

	switch tb.mode {
	case TiebreakRandom:
		return tb.resolveRandom(sorted)

	case TiebreakInteractive:
		return tb.resolveInteractive(round, sorted, forWinner)

	case TiebreakPreviousRoundCountsThenRandom:
		if chosen, explanation, ok := resolveByPriorRounds(sorted, forWinner, roundTallies); ok {
			return chosen, explanation, nil
		}
		return tb.resolveRandom(sorted)

	case TiebreakPreviousRoundCountsThenInteractive:
		if chosen, explanation, ok := resolveByPriorRounds(sorted, forWinner, roundTallies); ok {
			return chosen, explanation, nil
		}
		return tb.resolveInteractive(round, sorted, forWinner)

	case TiebreakUsePermutationInConfig, TiebreakGeneratePermutation:
		return tb.resolveByPermutation(sorted, forWinner)
	}

	return "", "", internalErrorf("unknown tiebreak mode %q", tb.mode)
}

func (tb *tieBreaker) resolveRandom(sorted []CandidateID) (CandidateID, string, error) {
	idx := tb.rng.IntN(len(sorted))
	return sorted[idx], "selected uniformly at random from the tied set", nil
}

func (tb *tieBreaker) resolveInteractive(round int, sorted []CandidateID, forWinner bool) (CandidateID, string, error) {
	if tb.interactive == nil {
		return "", "", MessageErrorf(ErrTieBreakInputRequired, "round %d: tie among %v requires interactive resolution", round, sorted)
	}
	resp, err := tb.interactive(TieBreakRequest{
		Round:      round,
		Candidates: sorted,
		ForWinner:  forWinner,
	})
	if err != nil {
		return "", "", err
	}
	return resp.Chosen, "selected interactively", nil
}

func (tb *tieBreaker) resolveByPermutation(sorted []CandidateID, forWinner bool) (CandidateID, string, error) {
	best := -1
	bestPos := -1
	for _, c := range sorted {
		pos := slices.Index(tb.permutation, c)
		if pos < 0 {
			continue
		}
		if best == -1 {
			best, bestPos = 0, pos
			continue
		}
		if forWinner {
			if pos < bestPos {
				bestPos = pos
			}
		} else {
			if pos > bestPos {
				bestPos = pos
			}
		}
	}

	for _, c := range sorted {
		if slices.Index(tb.permutation, c) == bestPos {
			return c, "selected by configured candidate permutation", nil
		}
	}
	return sorted[0], "permutation did not cover the tied set; fell back to lexicographic first", nil
}

// resolveByPriorRounds implements the previousRoundCountsThenX fallback
// chain (spec §4.5): walk rounds r-1, r-2, ... 1 restricted to the tied
// set; whoever is strictly lowest (or, for forWinner, strictly highest) at
// the earliest round where they differ is decided. Returns ok=false if no
// round ever separates them.
func resolveByPriorRounds(sorted []CandidateID, forWinner bool, roundTallies []map[CandidateID]decimal.Decimal) (CandidateID, string, bool) {
	for r := len(roundTallies) - 1; r >= 0; r-- {
		tally := roundTallies[r]
		var extreme decimal.Decimal
		var chosen CandidateID
		found := false
		tie := false

		for _, c := range sorted {
			v, ok := tally[c]
			if !ok {
				continue
			}
			if !found {
				extreme, chosen, found, tie = v, c, true, false
				continue
			}
			cmp := v.Cmp(extreme)
			isMoreExtreme := (forWinner && cmp > 0) || (!forWinner && cmp < 0)
			if isMoreExtreme {
				extreme, chosen = v, c
				tie = false
			} else if cmp == 0 {
				tie = true
			}
		}

		if found && !tie {
			return chosen, "separated by prior round tally", true
		}
	}
	return "", "", false
}
