package rcv

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CandidateID is an opaque identifier drawn from the finite set a Config
// declares. Two values are reserved: Config.UndeclaredWriteInLabel (UWI)
// and Config.ExplicitOvervoteLabel.
type CandidateID string

// WinnerElectionMode selects which of the five stopping/threshold regimes
// spec §4.3 describes governs a contest.
type WinnerElectionMode string

const (
	SingleWinner                    WinnerElectionMode = "singleWinner"
	MultiSeatAllowOnlyOnePerRound    WinnerElectionMode = "multiSeatAllowOnlyOnePerRound"
	MultiSeatAllowMultiplePerRound   WinnerElectionMode = "multiSeatAllowMultiplePerRound"
	MultiSeatBottomsUpUntilN         WinnerElectionMode = "multiSeatBottomsUpUntilN"
	MultiSeatBottomsUpThreshold      WinnerElectionMode = "multiSeatBottomsUpThreshold"
	MultiSeatSequentialWinnerTakesAll WinnerElectionMode = "multiSeatSequentialWinnerTakesAll"
)

// OvervoteRule selects how BallotInterpreter treats a rank with more than
// one mark (spec §4.2.1).
type OvervoteRule string

const (
	ExhaustImmediately          OvervoteRule = "exhaustImmediately"
	AlwaysSkipToNextRank        OvervoteRule = "alwaysSkipToNextRank"
	ExhaustIfMultipleContinuing OvervoteRule = "exhaustIfMultipleContinuing"
)

// TiebreakMode selects a TieBreaker strategy (spec §4.5).
type TiebreakMode string

const (
	TiebreakRandom                        TiebreakMode = "random"
	TiebreakInteractive                    TiebreakMode = "interactive"
	TiebreakPreviousRoundCountsThenRandom  TiebreakMode = "previousRoundCountsThenRandom"
	TiebreakPreviousRoundCountsThenInteractive TiebreakMode = "previousRoundCountsThenInteractive"
	TiebreakUsePermutationInConfig         TiebreakMode = "usePermutationInConfig"
	TiebreakGeneratePermutation            TiebreakMode = "generatePermutation"
)

// MaxRankings represents the configured cap on how many ranks a ballot may
// use, or "no cap" (spec §6: "positive integer or 'max'").
type MaxRankings struct {
	Unlimited bool
	Value     int
}

// MarshalJSON renders Unlimited as the literal string "max".
func (m MaxRankings) MarshalJSON() ([]byte, error) {
	if m.Unlimited {
		return json.Marshal("max")
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts either the string "max" or a positive integer.
func (m *MaxRankings) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "max" {
			return fmt.Errorf("maxRankingsAllowed: unknown string %q, want \"max\"", s)
		}
		m.Unlimited = true
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("maxRankingsAllowed: %w", err)
	}
	m.Value = n
	m.Unlimited = false
	return nil
}

// MaxSkippedRanks represents the configured tolerance for skipped ranks,
// or "unlimited" (spec §6).
type MaxSkippedRanks struct {
	Unlimited bool
	Value     int
}

func (m MaxSkippedRanks) MarshalJSON() ([]byte, error) {
	if m.Unlimited {
		return json.Marshal("unlimited")
	}
	return json.Marshal(m.Value)
}

func (m *MaxSkippedRanks) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "unlimited" {
			return fmt.Errorf("maxSkippedRanksAllowed: unknown string %q, want \"unlimited\"", s)
		}
		m.Unlimited = true
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("maxSkippedRanksAllowed: %w", err)
	}
	m.Value = n
	m.Unlimited = false
	return nil
}

// Config enumerates every recognized tabulation option (spec §6).
type Config struct {
	NumberOfWinners                       int                `json:"numberOfWinners"`
	WinnerElectionMode                    WinnerElectionMode `json:"winnerElectionMode"`
	MultiSeatBottomsUpPercentageThreshold decimal.Decimal    `json:"multiSeatBottomsUpPercentageThreshold,omitempty"`
	OvervoteRule                          OvervoteRule       `json:"overvoteRule"`
	TiebreakMode                          TiebreakMode       `json:"tiebreakMode"`
	RandomSeed                            int64              `json:"randomSeed,omitempty"`
	CandidatePermutation                  []CandidateID      `json:"candidatePermutation,omitempty"`
	MaxRankingsAllowed                    MaxRankings        `json:"maxRankingsAllowed"`
	MaxSkippedRanksAllowed                MaxSkippedRanks    `json:"maxSkippedRanksAllowed"`
	MinimumVoteThreshold                  decimal.Decimal    `json:"minimumVoteThreshold"`
	DecimalPlacesForVoteArithmetic        int                `json:"decimalPlacesForVoteArithmetic"`
	BatchElimination                      bool               `json:"batchElimination"`
	ContinueUntilTwoCandidatesRemain      bool               `json:"continueUntilTwoCandidatesRemain"`
	ExhaustOnDuplicateCandidate           bool               `json:"exhaustOnDuplicateCandidate"`
	NonIntegerWinningThreshold            bool               `json:"nonIntegerWinningThreshold"`
	HareQuota                             bool               `json:"hareQuota"`
	TabulateByPrecinct                    bool               `json:"tabulateByPrecinct"`
	ExplicitOvervoteLabel                 CandidateID        `json:"explicitOvervoteLabel"`
	UndeclaredWriteInLabel                CandidateID        `json:"undeclaredWriteInLabel"`
	Candidates                            []CandidateID      `json:"candidates"`
	ExcludedCandidates                    []CandidateID      `json:"excludedCandidates,omitempty"`
}

// ConfigToJSON encodes a Config, rendering MaxRankingsAllowed and
// MaxSkippedRanksAllowed through their custom marshalers.
func ConfigToJSON(cfg Config) ([]byte, error) {
	return json.Marshal(cfg)
}

// ConfigFromJSON decodes and validates a Config in one step.
func ConfigFromJSON(data []byte) (Config, error) {
	var cfg Config
	if cfg.ExplicitOvervoteLabel == "" {
		cfg.ExplicitOvervoteLabel = "overvote"
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, configErrorf("decoding config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every cross-field constraint spec §6 implies. It returns
// an ErrConfigInvalid-wrapped error describing the first problem found.
func (c Config) Validate() error {
	if c.NumberOfWinners < 0 {
		return configErrorf("numberOfWinners must be >= 0, got %d", c.NumberOfWinners)
	}

	switch c.WinnerElectionMode {
	case SingleWinner, MultiSeatAllowOnlyOnePerRound, MultiSeatAllowMultiplePerRound,
		MultiSeatBottomsUpUntilN, MultiSeatBottomsUpThreshold, MultiSeatSequentialWinnerTakesAll:
	default:
		return configErrorf("unknown winnerElectionMode %q", c.WinnerElectionMode)
	}

	if c.WinnerElectionMode == SingleWinner && c.NumberOfWinners != 1 {
		return configErrorf("singleWinner mode requires numberOfWinners == 1, got %d", c.NumberOfWinners)
	}

	if c.WinnerElectionMode == MultiSeatBottomsUpThreshold {
		if c.MultiSeatBottomsUpPercentageThreshold.LessThanOrEqual(decimal.Zero) ||
			c.MultiSeatBottomsUpPercentageThreshold.GreaterThan(decimal.NewFromInt(1)) {
			return configErrorf("multiSeatBottomsUpPercentageThreshold must be in (0,1] for %s", c.WinnerElectionMode)
		}
	}

	switch c.OvervoteRule {
	case ExhaustImmediately, AlwaysSkipToNextRank, ExhaustIfMultipleContinuing:
	default:
		return configErrorf("unknown overvoteRule %q", c.OvervoteRule)
	}

	switch c.TiebreakMode {
	case TiebreakRandom, TiebreakInteractive, TiebreakPreviousRoundCountsThenRandom,
		TiebreakPreviousRoundCountsThenInteractive, TiebreakUsePermutationInConfig, TiebreakGeneratePermutation:
	default:
		return configErrorf("unknown tiebreakMode %q", c.TiebreakMode)
	}

	if c.TiebreakMode == TiebreakUsePermutationInConfig && len(c.CandidatePermutation) == 0 {
		return configErrorf("tiebreakMode %s requires a non-empty candidatePermutation", c.TiebreakMode)
	}

	if c.DecimalPlacesForVoteArithmetic < 1 || c.DecimalPlacesForVoteArithmetic > 20 {
		return configErrorf("decimalPlacesForVoteArithmetic must be in [1,20], got %d", c.DecimalPlacesForVoteArithmetic)
	}

	if c.MinimumVoteThreshold.IsNegative() {
		return configErrorf("minimumVoteThreshold must be >= 0")
	}

	if !c.MaxRankingsAllowed.Unlimited && c.MaxRankingsAllowed.Value < 1 {
		return configErrorf("maxRankingsAllowed must be positive or \"max\", got %d", c.MaxRankingsAllowed.Value)
	}

	if !c.MaxSkippedRanksAllowed.Unlimited && c.MaxSkippedRanksAllowed.Value < 0 {
		return configErrorf("maxSkippedRanksAllowed must be >= 0 or \"unlimited\", got %d", c.MaxSkippedRanksAllowed.Value)
	}

	if len(c.Candidates) == 0 {
		return configErrorf("candidates must not be empty")
	}

	if hasDuplicateCandidates(c.Candidates) {
		return configErrorf("candidates must not contain duplicates")
	}

	if c.ExplicitOvervoteLabel != "" {
		switch c.OvervoteRule {
		case ExhaustImmediately, AlwaysSkipToNextRank:
		default:
			return configErrorf("explicitOvervoteLabel may only be used with overvoteRule exhaustImmediately or alwaysSkipToNextRank, got %s", c.OvervoteRule)
		}
	}

	return nil
}

func hasDuplicateCandidates(ids []CandidateID) bool {
	seen := make(map[CandidateID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
