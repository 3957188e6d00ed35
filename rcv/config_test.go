package rcv_test

import (
	"testing"

	"github.com/civictab/rcvtab/rcv"
	"github.com/shopspring/decimal"
)

func baseConfig() rcv.Config {
	return rcv.Config{
		NumberOfWinners:                1,
		WinnerElectionMode:             rcv.SingleWinner,
		OvervoteRule:                   rcv.ExhaustImmediately,
		TiebreakMode:                   rcv.TiebreakRandom,
		MaxRankingsAllowed:             rcv.MaxRankings{Unlimited: true},
		MaxSkippedRanksAllowed:         rcv.MaxSkippedRanks{Unlimited: true},
		DecimalPlacesForVoteArithmetic: 4,
		Candidates:                     []rcv.CandidateID{"alice", "bob", "carol"},
	}
}

func TestConfigValidate(t *testing.T) {
	for _, tt := range []struct {
		name    string
		mutate  func(c *rcv.Config)
		wantErr bool
	}{
		{name: "valid base config", mutate: func(c *rcv.Config) {}},
		{
			name:    "negative numberOfWinners",
			mutate:  func(c *rcv.Config) { c.NumberOfWinners = -1 },
			wantErr: true,
		},
		{
			name:    "unknown winnerElectionMode",
			mutate:  func(c *rcv.Config) { c.WinnerElectionMode = "bogus" },
			wantErr: true,
		},
		{
			name: "singleWinner requires numberOfWinners 1",
			mutate: func(c *rcv.Config) {
				c.WinnerElectionMode = rcv.SingleWinner
				c.NumberOfWinners = 2
			},
			wantErr: true,
		},
		{
			name: "bottoms-up threshold requires percentage in (0,1]",
			mutate: func(c *rcv.Config) {
				c.WinnerElectionMode = rcv.MultiSeatBottomsUpThreshold
				c.NumberOfWinners = 0
				c.MultiSeatBottomsUpPercentageThreshold = decimal.Zero
			},
			wantErr: true,
		},
		{
			name: "bottoms-up threshold valid percentage",
			mutate: func(c *rcv.Config) {
				c.WinnerElectionMode = rcv.MultiSeatBottomsUpThreshold
				c.NumberOfWinners = 0
				c.MultiSeatBottomsUpPercentageThreshold = decimal.RequireFromString("0.15")
			},
		},
		{
			name:    "unknown overvoteRule",
			mutate:  func(c *rcv.Config) { c.OvervoteRule = "bogus" },
			wantErr: true,
		},
		{
			name: "usePermutationInConfig requires a permutation",
			mutate: func(c *rcv.Config) {
				c.TiebreakMode = rcv.TiebreakUsePermutationInConfig
				c.CandidatePermutation = nil
			},
			wantErr: true,
		},
		{
			name:    "decimal scale out of range",
			mutate:  func(c *rcv.Config) { c.DecimalPlacesForVoteArithmetic = 0 },
			wantErr: true,
		},
		{
			name:    "negative minimumVoteThreshold",
			mutate:  func(c *rcv.Config) { c.MinimumVoteThreshold = decimal.NewFromInt(-1) },
			wantErr: true,
		},
		{
			name:    "empty candidates",
			mutate:  func(c *rcv.Config) { c.Candidates = nil },
			wantErr: true,
		},
		{
			name:    "duplicate candidates",
			mutate:  func(c *rcv.Config) { c.Candidates = []rcv.CandidateID{"alice", "alice"} },
			wantErr: true,
		},
		{
			name: "explicitOvervoteLabel incompatible with exhaustIfMultipleContinuing",
			mutate: func(c *rcv.Config) {
				c.OvervoteRule = rcv.ExhaustIfMultipleContinuing
				c.ExplicitOvervoteLabel = "overvote"
			},
			wantErr: true,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestMaxRankingsJSONRoundTrip(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxRankingsAllowed = rcv.MaxRankings{Value: 5}
	cfg.MaxSkippedRanksAllowed = rcv.MaxSkippedRanks{Value: 2}

	data, err := rcv.ConfigToJSON(cfg)
	if err != nil {
		t.Fatalf("ConfigToJSON: %v", err)
	}

	got, err := rcv.ConfigFromJSON(data)
	if err != nil {
		t.Fatalf("ConfigFromJSON: %v", err)
	}
	if got.MaxRankingsAllowed.Value != 5 || got.MaxRankingsAllowed.Unlimited {
		t.Errorf("maxRankingsAllowed round-trip = %+v", got.MaxRankingsAllowed)
	}
	if got.MaxSkippedRanksAllowed.Value != 2 || got.MaxSkippedRanksAllowed.Unlimited {
		t.Errorf("maxSkippedRanksAllowed round-trip = %+v", got.MaxSkippedRanksAllowed)
	}
}

func TestMaxRankingsJSONUnlimited(t *testing.T) {
	cfg := baseConfig()
	data, err := rcv.ConfigToJSON(cfg)
	if err != nil {
		t.Fatalf("ConfigToJSON: %v", err)
	}
	got, err := rcv.ConfigFromJSON(data)
	if err != nil {
		t.Fatalf("ConfigFromJSON: %v", err)
	}
	if !got.MaxRankingsAllowed.Unlimited || !got.MaxSkippedRanksAllowed.Unlimited {
		t.Errorf("expected unlimited to round-trip, got %+v / %+v", got.MaxRankingsAllowed, got.MaxSkippedRanksAllowed)
	}
}
