// Package postgres persists a tabulation's round-by-round audit trail so it
// can be inspected or replayed after the process that ran it exits.
package postgres

import (
	_ "embed" // needed for schema.sql embedding
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/civictab/rcvtab/rcv"
)

//go:embed schema.sql
var schema string

// Store holds the connection pool. Must be built with New.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a connection pool. The pool connects lazily; call Wait before
// relying on it.
func New(ctx context.Context, url string) (*Store, error) {
	conf, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid connection url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Wait blocks until a connection to postgres can be established or ctx is
// done. log may be nil.
func (s *Store) Wait(ctx context.Context, log func(format string, a ...interface{})) {
	for ctx.Err() == nil {
		if err := s.pool.Ping(ctx); err == nil {
			return
		} else if log != nil {
			log("waiting for postgres: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// Migrate creates the audit schema if it does not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close closes every pooled connection. It blocks until they are all closed.
func (s *Store) Close() {
	s.pool.Close()
}

// RecordResult writes every round of result under contestID, replacing any
// prior rows for that contest.
func (s *Store) RecordResult(ctx context.Context, contestID string, result rcv.TabulationResult) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM contests WHERE contest_id = $1`, contestID); err != nil {
			return fmt.Errorf("clearing prior contest rows: %w", err)
		}

		winnerOrder := make([]string, len(result.WinnerOrder))
		for i, c := range result.WinnerOrder {
			winnerOrder[i] = string(c)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO contests (contest_id, threshold, winner_order) VALUES ($1, $2, $3)`,
			contestID, result.Threshold, winnerOrder,
		); err != nil {
			return fmt.Errorf("inserting contest row: %w", err)
		}

		for _, r := range result.Rounds {
			if err := recordRound(ctx, tx, contestID, r); err != nil {
				return fmt.Errorf("round %d: %w", r.Round, err)
			}
		}
		return nil
	})
}

func recordRound(ctx context.Context, tx pgx.Tx, contestID string, r rcv.RoundRecord) error {
	if _, err := tx.Exec(ctx,
		`INSERT INTO rounds (contest_id, round, residual_surplus) VALUES ($1, $2, $3)`,
		contestID, r.Round, r.ResidualSurplus,
	); err != nil {
		return fmt.Errorf("inserting round: %w", err)
	}

	for candidate, tally := range r.Tallies {
		if _, err := tx.Exec(ctx,
			`INSERT INTO round_tallies (contest_id, round, candidate, tally) VALUES ($1, $2, $3, $4)`,
			contestID, r.Round, string(candidate), tally,
		); err != nil {
			return fmt.Errorf("inserting tally for %s: %w", candidate, err)
		}
	}

	for _, c := range r.Winners {
		if _, err := tx.Exec(ctx,
			`INSERT INTO round_outcomes (contest_id, round, candidate, outcome) VALUES ($1, $2, $3, 'winner')`,
			contestID, r.Round, string(c),
		); err != nil {
			return fmt.Errorf("inserting winner outcome for %s: %w", c, err)
		}
	}
	for _, c := range r.Eliminated {
		if _, err := tx.Exec(ctx,
			`INSERT INTO round_outcomes (contest_id, round, candidate, outcome, reason) VALUES ($1, $2, $3, 'eliminated', $4)`,
			contestID, r.Round, string(c), r.EliminationReason[c],
		); err != nil {
			return fmt.Errorf("inserting elimination outcome for %s: %w", c, err)
		}
	}

	for key, votes := range r.Transfers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO round_transfers (contest_id, round, from_candidate, from_initial, to_candidate, votes)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			contestID, r.Round, nullableCandidate(key.From, key.FromInitial), key.FromInitial, string(key.To), votes,
		); err != nil {
			return fmt.Errorf("inserting transfer into %s: %w", key.To, err)
		}
	}

	return nil
}

// ContestSummary is the subset of a recorded contest read back by
// FetchSummary: the final threshold and winner order, without re-reading
// every round's detail.
type ContestSummary struct {
	Threshold   decimal.Decimal
	WinnerOrder []rcv.CandidateID
}

// FetchSummary reads back the threshold and winner order recorded for
// contestID.
func (s *Store) FetchSummary(ctx context.Context, contestID string) (ContestSummary, error) {
	var threshold decimal.Decimal
	var winnerOrder []string
	err := s.pool.QueryRow(ctx,
		`SELECT threshold, winner_order FROM contests WHERE contest_id = $1`, contestID,
	).Scan(&threshold, &winnerOrder)
	if err != nil {
		return ContestSummary{}, fmt.Errorf("fetching contest %s: %w", contestID, err)
	}

	ids := make([]rcv.CandidateID, len(winnerOrder))
	for i, w := range winnerOrder {
		ids[i] = rcv.CandidateID(w)
	}
	return ContestSummary{Threshold: threshold, WinnerOrder: ids}, nil
}

func nullableCandidate(c rcv.CandidateID, fromInitial bool) *string {
	if fromInitial {
		return nil
	}
	s := string(c)
	return &s
}
