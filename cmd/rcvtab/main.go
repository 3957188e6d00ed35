// Command rcvtab runs a ranked-choice tabulation from a cast-vote record
// file and a config file, and prints the round-by-round result.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/civictab/rcvtab/internal/audit/postgres"
	"github.com/civictab/rcvtab/internal/log"
	"github.com/civictab/rcvtab/internal/tiebreak/redisqueue"
	"github.com/civictab/rcvtab/rcv"
)

var cli struct {
	Ballots string `arg:"" type:"existingfile" help:"path to a JSON cast-vote-record file (a {\"ballots\": [...]} object)"`
	Config  string `arg:"" type:"existingfile" help:"path to a JSON tabulation config file"`

	ContestID string        `help:"identifier to record this contest's audit trail under" default:"contest"`
	Postgres  string        `help:"postgres connection url to persist the audit trail to; audit persistence is skipped if empty"`
	Redis     string        `help:"redis address providing interactive tie-break resolution; random/permutation modes skip this"`
	RedisKey  string        `help:"redis list key the tie-break queue uses" default:"rcvtab:tiebreaks"`
	Timeout   time.Duration `help:"how long to wait for an interactive tie-break response" default:"2m"`
	Pretty    bool          `help:"render logs for a terminal instead of JSON" default:"false"`
}

type cvrFile struct {
	Ballots []rcv.Ballot `json:"ballots"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("rcvtab"),
		kong.Description("Ranked-choice voting tabulator"),
	)
	ctx.FatalIfErrorf(run())
}

func run() error {
	ballots, err := loadBallots(cli.Ballots)
	if err != nil {
		return fmt.Errorf("loading ballots: %w", err)
	}

	configData, err := os.ReadFile(cli.Config)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	cfg, err := rcv.ConfigFromJSON(configData)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(os.Stderr, cli.Pretty)
	observer := log.NewObserver(logger)

	var resolver rcv.InteractiveResolver
	if cli.Redis != "" {
		queue := redisqueue.New(cli.Redis, cli.RedisKey, cli.Timeout)
		defer queue.Close()
		resolver = queue.Resolve
	}

	background := context.Background()

	result, err := rcv.Tabulate(cfg, ballots, observer, resolver, nil)
	if err != nil {
		return fmt.Errorf("tabulating: %w", err)
	}

	if cli.Postgres != "" {
		if err := recordAudit(background, result); err != nil {
			return err
		}
	}

	return printResult(result)
}

func loadBallots(path string) ([]rcv.Ballot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cvr cvrFile
	if err := json.Unmarshal(data, &cvr); err != nil {
		return nil, err
	}
	return cvr.Ballots, nil
}

func recordAudit(ctx context.Context, result rcv.TabulationResult) error {
	store, err := postgres.New(ctx, cli.Postgres)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer store.Close()

	store.Wait(ctx, func(format string, a ...interface{}) { fmt.Fprintf(os.Stderr, format+"\n", a...) })
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating audit schema: %w", err)
	}
	if err := store.RecordResult(ctx, cli.ContestID, result); err != nil {
		return fmt.Errorf("recording audit trail: %w", err)
	}
	return nil
}

func printResult(result rcv.TabulationResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\nthreshold: %s\n", result.Threshold)
	for _, r := range result.Rounds {
		fmt.Fprintf(os.Stderr, "round %d:", r.Round)
		for _, w := range r.Winners {
			fmt.Fprintf(os.Stderr, " %s wins", w)
		}
		for _, e := range r.Eliminated {
			fmt.Fprintf(os.Stderr, " %s eliminated (%s)", e, r.EliminationReason[e])
		}
		fmt.Fprintln(os.Stderr)
	}
	if len(result.WinnerOrder) > 0 {
		fmt.Fprintf(os.Stderr, "winners, in order: %v\n", result.WinnerOrder)
	}
	return nil
}
