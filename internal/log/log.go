// Package log adapts rcv.Observer onto zerolog, so a tabulation run emits
// one structured log line per engine event instead of the engine doing any
// formatting of its own.
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/civictab/rcvtab/rcv"
)

// New builds a zerolog.Logger writing to w in the teacher's console-writer
// style when pretty is true, or newline-delimited JSON otherwise.
func New(w io.Writer, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Observer logs every rcv.Observer event at a level appropriate to its
// significance: round/tally bookkeeping at debug, elimination/win/tie-break
// decisions at info.
type Observer struct {
	logger zerolog.Logger
}

// NewObserver wraps logger as an rcv.Observer.
func NewObserver(logger zerolog.Logger) Observer {
	return Observer{logger: logger}
}

var _ rcv.Observer = Observer{}

func (o Observer) RoundStarted(round int) {
	o.logger.Debug().Int("round", round).Msg("round started")
}

func (o Observer) RoundTally(round int, tallies map[rcv.CandidateID]decimal.Decimal) {
	event := o.logger.Debug().Int("round", round)
	for c, v := range tallies {
		event = event.Str("tally_"+string(c), v.String())
	}
	event.Msg("round tally")
}

func (o Observer) ThresholdSet(round int, threshold decimal.Decimal) {
	o.logger.Info().Int("round", round).Str("threshold", threshold.String()).Msg("threshold set")
}

func (o Observer) CandidateEliminated(round int, candidate rcv.CandidateID, reason string) {
	o.logger.Info().Int("round", round).Str("candidate", string(candidate)).Str("reason", reason).Msg("candidate eliminated")
}

func (o Observer) CandidateWon(round int, candidate rcv.CandidateID) {
	o.logger.Info().Int("round", round).Str("candidate", string(candidate)).Msg("candidate won")
}

func (o Observer) SurplusTransferred(round int, from rcv.CandidateID, surplusFraction decimal.Decimal) {
	o.logger.Info().Int("round", round).Str("from", string(from)).Str("surplus_fraction", surplusFraction.String()).Msg("surplus transferred")
}

func (o Observer) BallotExhausted(round int, ballot int, reason string) {
	o.logger.Debug().Int("round", round).Int("ballot", ballot).Str("reason", reason).Msg("ballot exhausted")
}

func (o Observer) TieBreakResolved(round int, tied []rcv.CandidateID, chosen rcv.CandidateID, explanation string) {
	ids := make([]string, len(tied))
	for i, c := range tied {
		ids[i] = string(c)
	}
	o.logger.Info().Int("round", round).Strs("tied", ids).Str("chosen", string(chosen)).Str("explanation", explanation).Msg("tie broken")
}
