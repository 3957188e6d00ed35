package rcv

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BatchEliminationEntry records one candidate's position within a batch
// elimination, for the audit trail (spec §4.4).
type BatchEliminationEntry struct {
	Candidate    CandidateID
	RunningTotal decimal.Decimal
	NextHighest  decimal.Decimal
}

// selectBatchEliminations implements BatchEliminator (spec §4.4): iterate
// tallies ascending, accumulating a running total; whenever the running
// total is still less than the next not-yet-accumulated tally, every
// candidate accumulated so far is batch-eliminated, because they cannot
// collectively reach that next tally even absorbing every vote below it.
// Iteration continues past a successful batch — a later accumulation in
// the same round may justify a further batch.
func selectBatchEliminations(tallies map[CandidateID]decimal.Decimal) []BatchEliminationEntry {
	type row struct {
		id    CandidateID
		tally decimal.Decimal
	}
	rows := make([]row, 0, len(tallies))
	for id, t := range tallies {
		rows = append(rows, row{id, t})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].tally.Cmp(rows[j].tally); c != 0 {
			return c < 0
		}
		return rows[i].id < rows[j].id
	})

	var result []BatchEliminationEntry
	running := decimal.Zero
	batchStart := 0

	for i := 0; i < len(rows); i++ {
		if i+1 >= len(rows) {
			break
		}
		running = running.Add(rows[i].tally)
		next := rows[i+1].tally

		if running.LessThan(next) {
			for j := batchStart; j <= i; j++ {
				result = append(result, BatchEliminationEntry{
					Candidate:    rows[j].id,
					RunningTotal: running,
					NextHighest:  next,
				})
			}
			batchStart = i + 1
		}
	}

	// Edge case: a single candidate batch-eliminated degenerates to a
	// regular elimination, which already logs the tie-break story.
	if len(result) == 1 {
		return nil
	}

	return result
}
