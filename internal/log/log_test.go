package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/civictab/rcvtab/internal/log"
	"github.com/civictab/rcvtab/rcv"
)

func TestObserverLogsCandidateWon(t *testing.T) {
	var buf bytes.Buffer
	obs := log.NewObserver(log.New(&buf, false))

	obs.CandidateWon(2, "A")

	out := buf.String()
	if !strings.Contains(out, `"candidate":"A"`) {
		t.Fatalf("log line missing candidate field: %s", out)
	}
	if !strings.Contains(out, `"round":2`) {
		t.Fatalf("log line missing round field: %s", out)
	}
}

func TestObserverLogsSurplusTransferred(t *testing.T) {
	var buf bytes.Buffer
	obs := log.NewObserver(log.New(&buf, false))

	obs.SurplusTransferred(1, "A", decimal.RequireFromString("0.4333"))

	out := buf.String()
	if !strings.Contains(out, `"surplus_fraction":"0.4333"`) {
		t.Fatalf("log line missing surplus_fraction field: %s", out)
	}
}

var _ rcv.Observer = log.Observer{}
