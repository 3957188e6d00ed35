package redisqueue_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"

	"github.com/civictab/rcvtab/internal/tiebreak/redisqueue"
	"github.com/civictab/rcvtab/rcv"
)

func startRedis(t *testing.T) (string, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7",
	})
	if err != nil {
		t.Fatalf("could not start redis container: %s", err)
	}

	return resource.GetPort("6379/tcp"), func() {
		if err := pool.Purge(resource); err != nil {
			t.Fatalf("could not purge redis container: %s", err)
		}
	}
}

func TestResolveRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skip redis test")
	}

	port, closeFn := startRedis(t)
	defer closeFn()

	addr := fmt.Sprintf("localhost:%s", port)
	q := redisqueue.New(addr, "tiebreaks", 5*time.Second)
	defer q.Close()

	req := rcv.TieBreakRequest{
		Round:       3,
		Candidates:  []rcv.CandidateID{"A", "B"},
		ForWinner:   false,
		Explanation: "lowest tally tied",
	}

	errCh := make(chan error, 1)
	respCh := make(chan rcv.TieBreakResponse, 1)
	go func() {
		resp, err := q.Resolve(req)
		errCh <- err
		respCh <- resp
	}()

	gotReq, id, err := q.PopRequest(5 * time.Second)
	if err != nil {
		t.Fatalf("PopRequest: %v", err)
	}
	if gotReq.Round != req.Round || len(gotReq.Candidates) != 2 {
		t.Fatalf("PopRequest request = %+v, want %+v", gotReq, req)
	}

	if err := q.PushResponse(id, rcv.TieBreakResponse{Chosen: "A"}); err != nil {
		t.Fatalf("PushResponse: %v", err)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resp := <-respCh; resp.Chosen != "A" {
		t.Errorf("Resolve response = %+v, want Chosen=A", resp)
	}
}
