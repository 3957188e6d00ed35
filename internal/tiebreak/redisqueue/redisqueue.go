// Package redisqueue implements rcv.InteractiveResolver over a redis list
// pair, so a tie-break decision can be made by a separate process (a human
// operator's console, a review UI) instead of the same process running the
// tabulation.
package redisqueue

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/civictab/rcvtab/rcv"
)

// Queue pushes tie-break requests onto a redis list and blocks for the
// matching response, keyed by a per-request correlation id.
type Queue struct {
	pool        *redis.Pool
	requestKey  string
	responseKeyPrefix string
	timeout     time.Duration
	nextID      func() string
}

// New dials addr lazily through a redigo pool. requestKey names the list a
// responder BLPOPs from; each response is delivered on
// "<requestKey>:resp:<id>" so concurrent requests don't race each other.
func New(addr, requestKey string, timeout time.Duration) *Queue {
	return &Queue{
		pool: &redis.Pool{
			Dial: func() (redis.Conn, error) {
				return redis.Dial("tcp", addr)
			},
			MaxIdle:     3,
			IdleTimeout: 5 * time.Minute,
		},
		requestKey:        requestKey,
		responseKeyPrefix: requestKey + ":resp:",
		timeout:           timeout,
		nextID:            newSequentialID(),
	}
}

// Close closes the underlying connection pool.
func (q *Queue) Close() error {
	return q.pool.Close()
}

type envelope struct {
	ID      string             `json:"id"`
	Request rcv.TieBreakRequest `json:"request"`
}

// Resolve implements rcv.InteractiveResolver: it pushes req onto the
// request list and blocks (bounded by the queue's configured timeout) for a
// matching response.
func (q *Queue) Resolve(req rcv.TieBreakRequest) (rcv.TieBreakResponse, error) {
	conn := q.pool.Get()
	defer conn.Close()

	id := q.nextID()
	payload, err := json.Marshal(envelope{ID: id, Request: req})
	if err != nil {
		return rcv.TieBreakResponse{}, fmt.Errorf("encoding tie-break request: %w", err)
	}
	if _, err := conn.Do("RPUSH", q.requestKey, payload); err != nil {
		return rcv.TieBreakResponse{}, fmt.Errorf("publishing tie-break request: %w", err)
	}

	responseKey := q.responseKeyPrefix + id
	reply, err := redis.ByteSlices(conn.Do("BLPOP", responseKey, int(q.timeout.Seconds())))
	if err != nil {
		return rcv.TieBreakResponse{}, fmt.Errorf("awaiting tie-break response: %w", err)
	}
	if len(reply) != 2 {
		return rcv.TieBreakResponse{}, fmt.Errorf("awaiting tie-break response: BLPOP on %s timed out", responseKey)
	}

	var resp rcv.TieBreakResponse
	if err := json.Unmarshal(reply[1], &resp); err != nil {
		return rcv.TieBreakResponse{}, fmt.Errorf("decoding tie-break response: %w", err)
	}
	return resp, nil
}

// PopRequest blocks for up to timeout for the next pending request, for a
// responder process running separately from the tabulation. It returns the
// request and the correlation id PushResponse needs.
func (q *Queue) PopRequest(timeout time.Duration) (rcv.TieBreakRequest, string, error) {
	conn := q.pool.Get()
	defer conn.Close()

	reply, err := redis.ByteSlices(conn.Do("BLPOP", q.requestKey, int(timeout.Seconds())))
	if err != nil {
		return rcv.TieBreakRequest{}, "", fmt.Errorf("popping tie-break request: %w", err)
	}
	if len(reply) != 2 {
		return rcv.TieBreakRequest{}, "", fmt.Errorf("popping tie-break request: BLPOP on %s timed out", q.requestKey)
	}

	var env envelope
	if err := json.Unmarshal(reply[1], &env); err != nil {
		return rcv.TieBreakRequest{}, "", fmt.Errorf("decoding tie-break request: %w", err)
	}
	return env.Request, env.ID, nil
}

// PushResponse delivers resp to whichever Resolve call is waiting on id.
func (q *Queue) PushResponse(id string, resp rcv.TieBreakResponse) error {
	conn := q.pool.Get()
	defer conn.Close()

	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding tie-break response: %w", err)
	}
	if _, err := conn.Do("RPUSH", q.responseKeyPrefix+id, payload); err != nil {
		return fmt.Errorf("publishing tie-break response: %w", err)
	}
	return nil
}

func newSequentialID() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("tb-%d", n.Add(1))
	}
}
