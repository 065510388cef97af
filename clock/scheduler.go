package clock

import (
	"context"
	"slices"
	"time"
)

// Handle identifies a requested frame callback. The zero Handle is never
// issued.
type Handle uint64

// Scheduler delivers one callback at the next display refresh.
// ts is a monotonic timestamp of the refresh.
type Scheduler interface {
	RequestFrame(cb func(ts time.Duration)) Handle
	CancelFrame(h Handle)
}

type request struct {
	handle Handle
	cb     func(ts time.Duration)
}

// FrameQueue is a Scheduler pumped by the host.
//
// FrameQueue is not safe for concurrent use; RequestFrame, CancelFrame and
// Dispatch must be called from the host's loop goroutine.
type FrameQueue struct {
	next    Handle
	pending []request
	batch   []request
}

// NewFrameQueue creates an empty queue.
func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

// RequestFrame implements Scheduler.
func (q *FrameQueue) RequestFrame(cb func(ts time.Duration)) Handle {
	q.next++
	q.pending = append(q.pending, request{handle: q.next, cb: cb})
	return q.next
}

// CancelFrame implements Scheduler. Cancelling an unknown or already
// dispatched handle is a no-op.
func (q *FrameQueue) CancelFrame(h Handle) {
	match := func(r request) bool { return r.handle == h }
	q.pending = slices.DeleteFunc(q.pending, match)
	q.batch = slices.DeleteFunc(q.batch, match)
}

// Pending returns the number of callbacks waiting for the next Dispatch.
func (q *FrameQueue) Pending() int {
	return len(q.pending)
}

// Dispatch runs every callback requested before this call with timestamp
// ts. Callbacks requested while dispatching wait for the next Dispatch.
// It returns the number of callbacks run.
func (q *FrameQueue) Dispatch(ts time.Duration) int {
	q.batch, q.pending = q.pending, nil
	n := 0
	for len(q.batch) > 0 {
		r := q.batch[0]
		q.batch = q.batch[1:]
		r.cb(ts)
		n++
	}
	q.batch = nil
	return n
}

// Run pumps the queue from a ticker on the calling goroutine until ctx is
// done. Timestamps are measured from the start of Run. A non-positive
// interval means 60 Hz.
func (q *FrameQueue) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second / 60
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			q.Dispatch(now.Sub(start))
		}
	}
}
