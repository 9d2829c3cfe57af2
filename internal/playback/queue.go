// Package playback serializes utterances onto the single audio output.
//
// The Queue orders pending utterances high before normal before low, FIFO
// within a priority, and plays them one at a time from a single drain
// goroutine. An interrupting utterance jumps to the head and stops
// whatever is playing; the stopped utterance is dropped, never requeued.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
	"github.com/hammamikhairi/ottovoice/internal/metrics"
)

// Player plays one utterance, blocking until it ends or ctx is cancelled.
// It must return promptly once ctx is done.
type Player interface {
	Play(ctx context.Context, u *domain.Utterance) error
}

// EventKind distinguishes queue events.
type EventKind int

const (
	EventStarted EventKind = iota
	EventFinished
)

// Event is delivered to the observer from the drain goroutine, in order.
type Event struct {
	Kind      EventKind
	Utterance *domain.Utterance
	Outcome   domain.Outcome // set on EventFinished
	Err       error          // device error, if any
	Pending   int            // queued items after this event
}

// Option configures the Queue.
type Option func(*Queue)

// WithObserver registers fn for Started and Finished events. fn runs on
// the drain goroutine and must not block.
func WithObserver(fn func(Event)) Option {
	return func(q *Queue) {
		q.onEvent = fn
	}
}

// WithMetrics records outcomes and queue depth.
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

// Ticket tracks one enqueued utterance until it leaves the queue.
type Ticket struct {
	done    chan struct{}
	once    sync.Once
	outcome domain.Outcome
	err     error
}

func newTicket() *Ticket {
	return &Ticket{done: make(chan struct{})}
}

// Done is closed when the utterance has played, been interrupted,
// stopped, cleared or failed.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Outcome is valid once Done is closed.
func (t *Ticket) Outcome() domain.Outcome { return t.outcome }

// Err is the device error for a failed utterance.
func (t *Ticket) Err() error { return t.err }

func (t *Ticket) finish(outcome domain.Outcome, err error) {
	t.once.Do(func() {
		t.outcome = outcome
		t.err = err
		close(t.done)
	})
}

type item struct {
	u      *domain.Utterance
	ticket *Ticket
	jumped bool // enqueued with interrupt; nothing is inserted ahead of it
}

// handle is the in-flight playback. At most one exists at a time.
type handle struct {
	item   *item
	cancel context.CancelFunc
	reason domain.Outcome // why it was cancelled; empty while running
}

// Status is a point-in-time view of the queue.
type Status struct {
	Playing   bool
	Current   *domain.Utterance
	Pending   int
	LastError error
}

// Queue is safe for concurrent use.
type Queue struct {
	player  Player
	log     *logger.Logger
	onEvent func(Event)
	metrics *metrics.Metrics

	mu       sync.Mutex
	items    []*item
	current  *handle
	draining bool
	lastErr  error
	closed   bool
}

// New creates a queue that plays through player.
func New(player Player, log *logger.Logger, opts ...Option) *Queue {
	q := &Queue{player: player, log: log}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue schedules u. With interrupt set, u goes to the head of the
// queue and the utterance currently playing is stopped and dropped.
// Without it, u never preempts what is already playing.
func (q *Queue) Enqueue(u *domain.Utterance, interrupt bool) *Ticket {
	t := newTicket()
	if u.EnqueuedAt.IsZero() {
		u.EnqueuedAt = time.Now()
	}
	it := &item{u: u, ticket: t, jumped: interrupt}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		t.finish(domain.OutcomeCleared, nil)
		return t
	}

	if interrupt {
		q.items = append([]*item{it}, q.items...)
		if q.current != nil && q.current.reason == "" {
			q.current.reason = domain.OutcomeInterrupted
			q.current.cancel()
			q.log.Debug("interrupting %s", shortID(q.current.item.u))
		}
	} else {
		q.insertLocked(it)
	}
	pending := len(q.items)
	if !q.draining {
		q.draining = true
		go q.drain()
	}
	q.mu.Unlock()

	q.metrics.QueueDepth(pending)
	q.log.Debug("queued %s (priority=%s, interrupt=%v, queue_len=%d)", shortID(u), u.Priority, interrupt, pending)
	return t
}

// insertLocked places it before the first item of strictly lower
// priority, behind any interrupters still waiting to play. Must be called
// with q.mu held.
func (q *Queue) insertLocked(it *item) {
	idx := len(q.items)
	for i, x := range q.items {
		if !x.jumped && x.u.Priority < it.u.Priority {
			idx = i
			break
		}
	}
	q.items = append(q.items, nil)
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = it
}

// drain plays queued items until the queue is empty. Only one drain runs
// at a time; the draining flag is owned by q.mu.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 || q.closed {
			q.draining = false
			q.mu.Unlock()
			return
		}
		it := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]

		ctx, cancel := context.WithCancel(context.Background())
		h := &handle{item: it, cancel: cancel}
		q.current = h
		pending := len(q.items)
		q.mu.Unlock()

		q.metrics.QueueDepth(pending)
		q.emit(Event{Kind: EventStarted, Utterance: it.u, Pending: pending})
		q.log.Debug("playing %s (source=%s, waited=%s)", shortID(it.u), it.u.Source,
			time.Since(it.u.EnqueuedAt).Round(time.Millisecond))

		err := q.player.Play(ctx, it.u)
		cancel()

		q.mu.Lock()
		q.current = nil
		outcome := domain.OutcomePlayed
		switch {
		case h.reason != "":
			outcome = h.reason
			err = nil
		case err != nil:
			outcome = domain.OutcomeFailed
			q.lastErr = err
		}
		pending = len(q.items)
		q.mu.Unlock()

		if err != nil {
			q.log.Error("playback of %s failed: %v", shortID(it.u), err)
		}
		q.metrics.Played(string(outcome))
		q.emit(Event{Kind: EventFinished, Utterance: it.u, Outcome: outcome, Err: err, Pending: pending})
		it.ticket.finish(outcome, err)
	}
}

func (q *Queue) emit(ev Event) {
	if q.onEvent != nil {
		q.onEvent(ev)
	}
}

// Stop halts the utterance currently playing. Queued items are kept.
// Safe to call when idle.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopLocked(domain.OutcomeStopped)
	q.mu.Unlock()
}

// Clear stops the current utterance and discards everything queued.
// Safe to call when idle.
func (q *Queue) Clear() {
	q.mu.Lock()
	dropped := q.clearLocked()
	q.mu.Unlock()
	q.finishDropped(dropped)
}

// Close clears the queue and rejects further work.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	dropped := q.clearLocked()
	q.mu.Unlock()
	q.finishDropped(dropped)
	q.log.Debug("queue closed")
}

func (q *Queue) stopLocked(reason domain.Outcome) {
	if q.current == nil || q.current.reason != "" {
		return
	}
	q.current.reason = reason
	q.current.cancel()
	q.log.Debug("%s %s", reason, shortID(q.current.item.u))
}

func (q *Queue) clearLocked() []*item {
	dropped := q.items
	q.items = nil
	q.stopLocked(domain.OutcomeCleared)
	return dropped
}

func (q *Queue) finishDropped(dropped []*item) {
	if len(dropped) == 0 {
		return
	}
	for _, it := range dropped {
		q.metrics.Played(string(domain.OutcomeCleared))
		it.ticket.finish(domain.OutcomeCleared, nil)
	}
	q.metrics.QueueDepth(0)
	q.log.Debug("cleared %d queued utterances", len(dropped))
}

// Snapshot returns the current queue state.
func (q *Queue) Snapshot() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Status{Pending: len(q.items), LastError: q.lastErr}
	if q.current != nil {
		s.Playing = true
		s.Current = q.current.item.u
	}
	return s
}

func shortID(u *domain.Utterance) string {
	if len(u.ID) > 8 {
		return u.ID[:8]
	}
	return u.ID
}
