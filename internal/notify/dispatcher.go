package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"candidate-assessment/internal/token"
)

// Dispatcher sends invites from a buffered queue on a single background worker,
// so request handlers never wait on the notification channel.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	queue  chan Invite
	done   chan struct{}
}

func NewDispatcher(notifier Notifier, queueSize int, timeout time.Duration, logger *zap.SugaredLogger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Dispatcher{
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
		queue:    make(chan Invite, queueSize),
		done:     make(chan struct{}),
	}
}

// Start launches the worker. Call it once.
func (d *Dispatcher) Start() {
	go d.worker()
	d.logger.Infow("[Dispatcher] Worker started", "queue_size", cap(d.queue))
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for inv := range d.queue {
		d.send(inv)
	}
}

func (d *Dispatcher) send(inv Invite) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	if err := d.notifier.SendInvite(ctx, inv); err != nil {
		d.logger.Warnw("[Dispatcher] Invite delivery failed",
			"candidate_id", inv.CandidateID,
			"token", token.Redact(tokenFromLink(inv.AccessLink)),
			"error", err)
		return
	}
	d.logger.Infow("[Dispatcher] Invite delivered", "candidate_id", inv.CandidateID, "took", time.Since(start).String())
}

// Enqueue hands an invite to the worker without blocking. It reports false when the
// invite was dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Enqueue(inv Invite) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warnw("[Dispatcher] Closed, dropping invite", "candidate_id", inv.CandidateID)
		return false
	}

	// Non-blocking send
	select {
	case d.queue <- inv:
		return true
	default:
		d.logger.Warnw("[Dispatcher] Queue full! Dropping invite", "candidate_id", inv.CandidateID)
		return false
	}
}

// Close stops accepting invites and waits for queued ones to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
