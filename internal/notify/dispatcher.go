package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DispatcherConfig controls the queue depth and worker count of a Dispatcher.
type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

// Dispatcher delivers messages asynchronously. Delivery failures are logged and
// dropped; callers never wait on the mail relay.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan Message
	wg     sync.WaitGroup
	once   sync.Once
}

var errDispatcherClosed = errors.New("notification dispatcher closed")

// ErrQueueFull indicates the dispatcher could not accept another message.
var ErrQueueFull = errors.New("notification queue full")

// NewDispatcher starts cfg.Workers goroutines delivering through sender.
func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		sender:  sender,
		logger:  logger,
		timeout: cfg.SendTimeout,
		jobs:    make(chan Message, cfg.QueueSize),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}

	return d
}

// NotifyApproved queues the approval notice for email.
func (d *Dispatcher) NotifyApproved(ctx context.Context, email string) error {
	return d.Enqueue(ctx, ApprovalMessage(email))
}

// Enqueue schedules msg for delivery without blocking on a full queue.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errDispatcherClosed
	}

	select {
	case d.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting messages and waits for queued ones to drain.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for msg := range d.jobs {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	if d.sender == nil {
		d.logger.Warn("notification dropped, no sender configured", "to", msg.To, "subject", msg.Subject)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Error("notification delivery failed", "to", msg.To, "error", err)
		return
	}
	d.logger.Info("notification delivered", "to", msg.To, "subject", msg.Subject)
}
