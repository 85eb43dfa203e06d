package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 256

	metricDispatched = "notify_dispatched_total"
	metricDropped    = "notify_dropped_total"
	metricFailed     = "notify_failed_total"

	logMsgQueueFull  = "notification queue full, message dropped"
	logMsgSendFailed = "notification delivery failed"
	logMsgDrained    = "notification dispatcher drained"
	logAttrKind      = "kind"
	logAttrMemberID  = "member_id"
	logAttrError     = "error"
	logAttrQueueSize = "queue_size"
)

var (
	// ErrQueueFull is returned by Dispatcher.Send when the message was dropped.
	ErrQueueFull = errors.New("notification queue full")

	// ErrDispatcherClosed is returned by Dispatcher.Send after Close.
	ErrDispatcherClosed = errors.New("notification dispatcher closed")

	// ErrInvalidWorkers is returned when the number of workers is not positive.
	ErrInvalidWorkers = errors.New("workers must be positive")

	// ErrInvalidQueueSize is returned when the queue size is negative.
	ErrInvalidQueueSize = errors.New("queue size must not be negative")
)

type envelope struct {
	ctx context.Context
	msg Message
}

// Dispatcher is an asynchronous Sender. Send only enqueues the message, worker goroutines
// hand it to the wrapped Sender. Send never blocks: if the queue is full the message is
// dropped with a warning. Close stops accepting messages and waits until the queue is drained.
type Dispatcher struct {
	next      Sender
	workers   int
	queueSize int
	queue     chan envelope
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	logger           lending.Logger
	metricsCollector lending.MetricsCollector
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher) error

// WithWorkers sets the number of worker goroutines.
func WithWorkers(workers int) DispatcherOption {
	return func(d *Dispatcher) error {
		if workers < 1 {
			return ErrInvalidWorkers
		}

		d.workers = workers

		return nil
	}
}

// WithQueueSize sets the capacity of the queue. With 0, a message is only accepted
// if a worker is idle.
func WithQueueSize(size int) DispatcherOption {
	return func(d *Dispatcher) error {
		if size < 0 {
			return ErrInvalidQueueSize
		}

		d.queueSize = size

		return nil
	}
}

// WithLogger sets the logger for dropped and failed messages.
func WithLogger(logger lending.Logger) DispatcherOption {
	return func(d *Dispatcher) error {
		d.logger = logger
		return nil
	}
}

// WithMetrics sets the collector for dispatched, dropped and failed messages.
func WithMetrics(collector lending.MetricsCollector) DispatcherOption {
	return func(d *Dispatcher) error {
		d.metricsCollector = collector
		return nil
	}
}

// NewDispatcher creates a Dispatcher for next and starts its workers.
func NewDispatcher(next Sender, opts ...DispatcherOption) (*Dispatcher, error) {
	d := &Dispatcher{
		next:      next,
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	d.queue = make(chan envelope, d.queueSize)

	for range d.workers {
		d.wg.Add(1)
		go d.work()
	}

	return d, nil
}

// Send enqueues msg. The message keeps the values of ctx but not its cancellation,
// so it is delivered even if the caller's request is already done.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- envelope{ctx: context.WithoutCancel(ctx), msg: msg}:
		return nil
	default:
		d.incrementCounter(metricDropped, msg.Kind)
		d.logWarn(logMsgQueueFull,
			logAttrKind, msg.Kind,
			logAttrMemberID, msg.MemberID,
			logAttrQueueSize, d.queueSize)

		return ErrQueueFull
	}
}

// Close stops accepting messages and blocks until all queued messages were handed to the wrapped Sender.
// It is safe to call Close more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}

	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()

	if d.logger != nil {
		d.logger.Debug(logMsgDrained)
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for e := range d.queue {
		if err := d.next.Send(e.ctx, e.msg); err != nil {
			d.incrementCounter(metricFailed, e.msg.Kind)
			d.logWarn(logMsgSendFailed,
				logAttrKind, e.msg.Kind,
				logAttrMemberID, e.msg.MemberID,
				logAttrError, err.Error())

			continue
		}

		d.incrementCounter(metricDispatched, e.msg.Kind)
	}
}

func (d *Dispatcher) logWarn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}

func (d *Dispatcher) incrementCounter(metric string, kind string) {
	if d.metricsCollector != nil {
		d.metricsCollector.IncrementCounter(metric, map[string]string{logAttrKind: kind})
	}
}

var _ Sender = (*Dispatcher)(nil)
