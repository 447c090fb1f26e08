package pipeline

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/retropixel-mcp/internal/imaging"
)

var (
	// ErrClosed is returned by an Orchestrator after Close.
	ErrClosed = errors.New("orchestrator closed")

	// ErrSuperseded is returned by Process when a newer request was
	// submitted before this one finished.
	ErrSuperseded = errors.New("request superseded")
)

// RequestID identifies a pipeline request. IDs increase monotonically; a
// new request supersedes every earlier one.
type RequestID uint64

// Request is one unit of work for the worker. The worker owns Buffer from
// the moment the request is submitted.
type Request struct {
	ID     RequestID
	Buffer *imaging.PixelBuffer
	Params Params
}

// Event is a message from the worker about a request: a ProgressEvent, a
// ResultEvent or a FailureEvent. Each request yields progress events
// followed by exactly one result or failure.
type Event interface {
	RequestID() RequestID
}

// ProgressEvent reports completion percent of a request.
type ProgressEvent struct {
	ID      RequestID
	Percent int
}

// ResultEvent delivers the processed buffer. Ownership passes to the
// receiver.
type ResultEvent struct {
	ID     RequestID
	Buffer *imaging.PixelBuffer
}

// FailureEvent reports that a request failed. No buffer is returned.
type FailureEvent struct {
	ID  RequestID
	Err error
}

func (e ProgressEvent) RequestID() RequestID { return e.ID }
func (e ResultEvent) RequestID() RequestID   { return e.ID }
func (e FailureEvent) RequestID() RequestID  { return e.ID }

// Orchestrator runs pipeline requests on a dedicated worker goroutine.
//
// Callers Submit requests and read Events. Cancellation is by staleness: a
// superseded request still runs to completion, but its events are dropped
// before they reach Events, so the consumer only ever sees the latest
// request. Events must have a single consumer.
type Orchestrator struct {
	requests chan Request
	raw      chan Event
	events   chan Event
	done     chan struct{}

	latest atomic.Uint64
	once   sync.Once
	wg     sync.WaitGroup
	logger *log.Logger
	debug  bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for failures and, with debug, for dropped
// stale events.
func WithLogger(l *log.Logger, debug bool) Option {
	return func(o *Orchestrator) {
		o.logger = l
		o.debug = debug
	}
}

// NewOrchestrator creates an orchestrator. Call Start before submitting.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		requests: make(chan Request, 4),
		raw:      make(chan Event, 16),
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start launches the worker and the staleness filter. They run until ctx is
// done or Close is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.wg.Add(2)
	go o.work(ctx)
	go o.filter(ctx)
}

// Close stops the worker and waits for it. Events is closed afterwards.
func (o *Orchestrator) Close() {
	o.once.Do(func() { close(o.done) })
	o.wg.Wait()
}

// Latest returns the most recently issued RequestID (0 before any request).
func (o *Orchestrator) Latest() RequestID {
	return RequestID(o.latest.Load())
}

// Events returns the stream of events for the latest request.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// Submit hands buf and p to the worker under a fresh RequestID, which
// immediately supersedes all earlier requests. The caller must not touch
// buf afterwards.
func (o *Orchestrator) Submit(ctx context.Context, buf *imaging.PixelBuffer, p Params) (RequestID, error) {
	select {
	case <-o.done:
		return 0, ErrClosed
	default:
	}

	id := RequestID(o.latest.Add(1))
	select {
	case o.requests <- Request{ID: id, Buffer: buf, Params: p}:
		return id, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-o.done:
		return 0, ErrClosed
	}
}

// Process submits a request and waits for its outcome.
//
// It consumes Events, so it must not be combined with another Events reader.
//
// Parameters:
//   - ctx: Bounds both the submission and the wait.
//   - buf: The prepared source pixels; ownership passes to the worker.
//   - p: Processing parameters for this request.
//   - onProgress: Receives this request's progress only. May be nil.
//
// Returns:
//   - *imaging.PixelBuffer: The processed buffer.
//   - error: Non-nil if the request did not produce a result.
//
// # Errors
//
//   - Returns ErrSuperseded if a newer request was submitted before this one finished
//   - Returns ErrClosed if the orchestrator is closed
//   - Returns the run's failure (wrapping ErrProcessingFailure) if processing failed
//   - Returns ctx.Err() if ctx is done first
func (o *Orchestrator) Process(ctx context.Context, buf *imaging.PixelBuffer, p Params, onProgress ProgressFunc) (*imaging.PixelBuffer, error) {
	id, err := o.Submit(ctx, buf, p)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case ev, ok := <-o.events:
			if !ok {
				return nil, ErrClosed
			}
			if ev.RequestID() != id {
				if o.Latest() != id {
					return nil, ErrSuperseded
				}
				continue
			}
			switch e := ev.(type) {
			case ProgressEvent:
				if onProgress != nil {
					onProgress(e.Percent)
				}
			case ResultEvent:
				return e.Buffer, nil
			case FailureEvent:
				return nil, e.Err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (o *Orchestrator) work(ctx context.Context) {
	defer o.wg.Done()
	defer close(o.raw)
	for {
		select {
		case req := <-o.requests:
			o.run(ctx, req)
		case <-ctx.Done():
			return
		case <-o.done:
			return
		}
	}
}

func (o *Orchestrator) run(ctx context.Context, req Request) {
	out, err := Run(req.Buffer, req.Params, func(percent int) {
		o.emit(ctx, ProgressEvent{ID: req.ID, Percent: percent})
	})
	if err != nil {
		o.logger.Printf("Pipeline request %d failed: %v", req.ID, err)
		o.emit(ctx, FailureEvent{ID: req.ID, Err: err})
		return
	}
	o.emit(ctx, ResultEvent{ID: req.ID, Buffer: out})
}

func (o *Orchestrator) emit(ctx context.Context, ev Event) {
	select {
	case o.raw <- ev:
	case <-ctx.Done():
	case <-o.done:
	}
}

// filter forwards events of the latest request and drops the rest.
func (o *Orchestrator) filter(ctx context.Context) {
	defer o.wg.Done()
	defer close(o.events)
	for ev := range o.raw {
		if ev.RequestID() != o.Latest() {
			if o.debug {
				o.logger.Printf("Dropping stale event for request %d (latest %d)", ev.RequestID(), o.Latest())
			}
			continue
		}
		select {
		case o.events <- ev:
		case <-ctx.Done():
			return
		case <-o.done:
			return
		}
	}
}
