// Package observability records what the solve service does: Prometheus
// metrics, one slog line per solve, and a bounded async fan-out so neither
// slows down a request.
package observability

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	ResultOK         = "ok"
	ResultNoSolution = "no_solution"
	ResultError      = "error"
)

type SolveEvent struct {
	Algorithm string
	Variant   string
	Duration  time.Duration
	Steps     int
	CacheHit  bool
	Found     bool
	Err       error
}

// Result classifies the event for metric labels.
func (e SolveEvent) Result() string {
	switch {
	case e.Err != nil:
		return ResultError
	case !e.Found:
		return ResultNoSolution
	default:
		return ResultOK
	}
}

type SolveObserver interface {
	ObserveSolve(SolveEvent)
}

type SolveLogger struct {
	logger *slog.Logger
}

func NewSolveLogger(logger *slog.Logger) *SolveLogger {
	return &SolveLogger{logger: logger}
}

func (l *SolveLogger) ObserveSolve(ev SolveEvent) {
	if l == nil || l.logger == nil {
		return
	}
	attrs := []any{
		"algorithm", ev.Algorithm,
		"variant", ev.Variant,
		"result", ev.Result(),
		"steps", ev.Steps,
		"cache_hit", ev.CacheHit,
		"duration_ms", float64(ev.Duration.Microseconds()) / 1000.0,
	}
	if ev.Err != nil {
		l.logger.Warn("solve failed", append(attrs, "error", ev.Err)...)
		return
	}
	l.logger.Info("solve", attrs...)
}

// Multi fans an event out to every non-nil observer in order.
type Multi []SolveObserver

func (m Multi) ObserveSolve(ev SolveEvent) {
	for _, o := range m {
		if o != nil {
			o.ObserveSolve(ev)
		}
	}
}

// AsyncSolveObserver hands events to next on a background goroutine. When
// the buffer is full, or after Close, events are dropped and counted.
type AsyncSolveObserver struct {
	next    SolveObserver
	events  chan SolveEvent
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

func NewAsyncSolveObserver(next SolveObserver, buffer int) *AsyncSolveObserver {
	if buffer <= 0 {
		buffer = 1
	}

	o := &AsyncSolveObserver{
		next:   next,
		events: make(chan SolveEvent, buffer),
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for ev := range o.events {
			if o.next == nil {
				continue
			}
			o.next.ObserveSolve(ev)
		}
	}()

	return o
}

func (o *AsyncSolveObserver) ObserveSolve(ev SolveEvent) {
	if o == nil {
		return
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.dropped.Add(1)
		return
	}
	select {
	case o.events <- ev:
	default:
		o.dropped.Add(1)
	}
}

func (o *AsyncSolveObserver) Dropped() uint64 {
	if o == nil {
		return 0
	}
	return o.dropped.Load()
}

// Close drains queued events and stops the worker. It is safe to call more
// than once and concurrently with ObserveSolve.
func (o *AsyncSolveObserver) Close() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.events)
		o.mu.Unlock()
		o.wg.Wait()
	})
}
