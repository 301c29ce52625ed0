// Package playback moves a cursor over a trace on a timer. The engine owns
// exactly one live timer; every transition cancels it before scheduling the
// next, and a generation counter turns a late firing into a no-op.
package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/awmpietro/algotrace/internal/logging"
	"github.com/awmpietro/algotrace/internal/replay"
	"github.com/awmpietro/algotrace/internal/trace"
)

// DefaultInterval is the delay between ticks at speed 1.
const DefaultInterval = time.Second

type Snapshot struct {
	CurrentStep      *trace.Step `json:"currentStep"`
	CurrentStepIndex int         `json:"currentStepIndex"`
	IsPlaying        bool        `json:"isPlaying"`
	Progress         float64     `json:"progress"`
	Speed            float64     `json:"speed"`
	Total            int         `json:"total"`
}

type Options struct {
	Clock    Clock
	Interval time.Duration
	Speed    float64

	// OnStep fires on forward moves only. OnChange fires after every
	// transition. Both run outside the engine lock, in transition order, and
	// may call back into the engine.
	OnStep   func(index int, step trace.Step)
	OnChange func(Snapshot)

	Logger *slog.Logger
}

type event struct {
	forward bool
	index   int
	step    trace.Step
	snap    Snapshot
}

type Engine struct {
	mu sync.Mutex

	clock    Clock
	interval time.Duration
	log      *slog.Logger
	onStep   func(int, trace.Step)
	onChange func(Snapshot)

	cursor  *replay.Cursor
	steps   []trace.Step
	index   int
	playing bool
	speed   float64

	timer  Timer
	gen    uint64
	closed bool

	queue    []event
	draining bool
}

func New(steps []trace.Step, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Engine{
		clock:    opts.Clock,
		interval: opts.Interval,
		log:      opts.Logger,
		onStep:   opts.OnStep,
		onChange: opts.OnChange,
		cursor:   replay.NewCursor(steps),
		steps:    steps,
		index:    -1,
		speed:    opts.Speed,
	}
}

// Snapshot reports the current position without changing it.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// State replays the trace up to the current index.
func (e *Engine) State() replay.State {
	e.mu.Lock()
	idx, cur := e.index, e.cursor
	e.mu.Unlock()
	return cur.At(idx)
}

func (e *Engine) Load(steps []trace.Step) {
	e.mu.Lock()
	e.cancelLocked()
	e.steps = steps
	e.cursor = replay.NewCursor(steps)
	e.index = -1
	e.playing = false
	e.changedLocked()
	e.unlockAndNotify()
}

// Play starts ticking. Playing from the last step restarts from the
// beginning; an empty trace or a closed engine stays idle.
func (e *Engine) Play() {
	e.mu.Lock()
	if e.closed || e.playing || len(e.steps) == 0 {
		e.mu.Unlock()
		return
	}
	if e.index >= len(e.steps)-1 {
		e.index = -1
	}
	e.playing = true
	e.scheduleLocked()
	e.changedLocked()
	e.unlockAndNotify()
}

func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.playing {
		e.mu.Unlock()
		return
	}
	e.playing = false
	e.cancelLocked()
	e.changedLocked()
	e.unlockAndNotify()
}

func (e *Engine) TogglePlay() {
	e.mu.Lock()
	playing := e.playing
	e.mu.Unlock()
	if playing {
		e.Pause()
		return
	}
	e.Play()
}

// Next advances one step. While playing the pending tick is replaced.
func (e *Engine) Next() {
	e.mu.Lock()
	if e.index >= len(e.steps)-1 {
		e.mu.Unlock()
		return
	}
	e.advanceLocked()
	e.changedLocked()
	e.unlockAndNotify()
}

func (e *Engine) Prev() {
	e.mu.Lock()
	if e.index <= -1 {
		e.mu.Unlock()
		return
	}
	e.index--
	e.rescheduleLocked()
	e.changedLocked()
	e.unlockAndNotify()
}

func (e *Engine) Reset() {
	e.mu.Lock()
	e.cancelLocked()
	e.playing = false
	e.index = -1
	e.changedLocked()
	e.unlockAndNotify()
}

// Seek moves to i, clamped to [-1, len-1]. It keeps the play status; a seek
// to the last step while playing finishes playback.
func (e *Engine) Seek(i int) {
	e.mu.Lock()
	e.index = replay.Clamp(i, len(e.steps))
	e.rescheduleLocked()
	e.changedLocked()
	e.unlockAndNotify()
}

// SetSpeed changes the tick rate from the next scheduled tick on.
// Non-positive speeds are ignored.
func (e *Engine) SetSpeed(f float64) {
	e.mu.Lock()
	if f <= 0 || f == e.speed {
		e.mu.Unlock()
		return
	}
	e.speed = f
	e.changedLocked()
	e.unlockAndNotify()
}

// Close cancels the pending tick. A closed engine never schedules again.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
	e.closed = true
	e.playing = false
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || !e.playing || e.closed {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.advanceLocked()
	e.changedLocked()
	e.unlockAndNotify()
}

// advanceLocked moves forward one step and keeps the timer consistent with
// the new position.
func (e *Engine) advanceLocked() {
	e.index++
	e.queue = append(e.queue, event{forward: true, index: e.index, step: e.steps[e.index]})
	e.rescheduleLocked()
}

func (e *Engine) rescheduleLocked() {
	e.cancelLocked()
	if !e.playing {
		return
	}
	if e.index >= len(e.steps)-1 {
		e.playing = false
		e.log.Debug("playback finished", "steps", len(e.steps))
		return
	}
	e.scheduleLocked()
}

func (e *Engine) scheduleLocked() {
	if e.closed {
		e.playing = false
		return
	}
	e.cancelLocked()
	gen := e.gen
	delay := time.Duration(float64(e.interval) / e.speed)
	e.timer = e.clock.AfterFunc(delay, func() { e.tick(gen) })
}

func (e *Engine) cancelLocked() {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		CurrentStepIndex: e.index,
		IsPlaying:        e.playing,
		Speed:            e.speed,
		Total:            len(e.steps),
	}
	if e.index >= 0 && e.index < len(e.steps) {
		step := e.steps[e.index]
		s.CurrentStep = &step
	}
	if len(e.steps) > 0 {
		s.Progress = float64(e.index+1) / float64(len(e.steps)) * 100
	}
	return s
}

func (e *Engine) changedLocked() {
	e.queue = append(e.queue, event{snap: e.snapshotLocked()})
}

// unlockAndNotify releases the lock and delivers queued events. Only one
// goroutine drains at a time; events queued by callbacks or by concurrent
// transitions are delivered by the active drainer, preserving order.
func (e *Engine) unlockAndNotify() {
	if e.draining {
		e.mu.Unlock()
		return
	}
	e.draining = true
	for {
		if len(e.queue) == 0 {
			e.draining = false
			e.mu.Unlock()
			return
		}
		ev := e.queue[0]
		e.queue = e.queue[1:]
		onStep, onChange := e.onStep, e.onChange
		e.mu.Unlock()

		if ev.forward {
			if onStep != nil {
				onStep(ev.index, ev.step)
			}
		} else if onChange != nil {
			onChange(ev.snap)
		}

		e.mu.Lock()
	}
}
