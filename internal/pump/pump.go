package pump

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vk/framewire/internal/clock"
	"github.com/vk/framewire/internal/command"
	"github.com/vk/framewire/internal/ctxlog"
	"github.com/vk/framewire/internal/service"
)

// Origin identifies which entry family a command came through.
type Origin string

const (
	// OriginDispatch marks commands that went through service
	// resolution before enqueue.
	OriginDispatch Origin = "dispatch"

	// OriginPush marks commands enqueued as-is.
	OriginPush Origin = "push"
)

// Config carries the pump's collaborators. Bindings and Services are
// required; a nil Clock falls back to the real one.
type Config struct {
	Bindings *command.Binder
	Services *service.Registry
	Clock    clock.Clock
	Recorder Recorder
}

// Pump schedules and executes commands. Enqueueing is safe from any
// goroutine; Tick must be driven from a single goroutine (the host's
// frame loop) and runs every due command to completion before
// returning.
type Pump struct {
	bindings *command.Binder
	services *service.Registry
	clock    clock.Clock
	recorder Recorder

	mu       sync.Mutex
	seq      uint64
	tick     uint64
	executed uint64
	frames   []*entry
	timers   timerQueue
}

// entry is one scheduled command. Frame entries count framesLeft down
// per tick; timed entries mature against deadline.
type entry struct {
	seq         uint64
	cmd         command.Command
	origin      Origin
	enqueueTick uint64
	enqueuedAt  time.Time
	frameDelay  int
	framesLeft  int
	delay       time.Duration
	deadline    time.Time
	timed       bool
}

// New constructs a Pump. Missing required collaborators are programmer
// errors and panic.
func New(cfg Config) *Pump {
	if cfg.Bindings == nil {
		panic("pump: Config.Bindings is required")
	}
	if cfg.Services == nil {
		panic("pump: Config.Services is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Pump{
		bindings: cfg.Bindings,
		services: cfg.Services,
		clock:    cfg.Clock,
		recorder: cfg.Recorder,
	}
}

// Dispatch resolves cmd's services and enqueues it for the current
// tick. A resolution failure surfaces to the caller and nothing is
// enqueued.
func (p *Pump) Dispatch(ctx context.Context, cmd command.Command) error {
	return p.DispatchFrames(ctx, cmd, 0)
}

// DispatchFrames resolves cmd's services and enqueues it to execute
// after the given number of ticks.
func (p *Pump) DispatchFrames(ctx context.Context, cmd command.Command, frames int) error {
	if err := p.resolve(cmd); err != nil {
		return err
	}
	p.enqueueFrames(ctx, cmd, frames, OriginDispatch)
	return nil
}

// DispatchAfter resolves cmd's services and enqueues it to execute on
// the first tick at or past the given wall-clock delay.
func (p *Pump) DispatchAfter(ctx context.Context, cmd command.Command, d time.Duration) error {
	if err := p.resolve(cmd); err != nil {
		return err
	}
	p.enqueueAfter(ctx, cmd, d, OriginDispatch)
	return nil
}

// Push enqueues cmd for the current tick, skipping service
// resolution. The command executes as-is even if it implements
// service.Consumer; that is the caller's responsibility.
func (p *Pump) Push(ctx context.Context, cmd command.Command) {
	p.enqueueFrames(ctx, cmd, 0, OriginPush)
}

// PushFrames enqueues cmd to execute after the given number of ticks,
// skipping service resolution.
func (p *Pump) PushFrames(ctx context.Context, cmd command.Command, frames int) {
	p.enqueueFrames(ctx, cmd, frames, OriginPush)
}

// PushAfter enqueues cmd to execute on the first tick at or past the
// given wall-clock delay, skipping service resolution.
func (p *Pump) PushAfter(ctx context.Context, cmd command.Command, d time.Duration) {
	p.enqueueAfter(ctx, cmd, d, OriginPush)
}

// resolve runs the explicit dependency-resolution step for commands
// that opt in. Commands without the Consumer interface pass through.
func (p *Pump) resolve(cmd command.Command) error {
	consumer, ok := cmd.(service.Consumer)
	if !ok {
		return nil
	}
	if err := consumer.ResolveServices(p.services); err != nil {
		return fmt.Errorf("resolving services for %s: %w", command.VariantName(cmd), err)
	}
	return nil
}

func (p *Pump) enqueueFrames(ctx context.Context, cmd command.Command, frames int, origin Origin) {
	if frames < 0 {
		frames = 0
	}

	p.mu.Lock()
	p.seq++
	e := &entry{
		seq:         p.seq,
		cmd:         cmd,
		origin:      origin,
		enqueueTick: p.tick,
		enqueuedAt:  p.clock.Now(),
		frameDelay:  frames,
		framesLeft:  frames,
	}
	p.frames = append(p.frames, e)
	p.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Command enqueued.",
		"variant", command.VariantName(cmd), "seq", e.seq, "origin", origin, "frames", frames)
}

func (p *Pump) enqueueAfter(ctx context.Context, cmd command.Command, d time.Duration, origin Origin) {
	if d < 0 {
		d = 0
	}

	p.mu.Lock()
	p.seq++
	e := &entry{
		seq:         p.seq,
		cmd:         cmd,
		origin:      origin,
		enqueueTick: p.tick,
		enqueuedAt:  p.clock.Now(),
		delay:       d,
		deadline:    p.clock.Now().Add(d),
		timed:       true,
	}
	heap.Push(&p.timers, e)
	p.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Command enqueued.",
		"variant", command.VariantName(cmd), "seq", e.seq, "origin", origin, "delay", d)
}

// Tick advances the pump by one scheduling step: frame delays count
// down by one, timed entries are checked against the clock, and every
// due entry executes synchronously in submission order. The ready set
// is fixed before execution starts, so commands enqueued by an
// executing command run on a later tick.
func (p *Pump) Tick(ctx context.Context) {
	p.mu.Lock()
	p.tick++
	tick := p.tick
	now := p.clock.Now()

	var ready []*entry

	remaining := p.frames[:0]
	for _, e := range p.frames {
		e.framesLeft--
		if e.framesLeft <= 0 {
			ready = append(ready, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	p.frames = remaining

	for len(p.timers) > 0 && !p.timers[0].deadline.After(now) {
		ready = append(ready, heap.Pop(&p.timers).(*entry))
	}
	p.mu.Unlock()

	if len(ready) == 0 {
		return
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].seq < ready[j].seq })

	ctxlog.FromContext(ctx).Debug("Collected ready commands.", "tick", tick, "count", len(ready))
	for _, e := range ready {
		p.execute(ctx, tick, e)
	}
}

// execute runs one entry: Runner variants control the default callback
// path themselves, everything else fires it directly.
func (p *Pump) execute(ctx context.Context, tick uint64, e *entry) {
	logger := ctxlog.FromContext(ctx).With(
		"variant", command.VariantName(e.cmd), "seq", e.seq, "tick", tick)
	logger.Debug("Executing command.")

	fire := func() { p.bindings.Fire(ctx, e.cmd) }
	if runner, ok := e.cmd.(command.Runner); ok {
		runner.Run(ctx, fire)
	} else {
		fire()
	}

	p.mu.Lock()
	p.executed++
	p.mu.Unlock()

	if p.recorder != nil {
		p.recorder.Record(ctx, Record{
			Seq:         e.seq,
			Tick:        tick,
			EnqueueTick: e.enqueueTick,
			Origin:      e.origin,
			Variant:     command.VariantName(e.cmd),
			FrameDelay:  e.frameDelay,
			Delay:       e.delay,
			EnqueuedAt:  e.enqueuedAt,
			ExecutedAt:  p.clock.Now(),
			Command:     e.cmd,
		})
	}
}

// Stats reports queue depths and progress counters for the
// healthcheck endpoint.
type Stats struct {
	Tick          uint64 `json:"tick"`
	PendingFrames int    `json:"pending_frames"`
	PendingTimers int    `json:"pending_timers"`
	Executed      uint64 `json:"executed"`
}

// Stats returns a snapshot of the pump's counters.
func (p *Pump) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Tick:          p.tick,
		PendingFrames: len(p.frames),
		PendingTimers: len(p.timers),
		Executed:      p.executed,
	}
}

// timerQueue is a min-heap of timed entries ordered by deadline, with
// submission order as the tie-break.
type timerQueue []*entry

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].seq < q[j].seq
	}
	return q[i].deadline.Before(q[j].deadline)
}

func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *timerQueue) Push(x any) { *q = append(*q, x.(*entry)) }

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}
