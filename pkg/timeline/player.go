package timeline

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/observability"
)

// State is the playback state of a Player.
type State int

const (
	// Idle: no tick is scheduled.
	Idle State = iota
	// Playing: a tick is scheduled and advances the position.
	Playing
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Reasons a Player leaves the Playing state, as reported to playback hooks.
const (
	StopToggle   = "toggle"
	StopExplicit = "stop"
	StopReset    = "reset"
	StopScrub    = "scrub"
	StopClose    = "close"
	StopComplete = "complete"
)

// Snapshot is a consistent view of a Player's state.
type Snapshot struct {
	State      State
	Position   float64
	Percentage int
}

// Animating reports whether playback is running.
func (s Snapshot) Animating() bool { return s.State == Playing }

// Option configures a Player.
type Option func(*Player)

// WithScheduler sets the tick scheduler. The default is [TimerScheduler].
func WithScheduler(s Scheduler) Option {
	return func(p *Player) { p.sched = s }
}

// WithClock sets the source of "now" for [Player.IsVisible].
func WithClock(now func() time.Time) Option {
	return func(p *Player) { p.clock = now }
}

// WithLogger sets the logger for state transitions.
func WithLogger(l *log.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// Player holds a scrub position and drives playback through history.
//
// All methods are safe for concurrent use; ticks arrive on scheduler
// goroutines. Change listeners run after the lock is released, in
// registration order.
type Player struct {
	mu        sync.Mutex
	cfg       Config
	sched     Scheduler
	clock     func() time.Time
	logger    *log.Logger
	state     State
	position  float64
	handle    Handle
	gen       uint64 // bumped whenever a tick is cancelled
	ticks     int
	closed    bool
	listeners []func(Snapshot)
}

// NewPlayer creates an Idle player at position 1. Invalid config values fall
// back to the defaults.
func NewPlayer(cfg Config, opts ...Option) *Player {
	def := DefaultConfig()
	if cfg.Tick <= 0 {
		cfg.Tick = def.Tick
	}
	if !(cfg.Step > 0 && cfg.Step <= 1) {
		cfg.Step = def.Step
	}
	p := &Player{
		cfg:      cfg,
		sched:    TimerScheduler{},
		clock:    time.Now,
		position: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// transition is what a state change needs reported once the lock is released.
type transition struct {
	changed bool
	started bool
	stopped string
	ticks   int
}

func (p *Player) apply(fn func() transition) {
	p.mu.Lock()
	t := fn()
	snap := p.snapshotLocked()
	var listeners []func(Snapshot)
	if t.changed {
		listeners = slices.Clone(p.listeners)
	}
	p.mu.Unlock()

	if t.started {
		observability.Playback().OnPlaybackStart()
		p.logger.Debug("playback started", "tick", p.cfg.Tick, "step", p.cfg.Step)
	}
	if t.stopped != "" {
		observability.Playback().OnPlaybackStop(t.stopped, snap.Position, t.ticks)
		p.logger.Debug("playback stopped", "reason", t.stopped, "position", snap.Position, "ticks", t.ticks)
	}
	for _, fn := range listeners {
		fn(snap)
	}
}

// stopLocked leaves Playing and cancels the scheduled tick.
func (p *Player) stopLocked(reason string, t *transition) {
	if p.state != Playing {
		return
	}
	p.state = Idle
	p.gen++
	if p.handle != nil {
		p.handle.Stop()
		p.handle = nil
	}
	t.changed = true
	t.stopped = reason
	t.ticks = p.ticks
}

// Start toggles playback. From Idle it rewinds to 0 and starts ticking; while
// Playing it stops immediately and keeps the current position.
func (p *Player) Start() {
	p.apply(func() (t transition) {
		if p.state == Playing {
			p.stopLocked(StopToggle, &t)
			return t
		}
		if p.closed {
			return t
		}
		p.position = 0
		p.state = Playing
		p.ticks = 0
		p.gen++
		gen := p.gen
		p.handle = p.sched.Every(p.cfg.Tick, func() { p.tick(gen) })
		t.changed = true
		t.started = true
		return t
	})
}

func (p *Player) tick(gen uint64) {
	p.apply(func() (t transition) {
		if p.state != Playing || p.gen != gen {
			return t
		}
		p.ticks++
		t.changed = true
		if next := p.position + p.cfg.Step; next < 1-epsilon {
			p.position = next
			return t
		}
		p.position = 1
		p.stopLocked(StopComplete, &t)
		return t
	})
}

// Stop halts playback and keeps the position. It is a no-op when Idle.
func (p *Player) Stop() {
	p.apply(func() (t transition) {
		p.stopLocked(StopExplicit, &t)
		return t
	})
}

// Reset halts playback and shows everything (position 1).
func (p *Player) Reset() {
	p.apply(func() (t transition) {
		p.stopLocked(StopReset, &t)
		if p.position != 1 {
			p.position = 1
			t.changed = true
		}
		return t
	})
}

// SetPosition clamps pos into [0, 1] and moves there. Manual scrubbing always
// wins: a running playback is stopped.
func (p *Player) SetPosition(pos float64) {
	pos = Clamp(pos)
	p.apply(func() (t transition) {
		p.stopLocked(StopScrub, &t)
		if p.position != pos {
			p.position = pos
			t.changed = true
		}
		return t
	})
}

// Close stops playback and drops all listeners. A closed player never starts
// again; Close is idempotent.
func (p *Player) Close() {
	p.apply(func() (t transition) {
		p.stopLocked(StopClose, &t)
		p.closed = true
		p.listeners = nil
		t.changed = false
		return t
	})
}

// OnChange registers fn to receive a snapshot after every change of state or
// position.
func (p *Player) OnChange(fn func(Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.listeners = append(p.listeners, fn)
	}
}

// Snapshot returns the current state, position and percentage together.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Player) snapshotLocked() Snapshot {
	return Snapshot{
		State:      p.state,
		Position:   p.position,
		Percentage: Percentage(p.position),
	}
}

// Position returns the scrub position in [0, 1].
func (p *Player) Position() float64 { return p.Snapshot().Position }

// State returns the playback state.
func (p *Player) State() State { return p.Snapshot().State }

// Animating reports whether playback is running.
func (p *Player) Animating() bool { return p.State() == Playing }

// Percentage returns the position as a rounded percentage, for scrub-bar
// labels.
func (p *Player) Percentage() int { return p.Snapshot().Percentage }

// Config returns the playback constants in use.
func (p *Player) Config() Config { return p.cfg }

// Window returns the visible window at the current position and clock.
func (p *Player) Window(all []time.Time) Window {
	return NewWindow(all, p.Position(), p.clock())
}

// IsVisible reports whether a message created at ts is visible at the current
// position, measured against the player's clock.
func (p *Player) IsVisible(ts time.Time, all []time.Time) bool {
	return p.Window(all).Contains(ts)
}

// IsVisibleAt is IsVisible with "now" pinned.
func (p *Player) IsVisibleAt(ts time.Time, all []time.Time, now time.Time) bool {
	return IsVisibleAt(ts, all, p.Position(), now)
}

// EdgeVisible reports whether an edge between messages created at src and dst
// is visible at the current position.
func (p *Player) EdgeVisible(src, dst time.Time, all []time.Time) bool {
	return p.Window(all).ContainsEdge(src, dst)
}

// Filter returns the currently visible messages and edges.
func (p *Player) Filter(nodes []graph.Node, edges []graph.Edge) ([]graph.Node, []graph.Edge) {
	return Filter(nodes, edges, p.Window(graph.Timestamps(nodes)))
}

// Percentage converts a scrub position to a rounded percentage.
func Percentage(pos float64) int {
	return int(math.Round(pos * 100))
}
