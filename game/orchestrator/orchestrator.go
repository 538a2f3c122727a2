package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/render"
	"github.com/wricardo/gridpath/game/solver"
)

const (
	DefaultDebounce = 350 * time.Millisecond
)

// Phase is where the orchestrator is in its fetch and reveal cycle
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDebouncing
	PhaseFetching
	PhaseRevealing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDebouncing:
		return "debouncing"
	case PhaseFetching:
		return "fetching"
	case PhaseRevealing:
		return "revealing"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseIdle, PhaseDebouncing, PhaseFetching, PhaseRevealing} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Logger is the subset of *log.Logger the orchestrator uses
type Logger interface {
	Printf(format string, v ...any)
}

// Drawer paints a snapshot. *render.Renderer implements it.
type Drawer interface {
	Draw(snap grid.Snapshot, d render.Display) (render.Layout, error)
}

// Frame describes a completed draw
type Frame struct {
	Generation uint64
	Phase      Phase
	Layout     render.Layout
	Status     Status
}

// Options configures an Orchestrator
type Options struct {
	Debounce time.Duration
	MaxSize  int
	Clock    Clock
	Logger   Logger
	Display  render.Display
}

// Orchestrator turns grid edits into debounced solver calls and animates the
// returned path.
//
// Every edit bumps a generation counter and cancels the pending timer, the
// in-flight request and any running reveal. Callbacks carry the generation
// they were scheduled under and do nothing once it is stale, so at most one
// solver response ever reaches the screen per generation.
//
// All methods must be called on the view's Loop.
type Orchestrator struct {
	state    *grid.State
	drawer   Drawer
	solver   solver.Solver
	post     func(func()) bool
	clock    Clock
	logger   Logger
	debounce time.Duration
	maxSize  int

	ctx         context.Context
	unsubscribe func()

	phase   Phase
	gen     uint64
	timer   Timer
	cancel  context.CancelFunc
	pending []grid.Position
	next    int

	display render.Display
	layout  render.Layout
	status  Status
	frames  []func(Frame)
}

// New wires an orchestrator to a state. post queues work on the loop that
// owns state and drawer.
func New(state *grid.State, drawer Drawer, s solver.Solver, post func(func()) bool, opts Options) *Orchestrator {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Display.Width <= 0 || opts.Display.Height <= 0 {
		opts.Display = render.Display{Width: 600, Height: 600, DPR: 1}
	}
	if opts.MaxSize == 0 {
		opts.MaxSize = state.MaxSize()
	}
	return &Orchestrator{
		state:    state,
		drawer:   drawer,
		solver:   s,
		post:     post,
		clock:    opts.Clock,
		logger:   opts.Logger,
		debounce: opts.Debounce,
		maxSize:  opts.MaxSize,
		display:  opts.Display,
		ctx:      context.Background(),
	}
}

// OnFrame registers fn to run after every successful draw.
func (o *Orchestrator) OnFrame(fn func(Frame)) {
	o.frames = append(o.frames, fn)
}

// Start draws the current grid and begins watching the state. Requests are
// bound to ctx. With solveNow set the first solve is scheduled immediately.
func (o *Orchestrator) Start(ctx context.Context, solveNow bool) error {
	o.ctx = ctx
	if err := o.redraw(); err != nil {
		return err
	}
	o.unsubscribe = o.state.Subscribe(o.onChange)
	if solveNow {
		o.schedule()
	}
	return nil
}

// Stop cancels pending work and detaches from the state.
func (o *Orchestrator) Stop() {
	o.cancelPending()
	o.gen++
	o.phase = PhaseIdle
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
}

func (o *Orchestrator) Phase() Phase { return o.phase }
func (o *Orchestrator) Generation() uint64 { return o.gen }
func (o *Orchestrator) Layout() render.Layout { return o.layout }
func (o *Orchestrator) Display() render.Display { return o.display }

// Status returns the outcome of the latest completed solve.
func (o *Orchestrator) Status() Status {
	st := o.status
	st.Phase = o.phase
	st.Generation = o.gen
	return st
}

// SetDisplay changes the on-screen geometry and redraws.
func (o *Orchestrator) SetDisplay(d render.Display) error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w, got %.0fx%.0f", ErrInvalidDisplay, d.Width, d.Height)
	}
	if d.DPR <= 0 {
		d.DPR = 1
	}
	o.display = d
	return o.redraw()
}

func (o *Orchestrator) onChange(c grid.Change) {
	if c.Kind == grid.ChangePath {
		return
	}
	if c.Kind.AffectsGrid() {
		o.redrawOrLog()
	}
	o.schedule()
}

func (o *Orchestrator) schedule() {
	o.cancelPending()
	o.gen++
	gen := o.gen
	o.phase = PhaseDebouncing
	o.timer = o.clock.AfterFunc(o.debounce, func() {
		o.post(func() { o.fetch(gen) })
	})
}

func (o *Orchestrator) cancelPending() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.pending = nil
	o.next = 0
}

func (o *Orchestrator) fetch(gen uint64) {
	if gen != o.gen {
		return
	}
	o.timer = nil
	o.phase = PhaseFetching

	req := solver.NewRequest(o.state.Snapshot(), o.maxSize)
	ctx, cancel := context.WithCancel(o.ctx)
	o.cancel = cancel

	go func() {
		path, err := o.solver.Solve(ctx, req)
		o.post(func() { o.receive(gen, path, err) })
	}()
}

func (o *Orchestrator) receive(gen uint64, path []grid.Position, err error) {
	if gen != o.gen {
		return
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}

	o.state.ClearPath()
	if err != nil {
		o.logger.Printf("[SOLVER] gen %d: %v", gen, err)
		o.status = Status{Err: err.Error()}
		o.phase = PhaseIdle
		o.redrawOrLog()
		return
	}

	o.status = statusFor(path)
	if o.state.StepDelay() == 0 {
		if err := o.state.SetPath(path); err != nil {
			o.logger.Printf("[SOLVER] gen %d: rejected path: %v", gen, err)
			o.status = Status{Err: err.Error()}
		}
		o.phase = PhaseIdle
		o.redrawOrLog()
		return
	}

	o.phase = PhaseRevealing
	o.redrawOrLog()
	o.pending = path
	o.next = 0
	o.reveal(gen)
}

// reveal appends the next visible path cell, redraws and waits one step.
// Cells on start, end or a wall are skipped without a wait.
func (o *Orchestrator) reveal(gen uint64) {
	if gen != o.gen {
		return
	}
	o.timer = nil

	size := o.state.Size()
	for o.next < len(o.pending) {
		cell := o.pending[o.next]
		o.next++
		if !size.Contains(cell) || cell == o.state.Start() || cell == o.state.End() || o.state.IsWall(cell) {
			continue
		}

		if err := o.state.AppendPath(cell); err != nil {
			o.logger.Printf("[REVEAL] gen %d: %v", gen, err)
			continue
		}
		o.redrawOrLog()

		delay := time.Duration(o.state.StepDelay()) * time.Millisecond
		o.timer = o.clock.AfterFunc(delay, func() {
			o.post(func() { o.reveal(gen) })
		})
		return
	}

	o.pending = nil
	o.next = 0
	o.phase = PhaseIdle
	o.redrawOrLog()
}

func (o *Orchestrator) redraw() error {
	layout, err := o.drawer.Draw(o.state.Snapshot(), o.display)
	if err != nil {
		return err
	}
	o.layout = layout

	frame := Frame{Generation: o.gen, Phase: o.phase, Layout: layout, Status: o.Status()}
	for _, fn := range o.frames {
		fn(frame)
	}
	return nil
}

func (o *Orchestrator) redrawOrLog() {
	if err := o.redraw(); err != nil {
		o.logger.Printf("[RENDER] %v", err)
	}
}
