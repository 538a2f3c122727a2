package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/orchestrator"
	"github.com/wricardo/gridpath/game/render"
	"github.com/wricardo/gridpath/game/solver"
)

var (
	ErrNoPresets = errors.New("no preset manager configured")
)

// Options configures a view service
type Options struct {
	Settings config.Settings
	Solver   solver.Solver
	Presets  PresetManager
	Clock    orchestrator.Clock
	Logger   orchestrator.Logger
	Palette  *render.Palette
}

// viewServiceImpl implements the ViewService interface
type viewServiceImpl struct {
	loop     *orchestrator.Loop
	state    *grid.State
	surface  *render.RasterSurface
	renderer *render.Renderer
	orch     *orchestrator.Orchestrator
	presets  PresetManager
	logger   orchestrator.Logger
	preset   string

	cancel    context.CancelFunc
	closeOnce sync.Once

	mu     sync.RWMutex
	subs   map[int]func(Event)
	nextID int
}

// NewViewService creates the view, starts its UI loop and draws the initial
// grid. The view lives until ctx is canceled or Close is called.
func NewViewService(ctx context.Context, opts Options) (ViewService, error) {
	settings := opts.Settings
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if opts.Solver == nil {
		opts.Solver = solver.NewClient(settings.SolverURL, settings.SolverTimeout)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	palette := render.DefaultPalette()
	if opts.Palette != nil {
		palette = *opts.Palette
	}

	state := grid.NewState(grid.Size{Rows: settings.Rows, Cols: settings.Cols}, settings.MaxSize)
	state.SetStepDelay(settings.StepMs)

	s := &viewServiceImpl{
		loop:    orchestrator.NewLoop(256),
		state:   state,
		presets: opts.Presets,
		logger:  opts.Logger,
		subs:    make(map[int]func(Event)),
	}

	switch {
	case settings.Preset != "":
		if err := s.loadPreset(settings.Preset); err != nil {
			return nil, err
		}
	case settings.DefaultPreset && s.presets != nil:
		s.loadDefault()
	}

	w, h := settings.Display.Backing()
	s.surface = render.NewRasterSurface(w, h)
	s.renderer = render.NewRenderer(s.surface, palette)
	s.orch = orchestrator.New(state, s.renderer, opts.Solver, s.loop.Post, orchestrator.Options{
		Debounce: settings.Debounce,
		MaxSize:  settings.MaxSize,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
		Display:  settings.Display,
	})
	s.orch.OnFrame(s.publish)

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.loop.Run(ctx)

	var startErr error
	if err := s.loop.Do(ctx, func() { startErr = s.orch.Start(ctx, settings.InitialSolve) }); err != nil {
		cancel()
		return nil, err
	}
	if startErr != nil {
		cancel()
		return nil, fmt.Errorf("failed to start view: %w", startErr)
	}

	s.logger.Printf("[VIEW] started %dx%d grid, solver %s", state.Size().Rows, state.Size().Cols, settings.SolverURL)
	return s, nil
}

// loadPreset runs before the loop starts.
func (s *viewServiceImpl) loadPreset(name string) error {
	if s.presets == nil {
		return ErrNoPresets
	}
	layout, err := s.presets.LoadPreset(name)
	if err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}
	if err := s.state.Load(layout); err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}
	s.preset = name
	return nil
}

// loadDefault falls back to the manager's default layout. A layout that does
// not fit the max size keeps the configured grid.
func (s *viewServiceImpl) loadDefault() {
	layout := s.presets.GetDefault()
	if layout == nil {
		return
	}
	if err := s.state.Load(layout); err != nil {
		s.logger.Printf("[PRESET] default %q not loaded: %v", layout.Name, err)
	}
}

// Pointer maps a canvas press to a cell and applies the button's intent
func (s *viewServiceImpl) Pointer(ctx context.Context, in PointerInput) (*EditResult, error) {
	intent, known := grid.IntentFor(grid.Button(in.Button))

	var result *EditResult
	err := s.loop.Do(ctx, func() {
		layout := s.orch.Layout()
		ptr := grid.Pointer{ClientX: in.ClientX, ClientY: in.ClientY}
		cell := grid.MapPointer(ptr, in.Rect, layout.Backing(), s.state.Size())

		result = &EditResult{Cell: cell, InBounds: s.state.Size().Contains(cell)}
		if known {
			result.Intent = intent.String()
			result.Applied = s.state.Apply(intent, cell)
		}
		result.State = s.stateInfo()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyIntent applies an intent to a cell directly
func (s *viewServiceImpl) ApplyIntent(ctx context.Context, intent grid.Intent, cell grid.Position) (*EditResult, error) {
	var result *EditResult
	err := s.loop.Do(ctx, func() {
		result = &EditResult{
			Intent:   intent.String(),
			Cell:     cell,
			InBounds: s.state.Size().Contains(cell),
			Applied:  s.state.Apply(intent, cell),
			State:    s.stateInfo(),
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Resize changes the grid dimensions, clamped to the size limits
func (s *viewServiceImpl) Resize(ctx context.Context, rows, cols int) (*StateInfo, error) {
	return s.mutate(ctx, func() {
		if s.state.Resize(grid.Size{Rows: rows, Cols: cols}) {
			s.preset = ""
		}
	})
}

// SetStep sets the reveal delay in milliseconds
func (s *viewServiceImpl) SetStep(ctx context.Context, stepMs int) (*StateInfo, error) {
	return s.mutate(ctx, func() { s.state.SetStepDelay(stepMs) })
}

// Reset clears walls and restores the default start and end
func (s *viewServiceImpl) Reset(ctx context.Context) (*StateInfo, error) {
	return s.mutate(ctx, func() {
		s.state.Reset()
		s.preset = ""
	})
}

// SetDisplay changes the on-screen size and device pixel ratio
func (s *viewServiceImpl) SetDisplay(ctx context.Context, d render.Display) (*StateInfo, error) {
	var displayErr error
	info, err := s.mutate(ctx, func() { displayErr = s.orch.SetDisplay(d) })
	if err != nil {
		return nil, err
	}
	if displayErr != nil {
		return nil, displayErr
	}
	return info, nil
}

// Frame returns a copy of the latest rendered frame
func (s *viewServiceImpl) Frame(ctx context.Context) (*image.RGBA, error) {
	var img *image.RGBA
	if err := s.loop.Do(ctx, func() { img = s.surface.Clone() }); err != nil {
		return nil, err
	}
	return img, nil
}

// WritePNG encodes the latest frame as PNG
func (s *viewServiceImpl) WritePNG(ctx context.Context, w io.Writer) error {
	img, err := s.Frame(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// State returns the current view state
func (s *viewServiceImpl) State(ctx context.Context) (*StateInfo, error) {
	return s.mutate(ctx, func() {})
}

// Subscribe registers fn for frame events. fn runs on the UI loop and must
// not block.
func (s *viewServiceImpl) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// ListPresets returns the available presets
func (s *viewServiceImpl) ListPresets(ctx context.Context) ([]*config.PresetInfo, error) {
	if s.presets == nil {
		return nil, ErrNoPresets
	}
	return s.presets.ListPresets()
}

// ApplyPreset replaces the grid with a preset layout
func (s *viewServiceImpl) ApplyPreset(ctx context.Context, name string) (*StateInfo, error) {
	if s.presets == nil {
		return nil, ErrNoPresets
	}

	layout, err := s.presets.LoadPreset(name)
	if err != nil {
		if errors.Is(err, config.ErrPresetNotFound) {
			return nil, s.presetNotFound(name)
		}
		return nil, fmt.Errorf("failed to load preset %s: %w", name, err)
	}

	var loadErr error
	info, err := s.mutate(ctx, func() {
		loadErr = s.state.Load(layout)
		if loadErr == nil {
			s.preset = strings.TrimSuffix(name, ".json")
		}
	})
	if err != nil {
		return nil, err
	}
	if loadErr != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidPreset, loadErr)
	}
	return info, nil
}

func (s *viewServiceImpl) presetNotFound(name string) error {
	presets, err := s.presets.ListPresets()
	if err != nil || len(presets) == 0 {
		return fmt.Errorf("%w: '%s'", config.ErrPresetNotFound, name)
	}
	ids := make([]string, 0, len(presets))
	for _, p := range presets {
		ids = append(ids, p.PresetID)
	}
	return fmt.Errorf("%w: '%s'. Available presets: %v", config.ErrPresetNotFound, name, ids)
}

// Close stops the UI loop
func (s *viewServiceImpl) Close() error {
	s.closeOnce.Do(func() {
		_ = s.loop.Do(context.Background(), func() { s.orch.Stop() })
		s.cancel()
		<-s.loop.Done()
	})
	return nil
}

func (s *viewServiceImpl) mutate(ctx context.Context, fn func()) (*StateInfo, error) {
	var info *StateInfo
	err := s.loop.Do(ctx, func() {
		fn()
		info = s.stateInfo()
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// stateInfo runs on the loop.
func (s *viewServiceImpl) stateInfo() *StateInfo {
	return infoFrom(s.state.Snapshot(), s.state.MaxSize(), s.orch.Status(), s.orch.Display(), s.orch.Layout(), s.preset)
}

func infoFrom(snap grid.Snapshot, maxSize int, st orchestrator.Status, d render.Display, l render.Layout, preset string) *StateInfo {
	path := snap.Path
	if path == nil {
		path = []grid.Position{}
	}
	return &StateInfo{
		Size:       snap.Size,
		MaxSize:    maxSize,
		Start:      snap.Start,
		End:        snap.End,
		Walls:      snap.Walls,
		Path:       path,
		StepMs:     snap.StepDelay,
		Status:     st,
		StatusText: st.Text(),
		Display:    d,
		Layout:     l,
		Preset:     preset,
	}
}

// publish runs on the loop after every draw.
func (s *viewServiceImpl) publish(f orchestrator.Frame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.subs) == 0 {
		return
	}

	snap := s.state.Snapshot()
	ev := Event{
		Type:       "frame",
		Generation: f.Generation,
		Snapshot:   snap,
		State:      infoFrom(snap, s.state.MaxSize(), f.Status, s.orch.Display(), f.Layout, s.preset),
	}
	for _, fn := range s.subs {
		fn(ev)
	}
}
