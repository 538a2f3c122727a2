package terminal

import (
	"context"
	"image/color"
	"sync"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/orchestrator"
	"github.com/wricardo/gridpath/game/render"
	"github.com/wricardo/gridpath/game/service"
)

// fakeView records calls; unset methods panic through the nil interface.
type fakeView struct {
	service.ViewService

	mu      sync.Mutex
	state   *service.StateInfo
	pointer []service.PointerInput
	resizes [][2]int
	steps   []int
	resets  int
}

func newFakeView() *fakeView {
	return &fakeView{state: &service.StateInfo{
		Size:   grid.Size{Rows: 10, Cols: 10},
		Start:  grid.Position{X: 0, Y: 0},
		End:    grid.Position{X: 9, Y: 9},
		StepMs: 20,
		Status: orchestrator.Status{Phase: orchestrator.PhaseIdle},
	}}
}

func (f *fakeView) State(ctx context.Context) (*service.StateInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.state
	return &cp, nil
}

func (f *fakeView) Pointer(ctx context.Context, in service.PointerInput) (*service.EditResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pointer = append(f.pointer, in)
	cell := grid.MapPointer(grid.Pointer{ClientX: in.ClientX, ClientY: in.ClientY}, in.Rect,
		grid.Backing{Width: 100, Height: 100}, f.state.Size)
	intent, _ := grid.IntentFor(grid.Button(in.Button))
	return &service.EditResult{
		Applied:  true,
		Intent:   intent.String(),
		Cell:     cell,
		InBounds: f.state.Size.Contains(cell),
		State:    f.state,
	}, nil
}

func (f *fakeView) Resize(ctx context.Context, rows, cols int) (*service.StateInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]int{rows, cols})
	f.state.Size = grid.Size{Rows: rows, Cols: cols}
	return f.state, nil
}

func (f *fakeView) SetStep(ctx context.Context, stepMs int) (*service.StateInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, stepMs)
	f.state.StepMs = stepMs
	return f.state, nil
}

func (f *fakeView) Reset(ctx context.Context) (*service.StateInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return f.state, nil
}

func (f *fakeView) Subscribe(fn func(service.Event)) func() {
	return func() {}
}

type recordingChime struct {
	results []bool
}

func (c *recordingChime) Solved(found bool) {
	c.results = append(c.results, found)
}

func newTestApp(t *testing.T, view *fakeView, chime Chime) (*App, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Failed to init screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 30)

	app := New(screen, view, Options{Chime: chime})
	state, _ := view.State(context.Background())
	app.setState(state)
	return app, screen
}

func TestTermSurface(t *testing.T) {
	s := NewTermSurface()
	s.Resize(4, 3)
	red := color.RGBA{R: 255, A: 255}
	s.FillRect(1, 1, 2, 1, red)

	if c, ok := s.At(1, 1); !ok || c != red {
		t.Errorf("Expected red at (1,1), got %v %t", c, ok)
	}
	if _, ok := s.At(0, 0); ok {
		t.Error("Expected (0,0) to be empty")
	}
	if _, ok := s.At(9, 9); ok {
		t.Error("Expected out of range pixel to be empty")
	}

	s.Clear()
	if _, ok := s.At(1, 1); ok {
		t.Error("Expected Clear to empty every pixel")
	}

	w, h := s.Size()
	if w != 4 || h != 3 {
		t.Errorf("Expected size 4x3, got %dx%d", w, h)
	}
}

func TestDrawGrid(t *testing.T) {
	view := newFakeView()
	view.state.Walls = []grid.Position{{X: 2, Y: 0}}
	app, screen := newTestApp(t, view, nil)

	app.draw()

	palette := render.DefaultPalette()
	cases := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"start", 0, gridTop, palette.Start},
		{"wall", 2 * cellWidth, gridTop, palette.Wall},
		{"wall second column", 2*cellWidth + 1, gridTop, palette.Wall},
		{"end", 9 * cellWidth, gridTop + 9, palette.End},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, style, _ := screen.GetContent(tc.x, tc.y)
			_, bg, _ := style.Decompose()
			if bg != tcellColor(tc.want) {
				t.Errorf("Expected background %v, got %v", tcellColor(tc.want), bg)
			}
		})
	}

	r, _, _, _ := screen.GetContent(cellWidth, gridTop)
	if r != '·' {
		t.Errorf("Expected empty cell marker, got %q", r)
	}
}

func TestHandleKey(t *testing.T) {
	view := newFakeView()
	app, _ := newTestApp(t, view, nil)
	ctx := context.Background()

	keys := []rune{'+', '-', '-', 'l', 'j', 'h', 'k', 'r', 'x'}
	for _, r := range keys {
		quit, err := app.handleKey(ctx, tcell.KeyRune, r)
		if err != nil {
			t.Fatalf("handleKey(%q) failed: %v", r, err)
		}
		if quit {
			t.Fatalf("handleKey(%q) should not quit", r)
		}
	}

	wantSteps := []int{30, 20, 10}
	if len(view.steps) != len(wantSteps) {
		t.Fatalf("Expected %d step changes, got %v", len(wantSteps), view.steps)
	}
	for i, s := range wantSteps {
		if view.steps[i] != s {
			t.Errorf("Step %d: expected %d, got %d", i, s, view.steps[i])
		}
	}

	wantResizes := [][2]int{{10, 11}, {11, 11}, {11, 10}, {10, 10}}
	if len(view.resizes) != len(wantResizes) {
		t.Fatalf("Expected %d resizes, got %v", len(wantResizes), view.resizes)
	}
	for i, r := range wantResizes {
		if view.resizes[i] != r {
			t.Errorf("Resize %d: expected %v, got %v", i, r, view.resizes[i])
		}
	}

	if view.resets != 1 {
		t.Errorf("Expected 1 reset, got %d", view.resets)
	}
}

func TestHandleKeyQuit(t *testing.T) {
	app, _ := newTestApp(t, newFakeView(), nil)
	ctx := context.Background()

	for _, tc := range []struct {
		key tcell.Key
		r   rune
	}{
		{tcell.KeyRune, 'q'},
		{tcell.KeyEscape, 0},
		{tcell.KeyCtrlC, 0},
	} {
		quit, err := app.handleKey(ctx, tc.key, tc.r)
		if err != nil || !quit {
			t.Errorf("Expected key %v %q to quit, got quit=%t err=%v", tc.key, tc.r, quit, err)
		}
	}
}

func TestHandleMouse(t *testing.T) {
	view := newFakeView()
	app, _ := newTestApp(t, view, nil)
	ctx := context.Background()

	// Press left over cell (3,2), hold it, release, then press right.
	if err := app.handleMouse(ctx, 3*cellWidth+1, gridTop+2, tcell.ButtonPrimary); err != nil {
		t.Fatalf("handleMouse failed: %v", err)
	}
	if err := app.handleMouse(ctx, 4*cellWidth, gridTop+2, tcell.ButtonPrimary); err != nil {
		t.Fatalf("handleMouse failed: %v", err)
	}
	if err := app.handleMouse(ctx, 4*cellWidth, gridTop+2, tcell.ButtonNone); err != nil {
		t.Fatalf("handleMouse failed: %v", err)
	}
	if err := app.handleMouse(ctx, 5*cellWidth, gridTop+7, tcell.ButtonSecondary); err != nil {
		t.Fatalf("handleMouse failed: %v", err)
	}
	if err := app.handleMouse(ctx, 0, gridTop, tcell.ButtonMiddle); err != nil {
		t.Fatalf("handleMouse failed: %v", err)
	}

	if len(view.pointer) != 3 {
		t.Fatalf("Expected 3 pointer presses, got %d", len(view.pointer))
	}
	wantButtons := []grid.Button{grid.ButtonPrimary, grid.ButtonSecondary, grid.ButtonAuxiliary}
	for i, b := range wantButtons {
		if view.pointer[i].Button != int(b) {
			t.Errorf("Press %d: expected button %d, got %d", i, b, view.pointer[i].Button)
		}
	}

	in := view.pointer[0]
	cell := grid.MapPointer(grid.Pointer{ClientX: in.ClientX, ClientY: in.ClientY}, in.Rect,
		grid.Backing{Width: 100, Height: 100}, view.state.Size)
	if cell != (grid.Position{X: 3, Y: 2}) {
		t.Errorf("Expected first press on (3,2), got %s", cell)
	}
	if want := "move_start " + (grid.Position{}).String(); app.message != want {
		t.Errorf("Expected message %q, got %q", want, app.message)
	}
}

func TestChimeOnSolve(t *testing.T) {
	chime := &recordingChime{}
	app, _ := newTestApp(t, newFakeView(), chime)

	frame := func(phase orchestrator.Phase, gen uint64, found bool) service.Event {
		state := *app.state
		state.Status = orchestrator.Status{Phase: phase, Generation: gen, Found: found}
		return service.Event{Type: "frame", Generation: gen, State: &state, Snapshot: state.Snapshot()}
	}

	// Initial draw, then the frame drawn for an edit.
	app.onFrame(frame(orchestrator.PhaseIdle, 0, false))
	app.onFrame(frame(orchestrator.PhaseIdle, 0, false))

	// The solve result and its reveal.
	app.onFrame(frame(orchestrator.PhaseRevealing, 1, true))
	app.onFrame(frame(orchestrator.PhaseRevealing, 1, true))
	app.onFrame(frame(orchestrator.PhaseIdle, 1, true))

	// Two quick edits: the second is drawn while the first is debouncing.
	app.onFrame(frame(orchestrator.PhaseIdle, 1, true))
	app.onFrame(frame(orchestrator.PhaseDebouncing, 2, true))
	app.onFrame(frame(orchestrator.PhaseIdle, 3, false))

	want := []bool{true, false}
	if len(chime.results) != len(want) {
		t.Fatalf("Expected chimes %v, got %v", want, chime.results)
	}
	for i := range want {
		if chime.results[i] != want[i] {
			t.Errorf("Chime %d: expected %t, got %t", i, want[i], chime.results[i])
		}
	}
}

func TestChimeTone(t *testing.T) {
	for _, found := range []bool{true, false} {
		tone, err := chimeTone(found)
		if err != nil {
			t.Fatalf("chimeTone(%t) failed: %v", found, err)
		}

		buf := make([][2]float64, 512)
		total := 0
		for {
			n, ok := tone.Stream(buf)
			total += n
			if !ok {
				break
			}
		}
		if want := chimeRate.N(chimeDuration); total != want {
			t.Errorf("chimeTone(%t): expected %d samples, got %d", found, want, total)
		}
	}
}

func TestRunQuitsOnCancel(t *testing.T) {
	view := newFakeView()
	app, _ := newTestApp(t, view, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Expected clean exit, got %v", err)
	}
}

func TestRunWithoutScreen(t *testing.T) {
	app := New(nil, newFakeView(), Options{})
	if err := app.Run(context.Background()); err != ErrNoScreen {
		t.Errorf("Expected ErrNoScreen, got %v", err)
	}
}
