package terminal

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/orchestrator"
	"github.com/wricardo/gridpath/game/render"
	"github.com/wricardo/gridpath/game/service"
)

const (
	// Terminal columns per grid cell, so cells come out roughly square.
	cellWidth = 2
	// Rows above the grid.
	gridTop = 1

	stepIncrement = 10
)

var (
	ErrNoScreen = errors.New("terminal: no screen")

	errQuit = errors.New("quit")
)

// Options configures an App
type Options struct {
	Chime   Chime
	Palette *render.Palette
}

// App draws the view in a terminal and turns mouse presses and keys into
// view edits.
type App struct {
	screen   tcell.Screen
	svc      service.ViewService
	surface  *TermSurface
	renderer *render.Renderer
	chime    Chime

	state   *service.StateInfo
	snap    grid.Snapshot
	message string

	lastButtons tcell.ButtonMask
	lastGen     uint64
}

func New(screen tcell.Screen, svc service.ViewService, opts Options) *App {
	palette := render.DefaultPalette()
	if opts.Palette != nil {
		palette = *opts.Palette
	}
	if opts.Chime == nil {
		opts.Chime = silentChime{}
	}
	surface := NewTermSurface()
	return &App{
		screen:   screen,
		svc:      svc,
		surface:  surface,
		renderer: render.NewRenderer(surface, palette),
		chime:    opts.Chime,
	}
}

// Run handles terminal events until the user quits or ctx is canceled. The
// caller owns the screen's Init and Fini.
func (a *App) Run(ctx context.Context) error {
	if a.screen == nil {
		return ErrNoScreen
	}
	a.screen.EnableMouse()
	a.screen.HideCursor()

	state, err := a.svc.State(ctx)
	if err != nil {
		return fmt.Errorf("failed to read view state: %w", err)
	}
	a.setState(state)

	unsubscribe := a.svc.Subscribe(func(ev service.Event) {
		// Runs on the view's UI loop; PostEvent never blocks
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(ev))
	})
	defer unsubscribe()

	go func() {
		<-ctx.Done()
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(errQuit))
	}()

	a.draw()
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}
		quit, err := a.handleEvent(ctx, ev)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
		a.draw()
	}
}

func (a *App) handleEvent(ctx context.Context, ev tcell.Event) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventInterrupt:
		switch data := ev.Data().(type) {
		case service.Event:
			a.onFrame(data)
		case error:
			if errors.Is(data, errQuit) {
				return true, nil
			}
		}
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		return a.handleKey(ctx, ev.Key(), ev.Rune())
	case *tcell.EventMouse:
		x, y := ev.Position()
		return false, a.handleMouse(ctx, x, y, ev.Buttons())
	}
	return false, nil
}

// handleKey returns true when the user asked to quit.
func (a *App) handleKey(ctx context.Context, key tcell.Key, r rune) (bool, error) {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true, nil
	case tcell.KeyRune:
	default:
		return false, nil
	}

	var (
		state *service.StateInfo
		err   error
	)
	size := a.state.Size
	switch r {
	case 'q':
		return true, nil
	case 'r':
		state, err = a.svc.Reset(ctx)
		a.message = "grid reset"
	case '+', '=':
		state, err = a.svc.SetStep(ctx, a.state.StepMs+stepIncrement)
	case '-', '_':
		state, err = a.svc.SetStep(ctx, a.state.StepMs-stepIncrement)
	case 'h':
		state, err = a.svc.Resize(ctx, size.Rows, size.Cols-1)
	case 'l':
		state, err = a.svc.Resize(ctx, size.Rows, size.Cols+1)
	case 'j':
		state, err = a.svc.Resize(ctx, size.Rows+1, size.Cols)
	case 'k':
		state, err = a.svc.Resize(ctx, size.Rows-1, size.Cols)
	default:
		return false, nil
	}
	if err != nil {
		return false, err
	}
	a.setState(state)
	return false, nil
}

// handleMouse acts on newly pressed buttons only; drags and releases are
// ignored.
func (a *App) handleMouse(ctx context.Context, x, y int, buttons tcell.ButtonMask) error {
	pressed := buttons & (tcell.ButtonPrimary | tcell.ButtonSecondary | tcell.ButtonMiddle)
	fresh := pressed &^ a.lastButtons
	a.lastButtons = pressed

	var button grid.Button
	switch {
	case fresh&tcell.ButtonPrimary != 0:
		button = grid.ButtonPrimary
	case fresh&tcell.ButtonMiddle != 0:
		button = grid.ButtonAuxiliary
	case fresh&tcell.ButtonSecondary != 0:
		button = grid.ButtonSecondary
	default:
		return nil
	}

	size := a.state.Size
	res, err := a.svc.Pointer(ctx, service.PointerInput{
		Button:  int(button),
		ClientX: float64(x) + 0.5,
		ClientY: float64(y) + 0.5,
		Rect: grid.Rect{
			Top:    gridTop,
			Width:  float64(size.Cols * cellWidth),
			Height: float64(size.Rows),
		},
	})
	if err != nil {
		return err
	}
	if !res.InBounds {
		return nil
	}

	if res.Applied {
		a.message = fmt.Sprintf("%s %s", res.Intent, res.Cell)
	} else {
		a.message = fmt.Sprintf("%s %s blocked", res.Intent, res.Cell)
	}
	a.setState(res.State)
	return nil
}

func (a *App) setState(state *service.StateInfo) {
	if state == nil {
		return
	}
	a.state = state
	a.snap = state.Snapshot()
}

// onFrame tracks solver progress and chimes once per finished solve. A
// solve result is the first settled frame drawn under a new generation;
// frames drawn for the edit itself still carry the previous one.
func (a *App) onFrame(ev service.Event) {
	a.state = ev.State
	a.snap = ev.Snapshot

	phase := ev.State.Status.Phase
	settled := phase == orchestrator.PhaseRevealing || phase == orchestrator.PhaseIdle
	if settled && ev.Generation != a.lastGen {
		a.chime.Solved(ev.State.Status.Found)
	}
	a.lastGen = ev.Generation
}

func (a *App) draw() {
	a.screen.Clear()
	if a.state == nil {
		a.screen.Show()
		return
	}

	size := a.snap.Size
	header := fmt.Sprintf("gridpath  %dx%d  step %d ms  %s", size.Rows, size.Cols, a.state.StepMs, a.state.Status.Phase)
	a.text(0, 0, header, tcell.StyleDefault.Bold(true))

	display := render.Display{Width: float64(size.Cols), Height: float64(size.Rows), DPR: 1}
	if _, err := a.renderer.Draw(a.snap, display); err == nil {
		a.flush()
	}

	status := a.state.Status.Text()
	if a.state.Status.Err != "" {
		status += " (" + a.state.Status.Err + ")"
	}
	a.text(0, gridTop+size.Rows, status, tcell.StyleDefault)
	a.text(0, gridTop+size.Rows+1, a.message, tcell.StyleDefault.Dim(true))
	a.text(0, gridTop+size.Rows+2,
		"left: wall  middle: start  right: end  r: reset  +/-: step  h/l: cols  j/k: rows  q: quit",
		tcell.StyleDefault.Dim(true))

	a.screen.Show()
}

func (a *App) flush() {
	w, h := a.surface.Size()
	empty := tcell.StyleDefault.Dim(true)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := x*cellWidth, gridTop+y
			c, ok := a.surface.At(x, y)
			if !ok {
				a.screen.SetContent(sx, sy, '·', nil, empty)
				a.screen.SetContent(sx+1, sy, ' ', nil, empty)
				continue
			}
			style := tcell.StyleDefault.Background(tcellColor(c))
			for i := 0; i < cellWidth; i++ {
				a.screen.SetContent(sx+i, sy, ' ', nil, style)
			}
		}
	}
}

func (a *App) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		a.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func tcellColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
