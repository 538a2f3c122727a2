// Command gridpath-desktop is a native window onto a running gridpath server.
// It follows the server over its websocket and sends presses back as
// pointer events, so edits made here show up on every other client.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/render"
	"github.com/wricardo/gridpath/game/service"
)

const (
	screenWidth  = 720
	screenHeight = 780
	headerHeight = 40
	footerHeight = 20

	requestTimeout = 5 * time.Second
	reconnectDelay = 2 * time.Second
	stepIncrement  = 10
)

var background = color.RGBA{0xf4, 0xf1, 0xe8, 0xff}

// wsMessage is the envelope sent by the server hub
type wsMessage struct {
	Type       string             `json:"type"`
	Generation uint64             `json:"generation"`
	State      *service.StateInfo `json:"state,omitempty"`
}

// Game is the desktop client
type Game struct {
	baseURL  string
	client   *http.Client
	renderer *render.Renderer
	surface  *screenSurface

	stateMutex sync.RWMutex
	state      *service.StateInfo
	connected  bool
	lastErr    string
}

func NewGame(baseURL string) *Game {
	g := &Game{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		surface: &screenSurface{oy: headerHeight},
	}
	g.renderer = render.NewRenderer(g.surface, render.DefaultPalette())
	return g
}

// wsURL turns the server base URL into its websocket endpoint
func wsURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// listen follows the server's websocket until ctx is done, reconnecting on
// errors.
func (g *Game) listen(ctx context.Context) {
	endpoint, err := wsURL(g.baseURL)
	if err != nil {
		log.Printf("[WS] invalid server url %s: %v", g.baseURL, err)
		return
	}

	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			g.setError(fmt.Sprintf("connect: %v", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}
		log.Printf("[WS] connected to %s", endpoint)
		g.readMessages(ctx, conn)
	}
}

func (g *Game) readMessages(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[WS] read error: %v", err)
				g.setError("disconnected")
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("[WS] JSON parse error: %v", err)
			continue
		}
		if msg.State == nil {
			continue
		}

		g.stateMutex.Lock()
		g.state = msg.State
		g.connected = true
		g.lastErr = ""
		g.stateMutex.Unlock()
	}
}

func (g *Game) setError(msg string) {
	g.stateMutex.Lock()
	defer g.stateMutex.Unlock()
	g.connected = false
	g.lastErr = msg
}

func (g *Game) snapshot() (*service.StateInfo, bool, string) {
	g.stateMutex.RLock()
	defer g.stateMutex.RUnlock()
	return g.state, g.connected, g.lastErr
}

// send issues a request in the background; the websocket delivers the result.
func (g *Game) send(method, path string, body interface{}) {
	go func() {
		if err := g.call(method, path, body); err != nil {
			log.Printf("[EDIT] %s %s failed: %v", method, path, err)
		}
	}()
}

func (g *Game) call(method, path string, body interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, g.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error)
	}
	return nil
}

// Update handles input
func (g *Game) Update() error {
	state, _, _ := g.snapshot()
	if state == nil {
		return nil
	}

	for _, b := range []ebiten.MouseButton{ebiten.MouseButtonLeft, ebiten.MouseButtonMiddle, ebiten.MouseButtonRight} {
		if !inpututil.IsMouseButtonJustPressed(b) {
			continue
		}
		x, y := ebiten.CursorPosition()
		in, ok := pointerInput(b, x, y, g.surface.w, g.surface.h)
		if ok {
			g.send(http.MethodPost, "/api/pointer", in)
		}
	}

	size := state.Size
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.send(http.MethodPost, "/api/reset", nil)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		g.send(http.MethodPut, "/api/step", map[string]int{"step_ms": state.StepMs + stepIncrement})
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		g.send(http.MethodPut, "/api/step", map[string]int{"step_ms": state.StepMs - stepIncrement})
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		g.send(http.MethodPut, "/api/size", map[string]int{"cols": size.Cols + 1})
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		g.send(http.MethodPut, "/api/size", map[string]int{"cols": size.Cols - 1})
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		g.send(http.MethodPut, "/api/size", map[string]int{"rows": size.Rows + 1})
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		g.send(http.MethodPut, "/api/size", map[string]int{"rows": size.Rows - 1})
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	}
	return nil
}

// pointerInput converts a press in screen pixels into the server's pointer
// form. The grid area is the whole window minus the header and footer.
func pointerInput(b ebiten.MouseButton, x, y, w, h int) (service.PointerInput, bool) {
	var button grid.Button
	switch b {
	case ebiten.MouseButtonLeft:
		button = grid.ButtonPrimary
	case ebiten.MouseButtonMiddle:
		button = grid.ButtonAuxiliary
	case ebiten.MouseButtonRight:
		button = grid.ButtonSecondary
	default:
		return service.PointerInput{}, false
	}
	if w <= 0 || h <= 0 {
		return service.PointerInput{}, false
	}
	return service.PointerInput{
		Button:  int(button),
		ClientX: float64(x) + 0.5,
		ClientY: float64(y) + 0.5,
		Rect:    grid.Rect{Top: headerHeight, Width: float64(w), Height: float64(h)},
	}, true
}

// Draw renders the latest server state
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	state, connected, lastErr := g.snapshot()
	if state == nil {
		msg := "Connecting to " + g.baseURL + "..."
		if lastErr != "" {
			msg += "\n" + lastErr
		}
		ebitenutil.DebugPrint(screen, msg)
		return
	}

	bounds := screen.Bounds()
	g.surface.dst = screen
	display := render.Display{
		Width:  float64(bounds.Dx()),
		Height: float64(bounds.Dy() - headerHeight - footerHeight),
		DPR:    1,
	}
	if _, err := g.renderer.Draw(state.Snapshot(), display); err != nil {
		ebitenutil.DebugPrint(screen, err.Error())
		return
	}

	header := fmt.Sprintf("%dx%d  step %d ms  %s\n%s",
		state.Size.Rows, state.Size.Cols, state.StepMs, state.Status.Phase, state.StatusText)
	if !connected {
		header += "  (offline: " + lastErr + ")"
	}
	ebitenutil.DebugPrintAt(screen, header, 8, 4)
	ebitenutil.DebugPrintAt(screen,
		"Left: wall | Middle: start | Right: end | R: reset | +/-: step | Arrows: size | ESC: quit",
		8, bounds.Dy()-footerHeight+2)
}

// Layout works in device pixels so the grid stays sharp on high density
// screens. Ebiten prefers LayoutF when it is present.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.LayoutF(float64(outsideWidth), float64(outsideHeight))
	return int(math.Ceil(w)), int(math.Ceil(h))
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	scale := ebiten.Monitor().DeviceScaleFactor()
	return outsideWidth * scale, outsideHeight * scale
}

// screenSurface adapts an ebiten image to render.Surface, offset below the
// header.
type screenSurface struct {
	dst    *ebiten.Image
	ox, oy float32
	w, h   int
}

func (s *screenSurface) Resize(width, height int) {
	s.w, s.h = width, height
}

func (s *screenSurface) Clear() {
	if s.dst == nil {
		return
	}
	vector.DrawFilledRect(s.dst, s.ox, s.oy, float32(s.w), float32(s.h), color.White, false)
}

func (s *screenSurface) FillRect(x, y, w, h float64, c color.Color) {
	if s.dst == nil {
		return
	}
	vector.DrawFilledRect(s.dst, s.ox+float32(x), s.oy+float32(y), float32(w), float32(h), c, false)
}

func (s *screenSurface) Line(x1, y1, x2, y2, width float64, c color.Color) {
	if s.dst == nil {
		return
	}
	vector.StrokeLine(s.dst, s.ox+float32(x1), s.oy+float32(y1), s.ox+float32(x2), s.oy+float32(y2), float32(width), c, false)
}

func main() {
	server := flag.String("server", "http://localhost:8080", "gridpath server URL")
	flag.Parse()

	game := NewGame(*server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go game.listen(ctx)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("gridpath")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
