// Command gridpath runs the grid path view.
//
// It supports four commands:
//  1. "serve" (default) – runs the HTTP server exposing the canvas page, REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server, reusing an external API or spinning up an internal one
//  3. "term" – draws the view in the terminal
//  4. "render" – loads a preset, solves it once and writes the frame as PNG
//
// Flags can also be set from the environment or a .env file, and control the
// solver, grid defaults, display size, debug logging, and optional ngrok
// tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridpath/api"
	"github.com/wricardo/gridpath/frontend/terminal"
	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/orchestrator"
	"github.com/wricardo/gridpath/game/render"
	"github.com/wricardo/gridpath/game/service"
	"github.com/wricardo/gridpath/transport/mcp"
	"github.com/wricardo/gridpath/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "gridpath"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Flags on the root command are shared by
// every subcommand.
func newApp() *cli.Command {
	defaults := config.DefaultSettings()

	return &cli.Command{
		Name:    AppName,
		Usage:   "interactive grid path view backed by a remote A* solver",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "solver-url", Value: defaults.SolverURL, Usage: "base URL of the A* service", Sources: cli.EnvVars("SOLVER_URL")},
			&cli.DurationFlag{Name: "solver-timeout", Value: defaults.SolverTimeout, Usage: "timeout for one solver request", Sources: cli.EnvVars("SOLVER_TIMEOUT")},
			&cli.DurationFlag{Name: "debounce", Value: defaults.Debounce, Usage: "quiet time after an edit before solving", Sources: cli.EnvVars("DEBOUNCE")},
			&cli.StringFlag{Name: "preset-dir", Value: defaults.PresetDir, Usage: "directory containing preset layouts", Sources: cli.EnvVars("CONFIG_DIR", "PRESET_DIR")},
			&cli.StringFlag{Name: "preset", Usage: "preset to load at startup", Sources: cli.EnvVars("PRESET")},
			&cli.IntFlag{Name: "rows", Value: defaults.Rows, Usage: "initial rows"},
			&cli.IntFlag{Name: "cols", Value: defaults.Cols, Usage: "initial columns"},
			&cli.IntFlag{Name: "max-size", Value: defaults.MaxSize, Usage: "largest allowed rows or columns", Sources: cli.EnvVars("MAX_SIZE")},
			&cli.IntFlag{Name: "step", Value: defaults.StepMs, Usage: "reveal delay per path cell in milliseconds"},
			&cli.FloatFlag{Name: "width", Value: defaults.Display.Width, Usage: "display width"},
			&cli.FloatFlag{Name: "height", Value: defaults.Display.Height, Usage: "display height"},
			&cli.FloatFlag{Name: "dpr", Value: defaults.Display.DPR, Usage: "device pixel ratio"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.StringFlag{Name: "log-file", Usage: "write logs to this file instead of stderr", Sources: cli.EnvVars("LOG_FILE")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel for serve", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			termCommand(),
			renderCommand(),
		},
		Action: runServe,
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "run the HTTP server with the canvas page, API, WebSocket, and MCP endpoint (default)",
		Action:  runServe,
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "run an MCP stdio server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "external API to reuse when it is running", Sources: cli.EnvVars("API_URL")},
		},
		Action: runStdioMCP,
	}
}

func termCommand() *cli.Command {
	return &cli.Command{
		Name:  "term",
		Usage: "draw the view in the terminal",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "sound", Usage: "play a short tone when a solve finishes"},
		},
		Action: runTerm,
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "solve once and write the frame as PNG",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "gridpath.png", Usage: "output file"},
			&cli.DurationFlag{Name: "wait", Value: 30 * time.Second, Usage: "how long to wait for the solver"},
		},
		Action: runRender,
	}
}

// setupLogging applies --debug and --log-file. The returned closer releases
// the log file, if any.
func setupLogging(cmd *cli.Command, fallback io.Writer) (io.Closer, error) {
	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	path := cmd.String("log-file")
	if path == "" {
		if fallback != nil {
			log.SetOutput(fallback)
		}
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}

// settingsFrom collects the view settings from flags.
func settingsFrom(cmd *cli.Command) config.Settings {
	s := config.DefaultSettings()
	s.SolverURL = cmd.String("solver-url")
	s.SolverTimeout = cmd.Duration("solver-timeout")
	s.Debounce = cmd.Duration("debounce")
	s.PresetDir = cmd.String("preset-dir")
	s.Preset = cmd.String("preset")
	s.Rows = cmd.Int("rows")
	s.Cols = cmd.Int("cols")
	s.MaxSize = cmd.Int("max-size")
	s.StepMs = cmd.Int("step")
	s.DefaultPreset = !cmd.IsSet("rows") && !cmd.IsSet("cols") && !cmd.IsSet("step")
	s.Display = render.Display{
		Width:  cmd.Float("width"),
		Height: cmd.Float("height"),
		DPR:    cmd.Float("dpr"),
	}
	return s
}

// newView wires the preset manager and starts a view service. A missing
// preset directory only disables presets.
func newView(ctx context.Context, settings config.Settings) (service.ViewService, error) {
	var presets service.PresetManager
	manager, err := config.NewManager(settings.PresetDir)
	if err != nil {
		log.Printf("[PRESET] presets disabled: %v", err)
	} else {
		presets = manager
	}

	return service.NewViewService(ctx, service.Options{
		Settings: settings,
		Presets:  presets,
	})
}

// newHandler combines the API server and the /mcp endpoint.
func newHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()

	// Mount API server at root
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runServe starts the HTTP server with the canvas page, REST API, WebSocket
// hub, and an /mcp proxy endpoint. If ngrok is enabled it also provisions a
// public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	closer, err := setupLogging(cmd, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

	view, err := newView(ctx, settingsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to start view: %w", err)
	}
	defer view.Close()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()
	detach := hub.Attach(view)
	defer detach()

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	mcpClient := mcp.NewClient("http://" + addr)
	handler := newHandler(api.NewServer(view, hub), mcpClient)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Frame PNGs for large displays take a moment to encode
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("Canvas: http://%s/", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd, handler)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// runNgrok serves handler through an ngrok tunnel until ctx is done.
func runNgrok(ctx context.Context, cmd *cli.Command, handler http.Handler) {
	authToken := cmd.String("ngrok-auth")
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if domain := cmd.String("ngrok-domain"); domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	stop := context.AfterFunc(ctx, func() {
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	})
	defer stop()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  Canvas (ngrok): %s/", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses the API at --api-url when
// one answers there; otherwise it starts a view with an internal HTTP API
// bound to a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	closer, err := setupLogging(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	externalURL := cmd.String("api-url")
	baseURL := externalURL

	log.Printf("Checking for external API server at %s...", externalURL)
	if !apiAvailable(ctx, externalURL) {
		log.Printf("No external API server found, starting internal HTTP server")

		view, err := newView(ctx, settingsFrom(cmd))
		if err != nil {
			return fmt.Errorf("failed to start view: %w", err)
		}
		defer view.Close()

		internalURL, shutdown, err := serveInternal(view)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = internalURL
	} else {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)
	return mcpClient.Run()
}

func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// serveInternal starts the API on a random loopback port.
func serveInternal(view service.ViewService) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}
	addr := listener.Addr().String()
	log.Printf("Starting internal HTTP server on %s for MCP stdio", addr)

	hub := websocket.NewHub()
	go hub.Run()
	detach := hub.Attach(view)

	httpServer := &http.Server{Handler: api.NewServer(view, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()

	shutdown := func() {
		detach()
		httpServer.Close()
		hub.Stop()
	}
	return "http://" + addr, shutdown, nil
}

// runTerm draws the view in the terminal. Logs would corrupt the screen, so
// they go to --log-file or nowhere.
func runTerm(ctx context.Context, cmd *cli.Command) error {
	closer, err := setupLogging(cmd, io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	view, err := newView(ctx, settingsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to start view: %w", err)
	}
	defer view.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()

	opts := terminal.Options{}
	if cmd.Bool("sound") {
		chime, err := terminal.NewBeepChime()
		if err != nil {
			log.Printf("[VIEW] sound disabled: %v", err)
		} else {
			defer chime.Close()
			opts.Chime = chime
		}
	}

	return terminal.New(screen, view, opts).Run(ctx)
}

// runRender loads the configured grid, waits for one solve and writes the
// frame. The reveal is skipped so the frame shows the whole path.
func runRender(ctx context.Context, cmd *cli.Command) error {
	closer, err := setupLogging(cmd, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	settings := settingsFrom(cmd)
	settings.StepMs = 0
	settings.InitialSolve = true

	view, err := newView(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to start view: %w", err)
	}
	defer view.Close()

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("wait"))
	defer cancel()

	// presets carry their own step delay
	if _, err := view.SetStep(ctx, 0); err != nil {
		return err
	}

	state, err := waitForSolve(ctx, view)
	if err != nil {
		return err
	}

	out := cmd.String("out")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := view.WritePNG(ctx, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("%s\n%s\nwrote %s (%dx%d)\n", state.Snapshot().ASCII(), state.StatusText, out, state.Layout.Width, state.Layout.Height)
	return nil
}

// waitForSolve polls until the first solve has finished.
func waitForSolve(ctx context.Context, view service.ViewService) (*service.StateInfo, error) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		state, err := view.State(ctx)
		if err != nil {
			return nil, err
		}
		if state.Status.Generation > 0 && state.Status.Phase == orchestrator.PhaseIdle {
			return state, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, errors.New("no solver response within the wait limit")
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
