package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/orchestrator"
	"github.com/wricardo/gridpath/game/render"
	"github.com/wricardo/gridpath/game/service"
	"github.com/wricardo/gridpath/transport/websocket"
)

// MockViewService implements service.ViewService for testing
type MockViewService struct {
	PointerFunc     func(ctx context.Context, in service.PointerInput) (*service.EditResult, error)
	ApplyIntentFunc func(ctx context.Context, intent grid.Intent, cell grid.Position) (*service.EditResult, error)
	ResizeFunc      func(ctx context.Context, rows, cols int) (*service.StateInfo, error)
	SetStepFunc     func(ctx context.Context, stepMs int) (*service.StateInfo, error)
	ResetFunc       func(ctx context.Context) (*service.StateInfo, error)
	SetDisplayFunc  func(ctx context.Context, d render.Display) (*service.StateInfo, error)
	FrameFunc       func(ctx context.Context) (*image.RGBA, error)
	StateFunc       func(ctx context.Context) (*service.StateInfo, error)

	ListPresetsFunc func(ctx context.Context) ([]*config.PresetInfo, error)
	ApplyPresetFunc func(ctx context.Context, name string) (*service.StateInfo, error)
}

func defaultState() *service.StateInfo {
	return &service.StateInfo{
		Size:    grid.Size{Rows: 20, Cols: 20},
		MaxSize: grid.MaxSize,
		End:     grid.Position{X: 19, Y: 19},
		Walls:   []grid.Position{},
		Path:    []grid.Position{},
		StepMs:  grid.DefaultStepDelay,
	}
}

func (m *MockViewService) Pointer(ctx context.Context, in service.PointerInput) (*service.EditResult, error) {
	if m.PointerFunc != nil {
		return m.PointerFunc(ctx, in)
	}
	return &service.EditResult{State: defaultState()}, nil
}

func (m *MockViewService) ApplyIntent(ctx context.Context, intent grid.Intent, cell grid.Position) (*service.EditResult, error) {
	if m.ApplyIntentFunc != nil {
		return m.ApplyIntentFunc(ctx, intent, cell)
	}
	return &service.EditResult{Applied: true, Intent: intent.String(), Cell: cell, State: defaultState()}, nil
}

func (m *MockViewService) Resize(ctx context.Context, rows, cols int) (*service.StateInfo, error) {
	if m.ResizeFunc != nil {
		return m.ResizeFunc(ctx, rows, cols)
	}
	return defaultState(), nil
}

func (m *MockViewService) SetStep(ctx context.Context, stepMs int) (*service.StateInfo, error) {
	if m.SetStepFunc != nil {
		return m.SetStepFunc(ctx, stepMs)
	}
	return defaultState(), nil
}

func (m *MockViewService) Reset(ctx context.Context) (*service.StateInfo, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx)
	}
	return defaultState(), nil
}

func (m *MockViewService) SetDisplay(ctx context.Context, d render.Display) (*service.StateInfo, error) {
	if m.SetDisplayFunc != nil {
		return m.SetDisplayFunc(ctx, d)
	}
	return defaultState(), nil
}

func (m *MockViewService) Frame(ctx context.Context) (*image.RGBA, error) {
	if m.FrameFunc != nil {
		return m.FrameFunc(ctx)
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (m *MockViewService) WritePNG(ctx context.Context, w io.Writer) error {
	img, err := m.Frame(ctx)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func (m *MockViewService) State(ctx context.Context) (*service.StateInfo, error) {
	if m.StateFunc != nil {
		return m.StateFunc(ctx)
	}
	return defaultState(), nil
}

func (m *MockViewService) Subscribe(fn func(service.Event)) func() {
	return func() {}
}

func (m *MockViewService) ListPresets(ctx context.Context) ([]*config.PresetInfo, error) {
	if m.ListPresetsFunc != nil {
		return m.ListPresetsFunc(ctx)
	}
	return []*config.PresetInfo{}, nil
}

func (m *MockViewService) ApplyPreset(ctx context.Context, name string) (*service.StateInfo, error) {
	if m.ApplyPresetFunc != nil {
		return m.ApplyPresetFunc(ctx, name)
	}
	return defaultState(), nil
}

func (m *MockViewService) Close() error { return nil }

// Test helpers
func setupTestServer(mockService *MockViewService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	switch b := body.(type) {
	case nil:
	case string:
		bodyBytes = []byte(b)
	default:
		bodyBytes, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestGetState(t *testing.T) {
	mockService := &MockViewService{
		StateFunc: func(ctx context.Context) (*service.StateInfo, error) {
			st := defaultState()
			st.Path = []grid.Position{{X: 0, Y: 0}, {X: 1, Y: 0}}
			st.Status = orchestrator.Status{Phase: orchestrator.PhaseRevealing, Found: true}
			return st, nil
		},
	}

	server := setupTestServer(mockService)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/state", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp service.StateInfo
	parseResponse(t, w, &resp)
	if len(resp.Path) != 2 {
		t.Errorf("Expected 2 path cells, got %d", len(resp.Path))
	}
	if resp.Status.Phase != orchestrator.PhaseRevealing {
		t.Errorf("Expected revealing phase, got %s", resp.Status.Phase)
	}
	if !strings.Contains(w.Body.String(), `"phase":"revealing"`) {
		t.Errorf("Expected phase to be encoded as text: %s", w.Body.String())
	}
}

func TestPointer(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockViewService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "Right click moves end",
			requestBody: map[string]interface{}{
				"button": 2, "clientX": 125.5, "clientY": 40,
				"rect": map[string]float64{"left": 10, "top": 20, "width": 300, "height": 300},
			},
			setupMock: func(m *MockViewService) {
				m.PointerFunc = func(ctx context.Context, in service.PointerInput) (*service.EditResult, error) {
					if in.Button != 2 || in.ClientX != 125.5 || in.Rect.Left != 10 || in.Rect.Width != 300 {
						t.Errorf("Unexpected pointer input: %+v", in)
					}
					return &service.EditResult{Applied: true, Intent: "move_end", Cell: grid.Position{X: 5, Y: 1}, InBounds: true, State: defaultState()}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.EditResult
				parseResponse(t, w, &resp)
				if !resp.Applied || resp.Intent != "move_end" || resp.Cell != (grid.Position{X: 5, Y: 1}) {
					t.Errorf("Unexpected result: %+v", resp)
				}
			},
		},
		{
			name:           "Invalid JSON",
			requestBody:    "{bad",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing rect",
			requestBody:    map[string]interface{}{"button": 0, "clientX": 1, "clientY": 1},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockViewService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/pointer", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestIntent(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectIntent   grid.Intent
		expectCell     grid.Position
	}{
		{
			name:           "Toggle wall",
			requestBody:    map[string]interface{}{"intent": "toggle_wall", "x": 3, "y": 4},
			expectedStatus: http.StatusOK,
			expectIntent:   grid.IntentToggleWall,
			expectCell:     grid.Position{X: 3, Y: 4},
		},
		{
			name:           "Short alias",
			requestBody:    map[string]interface{}{"intent": "start", "x": 0, "y": 7},
			expectedStatus: http.StatusOK,
			expectIntent:   grid.IntentMoveStart,
			expectCell:     grid.Position{X: 0, Y: 7},
		},
		{
			name:           "Unknown intent",
			requestBody:    map[string]interface{}{"intent": "teleport", "x": 1, "y": 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing coordinates",
			requestBody:    map[string]interface{}{"intent": "toggle_wall"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mockService := &MockViewService{
				ApplyIntentFunc: func(ctx context.Context, intent grid.Intent, cell grid.Position) (*service.EditResult, error) {
					called = true
					if intent != tt.expectIntent || cell != tt.expectCell {
						t.Errorf("Expected %s at %s, got %s at %s", tt.expectIntent, tt.expectCell, intent, cell)
					}
					return &service.EditResult{Applied: true, Intent: intent.String(), Cell: cell, State: defaultState()}, nil
				},
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/intent", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if called != (tt.expectedStatus == http.StatusOK) {
				t.Errorf("Service called = %t for status %d", called, w.Code)
			}
		})
	}
}

func TestIntentBlockedStillOK(t *testing.T) {
	mockService := &MockViewService{
		ApplyIntentFunc: func(ctx context.Context, intent grid.Intent, cell grid.Position) (*service.EditResult, error) {
			return &service.EditResult{Applied: false, Intent: intent.String(), Cell: cell, State: defaultState()}, nil
		},
	}

	server := setupTestServer(mockService)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/intent", map[string]interface{}{"intent": "move_start", "x": 19, "y": 19}))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp service.EditResult
	parseResponse(t, w, &resp)
	if resp.Applied {
		t.Error("Expected applied=false")
	}
}

func TestSize(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectRows     int
		expectCols     int
	}{
		{"Both axes", map[string]int{"rows": 30, "cols": 40}, http.StatusOK, 30, 40},
		{"Rows only keeps cols", map[string]int{"rows": 12}, http.StatusOK, 12, 20},
		{"Cols only keeps rows", map[string]int{"cols": 15}, http.StatusOK, 20, 15},
		{"Empty body", map[string]int{}, http.StatusBadRequest, 0, 0},
		{"Invalid JSON", "nope", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockViewService{
				ResizeFunc: func(ctx context.Context, rows, cols int) (*service.StateInfo, error) {
					if rows != tt.expectRows || cols != tt.expectCols {
						t.Errorf("Expected %dx%d, got %dx%d", tt.expectRows, tt.expectCols, rows, cols)
					}
					st := defaultState()
					st.Size = grid.Size{Rows: rows, Cols: cols}
					return st, nil
				},
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("PUT", "/api/size", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestStep(t *testing.T) {
	var got int
	mockService := &MockViewService{
		SetStepFunc: func(ctx context.Context, stepMs int) (*service.StateInfo, error) {
			got = stepMs
			st := defaultState()
			st.StepMs = stepMs
			return st, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("PUT", "/api/step", map[string]int{"step_ms": 0}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got != 0 {
		t.Errorf("Expected step 0, got %d", got)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("PUT", "/api/step", map[string]int{}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing step_ms, got %d", w.Code)
	}
}

func TestDisplay(t *testing.T) {
	mockService := &MockViewService{
		SetDisplayFunc: func(ctx context.Context, d render.Display) (*service.StateInfo, error) {
			if d.Width <= 0 {
				return nil, fmt.Errorf("%w, got %.0fx%.0f", orchestrator.ErrInvalidDisplay, d.Width, d.Height)
			}
			if d.DPR != 2 {
				t.Errorf("Expected dpr 2, got %v", d.DPR)
			}
			return defaultState(), nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("PUT", "/api/display", map[string]float64{"width": 600, "height": 600, "dpr": 2}))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("PUT", "/api/display", map[string]float64{"width": 0, "height": 600}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestReset(t *testing.T) {
	called := false
	mockService := &MockViewService{
		ResetFunc: func(ctx context.Context) (*service.StateInfo, error) {
			called = true
			return defaultState(), nil
		},
	}

	server := setupTestServer(mockService)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/reset", nil))

	if w.Code != http.StatusOK || !called {
		t.Fatalf("Expected reset to succeed, got %d (called=%t)", w.Code, called)
	}
	var resp map[string]interface{}
	parseResponse(t, w, &resp)
	if resp["message"] != "Grid reset successfully" {
		t.Errorf("Unexpected message: %v", resp["message"])
	}
}

func TestFrame(t *testing.T) {
	server := setupTestServer(&MockViewService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/frame.png", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("Expected width 4, got %d", img.Bounds().Dx())
	}
}

func TestFrameError(t *testing.T) {
	server := setupTestServer(&MockViewService{
		FrameFunc: func(ctx context.Context) (*image.RGBA, error) {
			return nil, orchestrator.ErrLoopStopped
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/frame.png", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name           string
		presetName     string
		applyErr       error
		expectedStatus int
	}{
		{"Apply preset", "spiral", nil, http.StatusOK},
		{"Apply preset with extension", "spiral.json", nil, http.StatusOK},
		{"Unknown preset", "nope", fmt.Errorf("%w: 'nope'", config.ErrPresetNotFound), http.StatusNotFound},
		{"Invalid preset", "broken", fmt.Errorf("%w: end on wall", config.ErrInvalidPreset), http.StatusBadRequest},
		{"No preset manager", "spiral", service.ErrNoPresets, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockViewService{
				ApplyPresetFunc: func(ctx context.Context, name string) (*service.StateInfo, error) {
					if tt.applyErr != nil {
						return nil, tt.applyErr
					}
					if name != "spiral" {
						t.Errorf("Expected name 'spiral', got %s", name)
					}
					st := defaultState()
					st.Preset = name
					return st, nil
				},
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/presets/"+tt.presetName, nil)
			req = mux.SetURLVars(req, map[string]string{"name": tt.presetName})

			server.handleApplyPreset(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestListPresets(t *testing.T) {
	mockService := &MockViewService{
		ListPresetsFunc: func(ctx context.Context) ([]*config.PresetInfo, error) {
			return []*config.PresetInfo{
				{PresetID: "open", Name: "Open", Rows: 20, Cols: 20},
				{PresetID: "spiral", Name: "Spiral", Rows: 20, Cols: 20, Walls: 172},
			}, nil
		},
	}

	server := setupTestServer(mockService)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/presets", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp []config.PresetInfo
	parseResponse(t, w, &resp)
	if len(resp) != 2 || resp[1].Walls != 172 {
		t.Errorf("Unexpected presets: %+v", resp)
	}
}

func TestHealthAndIndex(t *testing.T) {
	server := setupTestServer(&MockViewService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected health 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected index 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<canvas") {
		t.Error("Expected index page to contain a canvas")
	}
}
