package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"gridpath",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`gridpath - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The view is a grid of cells with one start (S), one end (E) and any number of
walls (#). After every edit the server asks an A* solver for the shortest path
and reveals it cell by cell (*).

AVAILABLE TOOLS:
- grid_state: Current grid as ASCII plus the solver status
- toggle_wall: Add or remove a wall at (x, y)
- move_start / move_end: Move the start or end to (x, y)
- resize_grid: Change rows and cols (clamped to 10..max)
- set_step: Change the reveal delay per path cell (0..1000 ms)
- reset_grid: Clear walls, restore default start and end
- list_presets / apply_preset: Load a saved layout

Coordinates are zero-based, x is the column and y the row. Edits onto the
start, the end, or a wall (for start/end moves) are ignored.`),
	)

	c.registerTools()
}

func cellSchema(action string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"x": map[string]interface{}{
				"type":        "integer",
				"description": "Column of the cell to " + action,
			},
			"y": map[string]interface{}{
				"type":        "integer",
				"description": "Row of the cell to " + action,
			},
		},
		Required: []string{"x", "y"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "grid_state",
		Description: "Get the current grid, path and solver status",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGridState)

	// Editing
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_wall",
		Description: "Add a wall to an empty cell or remove an existing wall",
		InputSchema: cellSchema("toggle"),
	}, c.intentHandler("toggle_wall"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_start",
		Description: "Move the start cell",
		InputSchema: cellSchema("start from"),
	}, c.intentHandler("move_start"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_end",
		Description: "Move the end cell",
		InputSchema: cellSchema("end at"),
	}, c.intentHandler("move_end"))

	// Controls
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "resize_grid",
		Description: "Change the grid dimensions. Walls outside the new bounds are dropped",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rows": map[string]interface{}{
					"type":        "integer",
					"description": "Number of rows",
				},
				"cols": map[string]interface{}{
					"type":        "integer",
					"description": "Number of columns",
				},
			},
			Required: []string{"rows", "cols"},
		},
	}, c.handleResize)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_step",
		Description: "Set the delay between revealed path cells in milliseconds",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"step_ms": map[string]interface{}{
					"type":        "integer",
					"description": "Delay per cell, 0 reveals the whole path at once",
				},
			},
			Required: []string{"step_ms"},
		},
	}, c.handleSetStep)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_grid",
		Description: "Remove all walls and restore the default start and end",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleReset)

	// Presets
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List the preset layouts available on the server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "apply_preset",
		Description: "Replace the grid with a preset layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"preset_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset id from list_presets",
				},
			},
			Required: []string{"preset_id"},
		},
	}, c.handleApplyPreset)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Run serves MCP over stdio until stdin closes
func (c *Client) Run() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a whole number argument; JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string) (int, error) {
	switch v := args[name].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number, got %v", name, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case nil:
		return 0, fmt.Errorf("%s is required", name)
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", name, v)
	}
}

// Tool handlers

func (c *Client) handleGridState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state service.StateInfo
	if err := c.apiCall(ctx, "GET", "/api/state", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatState(&state)), nil
}

func (c *Client) intentHandler(intent string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(request)
		x, err := intArg(args, "x")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		y, err := intArg(args, "y")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		body := map[string]interface{}{"intent": intent, "x": x, "y": y}

		var result service.EditResult
		if err := c.apiCall(ctx, "POST", "/api/intent", body, &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(formatEditResult(&result)), nil
	}
}

func (c *Client) handleResize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	rows, err := intArg(args, "rows")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cols, err := intArg(args, "cols")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state service.StateInfo
	if err := c.apiCall(ctx, "PUT", "/api/size", map[string]int{"rows": rows, "cols": cols}, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Grid resized to %d rows x %d cols", state.Size.Rows, state.Size.Cols)
	if state.Size.Rows != rows || state.Size.Cols != cols {
		result += fmt.Sprintf(" (requested %dx%d, clamped to 10..%d)", rows, cols, state.MaxSize)
	}
	return mcp.NewToolResultText(result + "\n\n" + formatState(&state)), nil
}

func (c *Client) handleSetStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stepMs, err := intArg(arguments(request), "step_ms")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state service.StateInfo
	if err := c.apiCall(ctx, "PUT", "/api/step", map[string]int{"step_ms": stepMs}, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Step delay set to %d ms", state.StepMs)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Message string             `json:"message"`
		State   *service.StateInfo `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", "/api/reset", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := response.Message
	if response.State != nil {
		result += "\n\n" + formatState(response.State)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var presets []config.PresetInfo
	if err := c.apiCall(ctx, "GET", "/api/presets", nil, &presets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Available Presets (%d):\n\n", len(presets))
	for _, p := range presets {
		result += fmt.Sprintf("- %s: %s (%dx%d, %d walls)", p.PresetID, p.Name, p.Rows, p.Cols, p.Walls)
		if p.Description != "" {
			result += " - " + p.Description
		}
		result += "\n"
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleApplyPreset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	presetID, _ := arguments(request)["preset_id"].(string)
	if presetID == "" {
		return mcp.NewToolResultError("preset_id is required"), nil
	}

	var state service.StateInfo
	if err := c.apiCall(ctx, "POST", "/api/presets/"+presetID, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Loaded preset %s\n\n%s", presetID, formatState(&state))), nil
}

// Formatting

func formatState(state *service.StateInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grid: %d rows x %d cols (max %d)\n", state.Size.Rows, state.Size.Cols, state.MaxSize)
	fmt.Fprintf(&b, "Start: %s  End: %s  Walls: %d\n", state.Start, state.End, len(state.Walls))
	fmt.Fprintf(&b, "Step: %d ms  Phase: %s\n", state.StepMs, state.Status.Phase)
	if state.Preset != "" {
		fmt.Fprintf(&b, "Preset: %s\n", state.Preset)
	}
	b.WriteString(state.Status.Text())
	if state.Status.Err != "" {
		fmt.Fprintf(&b, " (solver error: %s)", state.Status.Err)
	}
	b.WriteString("\n\nLegend: S=start E=end #=wall *=path .=empty\n")
	b.WriteString(state.Snapshot().ASCII())
	return b.String()
}

func formatEditResult(result *service.EditResult) string {
	var b strings.Builder
	switch {
	case result.Applied:
		fmt.Fprintf(&b, "%s at %s applied\n", result.Intent, result.Cell)
	case !result.InBounds:
		fmt.Fprintf(&b, "%s at %s ignored: cell is outside the grid\n", result.Intent, result.Cell)
	default:
		fmt.Fprintf(&b, "%s at %s ignored: cell is occupied by the start, end or a wall\n", result.Intent, result.Cell)
	}
	if result.State != nil {
		b.WriteString("The path is recomputed after a short pause; call grid_state to see it.\n\n")
		b.WriteString(formatState(result.State))
	}
	return b.String()
}
