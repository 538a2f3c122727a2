// Package mcp exposes the grid view to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool calls the REST API and renders the
// response as text, with the grid drawn in ASCII (S start, E end, # wall,
// * path, . empty).
//
// MCP Tools:
//   - grid_state: Current grid, path and solver status
//   - toggle_wall, move_start, move_end: Edit a cell by coordinates
//   - resize_grid, set_step, reset_grid: The view's controls
//   - list_presets, apply_preset: Preset layouts
//
// Usage:
//
//	// Stdio mode
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.Run(); err != nil {
//		log.Fatal(err)
//	}
//
//	// HTTP mode
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
