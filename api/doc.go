// Package api serves the grid view over HTTP.
//
// Endpoints:
//
// View:
//   - GET /api/state - Current grid, path, status and frame layout
//   - POST /api/pointer - Canvas press {button, clientX, clientY, rect}
//   - POST /api/intent - Direct edit {intent, x, y}
//   - POST /api/reset - Clear walls, restore default start and end
//
// Controls:
//   - PUT /api/size - {rows, cols}, clamped to the size limits
//   - PUT /api/step - {step_ms}, clamped to 0..1000
//   - PUT /api/display - {width, height, dpr} of the on-screen canvas
//
// Rendering:
//   - GET /api/frame.png - Latest rendered frame
//   - GET /ws - Live "state" messages after every draw
//   - GET / - Embedded canvas page
//
// Presets:
//   - GET /api/presets - Available preset layouts
//   - POST /api/presets/{name} - Load a preset into the view
//
// Pointer buttons use DOM numbering: 0 toggles a wall, 1 moves the start,
// 2 moves the end. Edits that would break the grid invariants answer 200 with
// "applied": false.
//
// Errors are returned as JSON with an appropriate status code:
//
//	{"error": "error message"}
package api
