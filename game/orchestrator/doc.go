// Package orchestrator drives solver requests and path animation for one
// grid view.
//
// A view owns a Loop; every state edit, draw and orchestrator transition runs
// on it. The orchestrator watches the grid state and moves through four
// phases:
//
//	Idle -> Debouncing -> Fetching -> Revealing -> Idle
//
// Any edit returns it to Debouncing and restarts the window. When the window
// expires one request is made for the current grid. The response clears the
// old path and either shows the new one at once (step delay 0) or appends it
// a cell at a time. Failures leave an empty path and a "no path" status.
//
// Timers come from a Clock so tests can drive time by hand.
package orchestrator
