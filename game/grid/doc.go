// Package grid holds the editable state of a pathfinding grid view.
//
// A State carries the grid size, the start and end cells, the wall set, the
// most recent solver path and the reveal step delay. All edits go through
// methods that keep the grid consistent:
//   - start and end never coincide
//   - start and end are never walls
//   - walls and path cells are always in bounds
//
// Pointer input reaches the state in two steps. MapPointer turns a client
// coordinate into a cell using the canvas rect and its backing size, and
// IntentFor turns the pressed button into an Intent that State.Apply
// performs:
//
//	cell := grid.MapPointer(ptr, rect, grid.BackingFor(rect, dpr), state.Size())
//	if intent, ok := grid.IntentFor(button); ok {
//		state.Apply(intent, cell)
//	}
//
// Subscribers registered with State.Subscribe are told about every
// successful mutation. Snapshot produces an immutable copy for renderers and
// transports.
package grid
