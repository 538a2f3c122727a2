// Package config provides preset layouts and runtime settings for grid views.
//
// The config package handles:
//   - Loading preset layouts from JSON files
//   - Preset validation against the grid invariants
//   - Default preset selection
//   - Preset discovery and listing
//
// Preset Format:
//
// Presets are stored as JSON files in the configs directory. Each preset
// defines the grid size, the start and end cells, the wall cells and
// optionally a reveal step delay:
//
//	{
//	  "name": "Spiral",
//	  "rows": 20, "cols": 20,
//	  "start": {"x": 0, "y": 0},
//	  "end": {"x": 10, "y": 10},
//	  "walls": [{"x": 1, "y": 0}, [1, 1]],
//	  "step_ms": 20
//	}
//
// Cells may be written as objects or as [x, y] pairs.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific preset
//	preset, err := manager.LoadPreset("maze")
//
//	// Get default preset ("open" when present)
//	preset := manager.GetDefault()
//
//	// List available presets
//	presets, err := manager.ListPresets()
//
// Settings groups the runtime knobs (solver URL and timeout, debounce
// window, size limit, initial display) that the command line fills in.
package config
