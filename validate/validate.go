// Command validate checks the preset layout JSON files in the ../configs
// directory. It checks:
//   - JSON structure and required fields
//   - Size limits and that start, end and walls are inside the grid
//   - Walls never cover start or end, and no wall is listed twice
//   - Step delay range
//   - Connectivity: whether end is reachable from start through open cells
//
// An unreachable end is reported but does not fail validation, since some
// presets exist to show the "no path" state.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/grid"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validatePreset loads and validates a single preset file.
func validatePreset(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	layout, err := config.ReadPreset(filePath)
	if err != nil {
		result.Valid = false
		if errors.Is(err, config.ErrPresetNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %s does not exist", filePath))
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
		return result
	}

	seen := make(map[grid.Position]bool, len(layout.Walls))
	for _, w := range layout.Walls {
		if seen[w] {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Duplicate wall at %s", w))
		}
		seen[w] = true
	}
	if !result.Valid {
		return result
	}

	size := layout.Size()
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", layout.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", size.Rows, size.Cols))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Start: %s End: %s", layout.Start, layout.End))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Walls: %d", len(layout.Walls)))
	if layout.StepMs != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Step: %d ms", *layout.StepMs))
	}

	if steps, ok := shortestSteps(layout); ok {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: end reachable, ideal path requires %d steps", steps))
	} else {
		result.Errors = append(result.Errors, "✓ Connectivity: no path from start to end")
	}

	return result
}

// shortestSteps runs a breadth-first search from start using 4-directional
// moves over non-wall cells. Steps counts the cells strictly between start
// and end, matching the status line.
func shortestSteps(l *grid.Layout) (int, bool) {
	size := l.Size()
	walls := make(map[grid.Position]bool, len(l.Walls))
	for _, w := range l.Walls {
		walls[w] = true
	}

	dist := map[grid.Position]int{l.Start: 0}
	queue := []grid.Position{l.Start}
	directions := []grid.Position{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == l.End {
			return max(dist[current]-1, 0), true
		}

		for _, d := range directions {
			next := grid.Position{X: current.X + d.X, Y: current.Y + d.Y}
			if _, visited := dist[next]; visited || walls[next] || !size.Contains(next) {
				continue
			}
			dist[next] = dist[current] + 1
			queue = append(queue, next)
		}
	}
	return 0, false
}

// checkRawFields reports unknown top-level keys, which usually mean a typo
// that json.Unmarshal would silently ignore.
func checkRawFields(filePath string) []string {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	known := map[string]bool{
		"name": true, "description": true, "rows": true, "cols": true,
		"start": true, "end": true, "walls": true, "step_ms": true,
	}
	var warnings []string
	for key := range raw {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("Unknown field: %s", key))
		}
	}
	return warnings
}

// main scans a preset directory (../configs by default) for *.json files and
// validates each one, printing a concise report and exiting with non-zero
// status if any are invalid.
func main() {
	presetDir := "../configs"
	if len(os.Args) > 1 {
		presetDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(presetDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding preset files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validatePreset(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
			for _, warning := range checkRawFields(file) {
				fmt.Println("  ⚠️  " + warning)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All presets are valid!")
	} else {
		fmt.Println("❌ Some presets have errors")
		os.Exit(1)
	}
}
