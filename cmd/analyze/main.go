// Command analyze prints quick, human-readable heuristics about the preset
// layouts in the project's configs directory. It summarizes dimensions, wall
// density and the start to end distance, and highlights endpoints that are
// boxed in by walls.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/grid"
)

// Analysis holds the heuristics computed for one preset.
type Analysis struct {
	Name      string
	Size      grid.Size
	Start     grid.Position
	End       grid.Position
	Walls     int
	Density   float64
	Manhattan int
	// MinSteps is the lower bound on the status line's step count.
	MinSteps   int
	StepMs     int
	StartBoxed bool
	EndBoxed   bool
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding presets: %v\n", err)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		layout, err := config.ReadPreset(file)
		if err != nil {
			fmt.Printf("Error reading preset: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analyzeLayout(layout))
	}
}

func analyzeLayout(l *grid.Layout) Analysis {
	size := l.Size()
	walls := make(map[grid.Position]bool, len(l.Walls))
	for _, w := range l.Walls {
		walls[w] = true
	}

	manhattan := abs(l.Start.X-l.End.X) + abs(l.Start.Y-l.End.Y)
	a := Analysis{
		Name:       l.Name,
		Size:       size,
		Start:      l.Start,
		End:        l.End,
		Walls:      len(walls),
		Density:    float64(len(walls)) / float64(size.Rows*size.Cols),
		Manhattan:  manhattan,
		MinSteps:   max(manhattan-1, 0),
		StepMs:     grid.DefaultStepDelay,
		StartBoxed: boxedIn(l.Start, size, walls),
		EndBoxed:   boxedIn(l.End, size, walls),
	}
	if l.StepMs != nil {
		a.StepMs = *l.StepMs
	}
	return a
}

// boxedIn reports whether every neighbour of p is a wall or off the grid.
func boxedIn(p grid.Position, size grid.Size, walls map[grid.Position]bool) bool {
	for _, d := range []grid.Position{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}} {
		n := grid.Position{X: p.X + d.X, Y: p.Y + d.Y}
		if size.Contains(n) && !walls[n] {
			return false
		}
	}
	return true
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Size.Rows, a.Size.Cols)
	fmt.Fprintf(w, "Start: %s  End: %s\n", a.Start, a.End)
	fmt.Fprintf(w, "Walls: %d (%.1f%% of cells)\n", a.Walls, a.Density*100)
	fmt.Fprintf(w, "Manhattan distance: %d (at least %d steps)\n", a.Manhattan, a.MinSteps)
	fmt.Fprintf(w, "Reveal: %d ms per step, about %d ms for the shortest path\n", a.StepMs, a.StepMs*(a.MinSteps+2))

	switch {
	case a.StartBoxed && a.EndBoxed:
		fmt.Fprintf(w, "⚠️  WARNING: start and end are both boxed in, no path can exist\n")
	case a.StartBoxed:
		fmt.Fprintf(w, "⚠️  WARNING: start is boxed in, no path can exist\n")
	case a.EndBoxed:
		fmt.Fprintf(w, "⚠️  WARNING: end is boxed in, no path can exist\n")
	default:
		fmt.Fprintf(w, "✅ Start and end both have an open neighbour\n")
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
