package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/orchestrator"
	"github.com/wricardo/gridpath/game/render"
	"github.com/wricardo/gridpath/game/solver"
)

// Settings are the runtime knobs of a view
type Settings struct {
	SolverURL     string
	SolverTimeout time.Duration
	Debounce      time.Duration
	MaxSize       int
	Rows          int
	Cols          int
	StepMs        int
	Display       render.Display
	PresetDir     string
	Preset        string
	InitialSolve  bool

	// DefaultPreset starts the view from the preset directory's default
	// layout when no Preset is named.
	DefaultPreset bool
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		SolverURL:     solver.DefaultBaseURL,
		SolverTimeout: solver.DefaultTimeout,
		Debounce:      orchestrator.DefaultDebounce,
		MaxSize:       grid.MaxSize,
		Rows:          grid.DefaultSize,
		Cols:          grid.DefaultSize,
		StepMs:        grid.DefaultStepDelay,
		Display:       render.Display{Width: 600, Height: 600, DPR: 1},
		PresetDir:     "configs",
		InitialSolve:  true,
		DefaultPreset: true,
	}
}

// Validate checks the settings and clamps values with a defined range.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.SolverURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("settings: solver url %q is not an absolute URL", s.SolverURL)
	}
	if s.SolverTimeout <= 0 {
		return fmt.Errorf("settings: solver timeout must be positive, got %s", s.SolverTimeout)
	}
	if s.Debounce <= 0 {
		return fmt.Errorf("settings: debounce must be positive, got %s", s.Debounce)
	}
	if s.MaxSize < grid.MinSize || s.MaxSize > grid.MaxSize {
		return fmt.Errorf("settings: max size must be between %d and %d, got %d", grid.MinSize, grid.MaxSize, s.MaxSize)
	}
	if s.Display.Width <= 0 || s.Display.Height <= 0 {
		return fmt.Errorf("settings: display must be positive, got %.0fx%.0f", s.Display.Width, s.Display.Height)
	}
	if s.Display.DPR <= 0 {
		s.Display.DPR = 1
	}

	size := grid.ClampSize(grid.Size{Rows: s.Rows, Cols: s.Cols}, s.MaxSize)
	s.Rows, s.Cols = size.Rows, size.Cols
	s.StepMs = grid.ClampStepDelay(s.StepMs)
	return nil
}
