package service

import (
	"context"
	"image"
	"io"

	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/render"
)

// ViewService defines all operations on the grid view
type ViewService interface {
	// Editing
	Pointer(ctx context.Context, in PointerInput) (*EditResult, error)
	ApplyIntent(ctx context.Context, intent grid.Intent, cell grid.Position) (*EditResult, error)
	Resize(ctx context.Context, rows, cols int) (*StateInfo, error)
	SetStep(ctx context.Context, stepMs int) (*StateInfo, error)
	Reset(ctx context.Context) (*StateInfo, error)

	// Display
	SetDisplay(ctx context.Context, d render.Display) (*StateInfo, error)
	Frame(ctx context.Context) (*image.RGBA, error)
	WritePNG(ctx context.Context, w io.Writer) error

	// State
	State(ctx context.Context) (*StateInfo, error)
	Subscribe(fn func(Event)) (unsubscribe func())

	// Presets
	ListPresets(ctx context.Context) ([]*config.PresetInfo, error)
	ApplyPreset(ctx context.Context, name string) (*StateInfo, error)

	Close() error
}

// PresetManager handles preset loading
type PresetManager interface {
	LoadPreset(name string) (*grid.Layout, error)
	ListPresets() ([]*config.PresetInfo, error)
	GetDefault() *grid.Layout
}
