package service

import (
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/orchestrator"
	"github.com/wricardo/gridpath/game/render"
)

// StateInfo is the externally visible state of the view
type StateInfo struct {
	Size       grid.Size           `json:"size"`
	MaxSize    int                 `json:"max_size"`
	Start      grid.Position       `json:"start"`
	End        grid.Position       `json:"end"`
	Walls      []grid.Position     `json:"walls"`
	Path       []grid.Position     `json:"path"`
	StepMs     int                 `json:"step_ms"`
	Status     orchestrator.Status `json:"status"`
	StatusText string              `json:"status_text"`
	Display    render.Display      `json:"display"`
	Layout     render.Layout       `json:"layout"`
	Preset     string              `json:"preset,omitempty"`
}

// PointerInput is a pointer press on the canvas. Button uses DOM button
// numbering; Rect is the canvas bounding box in the same coordinates as
// ClientX and ClientY.
type PointerInput struct {
	Button  int       `json:"button"`
	ClientX float64   `json:"clientX"`
	ClientY float64   `json:"clientY"`
	Rect    grid.Rect `json:"rect"`
}

// EditResult reports what a single edit did
type EditResult struct {
	Applied  bool          `json:"applied"`
	Intent   string        `json:"intent,omitempty"`
	Cell     grid.Position `json:"cell"`
	InBounds bool          `json:"in_bounds"`
	State    *StateInfo    `json:"state"`
}

// Event is published after every draw
type Event struct {
	Type       string        `json:"type"`
	Generation uint64        `json:"generation"`
	Snapshot   grid.Snapshot `json:"-"`
	State      *StateInfo    `json:"state"`
}

// Snapshot rebuilds a grid snapshot, for clients that only have the JSON form
func (s *StateInfo) Snapshot() grid.Snapshot {
	return grid.Snapshot{
		Size:      s.Size,
		Start:     s.Start,
		End:       s.End,
		Walls:     s.Walls,
		Path:      s.Path,
		StepDelay: s.StepMs,
	}
}
