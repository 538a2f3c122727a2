package orchestrator

import (
	"fmt"

	"github.com/wricardo/gridpath/game/grid"
)

// Status is the outcome of the latest solve
type Status struct {
	Phase      Phase  `json:"phase"`
	Generation uint64 `json:"generation"`
	Found      bool   `json:"found"`
	// Steps counts the cells between start and end.
	Steps int    `json:"steps"`
	Err   string `json:"error,omitempty"`
}

func statusFor(path []grid.Position) Status {
	if len(path) == 0 {
		return Status{}
	}
	return Status{Found: true, Steps: max(len(path)-2, 0)}
}

// Text is the one-line summary shown under the grid.
func (s Status) Text() string {
	if !s.Found {
		return "No valid path found."
	}
	return fmt.Sprintf("Ideal path requires %d steps.", s.Steps)
}
