package grid

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLayout = errors.New("invalid layout")
)

// ValidateLayout checks a layout for the same invariants State enforces on
// every mutation.
func ValidateLayout(l *Layout) error {
	if l.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLayout)
	}
	if l.Rows < MinSize || l.Rows > MaxSize {
		return fmt.Errorf("%w: rows must be between %d and %d, got %d", ErrInvalidLayout, MinSize, MaxSize, l.Rows)
	}
	if l.Cols < MinSize || l.Cols > MaxSize {
		return fmt.Errorf("%w: cols must be between %d and %d, got %d", ErrInvalidLayout, MinSize, MaxSize, l.Cols)
	}

	size := l.Size()
	if !size.Contains(l.Start) {
		return fmt.Errorf("%w: start %s out of bounds", ErrInvalidLayout, l.Start)
	}
	if !size.Contains(l.End) {
		return fmt.Errorf("%w: end %s out of bounds", ErrInvalidLayout, l.End)
	}
	if l.Start == l.End {
		return fmt.Errorf("%w: start and end must differ", ErrInvalidLayout)
	}

	for i, w := range l.Walls {
		if !size.Contains(w) {
			return fmt.Errorf("%w: wall %d at %s out of bounds", ErrInvalidLayout, i, w)
		}
		if w == l.Start || w == l.End {
			return fmt.Errorf("%w: wall %d covers start or end at %s", ErrInvalidLayout, i, w)
		}
	}

	if l.StepMs != nil && (*l.StepMs < 0 || *l.StepMs > MaxStepDelay) {
		return fmt.Errorf("%w: step_ms must be between 0 and %d, got %d", ErrInvalidLayout, MaxStepDelay, *l.StepMs)
	}
	return nil
}
