package grid

import (
	"fmt"
	"strings"
)

// Button is a pointer button code. Values follow the DOM MouseEvent.button
// numbering.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonAuxiliary Button = 1
	ButtonSecondary Button = 2
)

// Intent is the single edit a pointer press resolves to
type Intent int

const (
	IntentToggleWall Intent = iota
	IntentMoveStart
	IntentMoveEnd
)

func (i Intent) String() string {
	switch i {
	case IntentToggleWall:
		return "toggle_wall"
	case IntentMoveStart:
		return "move_start"
	case IntentMoveEnd:
		return "move_end"
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// ParseIntent accepts the names produced by Intent.String.
func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toggle_wall", "wall":
		return IntentToggleWall, nil
	case "move_start", "start":
		return IntentMoveStart, nil
	case "move_end", "end":
		return IntentMoveEnd, nil
	}
	return 0, fmt.Errorf("unknown intent %q", s)
}

// IntentFor maps a button to its intent. Buttons other than primary,
// auxiliary and secondary have no intent.
func IntentFor(b Button) (Intent, bool) {
	switch b {
	case ButtonPrimary:
		return IntentToggleWall, true
	case ButtonAuxiliary:
		return IntentMoveStart, true
	case ButtonSecondary:
		return IntentMoveEnd, true
	}
	return 0, false
}

// Apply performs exactly one intent at p. It reports whether the state
// changed; collisions are silent no-ops.
func (s *State) Apply(i Intent, p Position) bool {
	switch i {
	case IntentToggleWall:
		return s.ToggleWall(p)
	case IntentMoveStart:
		return s.MoveStart(p)
	case IntentMoveEnd:
		return s.MoveEnd(p)
	}
	return false
}
