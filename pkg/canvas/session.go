package canvas

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Mode selects what a left press on empty canvas does.
type Mode int

const (
	ModePan    Mode = iota // background press pans, body press drags
	ModeSelect             // background press draws a selection box
)

func (m Mode) String() string {
	switch m {
	case ModePan:
		return "pan"
	case ModeSelect:
		return "select"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "pan" or "select" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "pan":
		return ModePan, nil
	case "select":
		return ModeSelect, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// State is the pointer transaction currently in progress.
type State int

const (
	StateIdle State = iota
	StatePanning
	StateDragging
	StateResizing
	StateSelectingBox
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePanning:
		return "panning"
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	case StateSelectingBox:
		return "selecting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// PointerEvent is a press, move or release at a screen position.
type PointerEvent struct {
	Button Button  `json:"button"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Shift  bool    `json:"shift"`
	Meta   bool    `json:"meta"`
	Ctrl   bool    `json:"ctrl"`
}

// Screen returns the event position.
func (e PointerEvent) Screen() v2.Vec { return v2.Vec{X: e.X, Y: e.Y} }

// Multi reports whether the event toggles multi-selection.
func (e PointerEvent) Multi() bool { return e.Shift || e.Meta }

// WheelEvent is a wheel or trackpad scroll at a screen position. Ctrl or Meta
// turns it into a zoom.
type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaX float64 `json:"deltaX"`
	DeltaY float64 `json:"deltaY"`
	Ctrl   bool    `json:"ctrl"`
	Meta   bool    `json:"meta"`
}

// Session is the transient state of one pointer transaction. Nothing in it
// survives the release that ends the transaction.
type Session struct {
	State State

	// Target is the node pressed, if any. In select mode a body press leaves
	// State idle but still records the target so release can click it.
	Target NodeID
	Button Button
	Multi  bool

	PressScreen v2.Vec
	LastScreen  v2.Vec
	Moved       bool

	StartPos  v2.Vec // node position at press, dragging only
	StartSize v2.Vec // node size at press, resizing only

	BoxStart v2.Vec // world-space selection anchor
	BoxEnd   v2.Vec
}

// Active reports whether a press is being tracked.
func (s Session) Active() bool {
	return s.State != StateIdle || !s.Target.IsZero()
}

// Box returns the normalised world-space selection rectangle.
func (s Session) Box() sdf.Box2 {
	return NormalizeRect(s.BoxStart, s.BoxEnd)
}

// Reset ends the transaction.
func (s *Session) Reset() {
	*s = Session{}
}

func (s *Session) begin(st State, ev PointerEvent) {
	*s = Session{
		State:       st,
		Button:      ev.Button,
		Multi:       ev.Multi(),
		PressScreen: ev.Screen(),
		LastScreen:  ev.Screen(),
	}
}
