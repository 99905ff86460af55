package event

// Type is the canonical event kind consumed by the engine's input layer.
type Type int32

const (
	EV_KEYDOWN Type = iota
	EV_KEYUP
	EV_MOUSE
	EV_JOYSTICK
)

func (t Type) String() string {
	switch t {
	case EV_KEYDOWN:
		return "keydown"
	case EV_KEYUP:
		return "keyup"
	case EV_MOUSE:
		return "mouse"
	case EV_JOYSTICK:
		return "joystick"
	}
	return "unknown"
}

// Event is the engine-native input occurrence. Data1..Data3 depend on Type:
// keys carry the logical key in Data1; mouse events carry a button mask and
// scaled motion.
type Event struct {
	Type  Type
	Data1 int32
	Data2 int32
	Data3 int32
}

// Poster receives translated events in queue order.
type Poster interface {
	PostEvent(ev Event)
}

type PosterFunc func(ev Event)

func (f PosterFunc) PostEvent(ev Event) { f(ev) }

// Buffer is a Poster that keeps every event, mostly for tests and the demo loop.
type Buffer struct {
	Events []Event
}

func (b *Buffer) PostEvent(ev Event) {
	b.Events = append(b.Events, ev)
}

// Take returns the buffered events and empties the buffer.
func (b *Buffer) Take() []Event {
	out := b.Events
	b.Events = nil
	return out
}
