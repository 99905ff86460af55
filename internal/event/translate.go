package event

const (
	// MOUSE_SCALE multiplies relative motion before it reaches the engine.
	MOUSE_SCALE = 4

	// MOUSE_RELEASE_SENTINEL is posted as Data1 for every button release. The
	// released button's identity is not carried through.
	MOUSE_RELEASE_SENTINEL = 2
)

// Translate maps one raw record to at most one canonical event. Unknown kinds
// produce ok == false.
func Translate(r RawRecord) (ev Event, ok bool) {
	switch r.Kind {
	case KIND_KEYDOWN:
		return Event{Type: EV_KEYDOWN, Data1: MapKey(r.Code, r.Sym)}, true
	case KIND_KEYUP:
		return Event{Type: EV_KEYUP, Data1: MapKey(r.Code, r.Sym)}, true
	case KIND_MOUSEDOWN:
		return Event{Type: EV_MOUSE, Data1: int32(r.Code)}, true
	case KIND_MOUSEUP:
		return Event{Type: EV_MOUSE, Data1: MOUSE_RELEASE_SENTINEL}, true
	case KIND_MOUSEMOTION:
		return Event{
			Type:  EV_MOUSE,
			Data1: int32(r.Buttons),
			Data2: r.DX * MOUSE_SCALE,
			Data3: -r.DY * MOUSE_SCALE,
		}, true
	}
	return Event{}, false
}
