package host

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/intuitionamiga/doombridge/internal/event"
)

/*
ScriptSource replays input written as a Lua script. The script runs once at load
time and builds a timeline keyed by pull cycle:

	press("a")              -- key down and up in the current cycle
	key_down(SCAN.UP)       -- scan code only, symbol 0
	frame(35)               -- move 35 pull cycles ahead
	key_up(SCAN.UP)
	mouse_move(2, -1, 1)    -- dx, dy, held button mask
	mouse_down(1) mouse_up(1)

Key arguments are either a one-character string (the symbol, scan code derived
from it) or a number (a scan code from the SCAN table, symbol 0).
*/
type ScriptSource struct {
	timeline map[int][]event.RawRecord
	last     int
	cycle    int
}

var scriptScanCodes = map[string]uint32{
	"RIGHT": event.SCAN_RIGHT, "LEFT": event.SCAN_LEFT, "UP": event.SCAN_UP, "DOWN": event.SCAN_DOWN,
	"ESCAPE": event.SCAN_ESCAPE, "RETURN": event.SCAN_RETURN, "TAB": event.SCAN_TAB,
	"BACKSPACE": event.SCAN_BACKSPACE, "PAUSE": event.SCAN_PAUSE, "SPACE": event.SCAN_SPACE,
	"MINUS": event.SCAN_MINUS, "EQUALS": event.SCAN_EQUALS,
	"RSHIFT": event.SCAN_RSHIFT, "RCTRL": event.SCAN_RCTRL, "RALT": event.SCAN_RALT,
	"LSHIFT": event.SCAN_LSHIFT, "LCTRL": event.SCAN_LCTRL, "LALT": event.SCAN_LALT,
	"F1": event.SCAN_F1, "F2": event.SCAN_F2, "F3": event.SCAN_F3, "F4": event.SCAN_F4,
	"F5": event.SCAN_F5, "F6": event.SCAN_F6, "F7": event.SCAN_F7, "F8": event.SCAN_F8,
	"F9": event.SCAN_F9, "F10": event.SCAN_F10, "F11": event.SCAN_F11, "F12": event.SCAN_F12,
}

// LoadScriptFile reads and runs a Lua input script from disk.
func LoadScriptFile(path string) (*ScriptSource, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input script: %w", err)
	}
	return LoadScript(string(src))
}

// LoadScript runs a Lua input script and returns its timeline.
func LoadScript(src string) (*ScriptSource, error) {
	s := &ScriptSource{timeline: make(map[int][]event.RawRecord)}
	cur := 0

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	lua.OpenBase(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	scan := L.NewTable()
	for name, code := range scriptScanCodes {
		L.SetField(scan, name, lua.LNumber(code))
	}
	L.SetGlobal("SCAN", scan)

	push := func(r event.RawRecord) {
		s.timeline[cur] = append(s.timeline[cur], r)
		s.last = max(s.last, cur)
	}
	keyArg := func(L *lua.LState) (scanCode, sym uint32) {
		switch v := L.CheckAny(1).(type) {
		case lua.LString:
			if len(v) != 1 {
				L.ArgError(1, "expected a single character")
			}
			b := v[0]
			scanCode = asciiScan(b)
			sym = uint32(b)
			if b >= 'A' && b <= 'Z' {
				sym = uint32(b - 'A' + 'a')
			}
		case lua.LNumber:
			scanCode = uint32(v)
			sym = uint32(L.OptInt(2, 0))
		default:
			L.ArgError(1, "expected a string or scan code")
		}
		return
	}

	L.SetGlobal("key_down", L.NewFunction(func(L *lua.LState) int {
		sc, sym := keyArg(L)
		push(event.KeyDown(sc, sym))
		return 0
	}))
	L.SetGlobal("key_up", L.NewFunction(func(L *lua.LState) int {
		sc, sym := keyArg(L)
		push(event.KeyUp(sc, sym))
		return 0
	}))
	L.SetGlobal("press", L.NewFunction(func(L *lua.LState) int {
		sc, sym := keyArg(L)
		push(event.KeyDown(sc, sym))
		push(event.KeyUp(sc, sym))
		return 0
	}))
	L.SetGlobal("mouse_move", L.NewFunction(func(L *lua.LState) int {
		push(event.MouseMotion(int32(L.CheckInt(1)), int32(L.CheckInt(2)), uint32(L.OptInt(3, 0))))
		return 0
	}))
	L.SetGlobal("mouse_down", L.NewFunction(func(L *lua.LState) int {
		button := uint32(L.CheckInt(1))
		push(event.MouseDown(button, uint32(L.OptInt(2, int(button)))))
		return 0
	}))
	L.SetGlobal("mouse_up", L.NewFunction(func(L *lua.LState) int {
		push(event.MouseUp(uint32(L.CheckInt(1)), uint32(L.OptInt(2, 0))))
		return 0
	}))
	L.SetGlobal("frame", L.NewFunction(func(L *lua.LState) int {
		n := L.OptInt(1, 1)
		if n < 0 {
			L.ArgError(1, "frame count must not be negative")
		}
		cur += n
		s.last = max(s.last, cur)
		return 0
	}))

	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("run input script: %w", err)
	}
	return s, nil
}

// Poll returns the records scheduled for the current pull cycle and moves to the
// next one.
func (s *ScriptSource) Poll(dst []event.RawRecord) []event.RawRecord {
	dst = append(dst, s.timeline[s.cycle]...)
	delete(s.timeline, s.cycle)
	s.cycle++
	return dst
}

// Done reports whether every scheduled cycle has been polled.
func (s *ScriptSource) Done() bool {
	return s.cycle > s.last
}
