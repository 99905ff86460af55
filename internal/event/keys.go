package event

// Engine logical key codes. Printable keys use their lower-case ASCII value.
const (
	KEY_RIGHTARROW = 0xae
	KEY_LEFTARROW  = 0xac
	KEY_UPARROW    = 0xad
	KEY_DOWNARROW  = 0xaf
	KEY_ESCAPE     = 27
	KEY_ENTER      = 13
	KEY_TAB        = 9
	KEY_F1         = 0x80 + 0x3b
	KEY_F2         = 0x80 + 0x3c
	KEY_F3         = 0x80 + 0x3d
	KEY_F4         = 0x80 + 0x3e
	KEY_F5         = 0x80 + 0x3f
	KEY_F6         = 0x80 + 0x40
	KEY_F7         = 0x80 + 0x41
	KEY_F8         = 0x80 + 0x42
	KEY_F9         = 0x80 + 0x43
	KEY_F10        = 0x80 + 0x44
	KEY_F11        = 0x80 + 0x57
	KEY_F12        = 0x80 + 0x58
	KEY_BACKSPACE  = 127
	KEY_PAUSE      = 0xff
	KEY_EQUALS     = 0x3d
	KEY_MINUS      = 0x2d
	KEY_RSHIFT     = 0x80 + 0x36
	KEY_RCTRL      = 0x80 + 0x1d
	KEY_RALT       = 0x80 + 0x38
	KEY_LALT       = KEY_RALT
)

// Host scan codes (USB HID usage page 7, as reported by SDL).
const (
	SCAN_A         = 4
	SCAN_Z         = 29
	SCAN_1         = 30
	SCAN_0         = 39
	SCAN_RETURN    = 40
	SCAN_ESCAPE    = 41
	SCAN_BACKSPACE = 42
	SCAN_TAB       = 43
	SCAN_SPACE     = 44
	SCAN_MINUS     = 45
	SCAN_EQUALS    = 46
	SCAN_F1        = 58
	SCAN_F2        = 59
	SCAN_F3        = 60
	SCAN_F4        = 61
	SCAN_F5        = 62
	SCAN_F6        = 63
	SCAN_F7        = 64
	SCAN_F8        = 65
	SCAN_F9        = 66
	SCAN_F10       = 67
	SCAN_F11       = 68
	SCAN_F12       = 69
	SCAN_PAUSE     = 72
	SCAN_RIGHT     = 79
	SCAN_LEFT      = 80
	SCAN_DOWN      = 81
	SCAN_UP        = 82
	SCAN_LCTRL     = 224
	SCAN_LSHIFT    = 225
	SCAN_LALT      = 226
	SCAN_RCTRL     = 228
	SCAN_RSHIFT    = 229
	SCAN_RALT      = 230
)

// scanToKey is the fixed scan-code table. Anything missing falls back to the
// record's symbolic code, which for printable keys is already ASCII.
var scanToKey = map[uint32]int32{
	SCAN_RIGHT:     KEY_RIGHTARROW,
	SCAN_LEFT:      KEY_LEFTARROW,
	SCAN_UP:        KEY_UPARROW,
	SCAN_DOWN:      KEY_DOWNARROW,
	SCAN_ESCAPE:    KEY_ESCAPE,
	SCAN_RETURN:    KEY_ENTER,
	SCAN_TAB:       KEY_TAB,
	SCAN_F1:        KEY_F1,
	SCAN_F2:        KEY_F2,
	SCAN_F3:        KEY_F3,
	SCAN_F4:        KEY_F4,
	SCAN_F5:        KEY_F5,
	SCAN_F6:        KEY_F6,
	SCAN_F7:        KEY_F7,
	SCAN_F8:        KEY_F8,
	SCAN_F9:        KEY_F9,
	SCAN_F10:       KEY_F10,
	SCAN_F11:       KEY_F11,
	SCAN_F12:       KEY_F12,
	SCAN_BACKSPACE: KEY_BACKSPACE,
	SCAN_PAUSE:     KEY_PAUSE,
	SCAN_EQUALS:    KEY_EQUALS,
	SCAN_MINUS:     KEY_MINUS,
	SCAN_RSHIFT:    KEY_RSHIFT,
	SCAN_RCTRL:     KEY_RCTRL,
	SCAN_RALT:      KEY_RALT,
	SCAN_LSHIFT:    KEY_RSHIFT,
	SCAN_LCTRL:     KEY_RCTRL,
	SCAN_LALT:      KEY_LALT,
}

// MapKey returns the logical key for a scan code, or sym when the table has no entry.
func MapKey(scancode, sym uint32) int32 {
	if k, ok := scanToKey[scancode]; ok {
		return k
	}
	return int32(sym)
}
