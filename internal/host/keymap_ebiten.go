//go:build !headless

package host

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/intuitionamiga/doombridge/internal/event"
)

type keyCode struct {
	scan uint32
	sym  uint32
}

// ebitenKeys maps ebiten keys to host scan codes and symbols. Keys whose
// meaning comes from the scan code table carry symbol 0.
var ebitenKeys = map[ebiten.Key]keyCode{
	ebiten.KeyA: {event.SCAN_A, 'a'},
	ebiten.KeyB: {event.SCAN_A + 1, 'b'},
	ebiten.KeyC: {event.SCAN_A + 2, 'c'},
	ebiten.KeyD: {event.SCAN_A + 3, 'd'},
	ebiten.KeyE: {event.SCAN_A + 4, 'e'},
	ebiten.KeyF: {event.SCAN_A + 5, 'f'},
	ebiten.KeyG: {event.SCAN_A + 6, 'g'},
	ebiten.KeyH: {event.SCAN_A + 7, 'h'},
	ebiten.KeyI: {event.SCAN_A + 8, 'i'},
	ebiten.KeyJ: {event.SCAN_A + 9, 'j'},
	ebiten.KeyK: {event.SCAN_A + 10, 'k'},
	ebiten.KeyL: {event.SCAN_A + 11, 'l'},
	ebiten.KeyM: {event.SCAN_A + 12, 'm'},
	ebiten.KeyN: {event.SCAN_A + 13, 'n'},
	ebiten.KeyO: {event.SCAN_A + 14, 'o'},
	ebiten.KeyP: {event.SCAN_A + 15, 'p'},
	ebiten.KeyQ: {event.SCAN_A + 16, 'q'},
	ebiten.KeyR: {event.SCAN_A + 17, 'r'},
	ebiten.KeyS: {event.SCAN_A + 18, 's'},
	ebiten.KeyT: {event.SCAN_A + 19, 't'},
	ebiten.KeyU: {event.SCAN_A + 20, 'u'},
	ebiten.KeyV: {event.SCAN_A + 21, 'v'},
	ebiten.KeyW: {event.SCAN_A + 22, 'w'},
	ebiten.KeyX: {event.SCAN_A + 23, 'x'},
	ebiten.KeyY: {event.SCAN_A + 24, 'y'},
	ebiten.KeyZ: {event.SCAN_A + 25, 'z'},

	ebiten.KeyDigit0: {event.SCAN_0, '0'},
	ebiten.KeyDigit1: {event.SCAN_1, '1'},
	ebiten.KeyDigit2: {event.SCAN_1 + 1, '2'},
	ebiten.KeyDigit3: {event.SCAN_1 + 2, '3'},
	ebiten.KeyDigit4: {event.SCAN_1 + 3, '4'},
	ebiten.KeyDigit5: {event.SCAN_1 + 4, '5'},
	ebiten.KeyDigit6: {event.SCAN_1 + 5, '6'},
	ebiten.KeyDigit7: {event.SCAN_1 + 6, '7'},
	ebiten.KeyDigit8: {event.SCAN_1 + 7, '8'},
	ebiten.KeyDigit9: {event.SCAN_1 + 8, '9'},

	ebiten.KeyArrowUp:      {event.SCAN_UP, 0},
	ebiten.KeyArrowDown:    {event.SCAN_DOWN, 0},
	ebiten.KeyArrowLeft:    {event.SCAN_LEFT, 0},
	ebiten.KeyArrowRight:   {event.SCAN_RIGHT, 0},
	ebiten.KeyEscape:       {event.SCAN_ESCAPE, 0x1B},
	ebiten.KeyEnter:        {event.SCAN_RETURN, '\r'},
	ebiten.KeyNumpadEnter:  {event.SCAN_RETURN, '\r'},
	ebiten.KeyTab:          {event.SCAN_TAB, '\t'},
	ebiten.KeyBackspace:    {event.SCAN_BACKSPACE, 0x08},
	ebiten.KeyPause:        {event.SCAN_PAUSE, 0},
	ebiten.KeyEqual:        {event.SCAN_EQUALS, '='},
	ebiten.KeyMinus:        {event.SCAN_MINUS, '-'},
	ebiten.KeySpace:        {event.SCAN_SPACE, ' '},
	ebiten.KeyComma:        {0, ','},
	ebiten.KeyPeriod:       {0, '.'},
	ebiten.KeySlash:        {0, '/'},
	ebiten.KeySemicolon:    {0, ';'},
	ebiten.KeyQuote:        {0, '\''},
	ebiten.KeyBracketLeft:  {0, '['},
	ebiten.KeyBracketRight: {0, ']'},
	ebiten.KeyBackslash:    {0, '\\'},
	ebiten.KeyBackquote:    {0, '`'},
	ebiten.KeyShiftLeft:    {event.SCAN_LSHIFT, 0},
	ebiten.KeyShiftRight:   {event.SCAN_RSHIFT, 0},
	ebiten.KeyControlLeft:  {event.SCAN_LCTRL, 0},
	ebiten.KeyControlRight: {event.SCAN_RCTRL, 0},
	ebiten.KeyAltLeft:      {event.SCAN_LALT, 0},
	ebiten.KeyAltRight:     {event.SCAN_RALT, 0},
	ebiten.KeyF1:           {event.SCAN_F1, 0},
	ebiten.KeyF2:           {event.SCAN_F2, 0},
	ebiten.KeyF3:           {event.SCAN_F3, 0},
	ebiten.KeyF4:           {event.SCAN_F4, 0},
	ebiten.KeyF5:           {event.SCAN_F5, 0},
	ebiten.KeyF6:           {event.SCAN_F6, 0},
	ebiten.KeyF7:           {event.SCAN_F7, 0},
	ebiten.KeyF8:           {event.SCAN_F8, 0},
	ebiten.KeyF9:           {event.SCAN_F9, 0},
	ebiten.KeyF10:          {event.SCAN_F10, 0},
	ebiten.KeyF11:          {event.SCAN_F11, 0},
	ebiten.KeyF12:          {event.SCAN_F12, 0},
}

func translateEbitenKey(key ebiten.Key) (keyCode, bool) {
	code, ok := ebitenKeys[key]
	return code, ok
}
