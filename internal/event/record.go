package event

import (
	"encoding/binary"
)

// Kind is the host-native record type written by PULL_EVENTS.
type Kind uint32

const (
	KIND_NONE Kind = iota
	KIND_KEYDOWN
	KIND_KEYUP
	KIND_MOUSEDOWN
	KIND_MOUSEUP
	KIND_MOUSEMOTION
)

// RawRecord guest layout, 24 bytes little-endian:
//
//	+0x00: kind
//	+0x04: code (scan code or button id)
//	+0x08: sym
//	+0x0C: buttons (held mask)
//	+0x10: dx (signed)
//	+0x14: dy (signed)
const (
	RECORD_SIZE = 24

	REC_KIND_OFF    = 0x00
	REC_CODE_OFF    = 0x04
	REC_SYM_OFF     = 0x08
	REC_BUTTONS_OFF = 0x0C
	REC_DX_OFF      = 0x10
	REC_DY_OFF      = 0x14
)

type RawRecord struct {
	Kind    Kind
	Code    uint32
	Sym     uint32
	Buttons uint32
	DX      int32
	DY      int32
}

func KeyDown(scancode, sym uint32) RawRecord {
	return RawRecord{Kind: KIND_KEYDOWN, Code: scancode, Sym: sym}
}

func KeyUp(scancode, sym uint32) RawRecord {
	return RawRecord{Kind: KIND_KEYUP, Code: scancode, Sym: sym}
}

func MouseDown(button, held uint32) RawRecord {
	return RawRecord{Kind: KIND_MOUSEDOWN, Code: button, Buttons: held}
}

func MouseUp(button, held uint32) RawRecord {
	return RawRecord{Kind: KIND_MOUSEUP, Code: button, Buttons: held}
}

func MouseMotion(dx, dy int32, held uint32) RawRecord {
	return RawRecord{Kind: KIND_MOUSEMOTION, Buttons: held, DX: dx, DY: dy}
}

// Put encodes r into b, which must hold RECORD_SIZE bytes.
func (r RawRecord) Put(b []byte) {
	_ = b[RECORD_SIZE-1]
	binary.LittleEndian.PutUint32(b[REC_KIND_OFF:], uint32(r.Kind))
	binary.LittleEndian.PutUint32(b[REC_CODE_OFF:], r.Code)
	binary.LittleEndian.PutUint32(b[REC_SYM_OFF:], r.Sym)
	binary.LittleEndian.PutUint32(b[REC_BUTTONS_OFF:], r.Buttons)
	binary.LittleEndian.PutUint32(b[REC_DX_OFF:], uint32(r.DX))
	binary.LittleEndian.PutUint32(b[REC_DY_OFF:], uint32(r.DY))
}

// ReadRecord decodes a record from b.
func ReadRecord(b []byte) RawRecord {
	_ = b[RECORD_SIZE-1]
	return RawRecord{
		Kind:    Kind(binary.LittleEndian.Uint32(b[REC_KIND_OFF:])),
		Code:    binary.LittleEndian.Uint32(b[REC_CODE_OFF:]),
		Sym:     binary.LittleEndian.Uint32(b[REC_SYM_OFF:]),
		Buttons: binary.LittleEndian.Uint32(b[REC_BUTTONS_OFF:]),
		DX:      int32(binary.LittleEndian.Uint32(b[REC_DX_OFF:])),
		DY:      int32(binary.LittleEndian.Uint32(b[REC_DY_OFF:])),
	}
}
