package host

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/intuitionamiga/doombridge/internal/event"
)

// InputSource feeds raw records to the service. Poll appends whatever arrived
// since the previous call and must not block.
type InputSource interface {
	Poll(dst []event.RawRecord) []event.RawRecord
}

const PASTE_LIMIT = 4096

// asciiScan returns the host scan code for a printable or control byte, or 0
// when the byte has no dedicated key.
func asciiScan(b byte) uint32 {
	switch {
	case b >= 'a' && b <= 'z':
		return event.SCAN_A + uint32(b-'a')
	case b >= 'A' && b <= 'Z':
		return event.SCAN_A + uint32(b-'A')
	case b == '0':
		return event.SCAN_0
	case b >= '1' && b <= '9':
		return event.SCAN_1 + uint32(b-'1')
	case b == '\n' || b == '\r':
		return event.SCAN_RETURN
	case b == '\t':
		return event.SCAN_TAB
	case b == ' ':
		return event.SCAN_SPACE
	case b == '-':
		return event.SCAN_MINUS
	case b == '=':
		return event.SCAN_EQUALS
	case b == 0x1B:
		return event.SCAN_ESCAPE
	case b == 0x08 || b == 0x7F:
		return event.SCAN_BACKSPACE
	}
	return 0
}

// typeByte appends a press and release of the key that produces b.
func typeByte(dst []event.RawRecord, b byte) []event.RawRecord {
	scan := asciiScan(b)
	sym := uint32(b)
	if b >= 'A' && b <= 'Z' {
		sym = uint32(b - 'A' + 'a')
	}
	return append(dst, event.KeyDown(scan, sym), event.KeyUp(scan, sym))
}

func normalizePasteText(raw []byte) []byte {
	norm := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\r' {
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
			norm = append(norm, '\n')
			continue
		}
		norm = append(norm, raw[i])
	}
	return norm
}

func capPasteText(raw []byte, max int) []byte {
	if len(raw) <= max {
		return raw
	}
	return raw[:max]
}

// foldPasteText strips accents so "café" types as "cafe". Text that fails to
// transform is returned unchanged.
func foldPasteText(raw []byte) []byte {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.Bytes(t, raw)
	if err != nil {
		return raw
	}
	return out
}

// pasteRecords types clipboard text as key presses. Bytes outside printable
// ASCII (other than newline and tab) are skipped.
func pasteRecords(dst []event.RawRecord, raw []byte) []event.RawRecord {
	for _, b := range capPasteText(normalizePasteText(foldPasteText(raw)), PASTE_LIMIT) {
		if b == '\n' || b == '\t' || (b >= 0x20 && b < 0x7F) {
			dst = typeByte(dst, b)
		}
	}
	return dst
}
