// input_terminal.go - Raw terminal keystrokes as input records

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package host

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/intuitionamiga/doombridge/internal/event"
)

// TerminalSource turns stdin keystrokes into key records. Terminals report no
// key releases, so every byte becomes a press immediately followed by a
// release. ANSI arrow sequences map to the arrow scan codes; Ctrl+C calls
// OnInterrupt instead of reaching the guest.
type TerminalSource struct {
	OnInterrupt func()

	in       *os.File
	log      zerolog.Logger
	bytes    chan byte
	oldState *term.State
	closed   sync.Once
	overrun  rate.Sometimes

	esc []byte
}

func NewTerminalSource(in *os.File, log zerolog.Logger) *TerminalSource {
	return &TerminalSource{
		in:      in,
		log:     log,
		bytes:   make(chan byte, 256),
		overrun: rate.Sometimes{Interval: time.Second},
	}
}

// Start puts the terminal in raw mode (when it is one) and starts reading.
func (t *TerminalSource) Start() error {
	fd := int(t.in.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("terminal raw mode: %w", err)
		}
		t.oldState = old
	}
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := t.in.Read(buf)
			for _, b := range buf[:n] {
				select {
				case t.bytes <- b:
				default:
					t.overrun.Do(func() { t.log.Warn().Msg("terminal input overrun, bytes dropped") })
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

// Close restores the terminal mode. The reader goroutine stays parked on stdin.
func (t *TerminalSource) Close() error {
	var err error
	t.closed.Do(func() {
		if t.oldState != nil {
			err = term.Restore(int(t.in.Fd()), t.oldState)
		}
	})
	return err
}

func (t *TerminalSource) Poll(dst []event.RawRecord) []event.RawRecord {
	for {
		select {
		case b := <-t.bytes:
			dst = t.feed(dst, b)
		default:
			return t.flushEscape(dst)
		}
	}
}

// feed advances the ESC [ x state machine by one byte.
func (t *TerminalSource) feed(dst []event.RawRecord, b byte) []event.RawRecord {
	if len(t.esc) > 0 {
		t.esc = append(t.esc, b)
		if len(t.esc) == 2 {
			if b == '[' {
				return dst
			}
			dst = typeByte(dst, 0x1B)
			t.esc = t.esc[:0]
			return t.feed(dst, b)
		}
		var scan uint32
		switch b {
		case 'A':
			scan = event.SCAN_UP
		case 'B':
			scan = event.SCAN_DOWN
		case 'C':
			scan = event.SCAN_RIGHT
		case 'D':
			scan = event.SCAN_LEFT
		}
		t.esc = t.esc[:0]
		if scan != 0 {
			return append(dst, event.KeyDown(scan, 0), event.KeyUp(scan, 0))
		}
		return dst
	}
	switch b {
	case 0x1B:
		t.esc = append(t.esc, b)
		return dst
	case 0x03:
		if t.OnInterrupt != nil {
			t.OnInterrupt()
		}
		return dst
	case '\r':
		b = '\n'
	}
	return typeByte(dst, b)
}

// flushEscape emits a lone ESC once no more bytes of a sequence are waiting.
func (t *TerminalSource) flushEscape(dst []event.RawRecord) []event.RawRecord {
	if len(t.esc) == 1 {
		t.esc = t.esc[:0]
		return typeByte(dst, 0x1B)
	}
	return dst
}
