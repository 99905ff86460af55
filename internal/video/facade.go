// facade.go - Trap-backed video calls used by the engine

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

package video

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/intuitionamiga/doombridge/internal/guestmem"
	"github.com/intuitionamiga/doombridge/internal/tick"
	"github.com/intuitionamiga/doombridge/internal/trap"
)

const (
	PALETTE_ENTRIES = 256
	PALETTE_BYTES   = PALETTE_ENTRIES * 3

	// FPS_WINDOW is how many presented frames separate two throughput reports.
	FPS_WINDOW = 100
)

type State int

const (
	STATE_UNINIT State = iota
	STATE_READY
	STATE_SHUTDOWN
)

func (s State) String() string {
	switch s {
	case STATE_UNINIT:
		return "uninit"
	case STATE_READY:
		return "ready"
	case STATE_SHUTDOWN:
		return "shutdown"
	}
	return "unknown"
}

// Misuse of the facade is a programming error: these are panic values, never
// returned.
var (
	ErrNotReady    = errors.New("video: operation outside ready state")
	ErrInitTwice   = errors.New("video: init called more than once")
	ErrBadPalette  = errors.New("video: palette must be 256 RGB triples")
	ErrBadFrame    = errors.New("video: framebuffer size does not match the display")
	ErrBadGamma    = errors.New("video: gamma level out of range")
	ErrBadGeometry = errors.New("video: width and height must be non-zero")
)

// Facade is the engine's view of the host display: four trap-backed calls plus
// the guest-resident buffers they point at.
type Facade struct {
	inv   trap.Invoker
	mem   *guestmem.Memory
	clock *tick.Clock
	log   zerolog.Logger

	state  State
	width  uint32
	height uint32
	gamma  int

	paletteAddr uint32
	screenAddr  uint32
	screen      []byte
	packed      [PALETTE_ENTRIES]uint32

	frameCount int
	tickPrev   uint32
}

func NewFacade(inv trap.Invoker, mem *guestmem.Memory, clock *tick.Clock, log zerolog.Logger) *Facade {
	return &Facade{
		inv:   inv,
		mem:   mem,
		clock: clock,
		log:   log,
		gamma: DEFAULT_GAMMA,
	}
}

func (f *Facade) State() State   { return f.state }
func (f *Facade) Width() uint32  { return f.width }
func (f *Facade) Height() uint32 { return f.height }

func (f *Facade) mustBeReady(op string) {
	if f.state != STATE_READY {
		panic(fmt.Errorf("%w: %s while %s", ErrNotReady, op, f.state))
	}
}

// Init allocates the title, palette staging buffer and primary screen in guest
// memory, then asks the host to open a width x height surface with an event
// queue of maxEvents records.
func (f *Facade) Init(title string, width, height, maxEvents uint32) {
	if f.state != STATE_UNINIT {
		panic(ErrInitTwice)
	}
	if width == 0 || height == 0 {
		panic(ErrBadGeometry)
	}
	titleAddr, err := f.mem.AllocCString(title)
	if err != nil {
		panic(fmt.Errorf("video init: %w", err))
	}
	f.paletteAddr, err = f.mem.Alloc(PALETTE_ENTRIES*4, 4)
	if err != nil {
		panic(fmt.Errorf("video init: %w", err))
	}
	f.screenAddr, err = f.mem.Alloc(width*height, 8)
	if err != nil {
		panic(fmt.Errorf("video init: %w", err))
	}
	f.screen, _ = f.mem.Slice(f.screenAddr, width*height)
	f.width, f.height = width, height

	f.inv.Invoke(&trap.Request{
		Op:   trap.OP_INIT,
		Args: [4]uint32{titleAddr, width, height, maxEvents},
	})
	f.state = STATE_READY
	f.tickPrev = f.clock.Now()
	f.log.Debug().Str("title", title).Uint32("width", width).Uint32("height", height).
		Uint32("max_events", maxEvents).Msg("video initialised")
}

// SetGamma selects the correction curve used by later SetPalette calls.
func (f *Facade) SetGamma(level int) {
	if level < 0 || level >= GAMMA_LEVELS {
		panic(fmt.Errorf("%w: %d", ErrBadGamma, level))
	}
	f.gamma = level
}

func (f *Facade) Gamma() int { return f.gamma }

// SetPalette converts pal (256 RGB triples) to gamma-corrected 0xRRGGBB words and
// pushes all 256 of them to the host.
func (f *Facade) SetPalette(pal []byte) {
	f.mustBeReady("write palette")
	if len(pal) != PALETTE_BYTES {
		panic(fmt.Errorf("%w: got %d bytes", ErrBadPalette, len(pal)))
	}
	PackPalette(&f.packed, pal, f.gamma)
	for i, c := range f.packed {
		f.mem.Write32(f.paletteAddr+uint32(i)*4, c)
	}
	f.inv.Invoke(&trap.Request{
		Op:   trap.OP_WRITE_PALETTE,
		Args: [4]uint32{f.paletteAddr, PALETTE_ENTRIES},
	})
}

// Screen is the primary draw surface, one palette index per pixel, resident in
// guest memory. Drawing into it and then calling WriteFramebuffer(Screen()) skips
// a copy.
func (f *Facade) Screen() []byte {
	f.mustBeReady("screen")
	return f.screen
}

// WriteFramebuffer presents exactly width*height palette indices.
func (f *Facade) WriteFramebuffer(buf []byte) {
	f.mustBeReady("write framebuffer")
	if len(buf) != len(f.screen) {
		panic(fmt.Errorf("%w: got %d bytes, want %d", ErrBadFrame, len(buf), len(f.screen)))
	}
	if &buf[0] != &f.screen[0] {
		copy(f.screen, buf)
	}
	f.inv.Invoke(&trap.Request{
		Op:   trap.OP_WRITE_FRAMEBUFFER,
		Args: [4]uint32{f.screenAddr},
	})

	f.frameCount++
	if f.frameCount == FPS_WINDOW {
		now := f.clock.Now()
		f.log.Info().Int("frames", FPS_WINDOW).Uint32("ticks", now-f.tickPrev).Msg("frame pacing")
		f.tickPrev = now
		f.frameCount = 0
	}
}

// ReadScreen copies the primary surface into dst.
func (f *Facade) ReadScreen(dst []byte) {
	f.mustBeReady("read screen")
	copy(dst, f.screen)
}

// Shutdown releases the host surface. It is safe before Init and after a previous
// Shutdown; only the first call reaches the host.
func (f *Facade) Shutdown() {
	if f.state == STATE_SHUTDOWN {
		return
	}
	f.inv.Invoke(&trap.Request{Op: trap.OP_SHUTDOWN})
	f.state = STATE_SHUTDOWN
	f.log.Debug().Msg("video shut down")
}
