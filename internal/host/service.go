// service.go - Host end of the trap protocol

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
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/intuitionamiga/doombridge/internal/event"
	"github.com/intuitionamiga/doombridge/internal/guestmem"
	"github.com/intuitionamiga/doombridge/internal/trap"
)

const (
	PALETTE_ENTRIES = 256

	// DEFAULT_BACKLOG bounds the records held for a guest that drains slower
	// than input arrives.
	DEFAULT_BACKLOG = 1024
)

// Service is the host end of the trap protocol. It runs on the host goroutine
// and touches guest memory only while a trap is in progress.
type Service struct {
	mem     *guestmem.Memory
	display Display
	inputs  []InputSource
	log     zerolog.Logger

	backlog    []event.RawRecord
	maxBacklog int
	dropped    uint64
	dropWarn   rate.Sometimes

	palette  [PALETTE_ENTRIES]uint32
	rgba     []byte
	width    uint32
	height   uint32
	capacity uint32
	open     bool
	closed   bool

	frames uint64
	pulls  uint64
}

func NewService(mem *guestmem.Memory, display Display, log zerolog.Logger, inputs ...InputSource) *Service {
	return &Service{
		mem:        mem,
		display:    display,
		inputs:     inputs,
		log:        log,
		maxBacklog: DEFAULT_BACKLOG,
		dropWarn:   rate.Sometimes{Interval: time.Second},
	}
}

func (s *Service) AddInput(src InputSource) {
	s.inputs = append(s.inputs, src)
}

// SetBacklogLimit changes how many undelivered records are kept before the
// oldest are dropped.
func (s *Service) SetBacklogLimit(n int) {
	s.maxBacklog = max(n, 1)
}

// Serve answers traps from r until ctx ends.
func (s *Service) Serve(ctx context.Context, r *trap.Rendezvous) error {
	err := r.Serve(ctx, s)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleTrap implements trap.Handler. Failures are logged; the protocol has no
// way to report them to the guest.
func (s *Service) HandleTrap(req *trap.Request) {
	var err error
	switch req.Op {
	case trap.OP_INIT:
		err = s.init(req)
	case trap.OP_WRITE_PALETTE:
		err = s.writePalette(req)
	case trap.OP_WRITE_FRAMEBUFFER:
		err = s.writeFramebuffer(req)
	case trap.OP_PULL_EVENTS:
		err = s.pullEvents(req)
	case trap.OP_SHUTDOWN:
		err = s.shutdown()
	default:
		err = &Error{Operation: "dispatch", Details: fmt.Sprintf("unknown opcode %s", req.Op)}
	}
	if err != nil {
		s.log.Error().Err(err).Stringer("op", req.Op).Msg("trap failed")
	}
}

func (s *Service) init(req *trap.Request) error {
	if s.open {
		return &Error{Operation: "init", Details: "display already open"}
	}
	title, err := s.mem.CString(req.Args[trap.A0], guestmem.MAX_CSTRING)
	if err != nil {
		return &Error{Operation: "init", Details: "reading title", Err: err}
	}
	w, h, capacity := req.Args[trap.A1], req.Args[trap.A2], req.Args[trap.A3]
	if w == 0 || h == 0 {
		return &Error{Operation: "init", Details: fmt.Sprintf("bad geometry %dx%d", w, h)}
	}
	if capacity == 0 || capacity&(capacity-1) != 0 {
		return &Error{Operation: "init", Details: fmt.Sprintf("queue capacity %d is not a power of two", capacity)}
	}
	if err := s.display.Open(title, int(w), int(h)); err != nil {
		return &Error{Operation: "init", Details: "opening display", Err: err}
	}
	s.width, s.height, s.capacity = w, h, capacity
	s.rgba = make([]byte, w*h*4)
	s.open = true
	s.log.Info().Str("title", title).Uint32("width", w).Uint32("height", h).
		Uint32("capacity", capacity).Msg("host surface open")
	return nil
}

func (s *Service) writePalette(req *trap.Request) error {
	if count := req.Args[trap.A1]; count != PALETTE_ENTRIES {
		return &Error{Operation: "write palette", Details: fmt.Sprintf("expected %d entries, got %d", PALETTE_ENTRIES, count)}
	}
	for i := range PALETTE_ENTRIES {
		c, ok := s.mem.Read32WithFault(req.Args[trap.A0] + uint32(i)*4)
		if !ok {
			return &Error{Operation: "write palette", Details: "reading entries",
				Err: &guestmem.Fault{Op: "read32", Addr: req.Args[trap.A0] + uint32(i)*4, Size: 4}}
		}
		s.palette[i] = c & 0xFFFFFF
	}
	return nil
}

// expandFrame converts palette indices to RGBA through pal.
func expandFrame(dst, src []byte, pal *[PALETTE_ENTRIES]uint32) {
	for i, idx := range src {
		c := pal[idx]
		o := i * 4
		dst[o] = byte(c >> 16)
		dst[o+1] = byte(c >> 8)
		dst[o+2] = byte(c)
		dst[o+3] = 0xFF
	}
}

func (s *Service) writeFramebuffer(req *trap.Request) error {
	if !s.open || s.closed {
		return &Error{Operation: "write framebuffer", Details: "display not open"}
	}
	src, err := s.mem.Slice(req.Args[trap.A0], s.width*s.height)
	if err != nil {
		return &Error{Operation: "write framebuffer", Details: "reading pixels", Err: err}
	}
	expandFrame(s.rgba, src, &s.palette)
	if err := s.display.Present(s.rgba); err != nil {
		return &Error{Operation: "write framebuffer", Details: "present", Err: err}
	}
	s.frames++
	return nil
}

func (s *Service) pullEvents(req *trap.Request) error {
	if !s.open {
		return &Error{Operation: "pull events", Details: "queue capacity unknown before init"}
	}
	s.pulls++
	for _, src := range s.inputs {
		s.backlog = src.Poll(s.backlog)
	}
	if over := len(s.backlog) - s.maxBacklog; over > 0 {
		s.backlog = append(s.backlog[:0], s.backlog[over:]...)
		s.dropped += uint64(over)
		s.dropWarn.Do(func() {
			s.log.Warn().Int("dropped", over).Uint64("total", s.dropped).Msg("input backlog full, oldest records dropped")
		})
	}
	n, err := event.Produce(s.mem, req.Args[trap.A0], s.capacity, req.Args[trap.A1], req.Args[trap.A2], s.backlog)
	if err != nil {
		return &Error{Operation: "pull events", Details: "writing queue", Err: err}
	}
	s.backlog = append(s.backlog[:0], s.backlog[n:]...)
	return nil
}

func (s *Service) shutdown() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, src := range s.inputs {
		if c, ok := src.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	if s.open {
		errs = append(errs, s.display.Close())
	}
	s.log.Info().Uint64("frames", s.frames).Uint64("pulls", s.pulls).Msg("host surface closed")
	if err := errors.Join(errs...); err != nil {
		return &Error{Operation: "shutdown", Details: "releasing resources", Err: err}
	}
	return nil
}

// Stats reports presented frames, pull cycles, and records dropped from the
// backlog.
func (s *Service) Stats() (frames, pulls, dropped uint64) {
	return s.frames, s.pulls, s.dropped
}

// Pending is the number of records waiting for queue space.
func (s *Service) Pending() int {
	return len(s.backlog)
}
