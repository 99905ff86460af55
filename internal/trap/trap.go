// trap.go - Synchronous guest to host trap calls

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

package trap

import (
	"context"
	"errors"
	"fmt"
)

// Opcode selects the host operation a trap invokes. It travels in the a7 slot.
type Opcode uint32

const (
	OP_INIT              Opcode = 0x100 // a0=title, a1=width, a2=height, a3=queue capacity
	OP_WRITE_PALETTE     Opcode = 0x101 // a0=packed palette, a1=entry count
	OP_WRITE_FRAMEBUFFER Opcode = 0x102 // a0=indexed pixels
	OP_PULL_EVENTS       Opcode = 0x103 // a0=queue base, a1=&head (in/out), a2=tail
	OP_SHUTDOWN          Opcode = 0x104
)

// Argument slot indices (a0..a3).
const (
	A0 = iota
	A1
	A2
	A3
)

func (op Opcode) String() string {
	switch op {
	case OP_INIT:
		return "INIT"
	case OP_WRITE_PALETTE:
		return "WRITE_PALETTE"
	case OP_WRITE_FRAMEBUFFER:
		return "WRITE_FRAMEBUFFER"
	case OP_PULL_EVENTS:
		return "PULL_EVENTS"
	case OP_SHUTDOWN:
		return "SHUTDOWN"
	}
	return fmt.Sprintf("Opcode(0x%X)", uint32(op))
}

// Request is one trap: the opcode plus four operand slots. A handler may rewrite
// Args[A0] and Args[A1] in place; anything else it returns goes through guest memory.
type Request struct {
	Op   Opcode
	Args [4]uint32
}

// Handler executes a trap on the host side. There is no error return: a host failure
// is not visible to the guest.
type Handler interface {
	HandleTrap(req *Request)
}

type HandlerFunc func(req *Request)

func (f HandlerFunc) HandleTrap(req *Request) { f(req) }

// Invoker issues a trap and blocks until the host has completed it.
type Invoker interface {
	Invoke(req *Request)
}

// ErrHostGone is the panic value of an Invoke issued after the host loop exited.
var ErrHostGone = errors.New("trap: host service is not running")

// Direct runs the handler on the calling goroutine.
type Direct struct {
	Handler Handler
}

func (d Direct) Invoke(req *Request) {
	d.Handler.HandleTrap(req)
}

type pending struct {
	req  *Request
	done chan struct{}
}

// Rendezvous hands each trap to a host goroutine and waits for it to finish. The
// guest and the host never run at the same time: the guest is parked on done while
// the host owns guest memory, and the host is parked on the request channel while
// the guest runs.
type Rendezvous struct {
	requests chan pending
	done     chan struct{}
	stopped  chan struct{}
}

func NewRendezvous() *Rendezvous {
	return &Rendezvous{
		requests: make(chan pending),
		done:     make(chan struct{}, 1),
		stopped:  make(chan struct{}),
	}
}

// Invoke panics with ErrHostGone once Serve has returned. Only one guest goroutine
// may issue traps.
func (r *Rendezvous) Invoke(req *Request) {
	p := pending{req: req, done: r.done}
	select {
	case r.requests <- p:
	case <-r.stopped:
		panic(ErrHostGone)
	}
	<-r.done
}

// Serve runs h for every trap until ctx is cancelled. It must be called exactly once.
func (r *Rendezvous) Serve(ctx context.Context, h Handler) error {
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-r.requests:
			h.HandleTrap(p.req)
			p.done <- struct{}{}
		}
	}
}
