// memory.go - Guest RAM seen through trap arguments

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

/*
guestmem - Guest RAM for the RISC-V bridge

The guest sees a flat, little-endian byte-addressed memory. Every pointer-sized trap
argument is an address into this block: the event queue, the head cursor, the palette
staging buffer, the primary screen and the window title all live here, and the host
service reaches them only through the addresses the guest hands it.

Address 0 is never handed out by Alloc so that a zero argument always reads as NULL.
The block is not guarded by a lock: guest and host never touch it at the same time
(the trap is a full rendezvous), which is the whole point of the protocol.
*/

package guestmem

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	DEFAULT_MEMORY_SIZE = 1 << 20
	NULL_GUARD          = 0x1000
	MAX_CSTRING         = 256
)

// Fault describes an access outside guest RAM.
type Fault struct {
	Op   string
	Addr uint32
	Size uint32
}

func (f *Fault) Error() string {
	return fmt.Sprintf("guest memory fault: %s of %d bytes at 0x%08X", f.Op, f.Size, f.Addr)
}

type Memory struct {
	data []byte
	brk  uint32
}

// New allocates size bytes of zeroed guest RAM.
func New(size uint32) *Memory {
	if size < NULL_GUARD*2 {
		size = NULL_GUARD * 2
	}
	return &Memory{
		data: make([]byte, size),
		brk:  NULL_GUARD,
	}
}

func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

func (m *Memory) inRange(addr, n uint32) bool {
	end := uint64(addr) + uint64(n)
	return addr >= NULL_GUARD && end <= uint64(len(m.data))
}

// Alloc reserves a static region aligned to align (a power of two) and returns its
// address. Regions are never freed; the guest allocates everything it shares with the
// host once at startup.
func (m *Memory) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, fmt.Errorf("alignment %d is not a power of two", align)
	}
	addr := (m.brk + align - 1) &^ (align - 1)
	if !m.inRange(addr, size) {
		return 0, &Fault{Op: "alloc", Addr: addr, Size: size}
	}
	m.brk = addr + size
	return addr, nil
}

// Slice returns a view of n bytes at addr. The view aliases guest RAM.
func (m *Memory) Slice(addr, n uint32) ([]byte, error) {
	if !m.inRange(addr, n) {
		return nil, &Fault{Op: "slice", Addr: addr, Size: n}
	}
	return m.data[addr : addr+n : addr+n], nil
}

func (m *Memory) Read32WithFault(addr uint32) (uint32, bool) {
	if !m.inRange(addr, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.data[addr:]), true
}

func (m *Memory) Write32WithFault(addr uint32, value uint32) bool {
	if !m.inRange(addr, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.data[addr:], value)
	return true
}

// Read32 panics with a *Fault on an out-of-range address. Guest code only reads
// addresses it allocated itself, so a fault there is a programming error.
func (m *Memory) Read32(addr uint32) uint32 {
	v, ok := m.Read32WithFault(addr)
	if !ok {
		panic(&Fault{Op: "read32", Addr: addr, Size: 4})
	}
	return v
}

func (m *Memory) Write32(addr uint32, value uint32) {
	if !m.Write32WithFault(addr, value) {
		panic(&Fault{Op: "write32", Addr: addr, Size: 4})
	}
}

// CString reads a NUL-terminated string of at most max bytes. A string that runs
// into the limit without a terminator is truncated there.
func (m *Memory) CString(addr, max uint32) (string, error) {
	if !m.inRange(addr, 1) {
		return "", &Fault{Op: "cstring", Addr: addr, Size: 1}
	}
	end := min(uint64(addr)+uint64(max), uint64(len(m.data)))
	raw := m.data[addr:end]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw), nil
}

// AllocCString copies s plus a terminator into freshly allocated guest RAM.
func (m *Memory) AllocCString(s string) (uint32, error) {
	addr, err := m.Alloc(uint32(len(s))+1, 1)
	if err != nil {
		return 0, err
	}
	copy(m.data[addr:], s)
	m.data[addr+uint32(len(s))] = 0
	return addr, nil
}

// Reset zeroes RAM and forgets every allocation.
func (m *Memory) Reset() {
	clear(m.data)
	m.brk = NULL_GUARD
}
