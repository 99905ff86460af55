// clock.go - Monotonic engine ticks from a 16-bit host sample

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

package tick

import (
	"time"
)

const (
	// TICRATE is the engine's fixed tick frequency in Hz.
	TICRATE = 35

	// WRAP is the period of the 16-bit raw sample.
	WRAP = 1 << 16
)

// Source reports host elapsed time in milliseconds.
type Source interface {
	Millis() uint64
}

type SourceFunc func() uint64

func (f SourceFunc) Millis() uint64 { return f() }

type hostSource struct {
	start time.Time
}

func (s hostSource) Millis() uint64 {
	return uint64(time.Since(s.start).Milliseconds())
}

// HostSource measures milliseconds since the moment it was created on the
// host's monotonic clock.
func HostSource() Source {
	return hostSource{start: time.Now()}
}

// Clock turns a 16-bit tick sample into a monotonic 32-bit tick count. The
// sample wraps every 65536 ticks (about 31 minutes); each observed wrap adds
// 65536 to base. It is not safe for concurrent use and is never reset.
type Clock struct {
	source Source
	base   uint32
	last   uint16
}

func NewClock(src Source) *Clock {
	if src == nil {
		src = HostSource()
	}
	return &Clock{source: src}
}

// Sample converts milliseconds to the truncated 16-bit tick sample.
func Sample(ms uint64) uint16 {
	return uint16(ms * TICRATE / 1000)
}

// Now samples the source and returns the current tick.
func (c *Clock) Now() uint32 {
	return c.Advance(Sample(c.source.Millis()))
}

// Advance folds one raw sample into the counter. A sample lower than the
// previous one counts as exactly one wrap.
func (c *Clock) Advance(sample uint16) uint32 {
	if sample < c.last {
		c.base += WRAP
	}
	c.last = sample
	return c.base + uint32(sample)
}
