// Package engine is a stand-in guest: a frame loop that drives the bridge the
// way the game's main loop does, drawing a test pattern instead of a level.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/intuitionamiga/doombridge/internal/bridge"
	"github.com/intuitionamiga/doombridge/internal/event"
	"github.com/intuitionamiga/doombridge/internal/video"
)

const (
	// MAX_CATCHUP caps how many tics one frame may advance after a stall.
	MAX_CATCHUP = 4
	CURSOR_SIZE = 4
	CURSOR_STEP = 4
	// CURSOR_COLOR is the last palette entry, always white in the demo palette.
	CURSOR_COLOR = 0xFF
)

type Options struct {
	// Frames ends the run with Quit after this many frames; 0 runs until the
	// context ends, Stop reports true or the guest presses Escape.
	Frames int
	Stop   func() bool
	Sleep  func(time.Duration)
	Log    zerolog.Logger
}

type Demo struct {
	b       *bridge.Bridge
	events  *event.Buffer
	opts    Options
	palette []byte

	tic    uint32
	frames int
	cx, cy int
}

// NewDemo returns a demo guest for b. events must be the Poster b was built
// with.
func NewDemo(b *bridge.Bridge, events *event.Buffer, opts Options) *Demo {
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Demo{b: b, events: events, opts: opts, palette: DemoPalette()}
}

// DemoPalette is a 256-entry RGB ramp: a hue sweep with entry 0 black and
// entry 255 white.
func DemoPalette() []byte {
	pal := make([]byte, video.PALETTE_BYTES)
	for i := 1; i < 255; i++ {
		seg, f := i/43, byte((i%43)*6)
		var r, g, b byte
		switch seg {
		case 0:
			r, g, b = 0xFF, f, 0
		case 1:
			r, g, b = 0xFF-f, 0xFF, 0
		case 2:
			r, g, b = 0, 0xFF, f
		case 3:
			r, g, b = 0, 0xFF-f, 0xFF
		case 4:
			r, g, b = f, 0, 0xFF
		default:
			r, g, b = 0xFF, 0, 0xFF-f
		}
		pal[i*3], pal[i*3+1], pal[i*3+2] = r, g, b
	}
	pal[255*3], pal[255*3+1], pal[255*3+2] = 0xFF, 0xFF, 0xFF
	return pal
}

func (d *Demo) Frames() int        { return d.frames }
func (d *Demo) Tic() uint32        { return d.tic }
func (d *Demo) Cursor() (int, int) { return d.cx, d.cy }

func (d *Demo) exited() bool {
	_, ok := d.b.Exited()
	return ok
}

func (d *Demo) finished(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	if d.opts.Stop != nil && d.opts.Stop() {
		return true
	}
	return d.opts.Frames > 0 && d.frames >= d.opts.Frames
}

// Run initialises the bridge and loops until the guest quits. Every way out
// goes through Quit or Fatal.
func (d *Demo) Run(ctx context.Context) {
	defer d.b.Recover()
	if err := d.b.Init(); err != nil {
		d.b.Fatal("%v", err)
		return
	}
	v := d.b.Video()
	v.SetPalette(d.palette)
	d.cx, d.cy = int(v.Width())/2, int(v.Height())/2

	last := d.b.GetTime()
	for {
		if d.finished(ctx) {
			d.opts.Log.Info().Int("frames", d.frames).Uint32("tic", d.tic).Msg("demo finished")
			d.b.Quit()
			return
		}
		now := d.b.GetTime()
		if now == last {
			d.opts.Sleep(time.Millisecond)
			continue
		}
		d.tic += min(now-last, MAX_CATCHUP)
		last = now

		d.b.StartTic()
		if d.exited() {
			return
		}
		if quit := d.respond(d.events.Take()); quit {
			d.b.Quit()
			return
		}

		d.draw(v)
		v.WriteFramebuffer(v.Screen())
		d.frames++
	}
}

// respond applies one tic's events and reports whether Escape was pressed.
func (d *Demo) respond(evs []event.Event) bool {
	v := d.b.Video()
	for _, ev := range evs {
		switch ev.Type {
		case event.EV_KEYDOWN:
			switch ev.Data1 {
			case event.KEY_ESCAPE:
				return true
			case event.KEY_LEFTARROW:
				d.cx -= CURSOR_STEP
			case event.KEY_RIGHTARROW:
				d.cx += CURSOR_STEP
			case event.KEY_UPARROW:
				d.cy -= CURSOR_STEP
			case event.KEY_DOWNARROW:
				d.cy += CURSOR_STEP
			case event.KEY_F11:
				v.SetGamma((v.Gamma() + 1) % video.GAMMA_LEVELS)
				v.SetPalette(d.palette)
				d.opts.Log.Debug().Int("gamma", v.Gamma()).Msg("gamma changed")
			}
		case event.EV_MOUSE:
			d.cx += int(ev.Data2 / event.MOUSE_SCALE)
			d.cy -= int(ev.Data3 / event.MOUSE_SCALE)
		}
	}
	d.cx = min(max(d.cx, 0), int(v.Width())-CURSOR_SIZE)
	d.cy = min(max(d.cy, 0), int(v.Height())-CURSOR_SIZE)
	return false
}

// draw scrolls a diagonal ramp through palette entries 1..254 and stamps the
// cursor on top.
func (d *Demo) draw(v *video.Facade) {
	w, h := int(v.Width()), int(v.Height())
	screen := v.Screen()
	for y := range h {
		row := screen[y*w : (y+1)*w]
		for x := range row {
			row[x] = byte(1 + (x+y+int(d.tic))%254)
		}
	}
	for y := d.cy; y < d.cy+CURSOR_SIZE && y < h; y++ {
		for x := d.cx; x < d.cx+CURSOR_SIZE && x < w; x++ {
			screen[y*w+x] = CURSOR_COLOR
		}
	}
}
