// bridge.go - Guest-side host bridge: frame hook, quit and fatal paths

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

package bridge

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/intuitionamiga/doombridge/internal/event"
	"github.com/intuitionamiga/doombridge/internal/guestmem"
	"github.com/intuitionamiga/doombridge/internal/tick"
	"github.com/intuitionamiga/doombridge/internal/trap"
	"github.com/intuitionamiga/doombridge/internal/video"
)

const (
	EXIT_OK    = 0
	EXIT_FATAL = 255
)

// Hooks are the engine cleanup steps the bridge runs on the way out. Any of them
// may be nil.
type Hooks struct {
	DemoRecording func() bool
	StopDemo      func()
	QuitNetGame   func()
	SaveDefaults  func()
}

type Config struct {
	Title     string
	Width     uint32
	Height    uint32
	MaxEvents uint32
	Gamma     int
}

type Options struct {
	Config  Config
	Invoker trap.Invoker
	Memory  *guestmem.Memory
	Clock   *tick.Clock
	Poster  event.Poster
	Hooks   Hooks
	Log     zerolog.Logger

	// Stderr receives the fatal message; defaults to os.Stderr.
	Stderr io.Writer
	// Exit terminates the process; defaults to os.Exit.
	Exit func(code int)
}

// Bridge owns everything the guest shares with the host service: guest memory,
// the trap invoker, the input queue and the video facade. The frame loop holds
// one Bridge and calls StartTic once per tick.
type Bridge struct {
	cfg    Config
	inv    trap.Invoker
	mem    *guestmem.Memory
	clock  *tick.Clock
	poster event.Poster
	hooks  Hooks
	log    zerolog.Logger
	stderr io.Writer
	exit   func(int)

	video *video.Facade
	queue *event.Queue

	failing  bool
	exited   bool
	exitCode int
}

func New(opts Options) *Bridge {
	b := &Bridge{
		cfg:    opts.Config,
		inv:    opts.Invoker,
		mem:    opts.Memory,
		clock:  opts.Clock,
		poster: opts.Poster,
		hooks:  opts.Hooks,
		log:    opts.Log,
		stderr: opts.Stderr,
		exit:   opts.Exit,
	}
	if b.mem == nil {
		b.mem = guestmem.New(guestmem.DEFAULT_MEMORY_SIZE)
	}
	if b.clock == nil {
		b.clock = tick.NewClock(nil)
	}
	if b.cfg.MaxEvents == 0 {
		b.cfg.MaxEvents = event.MAX_EVENTS
	}
	if b.stderr == nil {
		b.stderr = os.Stderr
	}
	if b.exit == nil {
		b.exit = os.Exit
	}
	b.video = video.NewFacade(b.inv, b.mem, b.clock, b.log)
	return b
}

func (b *Bridge) Video() *video.Facade    { return b.video }
func (b *Bridge) Queue() *event.Queue     { return b.queue }
func (b *Bridge) Memory() *guestmem.Memory { return b.mem }

// Init allocates the shared input queue and opens the host display.
func (b *Bridge) Init() error {
	q, err := event.NewQueue(b.mem, b.cfg.MaxEvents)
	if err != nil {
		return fmt.Errorf("bridge init: %w", err)
	}
	b.queue = q
	b.video.SetGamma(b.cfg.Gamma)
	b.video.Init(b.cfg.Title, b.cfg.Width, b.cfg.Height, b.cfg.MaxEvents)
	b.log.Info().Str("title", b.cfg.Title).Uint32("queue_base", q.Base()).
		Uint32("head_addr", q.HeadAddr()).Msg("bridge ready")
	return nil
}

// GetTime returns the current engine tick.
func (b *Bridge) GetTime() uint32 {
	return b.clock.Now()
}

// StartTic is the frame-start hook: one PULL_EVENTS trap followed by exactly one
// drain of everything it produced.
func (b *Bridge) StartTic() {
	if b.queue == nil {
		b.Fatal("StartTic before Init")
		return
	}
	b.inv.Invoke(&trap.Request{
		Op:   trap.OP_PULL_EVENTS,
		Args: [4]uint32{b.queue.Base(), b.queue.HeadAddr(), b.queue.Tail()},
	})
	n, err := b.queue.Drain(b.poster)
	if err != nil {
		b.Fatal("%v", err)
		return
	}
	if n > 0 {
		b.log.Trace().Int("records", n).Uint32("tail", b.queue.Tail()).Msg("events drained")
	}
}

func (b *Bridge) step(name string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn().Str("step", name).Interface("panic", r).Msg("cleanup step failed")
		}
	}()
	fn()
}

// Quit is the graceful exit path.
func (b *Bridge) Quit() {
	b.step("quit net game", b.hooks.QuitNetGame)
	b.step("save defaults", b.hooks.SaveDefaults)
	b.step("shutdown video", b.video.Shutdown)
	b.log.Info().Msg("quit")
	b.terminate(EXIT_OK)
}

// Fatal reports msg, makes a best-effort cleanup and exits non-zero. A Fatal
// raised from inside the cleanup exits straight away.
func (b *Bridge) Fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(b.stderr, "Error: %s\n", msg)
	if b.failing {
		b.terminate(EXIT_FATAL)
		return
	}
	b.failing = true
	b.log.Error().Str("error", msg).Msg("fatal")

	if b.hooks.DemoRecording != nil && b.hooks.DemoRecording() {
		b.step("stop demo", b.hooks.StopDemo)
	}
	b.step("quit net game", b.hooks.QuitNetGame)
	b.step("shutdown video", b.video.Shutdown)
	b.terminate(EXIT_FATAL)
}

func (b *Bridge) terminate(code int) {
	if !b.exited {
		b.exited, b.exitCode = true, code
	}
	b.exit(code)
}

// Exited reports whether Quit or Fatal has run and the first exit code passed
// on. Only meaningful when Exit returns, as it does in tests and the runner.
func (b *Bridge) Exited() (code int, ok bool) {
	return b.exitCode, b.exited
}

// Recover turns a panic in the frame loop into Fatal. Use as `defer b.Recover()`.
func (b *Bridge) Recover() {
	if r := recover(); r != nil {
		b.Fatal("%v", r)
	}
}
