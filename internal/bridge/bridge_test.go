package bridge

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intuitionamiga/doombridge/internal/event"
	"github.com/intuitionamiga/doombridge/internal/guestmem"
	"github.com/intuitionamiga/doombridge/internal/host"
	"github.com/intuitionamiga/doombridge/internal/tick"
	"github.com/intuitionamiga/doombridge/internal/trap"
)

type pushSource struct{ next []event.RawRecord }

func (p *pushSource) Poll(dst []event.RawRecord) []event.RawRecord {
	dst = append(dst, p.next...)
	p.next = nil
	return dst
}

type harness struct {
	bridge  *Bridge
	service *host.Service
	display *host.HeadlessDisplay
	input   *pushSource
	posted  *event.Buffer
	stderr  *bytes.Buffer
	exits   []int
	calls   []string
}

func newHarness(t *testing.T, maxEvents uint32) *harness {
	t.Helper()
	h := &harness{
		display: host.NewHeadlessDisplay(),
		input:   &pushSource{},
		posted:  &event.Buffer{},
		stderr:  &bytes.Buffer{},
	}
	mem := guestmem.New(guestmem.DEFAULT_MEMORY_SIZE)
	h.service = host.NewService(mem, h.display, zerolog.Nop(), h.input)
	h.bridge = New(Options{
		Config:  Config{Title: "DOOM", Width: 4, Height: 2, MaxEvents: maxEvents, Gamma: 0},
		Invoker: trap.Direct{Handler: h.service},
		Memory:  mem,
		Clock:   tick.NewClock(tick.SourceFunc(func() uint64 { return 0 })),
		Poster:  h.posted,
		Hooks: Hooks{
			DemoRecording: func() bool { h.calls = append(h.calls, "demo?"); return true },
			StopDemo:      func() { h.calls = append(h.calls, "stop demo") },
			QuitNetGame:   func() { h.calls = append(h.calls, "quit net") },
			SaveDefaults:  func() { h.calls = append(h.calls, "save defaults") },
		},
		Log:    zerolog.Nop(),
		Stderr: h.stderr,
		Exit:   func(code int) { h.exits = append(h.exits, code) },
	})
	return h
}

func TestBridge_InitOpensHostDisplay(t *testing.T) {
	h := newHarness(t, 64)
	require.NoError(t, h.bridge.Init())
	assert.True(t, h.display.IsOpen())
	assert.Equal(t, "DOOM", h.display.Title())
	assert.Equal(t, uint32(64), h.bridge.Queue().Capacity())
}

func TestBridge_InitRejectsBadCapacity(t *testing.T) {
	h := newHarness(t, 48)
	assert.ErrorIs(t, h.bridge.Init(), event.ErrBadCapacity)
}

func TestBridge_StartTicDeliversInOrder(t *testing.T) {
	h := newHarness(t, 64)
	require.NoError(t, h.bridge.Init())

	h.input.next = []event.RawRecord{
		event.KeyDown(event.SCAN_LCTRL, 0),
		event.MouseMotion(3, -2, 0),
		event.KeyUp(event.SCAN_LCTRL, 0),
	}
	h.bridge.StartTic()
	want := []event.Event{
		{Type: event.EV_KEYDOWN, Data1: event.KEY_RCTRL},
		{Type: event.EV_MOUSE, Data1: 0, Data2: 12, Data3: 8},
		{Type: event.EV_KEYUP, Data1: event.KEY_RCTRL},
	}
	if diff := cmp.Diff(want, h.posted.Take()); diff != "" {
		t.Fatalf("posted events mismatch (-want +got):\n%s", diff)
	}

	// An empty cycle posts nothing and leaves the cursors equal.
	h.bridge.StartTic()
	assert.Empty(t, h.posted.Take())
	assert.Equal(t, h.bridge.Queue().Head(), h.bridge.Queue().Tail())
	assert.Empty(t, h.exits)
}

func TestBridge_OverflowCarriesToNextTic(t *testing.T) {
	h := newHarness(t, 4)
	require.NoError(t, h.bridge.Init())

	for i := range 7 {
		h.input.next = append(h.input.next, event.KeyDown(0, uint32('a'+i)))
	}
	h.bridge.StartTic()
	assert.Len(t, h.posted.Take(), 4)
	h.bridge.StartTic()
	rest := h.posted.Take()
	require.Len(t, rest, 3)
	assert.Equal(t, int32('e'), rest[0].Data1)
}

func TestBridge_FramesReachDisplay(t *testing.T) {
	h := newHarness(t, 64)
	require.NoError(t, h.bridge.Init())

	pal := make([]byte, 768)
	pal[3], pal[4], pal[5] = 0xFF, 0x80, 0x00
	h.bridge.Video().SetPalette(pal)

	screen := h.bridge.Video().Screen()
	screen[0] = 1
	h.bridge.Video().WriteFramebuffer(screen)

	frame := h.display.LastFrame()
	assert.Equal(t, []byte{0xFF, 0x80, 0x00, 0xFF}, frame[:4])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0xFF}, frame[4:8])
}

func TestBridge_OverRendezvous(t *testing.T) {
	h := newHarness(t, 64)
	r := trap.NewRendezvous()
	h.bridge = New(Options{
		Config:  h.bridge.cfg,
		Invoker: r,
		Memory:  h.bridge.mem,
		Poster:  h.posted,
		Log:     zerolog.Nop(),
		Stderr:  h.stderr,
		Exit:    func(code int) { h.exits = append(h.exits, code) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- h.service.Serve(ctx, r) }()

	require.NoError(t, h.bridge.Init())
	h.input.next = []event.RawRecord{event.KeyDown(event.SCAN_ESCAPE, 0x1B)}
	h.bridge.StartTic()
	assert.Equal(t, []event.Event{{Type: event.EV_KEYDOWN, Data1: event.KEY_ESCAPE}}, h.posted.Take())

	h.bridge.Quit()
	assert.Equal(t, []int{EXIT_OK}, h.exits)
	assert.False(t, h.display.IsOpen())

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("host service did not stop")
	}
}

func TestBridge_QuitRunsHooksAndExitsZero(t *testing.T) {
	h := newHarness(t, 64)
	require.NoError(t, h.bridge.Init())
	h.bridge.Quit()
	assert.Equal(t, []string{"quit net", "save defaults"}, h.calls)
	assert.Equal(t, []int{EXIT_OK}, h.exits)
	assert.False(t, h.display.IsOpen())
	assert.Empty(t, h.stderr.String())
}

func TestBridge_FatalCleansUpAndExits255(t *testing.T) {
	h := newHarness(t, 64)
	require.NoError(t, h.bridge.Init())
	h.bridge.Fatal("W_GetNumForName: %s not found", "E1M1")

	assert.Equal(t, "Error: W_GetNumForName: E1M1 not found\n", h.stderr.String())
	assert.Equal(t, []string{"demo?", "stop demo", "quit net"}, h.calls)
	assert.Equal(t, []int{EXIT_FATAL}, h.exits)
	assert.False(t, h.display.IsOpen())
}

func TestBridge_FatalBeforeInit(t *testing.T) {
	h := newHarness(t, 64)
	h.bridge.Fatal("early")
	assert.Equal(t, []int{EXIT_FATAL}, h.exits)
	assert.Contains(t, h.stderr.String(), "Error: early")
}

func TestBridge_ReentrantFatalExitsImmediately(t *testing.T) {
	h := newHarness(t, 64)
	require.NoError(t, h.bridge.Init())
	h.bridge.hooks.QuitNetGame = func() {
		h.calls = append(h.calls, "quit net")
		h.bridge.Fatal("net teardown failed")
	}
	h.bridge.Fatal("first")

	assert.Equal(t, "Error: first\nError: net teardown failed\n", h.stderr.String())
	assert.Equal(t, []int{EXIT_FATAL, EXIT_FATAL}, h.exits)
	assert.Equal(t, []string{"demo?", "stop demo", "quit net"}, h.calls)
}

func TestBridge_PanickingHookDoesNotStopCleanup(t *testing.T) {
	h := newHarness(t, 64)
	require.NoError(t, h.bridge.Init())
	h.bridge.hooks.StopDemo = func() { panic("demo file gone") }
	h.bridge.Fatal("boom")
	assert.Equal(t, []int{EXIT_FATAL}, h.exits)
	assert.False(t, h.display.IsOpen())
}

func TestBridge_RecoverTurnsPanicIntoFatal(t *testing.T) {
	h := newHarness(t, 64)
	require.NoError(t, h.bridge.Init())
	func() {
		defer h.bridge.Recover()
		h.bridge.Video().WriteFramebuffer(make([]byte, 3))
	}()
	assert.Equal(t, []int{EXIT_FATAL}, h.exits)
	assert.Contains(t, h.stderr.String(), "Error: ")
}

func TestBridge_StartTicBeforeInitIsFatal(t *testing.T) {
	h := newHarness(t, 64)
	h.bridge.StartTic()
	assert.Equal(t, []int{EXIT_FATAL}, h.exits)
}

func TestBridge_GetTimeFollowsClock(t *testing.T) {
	var ms uint64
	b := New(Options{
		Invoker: trap.Direct{Handler: trap.HandlerFunc(func(*trap.Request) {})},
		Clock:   tick.NewClock(tick.SourceFunc(func() uint64 { return ms })),
		Log:     zerolog.Nop(),
	})
	assert.Equal(t, uint32(0), b.GetTime())
	ms = 1000
	assert.Equal(t, uint32(35), b.GetTime())
}

func TestBridge_ExitedKeepsFirstCode(t *testing.T) {
	h := newHarness(t, 64)
	_, ok := h.bridge.Exited()
	assert.False(t, ok)

	h.bridge.hooks.QuitNetGame = func() { h.bridge.Fatal("again") }
	h.bridge.Fatal("first")
	code, ok := h.bridge.Exited()
	assert.True(t, ok)
	assert.Equal(t, EXIT_FATAL, code)
}
