//go:build !headless

// display_window.go - Ebiten window display and keyboard/mouse input

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
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/rs/zerolog"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/intuitionamiga/doombridge/internal/event"
)

// Mouse button bits as the engine expects them in the held mask.
const (
	MOUSE_LEFT   = 1
	MOUSE_RIGHT  = 2
	MOUSE_MIDDLE = 4
)

// WindowDisplay shows frames in an ebiten window and doubles as the keyboard and
// mouse input source. ebiten runs its own goroutine; frames and input cross to
// the service goroutine under bufferMutex.
type WindowDisplay struct {
	cfg DisplayConfig
	log zerolog.Logger

	running     atomic.Bool
	window      *ebiten.Image
	width       int
	height      int
	fullscreen  bool
	frameBuffer []byte
	bufferMutex sync.RWMutex
	frameCount  uint64
	vsyncChan   chan struct{}
	done        chan struct{}
	closeOnce   sync.Once

	pending   []event.RawRecord
	cursorX   int
	cursorY   int
	cursorSet bool

	clipboardOnce sync.Once
	clipboardOK   bool
}

func newWindowDisplay(cfg DisplayConfig, log zerolog.Logger) (Display, error) {
	cfg.Scale = ClampScale(cfg.Scale)
	return &WindowDisplay{
		cfg:       cfg,
		log:       log,
		vsyncChan: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

func (w *WindowDisplay) Open(title string, width, height int) error {
	if w.running.Load() {
		return &Error{Operation: "window open", Details: "already running"}
	}
	w.bufferMutex.Lock()
	w.width, w.height = width, height
	w.frameBuffer = make([]byte, width*height*4)
	w.bufferMutex.Unlock()
	w.running.Store(true)

	ebiten.SetWindowSize(width*w.cfg.Scale, height*w.cfg.Scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	ebiten.SetCursorMode(ebiten.CursorModeCaptured)

	go func() {
		defer close(w.done)
		defer w.running.Store(false)
		if err := ebiten.RunGame(w); err != nil {
			w.log.Error().Err(err).Msg("ebiten stopped")
		}
	}()

	// Wait for the first Draw so the window exists before the guest continues.
	select {
	case <-w.vsyncChan:
	case <-w.done:
		return &Error{Operation: "window open", Details: "ebiten exited before first frame"}
	}
	return nil
}

func (w *WindowDisplay) Present(rgba []byte) error {
	if !w.running.Load() {
		return &Error{Operation: "present", Details: "window closed"}
	}
	w.bufferMutex.Lock()
	copy(w.frameBuffer, rgba)
	w.bufferMutex.Unlock()
	return nil
}

func (w *WindowDisplay) Close() error {
	w.closeOnce.Do(func() {
		w.running.Store(false)
	})
	return nil
}

func (w *WindowDisplay) Done() <-chan struct{} {
	return w.done
}

// Poll hands over every record gathered by Update since the previous call.
func (w *WindowDisplay) Poll(dst []event.RawRecord) []event.RawRecord {
	w.bufferMutex.Lock()
	dst = append(dst, w.pending...)
	w.pending = w.pending[:0]
	w.bufferMutex.Unlock()
	return dst
}

func (w *WindowDisplay) Update() error {
	if ebiten.IsWindowBeingClosed() {
		if w.cfg.OnClose != nil {
			w.cfg.OnClose()
		}
		return ebiten.Termination
	}
	if !w.running.Load() {
		return ebiten.Termination
	}

	alt := ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight)
	if alt && inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		w.fullscreen = !w.fullscreen
		ebiten.SetFullscreen(w.fullscreen)
		return nil
	}

	var recs []event.RawRecord
	recs = w.keyboardRecords(recs)
	recs = w.mouseRecords(recs)
	if len(recs) > 0 {
		w.bufferMutex.Lock()
		w.pending = append(w.pending, recs...)
		w.bufferMutex.Unlock()
	}
	return nil
}

func (w *WindowDisplay) keyboardRecords(recs []event.RawRecord) []event.RawRecord {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		return w.handleClipboardPaste(recs)
	}

	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if code, ok := translateEbitenKey(k); ok {
			recs = append(recs, event.KeyDown(code.scan, code.sym))
		}
	}
	for _, k := range inpututil.AppendJustReleasedKeys(nil) {
		if code, ok := translateEbitenKey(k); ok {
			recs = append(recs, event.KeyUp(code.scan, code.sym))
		}
	}
	return recs
}

func heldButtons() uint32 {
	var held uint32
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		held |= MOUSE_LEFT
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		held |= MOUSE_RIGHT
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) {
		held |= MOUSE_MIDDLE
	}
	return held
}

var mouseButtons = []struct {
	button ebiten.MouseButton
	bit    uint32
}{
	{ebiten.MouseButtonLeft, MOUSE_LEFT},
	{ebiten.MouseButtonRight, MOUSE_RIGHT},
	{ebiten.MouseButtonMiddle, MOUSE_MIDDLE},
}

func (w *WindowDisplay) mouseRecords(recs []event.RawRecord) []event.RawRecord {
	held := heldButtons()
	for _, mb := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(mb.button) {
			recs = append(recs, event.MouseDown(mb.bit, held))
		}
		if inpututil.IsMouseButtonJustReleased(mb.button) {
			recs = append(recs, event.MouseUp(mb.bit, held))
		}
	}

	x, y := ebiten.CursorPosition()
	if w.cursorSet && (x != w.cursorX || y != w.cursorY) {
		recs = append(recs, event.MouseMotion(int32(x-w.cursorX), int32(y-w.cursorY), held))
	}
	w.cursorX, w.cursorY, w.cursorSet = x, y, true
	return recs
}

func (w *WindowDisplay) handleClipboardPaste(recs []event.RawRecord) []event.RawRecord {
	w.clipboardOnce.Do(func() {
		w.clipboardOK = clipboard.Init() == nil
	})
	if !w.clipboardOK {
		return recs
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return recs
	}
	return pasteRecords(recs, data)
}

func (w *WindowDisplay) Draw(screen *ebiten.Image) {
	w.bufferMutex.RLock()
	if w.window == nil {
		w.window = ebiten.NewImage(w.width, w.height)
	}
	w.window.WritePixels(w.frameBuffer)
	w.bufferMutex.RUnlock()
	screen.DrawImage(w.window, nil)
	if w.cfg.ShowFPS {
		text.Draw(screen, fmt.Sprintf("%0.1f FPS", ebiten.ActualFPS()), basicfont.Face7x13,
			4, 14, color.RGBA{255, 255, 0, 255})
	}

	w.frameCount++
	select {
	case w.vsyncChan <- struct{}{}:
	default:
	}
}

func (w *WindowDisplay) Layout(_, _ int) (int, int) {
	w.bufferMutex.RLock()
	defer w.bufferMutex.RUnlock()
	return w.width, w.height
}
