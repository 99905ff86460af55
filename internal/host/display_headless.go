package host

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// HeadlessDisplay accepts frames without showing them. It keeps the last frame
// so tests and scripted runs can inspect output.
type HeadlessDisplay struct {
	mu         sync.Mutex
	title      string
	width      int
	height     int
	open       bool
	last       []byte
	frameCount atomic.Uint64
}

func NewHeadlessDisplay() *HeadlessDisplay {
	return &HeadlessDisplay{}
}

func (h *HeadlessDisplay) Open(title string, width, height int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.title, h.width, h.height = title, width, height
	h.last = make([]byte, width*height*4)
	h.open = true
	return nil
}

func (h *HeadlessDisplay) Present(rgba []byte) error {
	h.mu.Lock()
	copy(h.last, rgba)
	h.mu.Unlock()
	h.frameCount.Add(1)
	return nil
}

func (h *HeadlessDisplay) Close() error {
	h.mu.Lock()
	h.open = false
	h.mu.Unlock()
	return nil
}

func (h *HeadlessDisplay) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open
}

func (h *HeadlessDisplay) Title() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.title
}

func (h *HeadlessDisplay) FrameCount() uint64 {
	return h.frameCount.Load()
}

// LastFrame returns a copy of the most recent RGBA frame.
func (h *HeadlessDisplay) LastFrame() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return bytes.Clone(h.last)
}
