package host

import (
	"fmt"

	"github.com/rs/zerolog"
)

const (
	DISPLAY_WINDOW   = "window"
	DISPLAY_HEADLESS = "headless"
)

// Display is the host surface the service presents frames on. Present always
// receives width*height*4 bytes of RGBA.
type Display interface {
	Open(title string, width, height int) error
	Present(rgba []byte) error
	Close() error
}

// DisplayConfig holds backend-independent presentation options.
type DisplayConfig struct {
	Scale   int
	ShowFPS bool
	// OnClose runs when the user closes the window.
	OnClose func()
}

// ClampScale keeps the window scale factor within 1..8.
func ClampScale(scale int) int {
	return min(max(scale, 1), 8)
}

// NewDisplay creates a display backend by name.
func NewDisplay(kind string, cfg DisplayConfig, log zerolog.Logger) (Display, error) {
	switch kind {
	case DISPLAY_WINDOW:
		return newWindowDisplay(cfg, log)
	case DISPLAY_HEADLESS:
		return NewHeadlessDisplay(), nil
	}
	return nil, &Error{
		Operation: "display creation",
		Details:   fmt.Sprintf("unknown display backend: %q", kind),
	}
}
