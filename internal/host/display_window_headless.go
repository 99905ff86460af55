//go:build headless

package host

import (
	"github.com/rs/zerolog"
)

func newWindowDisplay(DisplayConfig, zerolog.Logger) (Display, error) {
	return nil, &Error{
		Operation: "display creation",
		Details:   "window backend not available in headless builds",
	}
}
