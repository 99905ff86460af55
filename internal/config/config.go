package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/intuitionamiga/doombridge/internal/event"
	"github.com/intuitionamiga/doombridge/internal/guestmem"
	"github.com/intuitionamiga/doombridge/internal/host"
	"github.com/intuitionamiga/doombridge/internal/video"
)

const (
	INPUT_EBITEN   = "ebiten"
	INPUT_TERMINAL = "terminal"
	INPUT_SCRIPT   = "script"
	INPUT_NONE     = "none"
)

// Config is the runner configuration. Zero fields in a YAML file keep their
// defaults.
type Config struct {
	Title       string        `yaml:"title"`
	Width       uint32        `yaml:"width"`
	Height      uint32        `yaml:"height"`
	MaxEvents   uint32        `yaml:"max_events"`
	Gamma       int           `yaml:"gamma"`
	GuestMemory uint32        `yaml:"guest_memory"`
	Display     DisplayConfig `yaml:"display"`
	Input       InputConfig   `yaml:"input"`
	LogLevel    string        `yaml:"log_level"`
	// Frames stops the demo guest after this many frames; 0 runs until quit.
	Frames      int           `yaml:"frames"`
}

type DisplayConfig struct {
	Backend string `yaml:"backend"` // "window" | "headless"
	Scale   int    `yaml:"scale"`
	ShowFPS bool   `yaml:"show_fps"`
}

type InputConfig struct {
	Source  string `yaml:"source"` // "ebiten" | "terminal" | "script" | "none"
	Script  string `yaml:"script,omitempty"`
	Backlog int    `yaml:"backlog"`
}

func Default() *Config {
	return &Config{
		Title:       "DOOM",
		Width:       320,
		Height:      200,
		MaxEvents:   event.MAX_EVENTS,
		Gamma:       video.DEFAULT_GAMMA,
		GuestMemory: guestmem.DEFAULT_MEMORY_SIZE,
		Display: DisplayConfig{
			Backend: host.DISPLAY_WINDOW,
			Scale:   2,
		},
		Input: InputConfig{
			Source:  INPUT_EBITEN,
			Backlog: host.DEFAULT_BACKLOG,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

var (
	ErrCapacity = errors.New("max_events must be a power of two")
	ErrGamma    = errors.New("gamma out of range")
)

// Validate checks the fields the bridge and host service would otherwise
// reject at INIT time.
func (c *Config) Validate() error {
	var errs []error
	if c.Width == 0 || c.Height == 0 {
		errs = append(errs, fmt.Errorf("bad geometry %dx%d", c.Width, c.Height))
	}
	if c.MaxEvents == 0 || c.MaxEvents&(c.MaxEvents-1) != 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrCapacity, c.MaxEvents))
	}
	if c.Gamma < 0 || c.Gamma >= video.GAMMA_LEVELS {
		errs = append(errs, fmt.Errorf("%w: %d (0..%d)", ErrGamma, c.Gamma, video.GAMMA_LEVELS-1))
	}
	need := uint64(c.Width)*uint64(c.Height) + uint64(c.MaxEvents)*event.RECORD_SIZE + 4096
	if uint64(c.GuestMemory) < need {
		errs = append(errs, fmt.Errorf("guest_memory %d too small, need at least %d", c.GuestMemory, need))
	}
	switch c.Display.Backend {
	case host.DISPLAY_WINDOW, host.DISPLAY_HEADLESS:
	default:
		errs = append(errs, fmt.Errorf("unknown display backend %q", c.Display.Backend))
	}
	if c.Display.Scale != host.ClampScale(c.Display.Scale) {
		errs = append(errs, fmt.Errorf("display scale %d outside 1..8", c.Display.Scale))
	}
	switch c.Input.Source {
	case INPUT_EBITEN:
		if c.Display.Backend != host.DISPLAY_WINDOW {
			errs = append(errs, errors.New("ebiten input needs the window display"))
		}
	case INPUT_SCRIPT:
		if c.Input.Script == "" {
			errs = append(errs, errors.New("script input needs input.script"))
		}
	case INPUT_TERMINAL, INPUT_NONE:
	default:
		errs = append(errs, fmt.Errorf("unknown input source %q", c.Input.Source))
	}
	if c.Input.Backlog < 1 {
		errs = append(errs, fmt.Errorf("input backlog %d must be positive", c.Input.Backlog))
	}
	if c.Frames < 0 {
		errs = append(errs, fmt.Errorf("frames %d must not be negative", c.Frames))
	}
	return errors.Join(errs...)
}
