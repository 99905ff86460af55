package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/intuitionamiga/doombridge/internal/bridge"
	"github.com/intuitionamiga/doombridge/internal/config"
	"github.com/intuitionamiga/doombridge/internal/engine"
	"github.com/intuitionamiga/doombridge/internal/event"
	"github.com/intuitionamiga/doombridge/internal/guestmem"
	"github.com/intuitionamiga/doombridge/internal/host"
	"github.com/intuitionamiga/doombridge/internal/logging"
	"github.com/intuitionamiga/doombridge/internal/trap"
)

// RunOptions holds flags for the run command. Only flags set on the command
// line override the config file.
type RunOptions struct {
	*RootOptions
	Display string
	Input   string
	Script  string
	Frames  int
	Scale   int
	Gamma   int
	ShowFPS bool
}

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the host service and the demo guest",
		Long: `Start the host service and drive it with the built-in demo guest.

Examples:
  doomhost run
  doomhost run --display headless --input script --script demo.lua --frames 350
  doomhost run --config doomhost.yaml --input terminal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runHost(cmd, cfg, opts.LogFormat)
		},
	}

	cmd.Flags().StringVar(&opts.Display, "display", host.DISPLAY_WINDOW, "display backend (window|headless)")
	cmd.Flags().StringVar(&opts.Input, "input", config.INPUT_EBITEN, "input source (ebiten|terminal|script|none)")
	cmd.Flags().StringVar(&opts.Script, "script", "", "Lua input script for --input script")
	cmd.Flags().IntVar(&opts.Frames, "frames", 0, "quit after this many frames (0 = run until quit)")
	cmd.Flags().IntVar(&opts.Scale, "scale", 2, "window scale factor (1-8)")
	cmd.Flags().IntVar(&opts.Gamma, "gamma", 1, "gamma correction level (0-4)")
	cmd.Flags().BoolVar(&opts.ShowFPS, "fps", false, "draw the FPS overlay")

	return cmd
}

// NewCheckCommand validates a configuration without opening anything.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print the effective values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &RunOptions{RootOptions: rootOpts})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d, %d events, gamma %d, display %s, input %s\n",
				cfg.Title, cfg.Width, cfg.Height, cfg.MaxEvents, cfg.Gamma, cfg.Display.Backend, cfg.Input.Source)
			return nil
		},
	}
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, opts *RunOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.LogLevel
	}
	if flags.Changed("display") {
		cfg.Display.Backend = opts.Display
	}
	if flags.Changed("input") {
		cfg.Input.Source = opts.Input
	}
	if flags.Changed("script") {
		cfg.Input.Script = opts.Script
	}
	if flags.Changed("frames") {
		cfg.Frames = opts.Frames
	}
	if flags.Changed("scale") {
		cfg.Display.Scale = opts.Scale
	}
	if flags.Changed("gamma") {
		cfg.Gamma = opts.Gamma
	}
	if flags.Changed("fps") {
		cfg.Display.ShowFPS = opts.ShowFPS
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runHost wires the host service and the demo guest over a trap rendezvous and
// runs both until the guest exits.
func runHost(cmd *cobra.Command, cfg *config.Config, logFormat string) error {
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, logFormat)
	if err != nil {
		return err
	}
	log = log.With().Str("run", uuid.NewString()).Logger()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	sigCtx, stopSignals := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	guestCtx, stopGuest := context.WithCancel(sigCtx)
	defer stopGuest()
	// The host outlives the guest's own shutdown traps, so it only stops once
	// the guest has exited.
	hostCtx, stopHost := context.WithCancel(context.Background())
	defer stopHost()

	display, err := host.NewDisplay(cfg.Display.Backend, host.DisplayConfig{
		Scale:   cfg.Display.Scale,
		ShowFPS: cfg.Display.ShowFPS,
		OnClose: stopGuest,
	}, log.With().Str("component", "display").Logger())
	if err != nil {
		return err
	}

	mem := guestmem.New(cfg.GuestMemory)
	svc := host.NewService(mem, display, log.With().Str("component", "host").Logger())
	svc.SetBacklogLimit(cfg.Input.Backlog)
	stop, err := attachInput(svc, display, cfg, stopGuest, log)
	if err != nil {
		return err
	}

	r := trap.NewRendezvous()
	events := &event.Buffer{}
	exitCode := bridge.EXIT_OK
	b := bridge.New(bridge.Options{
		Config: bridge.Config{
			Title:     cfg.Title,
			Width:     cfg.Width,
			Height:    cfg.Height,
			MaxEvents: cfg.MaxEvents,
			Gamma:     cfg.Gamma,
		},
		Invoker: r,
		Memory:  mem,
		Poster:  events,
		Log:     log.With().Str("component", "bridge").Logger(),
		Stderr:  cmd.ErrOrStderr(),
		Exit: func(code int) {
			exitCode = code
			stopHost()
		},
	})
	demo := engine.NewDemo(b, events, engine.Options{
		Frames: cfg.Frames,
		Stop:   stop,
		Log:    log.With().Str("component", "guest").Logger(),
	})

	var g errgroup.Group
	g.Go(func() error {
		return svc.Serve(hostCtx, r)
	})
	g.Go(func() error {
		defer stopHost()
		demo.Run(guestCtx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	frames, pulls, dropped := svc.Stats()
	log.Info().Uint64("frames", frames).Uint64("pulls", pulls).Uint64("dropped", dropped).
		Int("exit", exitCode).Msg("run complete")
	if exitCode != bridge.EXIT_OK {
		return &ExitError{Code: exitCode}
	}
	return nil
}

// attachInput connects the configured input source to svc. The returned
// function, when non-nil, reports that the source has nothing more to give.
func attachInput(svc *host.Service, display host.Display, cfg *config.Config, interrupt func(), log zerolog.Logger) (func() bool, error) {
	switch cfg.Input.Source {
	case config.INPUT_EBITEN:
		src, ok := display.(host.InputSource)
		if !ok {
			return nil, fmt.Errorf("display backend %q does not provide input", cfg.Display.Backend)
		}
		svc.AddInput(src)
	case config.INPUT_TERMINAL:
		src := host.NewTerminalSource(os.Stdin, log.With().Str("component", "terminal").Logger())
		src.OnInterrupt = interrupt
		if err := src.Start(); err != nil {
			return nil, err
		}
		svc.AddInput(src)
	case config.INPUT_SCRIPT:
		src, err := host.LoadScriptFile(cfg.Input.Script)
		if err != nil {
			return nil, err
		}
		svc.AddInput(src)
		return src.Done, nil
	}
	return nil, nil
}
