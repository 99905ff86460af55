package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExitError carries the guest's exit code out of a run. The message has
// already been printed by the bridge.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("guest exited with status %d", e.Code)
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	NoBanner   bool
}

// NewRootCommand creates the doomhost command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "doomhost",
		Short: "Host service for the RISC-V DOOM guest",
		Long: `doomhost runs the host side of the guest trap protocol: it owns the
display, gathers keyboard and mouse input and answers INIT, palette,
framebuffer, event and shutdown traps from the guest.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !opts.NoBanner {
				boilerPlate(cmd.ErrOrStderr())
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "auto", "log format (auto|console|json)")
	cmd.PersistentFlags().BoolVar(&opts.NoBanner, "no-banner", false, "skip the startup banner")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}
