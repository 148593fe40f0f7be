// Package cli is the host command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"c28rtos/hal"
	"c28rtos/internal/buildinfo"
	"c28rtos/kernel"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Color   bool
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "c28rtos",
		Short:   "Tick-driven context-switch port on a simulated C28x CPU",
		Version: buildinfo.Short(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&opts.Color, "color", true, "style tables for a terminal")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewFrameCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewVersionCommand prints build identifiers.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			regs := "c28"
			if hal.ExtendedRegisterSet {
				regs = "fpu32"
			}
			mode := "preemptive"
			if !kernel.PreemptionEnabled {
				mode = "cooperative"
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Line(regs+" "+mode))
			return err
		},
	}
}
