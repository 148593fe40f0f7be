package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"c28rtos/hal"
	"c28rtos/internal/config"
	"c28rtos/kernel"
)

// NewFrameCommand prints the initial register image of a task.
func NewFrameCommand(rootOpts *RootOptions) *cobra.Command {
	var entry, param string

	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Print the initial register image for an entry point and parameter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := strconv.ParseUint(entry, 0, 32)
			if err != nil {
				return fmt.Errorf("entry %q: %w", entry, err)
			}
			p, err := strconv.ParseUint(param, 0, 32)
			if err != nil {
				return fmt.Errorf("param %q: %w", param, err)
			}
			img := kernel.InitialImage(hal.Addr(e), uint32(p))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderFrame(&img, rootOpts.Color))
			return err
		},
	}

	cmd.Flags().StringVar(&entry, "entry", "0x3F8000", "task entry address")
	cmd.Flags().StringVar(&param, "param", "0", "task parameter")
	return cmd
}

// NewConfigCommand prints the built-in board.
func NewConfigCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the built-in board configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), config.DefaultYAML())
			return err
		},
	}
}
