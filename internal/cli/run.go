package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"c28rtos/app"
	"c28rtos/hal"
	"c28rtos/internal/config"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Board     string
	Steps     uint64
	Hz        int
	Ticks     uint64
	NoPreempt bool
	ShowTrace bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot a board and run the scheduler",
		Long: `Create the board's tasks, start the scheduler and print every
tick handler entry.

Example:
  c28rtos run
  c28rtos run --board board.yaml --steps 200
  c28rtos run --hz 1000 --ticks 50`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Board, "board", "", "board YAML (built-in board when empty)")
	cmd.Flags().Uint64Var(&opts.Steps, "steps", 0, "override the CPU step limit")
	cmd.Flags().IntVar(&opts.Hz, "hz", 0, "wall-clock tick rate (overrides tick_hz)")
	cmd.Flags().Uint64Var(&opts.Ticks, "ticks", 0, "stop after N wall-clock ticks")
	cmd.Flags().BoolVar(&opts.NoPreempt, "cooperative", false, "install the cooperative tick handler")
	cmd.Flags().BoolVar(&opts.ShowTrace, "trace", true, "print the handler trace")

	return cmd
}

func runBoard(cmd *cobra.Command, opts *RunOptions) error {
	board := config.Default()
	if opts.Board != "" {
		b, err := config.Load(opts.Board)
		if err != nil {
			return err
		}
		board = b
	}
	if opts.Steps > 0 {
		board.Steps = opts.Steps
	}
	if opts.Hz > 0 {
		board.TickHz = opts.Hz
	}
	if opts.NoPreempt {
		off := false
		board.Preemption = &off
	}
	if board.TickHz == 0 && board.Steps == 0 {
		return fmt.Errorf("step-counted timer needs a step limit (--steps)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runID := uuid.NewString()
	slog.Info("booting board", "run", runID, "tasks", len(board.Tasks), "tick_hz", board.TickHz,
		"timer_period", board.TimerPeriod, "steps", board.Steps)

	var sys *app.System
	cfg := hal.HeadlessConfig{
		Hz:          board.TickHz,
		Ticks:       opts.Ticks,
		TimerPeriod: board.TimerPeriod,
		Sim:         hal.SimConfig{RAMWords: board.RAMWords, StepLimit: board.Steps},
	}
	err := hal.RunHeadless(ctx, func(h hal.HAL) (func(context.Context) error, error) {
		s, err := app.New(slogHAL{HAL: h}, board)
		if err != nil {
			return nil, err
		}
		sys = s
		return s.Run, nil
	}, cfg)
	slog.Debug("board stopped", "run", runID, "err", err)
	if sys == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.ShowTrace {
		fmt.Fprintln(out, renderTrace(sys.Trace(), opts.Color))
	}
	fmt.Fprintln(out, renderSummary(sys, opts.Color))
	return err
}

// slogHAL routes the board logger through slog.
type slogHAL struct {
	hal.HAL
}

func (h slogHAL) Logger() hal.Logger { return slogLogger{} }

type slogLogger struct{}

func (slogLogger) WriteLineString(s string) { slog.Info(s) }
func (slogLogger) WriteLineBytes(b []byte)  { slog.Info(string(b)) }
