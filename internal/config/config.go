// Package config loads board descriptions: tick source, handler mode and the
// tasks to create before the scheduler starts.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Program kinds a task can run.
const (
	ProgramSpin     = "spin"
	ProgramYield    = "yield"
	ProgramDelay    = "delay"
	ProgramCritical = "critical"
)

// IdleTaskName is reserved for the task created by the board itself.
const IdleTaskName = "idle"

const (
	defaultStackWords  = 128
	defaultTimerPeriod = 4
)

const defaultBoardYAML = `# c28rtos board configuration
version: 1

# Tick source. tick_hz > 0 uses the wall clock; 0 pends the tick line every
# timer_period simulated CPU steps.
tick_hz: 0
timer_period: 4

# Stop the simulation after this many CPU steps (0 = run until interrupted).
steps: 48

stack_words: 128

tasks:
  - name: blink
    program: spin
    param: 0x1234
  - name: poll
    program: yield
    param: 0x00BEEF
  - name: sleeper
    program: delay
    delay: 3
`

// TaskSpec declares one task.
type TaskSpec struct {
	Name       string `yaml:"name"`
	Program    string `yaml:"program"`
	Param      uint32 `yaml:"param,omitempty"`
	Delay      uint64 `yaml:"delay,omitempty"`
	StackWords int    `yaml:"stack_words,omitempty"`
}

// Board models a board configuration file.
type Board struct {
	Version int `yaml:"version"`

	// Preemption overrides the build default handler mode when set.
	Preemption *bool `yaml:"preemption,omitempty"`

	TickHz      int    `yaml:"tick_hz"`
	TimerPeriod uint64 `yaml:"timer_period,omitempty"`
	Steps       uint64 `yaml:"steps,omitempty"`
	RAMWords    int    `yaml:"ram_words,omitempty"`
	StackWords  int    `yaml:"stack_words,omitempty"`

	Tasks []TaskSpec `yaml:"tasks"`
}

// Default returns the built-in board.
func Default() Board {
	b, err := Parse([]byte(defaultBoardYAML))
	if err != nil {
		panic(fmt.Sprintf("config: default board: %v", err))
	}
	return b
}

// DefaultYAML returns the built-in board as YAML.
func DefaultYAML() string { return defaultBoardYAML }

// Load reads and validates a board file.
func Load(path string) (Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Board{}, fmt.Errorf("read board %q: %w", path, err)
	}
	b, err := Parse(data)
	if err != nil {
		return Board{}, fmt.Errorf("board %q: %w", path, err)
	}
	return b, nil
}

// Parse decodes a board, fills defaults and validates it.
func Parse(data []byte) (Board, error) {
	var b Board
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return Board{}, fmt.Errorf("decode: %w", err)
	}
	b.applyDefaults()
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

func (b *Board) applyDefaults() {
	if b.Version == 0 {
		b.Version = 1
	}
	if b.TickHz == 0 && b.TimerPeriod == 0 {
		b.TimerPeriod = defaultTimerPeriod
	}
	if b.StackWords == 0 {
		b.StackWords = defaultStackWords
	}
	for i := range b.Tasks {
		if b.Tasks[i].StackWords == 0 {
			b.Tasks[i].StackWords = b.StackWords
		}
	}
}

// Validate checks the board for values the port cannot run with.
func (b Board) Validate() error {
	var errs []error
	if b.Version != 1 {
		errs = append(errs, fmt.Errorf("unsupported version %d", b.Version))
	}
	if b.TickHz < 0 {
		errs = append(errs, fmt.Errorf("tick_hz %d is negative", b.TickHz))
	}
	if len(b.Tasks) == 0 {
		errs = append(errs, errors.New("no tasks"))
	}
	seen := make(map[string]bool, len(b.Tasks))
	for i, t := range b.Tasks {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("task %d: missing name", i))
		} else if t.Name == IdleTaskName {
			errs = append(errs, fmt.Errorf("task %d: name %q is reserved", i, t.Name))
		} else if seen[t.Name] {
			errs = append(errs, fmt.Errorf("task %q: duplicate name", t.Name))
		}
		seen[t.Name] = true
		switch t.Program {
		case ProgramSpin, ProgramYield, ProgramCritical:
		case ProgramDelay:
			if t.Delay == 0 {
				errs = append(errs, fmt.Errorf("task %q: delay program needs delay > 0", t.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("task %q: unknown program %q", t.Name, t.Program))
		}
		if t.StackWords < 0 {
			errs = append(errs, fmt.Errorf("task %q: stack_words %d is negative", t.Name, t.StackWords))
		}
	}
	return errors.Join(errs...)
}

// PreemptionOr returns the configured handler mode, or def when unset.
func (b Board) PreemptionOr(def bool) bool {
	if b.Preemption == nil {
		return def
	}
	return *b.Preemption
}
