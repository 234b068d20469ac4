// Package executil runs external commands behind an interface so callers
// can be tested without spawning processes.
package executil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

const maxStderrLen = 500

// Executor runs external commands.
type Executor interface {
	// Run executes cmd and returns its stdout.
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
}

// RealExecutor runs commands with os/exec.
type RealExecutor struct{}

// Run executes cmd. On failure stderr, capped at 500 bytes, becomes the error message.
func (RealExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	var stderr bytes.Buffer
	c.Stderr = &stderr

	out, err := c.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderrLen {
			msg = msg[:maxStderrLen]
		}
		if msg != "" {
			return out, fmt.Errorf("exec %s: %s: %w", cmd, msg, err)
		}
		return out, fmt.Errorf("exec %s: %w", cmd, err)
	}
	return out, nil
}

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Cmd  string
	Args []string
}

// RecordingExecutor captures commands for testing.
// Outputs and Errors are keyed by command name.
type RecordingExecutor struct {
	Outputs  map[string][]byte
	Errors   map[string]error
	Commands []RecordedCommand
	mu       sync.Mutex
}

// Run records the command and returns the configured output and error.
func (e *RecordingExecutor) Run(_ context.Context, cmd string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{Cmd: cmd, Args: args})
	return e.Outputs[cmd], e.Errors[cmd]
}

// Recorded returns a copy of the recorded commands.
func (e *RecordingExecutor) Recorded() []RecordedCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]RecordedCommand{}, e.Commands...)
}
