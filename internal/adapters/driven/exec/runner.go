// Package exec runs external programs for the transfer and merge tools.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"strings"

	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// tailSize bounds how much captured output is quoted in an error.
const tailSize = 2048

// Ensure Runner implements the interface.
var _ driven.CommandRunner = (*Runner)(nil)

// Runner executes commands with os/exec.
type Runner struct{}

// NewRunner creates a command runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes cmd and waits for it. Output goes to cmd.LogFile when set
// and is otherwise streamed to the log at debug level. A non-zero exit
// returns an error quoting the end of the output.
func (r *Runner) Run(ctx context.Context, cmd driven.Command) error {
	if cmd.Description != "" {
		logger.Info("%s", cmd.Description)
	}
	logger.Debug("Running %s %s", cmd.Name, strings.Join(cmd.Args, " "))

	c := osexec.CommandContext(ctx, cmd.Name, cmd.Args...) // #nosec G204 -- binaries come from operator settings
	c.Dir = cmd.Dir

	tail := &tailBuffer{limit: tailSize}
	var sink io.Writer = tail
	if cmd.LogFile != "" {
		f, err := os.OpenFile(cmd.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file for %s: %w", cmd.Name, err)
		}
		defer f.Close()
		sink = io.MultiWriter(f, tail)
	} else if logger.IsVerbose() {
		sink = io.MultiWriter(debugWriter{prefix: cmd.Name}, tail)
	}
	c.Stdout = sink
	c.Stderr = sink

	if err := c.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with code %d: %s", cmd.Name, exitErr.ExitCode(), tail.String())
		}
		return fmt.Errorf("run %s: %w", cmd.Name, err)
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(string(t.buf))
}

// debugWriter forwards complete lines to the debug log.
type debugWriter struct {
	prefix string
}

func (w debugWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		logger.Debug("%s: %s", w.prefix, line)
	}
	return len(p), nil
}
