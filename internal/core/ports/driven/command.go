package driven

import "context"

// Command is one external program invocation.
type Command struct {
	// Description is logged before the command runs.
	Description string

	Name string
	Args []string

	// Dir is the working directory; empty uses the current one.
	Dir string

	// LogFile receives stdout and stderr when set.
	LogFile string
}

// CommandRunner runs external programs to completion.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) error
}
