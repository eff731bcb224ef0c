// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"kudos/internal/config"
	"kudos/internal/family"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsState returns true if the command operates on the family state.
	// Commands like help and version return false.
	NeedsState() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, settings).
	// svc is nil if NeedsState() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int
}
