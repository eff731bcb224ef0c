package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"kudos/internal/config"
	"kudos/internal/exitcode"
	"kudos/internal/family"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

func init() {
	Register(&VersionCmd{})
}

// VersionCmd implements the version command.
type VersionCmd struct{}

func (c *VersionCmd) Name() string      { return "version" }
func (c *VersionCmd) Aliases() []string { return nil }
func (c *VersionCmd) Synopsis() string  { return "Print the kudos version" }
func (c *VersionCmd) Usage() string     { return "kudos version" }
func (c *VersionCmd) NeedsState() bool  { return false }

func (c *VersionCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *VersionCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "kudos %s\n", Version)
	return exitcode.Success
}
