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

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command: delete a logged task.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "kudos rm <n>" }
func (c *RmCmd) NeedsState() bool  { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	task, code := resolveTaskArg(svc, args, errOut)
	if code != exitcode.Success {
		return code
	}
	if err := svc.DeleteTask(ctx, task.ID); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
