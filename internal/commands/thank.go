package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"kudos/internal/config"
	"kudos/internal/exitcode"
	"kudos/internal/family"
	"kudos/internal/model"
)

func init() {
	Register(&ThankCmd{})
}

// ThankCmd implements the thank command: appreciate a logged task.
type ThankCmd struct{}

func (c *ThankCmd) Name() string      { return "thank" }
func (c *ThankCmd) Aliases() []string { return []string{"appreciate"} }
func (c *ThankCmd) Synopsis() string  { return "Thank a member for a task" }
func (c *ThankCmd) Usage() string     { return "kudos thank <n>" }
func (c *ThankCmd) NeedsState() bool  { return true }

func (c *ThankCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ThankCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	task, code := resolveTaskArg(svc, args, errOut)
	if code != exitcode.Success {
		return code
	}
	if err := svc.AppreciateTask(ctx, task.ID); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// resolveTaskArg parses a 1-based task number argument and resolves it in
// the newest-first listing.
func resolveTaskArg(svc *family.Service, args []string, errOut io.Writer) (task model.Task, code int) {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: task number required")
		return task, exitcode.UserError
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		fmt.Fprintf(errOut, "error: invalid task number: %s\n", args[0])
		return task, exitcode.UserError
	}
	resolved, err := svc.TaskAt(n)
	if err != nil {
		fmt.Fprintf(errOut, "error: task number out of range: %d\n", n)
		return task, exitcode.UserError
	}
	return resolved, exitcode.Success
}
