package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"kudos/internal/config"
	"kudos/internal/exitcode"
	"kudos/internal/family"
	"kudos/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command: tasks, newest first.
type ListCmd struct{}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List logged tasks" }
func (c *ListCmd) Usage() string     { return "kudos list [common flags]" }
func (c *ListCmd) NeedsState() bool  { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	snap := svc.Snapshot()
	if len(snap.Tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks yet")
		}
		return exitcode.Success
	}
	for i, task := range snap.Tasks {
		output.FormatTask(out, i+1, task, snap.MemberName(task.MemberID))
	}
	return exitcode.Success
}
