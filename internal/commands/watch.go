package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"kudos/internal/config"
	"kudos/internal/exitcode"
	"kudos/internal/family"
	"kudos/internal/model"
)

func init() {
	Register(&WatchCmd{})
}

// WatchCmd implements the watch command: block and report remote merges
// as they arrive, until interrupted.
type WatchCmd struct{}

func (c *WatchCmd) Name() string      { return "watch" }
func (c *WatchCmd) Aliases() []string { return nil }
func (c *WatchCmd) Synopsis() string  { return "Watch for remote changes to the shared group" }
func (c *WatchCmd) Usage() string     { return "kudos watch [common flags]" }
func (c *WatchCmd) NeedsState() bool  { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	groupID, bound := svc.GroupID()
	if !bound {
		fmt.Fprintln(errOut, "not connected to a group: run \"kudos share\" or \"kudos join\" first")
		return exitcode.UserError
	}

	merges := make(chan model.Snapshot, 8)
	svc.SetOnMerge(func(snap model.Snapshot) {
		select {
		case merges <- snap:
		default:
		}
	})
	defer svc.SetOnMerge(nil)

	if !cfg.Quiet {
		fmt.Fprintf(out, "watching group %s (ctrl-c to stop)\n", groupID)
	}
	for {
		select {
		case <-ctx.Done():
			return exitcode.Success
		case snap := <-merges:
			fmt.Fprintf(out, "update: %d tasks, %d members, %d quick tasks\n",
				len(snap.Tasks), len(snap.Members), len(snap.QuickTasks))
		}
	}
}
