package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"kudos/internal/config"
	"kudos/internal/docstore"
	"kudos/internal/exitcode"
	"kudos/internal/family"
	"kudos/internal/syncer"
)

func init() {
	Register(&GroupCmd{})
	Register(&ShareCmd{})
	Register(&JoinCmd{})
	Register(&LeaveCmd{})
}

// GroupCmd shows the current cloud-sync binding.
type GroupCmd struct{}

func (c *GroupCmd) Name() string      { return "group" }
func (c *GroupCmd) Aliases() []string { return nil }
func (c *GroupCmd) Synopsis() string  { return "Show the shared group code" }
func (c *GroupCmd) Usage() string     { return "kudos group [common flags]" }
func (c *GroupCmd) NeedsState() bool  { return true }

func (c *GroupCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *GroupCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	if id, bound := svc.GroupID(); bound {
		fmt.Fprintln(out, id)
	} else if !cfg.Quiet {
		fmt.Fprintln(out, "not connected")
	}
	return exitcode.Success
}

// ShareCmd creates a new shared group seeded with the local snapshot and
// prints the invite code.
type ShareCmd struct{}

func (c *ShareCmd) Name() string      { return "share" }
func (c *ShareCmd) Aliases() []string { return []string{"creategroup"} }
func (c *ShareCmd) Synopsis() string  { return "Create a shared group" }
func (c *ShareCmd) Usage() string     { return "kudos share [common flags]" }
func (c *ShareCmd) NeedsState() bool  { return true }

func (c *ShareCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShareCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	if id, bound := svc.GroupID(); bound {
		fmt.Fprintf(errOut, "error: already connected to group %s (run: kudos leave)\n", id)
		return exitcode.UserError
	}
	id, err := svc.CreateGroup(ctx)
	if err != nil {
		if errors.Is(err, syncer.ErrRemoteUnavailable) {
			fmt.Fprintf(errOut, "error: cloud sync not configured (set sync_dir in %s)\n", cfg.SettingsPath())
			return exitcode.ConfigError
		}
		fmt.Fprintf(errOut, "error: could not create group: %v\n", err)
		return exitcode.RemoteError
	}
	fmt.Fprintln(out, id)
	if !cfg.Quiet {
		fmt.Fprintln(out, "share this code with family members to sync devices")
	}
	return exitcode.Success
}

// JoinCmd binds this device to an existing shared group.
type JoinCmd struct{}

func (c *JoinCmd) Name() string      { return "join" }
func (c *JoinCmd) Aliases() []string { return nil }
func (c *JoinCmd) Synopsis() string  { return "Join a shared group by code" }
func (c *JoinCmd) Usage() string     { return "kudos join <code>" }
func (c *JoinCmd) NeedsState() bool  { return true }

func (c *JoinCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *JoinCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: group code required")
		return exitcode.UserError
	}
	if id, bound := svc.GroupID(); bound {
		fmt.Fprintf(errOut, "error: already connected to group %s (run: kudos leave)\n", id)
		return exitcode.UserError
	}

	err := svc.JoinGroup(ctx, args[0])
	switch {
	case err == nil:
		if !cfg.Quiet {
			fmt.Fprintln(out, "ok")
		}
		return exitcode.Success
	case errors.Is(err, syncer.ErrRemoteUnavailable):
		fmt.Fprintf(errOut, "error: cloud sync not configured (set sync_dir in %s)\n", cfg.SettingsPath())
		return exitcode.ConfigError
	case errors.Is(err, docstore.ErrNotFound):
		fmt.Fprintln(errOut, "error: could not join group: check the code and try again")
		return exitcode.UserError
	default:
		// Transient trouble gets the same message as a bad code; only the
		// exit code tells them apart.
		fmt.Fprintln(errOut, "error: could not join group: check the code and try again")
		return exitcode.RemoteError
	}
}

// LeaveCmd disconnects from the shared group. The remote document stays for
// the other bound devices.
type LeaveCmd struct{}

func (c *LeaveCmd) Name() string      { return "leave" }
func (c *LeaveCmd) Aliases() []string { return nil }
func (c *LeaveCmd) Synopsis() string  { return "Disconnect from the shared group" }
func (c *LeaveCmd) Usage() string     { return "kudos leave [common flags]" }
func (c *LeaveCmd) NeedsState() bool  { return true }

func (c *LeaveCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LeaveCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	svc.LeaveGroup()
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
