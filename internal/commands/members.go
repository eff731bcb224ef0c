package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"kudos/internal/config"
	"kudos/internal/exitcode"
	"kudos/internal/family"
	"kudos/internal/output"
)

func init() {
	Register(&MembersCmd{})
	Register(&AddMemberCmd{})
	Register(&RmMemberCmd{})
}

// MembersCmd lists the family roster.
type MembersCmd struct{}

func (c *MembersCmd) Name() string      { return "members" }
func (c *MembersCmd) Aliases() []string { return nil }
func (c *MembersCmd) Synopsis() string  { return "List family members" }
func (c *MembersCmd) Usage() string     { return "kudos members [common flags]" }
func (c *MembersCmd) NeedsState() bool  { return true }

func (c *MembersCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MembersCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	for _, m := range svc.Snapshot().Members {
		output.FormatMember(out, m)
	}
	return exitcode.Success
}

// AddMemberCmd adds a member to the roster.
type AddMemberCmd struct{}

func (c *AddMemberCmd) Name() string      { return "addmember" }
func (c *AddMemberCmd) Aliases() []string { return nil }
func (c *AddMemberCmd) Synopsis() string  { return "Add a family member" }
func (c *AddMemberCmd) Usage() string     { return "kudos addmember <name...>" }
func (c *AddMemberCmd) NeedsState() bool  { return true }

func (c *AddMemberCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddMemberCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	name := strings.Join(args, " ")
	if strings.TrimSpace(name) == "" {
		fmt.Fprintln(errOut, "error: name required")
		return exitcode.UserError
	}
	if _, err := svc.AddMember(ctx, name); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// RmMemberCmd removes a member from the roster. Their tasks remain and
// render as orphaned.
type RmMemberCmd struct{}

func (c *RmMemberCmd) Name() string      { return "rmmember" }
func (c *RmMemberCmd) Aliases() []string { return nil }
func (c *RmMemberCmd) Synopsis() string  { return "Remove a family member" }
func (c *RmMemberCmd) Usage() string     { return "kudos rmmember <name>" }
func (c *RmMemberCmd) NeedsState() bool  { return true }

func (c *RmMemberCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmMemberCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	name := strings.Join(args, " ")
	if strings.TrimSpace(name) == "" {
		fmt.Fprintln(errOut, "error: name required")
		return exitcode.UserError
	}
	member, err := svc.ResolveMember(name)
	if err != nil {
		if errors.Is(err, family.ErrAmbiguousMember) {
			fmt.Fprintf(errOut, "error: ambiguous member name: %s\n", name)
		} else {
			fmt.Fprintf(errOut, "error: member not found: %s\n", name)
		}
		return exitcode.UserError
	}
	if err := svc.RemoveMember(ctx, member.ID); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
