package commands

import (
	"context"
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
	Register(&QuickCmd{})
	Register(&AddQuickCmd{})
	Register(&RmQuickCmd{})
}

// QuickCmd lists the quick-task suggestion seeds.
type QuickCmd struct{}

func (c *QuickCmd) Name() string      { return "quick" }
func (c *QuickCmd) Aliases() []string { return nil }
func (c *QuickCmd) Synopsis() string  { return "List quick-task suggestions" }
func (c *QuickCmd) Usage() string     { return "kudos quick [common flags]" }
func (c *QuickCmd) NeedsState() bool  { return true }

func (c *QuickCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *QuickCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	for i, seed := range svc.Snapshot().QuickTasks {
		fmt.Fprintf(out, "%4d  ", i+1)
		output.FormatQuickTask(out, seed)
	}
	return exitcode.Success
}

// AddQuickCmd adds a quick-task suggestion seed.
type AddQuickCmd struct{}

func (c *AddQuickCmd) Name() string      { return "addquick" }
func (c *AddQuickCmd) Aliases() []string { return nil }
func (c *AddQuickCmd) Synopsis() string  { return "Add a quick-task suggestion" }
func (c *AddQuickCmd) Usage() string     { return "kudos addquick <text...>" }
func (c *AddQuickCmd) NeedsState() bool  { return true }

func (c *AddQuickCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddQuickCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	text := strings.Join(args, " ")
	if err := svc.AddQuickTask(ctx, text); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// RmQuickCmd removes a quick-task suggestion seed.
type RmQuickCmd struct{}

func (c *RmQuickCmd) Name() string      { return "rmquick" }
func (c *RmQuickCmd) Aliases() []string { return nil }
func (c *RmQuickCmd) Synopsis() string  { return "Remove a quick-task suggestion" }
func (c *RmQuickCmd) Usage() string     { return "kudos rmquick <text...>" }
func (c *RmQuickCmd) NeedsState() bool  { return true }

func (c *RmQuickCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmQuickCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(errOut, "error: suggestion text required")
		return exitcode.UserError
	}
	if err := svc.RemoveQuickTask(ctx, text); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
