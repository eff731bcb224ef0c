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
	Register(&HelpCmd{})
}

const helpText = `kudos - log family wins and spread some thanks

Usage:
  kudos <command> [flags]

Tasks:
  add, log       Log a completed task (--member, --quick)
  list, ls       List logged tasks, newest first
  thank          Add a thank-you to a task by number
  rm, delete     Remove a task by number

Family:
  members        List family members
  addmember      Add a family member
  rmmember       Remove a family member by name

Quick tasks:
  quick          List quick task shortcuts
  addquick       Add a quick task shortcut
  rmquick        Remove a quick task shortcut by number

Sharing:
  group          Show the current group code
  share          Create a shared group and print its code
  join           Join a shared group by code
  leave          Disconnect from the shared group
  watch          Watch for remote changes

Other:
  version        Print the kudos version
  help           Show this help

Common flags:
  --config DIR   Use DIR for settings and local state
  --quiet        Suppress informational output
  --debug        Enable debug logging

Run "kudos <command> -h" for command-specific flags.`

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Show usage help" }
func (c *HelpCmd) Usage() string     { return "kudos help" }
func (c *HelpCmd) NeedsState() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprintln(out, helpText)
	return exitcode.Success
}
