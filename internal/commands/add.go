package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kudos/internal/config"
	"kudos/internal/exitcode"
	"kudos/internal/family"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command: log a completed task for a member.
type AddCmd struct {
	member string
	quick  int
}

// SetMember sets the member name (for testing).
func (c *AddCmd) SetMember(name string) {
	c.member = name
}

// SetQuick sets the quick-task seed number (for testing).
func (c *AddCmd) SetQuick(n int) {
	c.quick = n
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"log"} }
func (c *AddCmd) Synopsis() string  { return "Log a completed task" }
func (c *AddCmd) Usage() string {
	return "kudos add --member <name> (<description...> | --quick <n>)"
}
func (c *AddCmd) NeedsState() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.member, "member", "", "")
	fs.StringVar(&c.member, "m", "", "")
	fs.IntVar(&c.quick, "quick", 0, "")
	fs.IntVar(&c.quick, "q", 0, "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc *family.Service, args []string, out, errOut io.Writer) int {
	if c.member == "" {
		fmt.Fprintln(errOut, "error: member required")
		return exitcode.UserError
	}

	member, err := svc.ResolveMember(c.member)
	if err != nil {
		if errors.Is(err, family.ErrAmbiguousMember) {
			fmt.Fprintf(errOut, "error: ambiguous member name: %s\n", c.member)
		} else {
			fmt.Fprintf(errOut, "error: member not found: %s\n", c.member)
		}
		return exitcode.UserError
	}

	description, code := c.description(svc, args, errOut)
	if code != exitcode.Success {
		return code
	}

	_, message := svc.AddTask(ctx, member.ID, description)

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
		fmt.Fprintln(out, message)
	}
	return exitcode.Success
}

// description resolves the task text from positional args or a quick-task
// seed number.
func (c *AddCmd) description(svc *family.Service, args []string, errOut io.Writer) (string, int) {
	if c.quick > 0 {
		if len(args) > 0 {
			fmt.Fprintln(errOut, "error: cannot use both --quick and a description")
			return "", exitcode.UserError
		}
		seeds := svc.Snapshot().QuickTasks
		if c.quick > len(seeds) {
			fmt.Fprintf(errOut, "error: quick task number out of range: %s\n", strconv.Itoa(c.quick))
			return "", exitcode.UserError
		}
		return seeds[c.quick-1], exitcode.Success
	}

	description := strings.Join(args, " ")
	if strings.TrimSpace(description) == "" {
		fmt.Fprintln(errOut, "error: description required")
		return "", exitcode.UserError
	}
	return description, exitcode.Success
}
