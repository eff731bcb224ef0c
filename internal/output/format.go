// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"kudos/internal/model"
)

// FormatTask formats a task line in the newest-first listing.
// Format: "{N:>4}  {DESCRIPTION}  [{MEMBER}]" with an appreciation suffix
// when any thanks have been given.
func FormatTask(w io.Writer, num int, task model.Task, memberName string) {
	line := fmt.Sprintf("%4d  %s  [%s]", num, normalize(task.Description), memberName)
	if task.AppreciationCount == 1 {
		line += "  (1 thank)"
	} else if task.AppreciationCount > 1 {
		line += fmt.Sprintf("  (%d thanks)", task.AppreciationCount)
	}
	fmt.Fprintln(w, line)
}

// FormatMember formats a roster line.
func FormatMember(w io.Writer, m model.FamilyMember) {
	fmt.Fprintf(w, "%s  %s\n", m.Avatar.Initial, normalize(m.Name))
}

// FormatQuickTask formats a quick-task suggestion seed line.
func FormatQuickTask(w io.Writer, seed string) {
	fmt.Fprintln(w, normalize(seed))
}

// normalize flattens newlines and replaces empty values for display.
// - Empty or whitespace-only values become "(untitled)"
// - Newlines are replaced with spaces
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return "(untitled)"
	}
	return s
}
