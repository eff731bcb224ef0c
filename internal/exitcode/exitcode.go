// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, ambiguous).
	UserError = 1

	// ConfigError indicates a configuration or credential error.
	ConfigError = 2

	// RemoteError indicates a remote store or network error.
	RemoteError = 3
)
