// Package cli holds the flag handling and error reporting shared by the
// command-line tools.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/config"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Parse parses fs over args, allowing flags before, between and after the
// positional arguments, and returns the positionals in order.
func Parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

// IsSet reports whether the flag name was given explicitly.
func IsSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// UsageError reports malformed command-line arguments.
type UsageError struct{ Msg string }

func (e *UsageError) Error() string { return e.Msg }

// Usagef returns a *UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// Report writes err as one "<tool>: <error>" line and returns the exit code.
func Report(stderr io.Writer, tool string, err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	fmt.Fprintf(stderr, "%s: %v\n", tool, err)
	var ue *UsageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitFailure
}

// Logger builds the tool logger from the configured level; verbose forces
// debug output.
func Logger(stderr io.Writer, cfg *config.Config, verbose bool) (*dbscan.Logger, error) {
	level, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	return dbscan.NewLogger(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})), nil
}
