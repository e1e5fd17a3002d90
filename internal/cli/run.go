package cli

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/3leaps/jbi/internal/model"
)

// Handler is the program entrypoint for CLI execution.
//
// It is set by the main package (wired in init) so tests can call Run without
// forking processes while keeping the actual implementation out of this package.
var Handler func(args []string, stdout, stderr io.Writer) int

func Run(args []string, stdout, stderr io.Writer) int {
	if Handler == nil {
		fmt.Fprintln(stderr, "internal error: cli handler not configured")
		return 1
	}
	return Handler(args, stdout, stderr)
}

const (
	ExitOK    = 0
	ExitError = 1
)

// ExitCode maps a driver error to the process exit status. Every failure
// class exits 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	return ExitError
}

// IsUsage reports whether err should be followed by the usage text.
func IsUsage(err error) bool {
	return errors.Is(err, model.ErrUsage) || errors.Is(err, model.ErrUnknownProduct)
}
