package install

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const maxCommandError = 512

// Opener hands a downloaded disk image to the desktop's "open" handler.
// The user completes the installation in the window that appears.
type Opener struct {
	Log    *zap.Logger
	Notify Notifier
	// Run executes a command; nil uses os/exec.
	Run func(ctx context.Context, bin string, args ...string) error
}

// Open launches the system handler for path and returns once it exits.
func (o *Opener) Open(ctx context.Context, path string) error {
	notify := o.Notify
	if notify == nil {
		notify = nopNotifier{}
	}
	run := o.Run
	if run == nil {
		run = runCommand
	}
	if o.Log != nil {
		o.Log.Debug("open", zap.String("path", path))
	}

	notify.Info("Opening " + path)
	notify.Info("Follow the instructions to finish the installation")
	if err := run(ctx, "open", path); err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	return nil
}

func runCommand(ctx context.Context, bin string, args ...string) error {
	// #nosec G204 -- bin is a fixed system tool, args is a local file path
	cmd := exec.CommandContext(ctx, bin, args...)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	if err := cmd.Run(); err != nil {
		return errors.Newf("%s %s: %s", bin, strings.Join(args, " "), trimCommandOutput(combined.String()))
	}
	return nil
}

func trimCommandOutput(out string) string {
	clean := strings.TrimSpace(out)
	if clean == "" {
		return "command failed"
	}
	if len(clean) > maxCommandError {
		return clean[:maxCommandError] + "..."
	}
	return clean
}
