package install

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/3leaps/jbi/internal/model"
	"github.com/3leaps/jbi/internal/products"
	"github.com/3leaps/jbi/pkg/update"
)

// Result describes where an extraction install put things.
type Result struct {
	TargetDir   string // <prefix>/<root dir of the archive>
	LinkPath    string // empty unless a link was requested
	ActiveDir   string // directory the desktop entry points at
	DesktopFile string // empty unless a desktop entry was requested
	Replaced    bool   // an existing target directory was removed first
}

// Extractor installs a tarball under an install prefix.
type Extractor struct {
	Log    *zap.Logger
	Notify Notifier
	// NoExec reports whether a path lives on a noexec mount. Optional.
	NoExec func(path string) bool
}

// Install extracts archivePath below opts.InstallPrefix. The archive's root
// directory decides the target; an existing target is refused unless
// opts.ForceReinstall is set, in which case it is removed first.
func (e *Extractor) Install(archivePath string, opts model.InstallOptions, product products.Product) (*Result, error) {
	log := e.logger()
	notify := e.notifier()

	notify.Info("Opening file " + archivePath)
	rootDir, err := ArchiveRoot(archivePath)
	if err != nil {
		return nil, err
	}

	prefix := opts.InstallPrefix
	// #nosec G301 -- install prefix holds world-readable applications
	if err := os.MkdirAll(prefix, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create install prefix %s", prefix)
	}
	if e.NoExec != nil && e.NoExec(prefix) {
		notify.Warn(prefix + " is on a noexec mount; the IDE will not start from there")
	}

	res := &Result{TargetDir: filepath.Join(prefix, rootDir)}
	res.ActiveDir = res.TargetDir
	log.Debug("archive root", zap.String("root", rootDir), zap.String("target", res.TargetDir))

	if _, err := os.Lstat(res.TargetDir); err == nil {
		if !opts.ForceReinstall {
			return nil, errors.WithHint(
				model.Markf(model.ErrTargetExists, "target directory already exists: %s", res.TargetDir),
				"use --force to delete old installation")
		}
		notify.Info("Removing existing installation " + res.TargetDir)
		if err := os.RemoveAll(res.TargetDir); err != nil {
			return nil, errors.Wrapf(err, "remove %s", res.TargetDir)
		}
		res.Replaced = true
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", res.TargetDir)
	}

	notify.Info("Extracting to " + prefix)
	if err := Extract(archivePath, prefix); err != nil {
		return nil, err
	}

	if opts.CreateSymlink {
		linkPath := filepath.Join(prefix, LinkName(rootDir))
		if linkPath == res.TargetDir {
			notify.Warn("archive root " + rootDir + " has no version suffix; skipping link")
		} else {
			dec, msg := update.Decide(product.DisplayName, LinkedVersion(linkPath), VersionFromDirName(rootDir), opts.ForceReinstall)
			notify.Info(update.DescribeDecision(dec) + ": " + msg)
			if _, err := replaceLink(linkPath, rootDir); err != nil {
				return nil, err
			}
			notify.Info("Linked " + linkPath + " -> " + rootDir)
			res.LinkPath = linkPath
			res.ActiveDir = linkPath
		}
	}

	if opts.CreateDesktopEntry {
		p, err := WriteDesktopEntry(opts.AppDir, product, res.ActiveDir)
		if err != nil {
			return nil, err
		}
		notify.Info("Wrote desktop entry " + p)
		res.DesktopFile = p
	}

	log.Info("installed", zap.String("product", product.DisplayName), zap.String("dir", res.TargetDir))
	return res, nil
}

func (e *Extractor) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func (e *Extractor) notifier() Notifier {
	if e.Notify == nil {
		return nopNotifier{}
	}
	return e.Notify
}
