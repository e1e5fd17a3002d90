package install

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// LinkName derives the version-agnostic link name from an extracted
// directory name: "clion-2024.1.3" yields "clion".
func LinkName(dirName string) string {
	name, _, _ := strings.Cut(dirName, "-")
	return name
}

// VersionFromDirName returns the part after the first hyphen, or "" when the
// name carries no version: "clion-2024.1.3" yields "2024.1.3".
func VersionFromDirName(dirName string) string {
	_, version, _ := strings.Cut(dirName, "-")
	return version
}

// LinkedVersion reports the version of the directory linkPath points at, or
// "" when linkPath is not a symlink.
func LinkedVersion(linkPath string) string {
	target, err := os.Readlink(linkPath)
	if err != nil {
		return ""
	}
	return VersionFromDirName(filepath.Base(target))
}

// replaceLink points linkPath at target, removing an existing file or
// symlink first. An existing real directory is never removed.
func replaceLink(linkPath, target string) (replaced bool, err error) {
	fi, err := os.Lstat(linkPath)
	switch {
	case err == nil && fi.IsDir():
		return false, errors.WithHint(
			errors.Newf("%s exists and is a directory, not a link", linkPath),
			"move the directory away or install without --link")
	case err == nil:
		if err := os.Remove(linkPath); err != nil {
			return false, errors.Wrapf(err, "remove old link %s", linkPath)
		}
		replaced = true
	case !os.IsNotExist(err):
		return false, errors.Wrapf(err, "stat %s", linkPath)
	}

	if err := os.Symlink(target, linkPath); err != nil {
		return replaced, errors.Wrapf(err, "symlink %s -> %s", linkPath, target)
	}
	return replaced, nil
}
