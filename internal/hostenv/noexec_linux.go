//go:build linux

package hostenv

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// IsNoExecMount reports whether destPath, or its nearest existing ancestor,
// sits on a filesystem mounted noexec. Lookup failures report false.
func IsNoExecMount(destPath string) bool {
	if destPath == "" {
		return false
	}
	p, err := filepath.Abs(destPath)
	if err != nil {
		return false
	}
	for {
		var st unix.Statfs_t
		err := unix.Statfs(p, &st)
		if err == nil {
			return st.Flags&unix.ST_NOEXEC != 0
		}
		if err != unix.ENOENT && err != unix.ENOTDIR {
			return false
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}
