//go:build !linux

package hostenv

// IsNoExecMount always reports false outside Linux.
func IsNoExecMount(string) bool { return false }
