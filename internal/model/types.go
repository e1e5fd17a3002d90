package model

// ReleaseInfo is the subset of a release record from the product metadata
// endpoint that jbi uses. Only the first (newest) record of a response is kept.
type ReleaseInfo struct {
	Version   string                        `json:"version"`
	Build     string                        `json:"build,omitempty"`
	Date      string                        `json:"date,omitempty"`
	Downloads map[string]DownloadDescriptor `json:"downloads"`
}

// DownloadDescriptor is one per-platform entry of a release's download map.
type DownloadDescriptor struct {
	URL  string `json:"link"`
	Size int64  `json:"size"`
}

// Platforms returns the platform keys of the release's download map.
func (r *ReleaseInfo) Platforms() []string {
	keys := make([]string, 0, len(r.Downloads))
	for k := range r.Downloads {
		keys = append(keys, k)
	}
	return keys
}

// InstallOptions carries the CLI switches that drive download and install.
// It is filled once from flags and config and treated as read-only afterward.
type InstallOptions struct {
	ForceReinstall       bool
	InstallAfterDownload bool
	CreateSymlink        bool
	CreateDesktopEntry   bool
	InstallPrefix        string
	TempDir              string
	AppDir               string // directory receiving .desktop files
}
