package ui

// VersionInfo holds build information for display in the TUI.
type VersionInfo struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

var versionInfo = VersionInfo{Version: "dev"}

// SetVersionInfo stores build information injected by main.
func SetVersionInfo(info VersionInfo) {
	versionInfo = info
}
