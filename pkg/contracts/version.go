package contracts

import (
	"fmt"
	"runtime"
)

const (
	// DataFormatVersion is the version of the export and storage layout
	DataFormatVersion = "v1"

	// APIVersion is the version of the REST envelope and WebSocket messages
	APIVersion = "v1"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time,omitempty"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo describes a build of the given version
func GetVersionInfo(version, buildTime string) VersionInfo {
	return VersionInfo{
		Version:      version,
		BuildTime:    buildTime,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

// String returns a one line description, e.g. for CLI output
func (v VersionInfo) String() string {
	s := fmt.Sprintf("gdv %s (api %s, go %s, %s/%s)", v.Version, v.APIVersion, v.GoVersion, v.OS, v.Architecture)
	if v.BuildTime != "" {
		s += ", built " + v.BuildTime
	}
	return s
}
