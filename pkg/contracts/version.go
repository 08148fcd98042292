package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the release of the ridership binaries
	Version = "0.3.0"

	// DataFormatVersion is the version of the ranking and station report payloads
	DataFormatVersion = "v1"

	// APIVersion is the version of the HTTP and WebSocket messages
	APIVersion = "v1"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo is served by /api/version.
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo reports the build of the running binary.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

// String is the one-line form printed by --version.
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s/%s, api %s)",
		v.Version, v.GitCommit, v.BuildTime, v.GoVersion, v.OS, v.Architecture, v.APIVersion)
}

// GetVersionString returns the --version line for the named binary.
func GetVersionString(binary string) string {
	return binary + " " + GetVersionInfo().String()
}
