package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// Version is the orderprep release
	Version = "1.2.0"

	// DataFormatVersion is the version of the cleaned table layout
	DataFormatVersion = "v1"
)

// Set with -ldflags "-X orderprep/pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// BuildInfo identifies the binary that produced a run
type BuildInfo struct {
	Version    string `json:"version"`
	DataFormat string `json:"data_format"`
	Commit     string `json:"commit"`
	BuildTime  string `json:"build_time"`
	Modified   bool   `json:"modified,omitempty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// CurrentBuild returns the build details. Commit and time fall back to the
// VCS stamp the Go toolchain embeds when ldflags did not set them.
func CurrentBuild() BuildInfo {
	info := BuildInfo{
		Version:    Version,
		DataFormat: DataFormatVersion,
		Commit:     GitCommit,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String is the one-line form printed by --version
func (b BuildInfo) String() string {
	commit := b.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if b.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("orderprep v%s (table %s, commit %s, built %s, %s %s)",
		b.Version, b.DataFormat, commit, b.BuildTime, b.GoVersion, b.Platform)
}
