package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
)

const unknown = "unknown"

// These variables are set during build time
var (
	// Version is the current version
	Version = "0.0.0"

	// Branch is current branch name the code is built off.
	Branch = unknown

	// Revision is the short commit hash of source tree
	Revision = unknown

	// BuiltAt is the build time
	BuiltAt = unknown
)

// Info contains version information
type Info struct {
	Version   string `json:"version"`
	Branch    string `json:"branch"`
	Revision  string `json:"revision"`
	BuiltAt   string `json:"builtAt"`
	GoVersion string `json:"goVersion"`
}

// GetVersionInfo returns version information, filling unset build variables
// from the binary's build info
func GetVersionInfo() Info {
	info := Info{
		Version:   Version,
		Branch:    Branch,
		Revision:  Revision,
		BuiltAt:   BuiltAt,
		GoVersion: runtime.Version(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromBuildInfo(&info, bi)
	}
	return info
}

func fillFromBuildInfo(info *Info, bi *debug.BuildInfo) {
	if info.Version == "0.0.0" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Revision == unknown && s.Value != "" {
				info.Revision = s.Value
				if len(info.Revision) > 7 {
					info.Revision = info.Revision[:7]
				}
			}
		case "vcs.time":
			if info.BuiltAt == unknown && s.Value != "" {
				info.BuiltAt = s.Value
			}
		}
	}
}

// String returns a string representation of version information
func (i Info) String() string {
	return fmt.Sprintf("Version: %s\nBranch: %s\nRevision: %s\nBuilt At: %s\nGo Version: %s",
		i.Version, i.Branch, i.Revision, i.BuiltAt, i.GoVersion)
}

// JSON returns a JSON representation of version information
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
