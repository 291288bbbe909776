// Package version carries build metadata stamped in with -ldflags.
package version

import "runtime/debug"

// Build metadata. Release builds set these with
// -ldflags "-X github.com/Sumatoshi-tech/ordtree/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)

// InitBinaryVersion fills unset metadata from the module build info, which
// covers `go install` builds that carry no ldflags.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "<unknown>" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "<unknown>" {
				Date = setting.Value
			}
		}
	}
}

// String formats the metadata for version output.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
