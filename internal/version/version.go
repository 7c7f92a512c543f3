// Package version reports the build stamped into the binary.
package version

import "runtime/debug"

// Overridden with -ldflags "-X github.com/kailas-cloud/smartdesk/internal/version.Version=v1.2.0".
//
//nolint:revive,gochecknoglobals // ldflags target
var (
	Version = "dev"
	Commit  = ""
)

// Revision returns Commit, or the VCS revision the go tool embedded when
// ldflags left it empty. Modified trees get a "-dirty" suffix.
func Revision() string {
	if Commit != "" {
		return Commit
	}
	return fromBuildInfo(debug.ReadBuildInfo())
}

func fromBuildInfo(bi *debug.BuildInfo, ok bool) string {
	if !ok {
		return "unknown"
	}
	rev, dirty := "", false
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "unknown"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}
