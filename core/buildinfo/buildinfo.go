// Package buildinfo holds release metadata stamped in by the linker:
//
//	go build -ldflags "-X github.com/m3rciful/intakebot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/intakebot/core/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

// Stamped values; local builds keep the defaults.
var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

// String renders the build as "version (commit)" for startup logs.
func String() string {
	return Version + " (" + Commit + ")"
}
