package version

// Version is the moondial release, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/moondial/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version line printed by --version.
func String() string {
	return "moondial " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
