package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version = LightRelaySemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// LightRelaySemVer is the current version of the light relay.
	// It's the Semantic Version of the software.
	LightRelaySemVer = "0.3.0"
)
