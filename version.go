package seltra

// Version information for seltra.
// These values can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/seltra.GitCommit=abc1234"
const (
	// Name is the application name.
	Name = "seltra"

	// Description is a short description of the application.
	Description = "Select and translate - instant translation of selected text"

	// Version is the semantic version of the application.
	Version = "1.0.3"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/seltra"
)

// BuildInfo contains build-time information.
var (
	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// FullVersion returns the version string with optional build info.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns a user agent string for HTTP requests.
func UserAgent() string {
	return Name + "/" + Version
}
