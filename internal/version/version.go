// version exposes build information for the walletpass binaries.
// the variables are set at build time via -ldflags, e.g:
//
//	go build -ldflags "-X github.com/brightcard/walletpass/internal/version.version=v0.3.0"
package version

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
}

// Get returns the build information for the running binary.
func Get() Info {
	return Info{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
	}
}
