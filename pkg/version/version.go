// Package version holds build metadata, set at link time:
//
//	go build -ldflags "-X github.com/guimove/queuefit/pkg/version.Version=v0.3.0"
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)
