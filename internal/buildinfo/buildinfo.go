// Package buildinfo exposes build stamps for the health endpoint.
package buildinfo

import "time"

// Set via -ldflags "-X github.com/friendstransport/fleetgo/internal/buildinfo.CommitHash=..."
var (
	Version    = "dev"
	CommitHash string
	BuildTime  string
)

var started = time.Now().UTC()

// Info describes the running binary
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit,omitempty"`
	BuildTime  string `json:"buildTime,omitempty"`
	StartedAt  string `json:"startedAt"`
	Uptime     string `json:"uptime"`
}

// Current returns the build stamps and uptime
func Current() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		StartedAt:  started.Format(time.RFC3339),
		Uptime:     time.Since(started).Round(time.Second).String(),
	}
}
