// Package cmd holds build metadata shared by the gfsave binaries.
package cmd

// Build information, set at build time via ldflags:
//
//	-X github.com/thoreinstein/gfsave/cmd.Version=1.2.0
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
