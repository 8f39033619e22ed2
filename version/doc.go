// Package version provides build version information for the pipekit
// binary.
//
// Version, git commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/scenariotools/pipekit/version.Version=1.0.0"
package version
