package version

import (
	"crypto/sha256"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/fatih/color"
)

// Version information for purity
const (
	// Version is the current semantic version
	Version = "0.3.0"

	// Name is the tool name used in banners, SARIF and MCP
	Name = "purity"
)

// Set at build time with -ldflags "-X .../internal/version.GitCommit=..."
var (
	BuildDate = "development"
	GitCommit = "unknown"
)

// Info returns version information as a string
func Info() string {
	return Version
}

// FullInfo returns detailed version information
func FullInfo() string {
	return Name + " " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}

// Banner writes the version banner. Color follows the color package's
// terminal detection unless disabled.
func Banner(w io.Writer, useColor bool) {
	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	if !useColor {
		title.DisableColor()
		dim.DisableColor()
	}
	title.Fprintf(w, "%s %s\n", Name, Version)
	dim.Fprintf(w, "commit %s, built %s, %s %s/%s\n", GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

var (
	buildID     string
	buildIDOnce sync.Once
)

// BuildID returns a fingerprint of the current binary build. It salts
// cache keys so results from other builds are never reused.
func BuildID() string {
	buildIDOnce.Do(func() {
		buildID = computeBuildID()
	})
	return buildID
}

func computeBuildID() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version + "-" + GitCommit
	}

	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(info.GoVersion))
	h.Write([]byte(info.Main.Path))
	h.Write([]byte(info.Main.Version))

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision", "vcs.modified", "vcs.time":
			h.Write([]byte(s.Key))
			h.Write([]byte(s.Value))
		}
	}

	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
