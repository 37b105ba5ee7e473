// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata stamped into the binary at link time:
//
//	go build -ldflags "-X audioviz/pkg/build.buildName=audioviz \
//	  -X audioviz/pkg/build.buildVersion=0.3.0 \
//	  -X audioviz/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	  -X audioviz/pkg/build.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Development builds run without the flags; Initialize reports what is
// missing and the development defaults stay in place.
package build

import (
	"errors"
	"fmt"
)

// Info is the build metadata shown by --version and in the startup log line.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String renders a one-line version banner.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

const description = "Real-time audio spectrum and level analyzer"

var buildInfo = &Info{
	Name:        "audioviz",
	Description: description,
	Time:        "unknown",
	Commit:      "unknown",
	Version:     "dev",
}

// Initialize copies the linker-provided values into the build info. Every
// missing flag is reported in the returned error; the values that were
// provided are applied regardless.
func Initialize() error {
	var errs []error
	apply := func(dst *string, src, flag string) {
		if src == "" {
			errs = append(errs, fmt.Errorf("%s is required", flag))
			return
		}
		*dst = src
	}

	apply(&buildInfo.Name, buildName, "BuildName")
	apply(&buildInfo.Time, buildTime, "BuildTime")
	apply(&buildInfo.Commit, buildCommit, "BuildCommit")
	apply(&buildInfo.Version, buildVersion, "BuildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildInfo
}
