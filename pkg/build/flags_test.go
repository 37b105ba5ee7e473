// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origInfo    Info
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origInfo = *buildInfo

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildInfo = origInfo

	os.Exit(exitCode)
}

func resetInfo() {
	*buildInfo = Info{
		Name:        "audioviz",
		Description: description,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsg  []string
	}{
		{"Missing BuildName", "", "2025-04-13", "abcdef123", "v1.0.0", []string{"BuildName is required"}},
		{"Missing BuildTime", "testapp", "", "abcdef123", "v1.0.0", []string{"BuildTime is required"}},
		{"Missing BuildCommit", "testapp", "2025-04-13", "", "v1.0.0", []string{"BuildCommit is required"}},
		{"Missing BuildVersion", "testapp", "2025-04-13", "abcdef123", "", []string{"BuildVersion is required"}},
		{"Missing Everything", "", "", "", "", []string{"BuildName", "BuildTime", "BuildCommit", "BuildVersion"}},
		{"Success Case", "testapp", "2025-04-13", "abcdef123", "v1.0.0", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetInfo()

			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if len(tt.wantErrMsg) > 0 {
				if err == nil {
					t.Fatalf("Initialize() expected error, got nil")
				}
				for _, want := range tt.wantErrMsg {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("Initialize() error = %q, want it to mention %q", err, want)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("Initialize() unexpected error: %v", err)
			}

			info := GetBuildFlags()
			if info.Name != tt.buildName {
				t.Errorf("Name = %v, want %v", info.Name, tt.buildName)
			}
			if info.Time != tt.buildTime {
				t.Errorf("Time = %v, want %v", info.Time, tt.buildTime)
			}
			if info.Commit != tt.buildCommit {
				t.Errorf("Commit = %v, want %v", info.Commit, tt.buildCommit)
			}
			if info.Version != tt.buildVer {
				t.Errorf("Version = %v, want %v", info.Version, tt.buildVer)
			}
		})
	}
}

func TestInitializeKeepsDefaultsForMissingFlags(t *testing.T) {
	resetInfo()
	buildName = ""
	buildTime = ""
	buildCommit = "abc"
	buildVersion = ""

	_ = Initialize()

	info := GetBuildFlags()
	if info.Name != "audioviz" {
		t.Errorf("Name = %q, want development default", info.Name)
	}
	if info.Commit != "abc" {
		t.Errorf("Commit = %q, want provided value", info.Commit)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Name: "audioviz", Version: "v1.0.0", Commit: "abc", Time: "today"}
	want := "audioviz v1.0.0 (commit abc, built today)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
