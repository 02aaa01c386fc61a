package versions

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfoWithValues(t *testing.T) {
	t.Parallel()

	noVCS := func() (string, string) { return "", "" }
	withVCS := func() (string, string) { return "0123456789abcdef", "2026-03-01T12:00:00Z" }

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
		vcs       func() (string, string)
		want      VersionInfo
	}{
		{
			name:      "release build",
			version:   "v1.2.0",
			commit:    "abc123",
			buildDate: "2026-01-15T10:30:00Z",
			vcs:       withVCS,
			want:      VersionInfo{Version: "v1.2.0", Commit: "abc123", BuildDate: "2026-01-15 10:30:00 UTC"},
		},
		{
			name:      "dev build uses vcs info",
			version:   "dev",
			commit:    unknownStr,
			buildDate: unknownStr,
			vcs:       withVCS,
			want:      VersionInfo{Version: "build-01234567", Commit: "0123456789abcdef", BuildDate: "2026-03-01 12:00:00 UTC"},
		},
		{
			name:      "dev build without vcs info",
			version:   "dev",
			commit:    unknownStr,
			buildDate: unknownStr,
			vcs:       noVCS,
			want:      VersionInfo{Version: "build-unknown", Commit: unknownStr, BuildDate: unknownStr},
		},
		{
			name:      "unparseable build date kept verbatim",
			version:   "v0.1.0",
			commit:    "abc",
			buildDate: "yesterday",
			vcs:       nil,
			want:      VersionInfo{Version: "v0.1.0", Commit: "abc", BuildDate: "yesterday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := getVersionInfoWithValues(tt.version, tt.commit, tt.buildDate, tt.vcs)
			tt.want.GoVersion = runtime.Version()
			tt.want.Platform = runtime.GOOS + "/" + runtime.GOARCH
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetVersionInfo(t *testing.T) {
	t.Parallel()

	info := GetVersionInfo()
	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}
