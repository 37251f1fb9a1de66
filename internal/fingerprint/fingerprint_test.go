// SPDX-License-Identifier: MPL-2.0

package fingerprint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	t.Parallel()

	fp := Compute("Linux", "5.15.0", "/usr/bin/python3")
	assert.Equal(t, Fingerprint("Linux-5.15.0-/usr/bin/python3"), fp)
	assert.True(t, fp.Matches("Linux-5.15.0-/usr/bin/python3"))
	assert.False(t, fp.Matches("Linux-5.15.0-/usr/local/bin/python3"))
}

func TestSourceCurrent(t *testing.T) {
	t.Parallel()

	release := func(context.Context) (string, error) { return "23.1.0", nil }

	tests := []struct {
		name   string
		source Source
		want   Fingerprint
	}{
		{
			name:   "darwin",
			source: Source{GOOS: "darwin", Release: release, Interpreter: "/opt/homebrew/bin/python3"},
			want:   "Darwin-23.1.0-/opt/homebrew/bin/python3",
		},
		{
			name:   "windows",
			source: Source{GOOS: "windows", Release: release, Interpreter: `C:\Python312\python.exe`},
			want:   `Windows-23.1.0-C:\Python312\python.exe`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.source.Current(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceCurrentErrors(t *testing.T) {
	t.Parallel()

	_, err := Source{GOOS: "linux"}.Current(context.Background())
	require.Error(t, err)

	boom := errors.New("boom")
	_, err = Source{
		GOOS:        "linux",
		Interpreter: "/usr/bin/python3",
		Release:     func(context.Context) (string, error) { return "", boom },
	}.Current(context.Background())
	require.ErrorIs(t, err, boom)
}
