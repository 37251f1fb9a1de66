// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.
	restore := func(t *testing.T) {
		t.Helper()
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})
	}

	t.Run("ldflags version takes priority", func(t *testing.T) {
		restore(t)
		Version, Commit, BuildDate = "v1.2.3", "abc1234", "2026-03-01T10:00:00Z"

		assert.Equal(t, "v1.2.3 (commit: abc1234, built: 2026-03-01T10:00:00Z)", getVersionString())
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		restore(t)
		Version, Commit, BuildDate = "dev", "unknown", "unknown"

		// Test binaries report Main.Version == "(devel)".
		assert.Equal(t, "dev (built from source)", getVersionString())
	})
}

func TestRootCommandFlags(t *testing.T) {
	t.Parallel()

	root := newRootCommand(NewApp(Dependencies{}), &rootFlagValues{})
	for _, name := range []string{flagConfig, flagVerbose, flagEnvDir, flagManifest, flagInterpreter, flagStrict} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"bootstrap", "check", "fingerprint", "run", "watch", "config"}, names)

	envDir := root.PersistentFlags().Lookup(flagEnvDir)
	require.NotNil(t, envDir)
	assert.Equal(t, "venv", envDir.DefValue)
}
