// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	goruntime "runtime"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types/container"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"

	"github.com/venvguard/venvguard/internal/fingerprint"
	"github.com/venvguard/venvguard/internal/runtime"
	"github.com/venvguard/venvguard/pkg/platform"
	"github.com/venvguard/venvguard/pkg/types"
)

const (
	pythonImage       = "python:3.12-slim"
	containerPython   = "/usr/local/bin/python3"
	integrationBudget = 5 * time.Minute
)

// containerRunner executes invocations inside a running container. The
// project directory is bind-mounted at the same path, so host-side
// filesystem checks and in-container tools see the same files.
type containerRunner struct {
	ctr  testcontainers.Container
	user string
}

func (r containerRunner) Run(ctx context.Context, inv runtime.Invocation) *runtime.Result {
	opts := []tcexec.ProcessOption{tcexec.Multiplexed(), tcexec.WithUser(r.user)}
	if inv.Dir != "" {
		opts = append(opts, tcexec.WithWorkingDir(inv.Dir))
	}

	code, out, err := r.ctr.Exec(ctx, append([]string{inv.Name}, inv.Args...), opts...)
	if err != nil {
		return runtime.NewErrorResult(1, err)
	}
	data, _ := io.ReadAll(out)

	exit := types.ExitCode(code)
	if exit.Validate() != nil {
		exit = 1
	}
	res := runtime.NewExitCodeResult(exit)
	res.Output = string(data)
	return res
}

// checkTestcontainersAvailable reports whether a container provider can be
// reached. Provider detection panics on some hosts without a daemon.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return provider.Health(context.Background()) == nil
}

func TestBootstrap_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if goruntime.GOOS != "linux" {
		t.Skip("bind-mounting the project directory at the same path requires a Linux host")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping integration test: container provider not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), integrationBudget)
	defer cancel()

	project := t.TempDir()
	ctr, err := testcontainers.Run(ctx, pythonImage,
		testcontainers.WithCmd("sleep", "infinity"),
		testcontainers.WithHostConfigModifier(func(hc *container.HostConfig) {
			hc.Binds = append(hc.Binds, project+":"+project)
		}),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(project, "requirements.txt"), nil, 0o644))

	opts := Options{
		EnvDir:          filepath.Join(project, "venv"),
		FingerprintFile: "system_info.txt",
		Manifest:        filepath.Join(project, "requirements.txt"),
		Interpreter:     containerPython,
		Installers:      platform.DefaultInstallerPaths(),
		InstallerArgs:   []string{"--no-cache-dir", "--disable-pip-version-check"},
		VerifyModules:   []string{"json", "serial"},
		Strict:          true,
	}
	runner := containerRunner{ctr: ctr, user: fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())}

	newBootstrapper := func() *Bootstrapper {
		b, err := New(opts,
			WithFs(afero.NewOsFs()),
			WithRunner(runner),
			WithStrategy(platform.StrategyFor(platform.PlatformLinux)),
			WithLogger(log.New(io.Discard)),
		)
		require.NoError(t, err)
		return b
	}

	first, err := newBootstrapper().Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, first.Compatible)
	assert.Equal(t, []string{"serial"}, first.Missing)
	assert.Equal(t, 2, first.Installs)

	stored, found, err := fingerprint.NewStore(afero.NewOsFs(), filepath.Join(opts.EnvDir, opts.FingerprintFile)).Read()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.Fingerprint, stored)

	second, err := newBootstrapper().Bootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, second.Compatible)
	assert.Equal(t, []State{StateStart, StateCompatible, StateInstalled, StateReinstalled, StateDone}, second.States)
}
