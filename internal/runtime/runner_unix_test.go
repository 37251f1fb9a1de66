// SPDX-License-Identifier: MPL-2.0

//go:build unix

package runtime

import (
	"bytes"
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venvguard/venvguard/pkg/types"
)

func TestNativeRunner_KilledBySignal(t *testing.T) {
	var calls [][]string
	r := NewNativeRunner(
		WithStdout(&bytes.Buffer{}),
		WithStderr(&bytes.Buffer{}),
		WithExecCommand(helperCommandEnv(t, []string{"GO_HELPER_KILL_SELF=1"}, &calls)),
		WithLogger(quietLogger()),
	)

	result := r.Run(context.Background(), Invocation{Name: "pytest"})

	require.NoError(t, result.Error)
	assert.Equal(t, types.ExitCode(128+int(syscall.SIGKILL)), result.ExitCode)
	assert.ErrorIs(t, result.Err(), ErrNonZeroExit)
}

func TestNativeRunner_CanceledWhileRunning(t *testing.T) {
	var calls [][]string
	r := NewNativeRunner(
		WithStdout(&bytes.Buffer{}),
		WithStderr(&bytes.Buffer{}),
		WithExecCommand(helperCommandEnv(t, []string{"GO_HELPER_SLEEP=10s"}, &calls)),
		WithLogger(quietLogger()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	result := r.Run(ctx, Invocation{Name: "python", Args: []string{"app.py"}})

	require.NoError(t, result.Error, "an interrupted program ran and must not look like a start failure")
	assert.Equal(t, types.ExitCode(128+int(syscall.SIGKILL)), result.ExitCode)
}
