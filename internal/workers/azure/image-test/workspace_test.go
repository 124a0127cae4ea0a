// internal/workers/azure/image-test/workspace_test.go
package imagetest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	stderrors "cloud-image-tests/internal/common/errors"
	"cloud-image-tests/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type keygenCall struct {
	name string
	args []string
}

// createTestProvisioner returns a provisioner whose keygen invocation is
// replaced by a stub that records the call and creates the key file, the way
// the real utility would.
func createTestProvisioner(t *testing.T, config *Config) (*Provisioner, *[]keygenCall) {
	t.Helper()
	p := NewProvisioner(config, logger.NewTestLogger(t))

	var calls []keygenCall
	p.runCommand = func(name string, arg ...string) ([]byte, error) {
		calls = append(calls, keygenCall{name: name, args: arg})
		for i, a := range arg {
			if a == "-f" && i+1 < len(arg) {
				require.NoError(t, os.WriteFile(arg[i+1], []byte("key material"), 0o644))
			}
		}
		return nil, nil
	}
	return p, &calls
}

// ==========================
// Core Functionality Tests
// ==========================

func TestProvisioner_Provision_Success(t *testing.T) {
	config := createTestConfig()
	config.WorkspaceBaseDir = t.TempDir()
	provisioner, calls := createTestProvisioner(t, config)

	ws, err := provisioner.Provision("Fedora-Cloud-42-x64")
	require.NoError(t, err)
	defer ws.Cleanup()

	assert.Equal(t, config.WorkspaceBaseDir, filepath.Dir(ws.Dir))
	assert.True(t, strings.HasPrefix(filepath.Base(ws.Dir), "Fedora-Cloud-42-x64-"))
	assert.Equal(t, filepath.Join(ws.Dir, "lisa_results"), ws.LogPath)
	assert.DirExists(t, ws.LogPath)
	assert.Equal(t, config.SubscriptionID, ws.SubscriptionID)

	// Run name follows the month-day-year-time layout the test tool expects.
	_, err = time.Parse("January02-2006-1504", ws.RunName)
	assert.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, config.KeygenBinary, call.name)
	assert.Equal(t, []string{"-t", "rsa", "-f", filepath.Join(ws.Dir, "id_rsa"), "-N", "", "-q"}, call.args)

	info, err := os.Stat(ws.PrivateKeyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestProvisioner_Provision_DistinctWorkspaces(t *testing.T) {
	config := createTestConfig()
	config.WorkspaceBaseDir = t.TempDir()
	provisioner, _ := createTestProvisioner(t, config)

	first, err := provisioner.Provision("Fedora-Cloud-42-x64")
	require.NoError(t, err)
	defer first.Cleanup()

	second, err := provisioner.Provision("Fedora-Cloud-42-x64")
	require.NoError(t, err)
	defer second.Cleanup()

	assert.NotEqual(t, first.Dir, second.Dir)
	assert.NotEqual(t, first.PrivateKeyPath, second.PrivateKeyPath)

	// Releasing one run's workspace leaves the other intact.
	first.Cleanup()
	assert.NoDirExists(t, first.Dir)
	assert.FileExists(t, second.PrivateKeyPath)
}

// ==========================
// Error Handling Tests
// ==========================

func TestProvisioner_Provision_KeygenFailure(t *testing.T) {
	tests := []struct {
		name       string
		runCommand func(name string, arg ...string) ([]byte, error)
	}{
		{
			name: "keygen exits with an error",
			runCommand: func(name string, arg ...string) ([]byte, error) {
				return []byte("permission denied"), fmt.Errorf("exit status 1")
			},
		},
		{
			name: "keygen exits cleanly without writing the key",
			runCommand: func(name string, arg ...string) ([]byte, error) {
				return nil, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createTestConfig()
			config.WorkspaceBaseDir = t.TempDir()
			provisioner := NewProvisioner(config, logger.NewTestLogger(t))
			provisioner.runCommand = tt.runCommand

			ws, err := provisioner.Provision("Fedora-Cloud-42-x64")

			require.Error(t, err)
			assert.Nil(t, ws)

			stdErr, ok := err.(*stderrors.StandardError)
			require.True(t, ok)
			assert.Equal(t, stderrors.ErrCodeKeygenFailed, stdErr.Code)

			// No half-provisioned directory survives the failure.
			entries, readErr := os.ReadDir(config.WorkspaceBaseDir)
			require.NoError(t, readErr)
			assert.Empty(t, entries)
		})
	}
}

func TestProvisioner_Provision_BaseDirNotWritable(t *testing.T) {
	config := createTestConfig()
	config.WorkspaceBaseDir = filepath.Join(t.TempDir(), "missing", "\x00bad")
	provisioner, _ := createTestProvisioner(t, config)

	ws, err := provisioner.Provision("Fedora-Cloud-42-x64")

	require.Error(t, err)
	assert.Nil(t, ws)

	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeWorkspaceProvisionFailed, stdErr.Code)
}

func TestWorkspace_Cleanup_Idempotent(t *testing.T) {
	config := createTestConfig()
	config.WorkspaceBaseDir = t.TempDir()
	provisioner, _ := createTestProvisioner(t, config)

	ws, err := provisioner.Provision("Fedora-Cloud-42-x64")
	require.NoError(t, err)

	ws.Cleanup()
	assert.NoDirExists(t, ws.Dir)
	assert.NotPanics(t, ws.Cleanup)
}
