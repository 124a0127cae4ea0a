// internal/workers/azure/image-test/workspace.go
package imagetest

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	stderrors "cloud-image-tests/internal/common/errors"
	"cloud-image-tests/internal/common/logger"
)

// Workspace is the ephemeral resource bundle of one run: a scratch directory,
// a freshly generated key pair, the run name shared by the invoker and the
// report extractor, and the log output sub-path. It belongs to exactly one
// run and is deleted when that run ends, whatever the outcome.
type Workspace struct {
	Dir            string
	PrivateKeyPath string
	RunName        string
	LogPath        string
	SubscriptionID string
}

// Cleanup removes the workspace tree. Safe to call more than once.
func (w *Workspace) Cleanup() {
	if w.Dir != "" {
		_ = os.RemoveAll(w.Dir)
	}
}

// Provisioner creates run workspaces. Key pair generation is delegated to the
// configured external utility; there is no fallback key.
type Provisioner struct {
	config *Config
	logger logger.Logger

	// runCommand is swapped in tests to observe the keygen invocation.
	runCommand func(name string, arg ...string) ([]byte, error)
}

func NewProvisioner(config *Config, log logger.Logger) *Provisioner {
	return &Provisioner{
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "workspace"}),
		runCommand: func(name string, arg ...string) ([]byte, error) {
			return exec.Command(name, arg...).CombinedOutput()
		},
	}
}

// Provision allocates a uniquely named directory and a fresh key pair for one
// run. The directory name embeds the image definition name for debuggability
// and a random suffix so concurrent runs never collide.
func (p *Provisioner) Provision(imageDefinitionName string) (*Workspace, error) {
	suffix := uuid.NewString()[:8]
	dir := filepath.Join(p.config.WorkspaceBaseDir, fmt.Sprintf("%s-%s", imageDefinitionName, suffix))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, stderrors.NewWorkspaceProvisionFailedError(err)
	}

	ws := &Workspace{
		Dir:            dir,
		RunName:        time.Now().UTC().Format("January02-2006-1504"),
		LogPath:        filepath.Join(dir, "lisa_results"),
		SubscriptionID: p.config.SubscriptionID,
	}

	keyPath, err := p.generateKeyPair(dir)
	if err != nil {
		ws.Cleanup()
		return nil, err
	}
	ws.PrivateKeyPath = keyPath

	if err := os.MkdirAll(ws.LogPath, 0o755); err != nil {
		ws.Cleanup()
		return nil, stderrors.NewWorkspaceProvisionFailedError(err)
	}

	p.logger.Info("Workspace provisioned", map[string]interface{}{
		"dir":     ws.Dir,
		"runName": ws.RunName,
	})
	return ws, nil
}

// generateKeyPair invokes the external key generation utility with an empty
// passphrase and restricts the private key to owner read/write.
func (p *Provisioner) generateKeyPair(dir string) (string, error) {
	keyPath := filepath.Join(dir, p.config.KeyFileName)

	output, err := p.runCommand(p.config.KeygenBinary,
		"-t", p.config.KeyType,
		"-f", keyPath,
		"-N", "",
		"-q",
	)
	if err != nil {
		return "", stderrors.NewKeygenFailedError(fmt.Sprintf("%s: %v: %s", p.config.KeygenBinary, err, output))
	}

	if _, err := os.Stat(keyPath); err != nil {
		return "", stderrors.NewKeygenFailedError(fmt.Sprintf("key file %s was not created", keyPath))
	}

	if err := os.Chmod(keyPath, 0o600); err != nil {
		return "", stderrors.NewKeygenFailedError(fmt.Sprintf("chmod %s: %v", keyPath, err))
	}

	return keyPath, nil
}
