// internal/workers/azure/image-test/invoker.go
package imagetest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	stderrors "cloud-image-tests/internal/common/errors"
	"cloud-image-tests/internal/common/logger"
)

// Invoker launches the external test tool as a child process and reduces its
// exit status to success/failure. Output is streamed into the log line by
// line while the process runs so a multi-hour run stays observable.
type Invoker struct {
	config *Config
	logger logger.Logger
}

func NewInvoker(config *Config, log logger.Logger) *Invoker {
	return &Invoker{
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "invoker"}),
	}
}

// Invoke runs the test tool against imageRef inside the workspace. It
// validates its inputs before spawning anything; each missing field gets its
// own log message so failures are attributable. The context kills the child
// process on host shutdown.
func (i *Invoker) Invoke(ctx context.Context, region, imageRef string, ws *Workspace) bool {
	if region == "" {
		i.rejectInput("region", "Invalid region parameter: must be a non-empty string")
		return false
	}
	if imageRef == "" {
		i.rejectInput("community_gallery_image", "Invalid community gallery image parameter: must be a non-empty string")
		return false
	}
	if ws == nil {
		i.rejectInput("workspace", "Missing workspace for test invocation")
		return false
	}
	if ws.SubscriptionID == "" {
		i.rejectInput("subscription_id", "Missing required parameter: subscription id")
		return false
	}
	if ws.PrivateKeyPath == "" {
		i.rejectInput("admin_private_key_file", "Missing required parameter: private key file")
		return false
	}

	args := i.buildArgs(region, imageRef, ws)
	i.logger.Info("Starting LISA test", map[string]interface{}{
		"command": i.config.LisaBinary + " " + strings.Join(args, " "),
	})

	cmd := exec.CommandContext(ctx, i.config.LisaBinary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		i.logger.WithError(err).Error("Failed to open test tool output pipe", nil)
		return false
	}
	// Merge stderr into the stdout pipe so the stream is one ordered log.
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		i.logger.WithError(stderrors.NewInvocationStartFailedError(err)).Error("Test tool process failed to start", map[string]interface{}{
			"binary": i.config.LisaBinary,
		})
		return false
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			i.logger.Info("LISA OUTPUT: "+line, nil)
		}
	}
	if err := scanner.Err(); err != nil {
		// A line past the buffer cap stops the scan with data still in the
		// pipe. Keep draining or the child blocks on a full pipe and Wait
		// never returns.
		i.logger.WithError(err).Warn("Test tool output streaming stopped early, draining remainder", nil)
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			i.logger.WithError(stderrors.NewInvocationFailedError(exitErr.ExitCode())).Error("LISA test failed", map[string]interface{}{
				"returnCode": exitErr.ExitCode(),
			})
		} else {
			i.logger.WithError(err).Error("An error occurred while running the tests", nil)
		}
		return false
	}

	i.logger.Info("LISA test completed successfully", nil)
	return true
}

// rejectInput logs one pre-spawn validation failure. Each field keeps its own
// message so failures stay attributable in the run log.
func (i *Invoker) rejectInput(field, msg string) {
	i.logger.WithError(stderrors.NewInvocationInputInvalidError(field)).Error(msg, nil)
}

func (i *Invoker) buildArgs(region, imageRef string, ws *Workspace) []string {
	variables := []string{
		fmt.Sprintf("region:%s", region),
		fmt.Sprintf("community_gallery_image:%s", imageRef),
		fmt.Sprintf("subscription_id:%s", ws.SubscriptionID),
		fmt.Sprintf("admin_private_key_file:%s", ws.PrivateKeyPath),
	}

	args := []string{
		"-r", i.config.Runbook,
		"-v", fmt.Sprintf("tier:%d", i.config.Tier),
		"-v", fmt.Sprintf("test_case_name:%s", i.config.TestCaseName),
	}
	for _, v := range variables {
		args = append(args, "-v", v)
	}

	if ws.LogPath != "" {
		args = append(args, "-l", ws.LogPath)
	}
	if ws.RunName != "" {
		args = append(args, "-i", ws.RunName)
	}

	return args
}
