package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// sshConnectivityExit is the status ssh itself reports when the connection
// or authentication fails, as opposed to the remote command's own status.
const sshConnectivityExit = 255

// Endpoint identifies the SSH-reachable worker for one run. Host may carry a
// user prefix. Immutable once the run starts.
type Endpoint struct {
	Host         string
	Port         int
	IdentityFile string
}

// Addr renders the endpoint for messages and logs.
func (e Endpoint) Addr() string {
	return e.Host + ":" + strconv.Itoa(e.Port)
}

// ConnectivityError reports that the endpoint could not be reached or
// authenticated against. It aborts the run; retrying without operator
// intervention is pointless.
type ConnectivityError struct {
	Endpoint string
	Op       string
	Stderr   string
	Err      error
}

// Error formats the failure with the transport detail that matters.
func (e *ConnectivityError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: cannot reach %s", e.Op, e.Endpoint)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + firstLine(s)
	}
	return msg
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ConnectivityError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CommandLog captures one local process invocation made by the channel.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// Result is the outcome of one remote command. A nonzero ExitCode with a nil
// error is a remote-side status for the caller to interpret, not a channel
// failure.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Channel executes shell commands and bulk transfers against one endpoint.
// No operation retries internally; retry policy lives in the callers.
type Channel interface {
	Run(ctx context.Context, cmd Command) (Result, error)
	Upload(ctx context.Context, localPath, remotePath string) error
	Download(ctx context.Context, remotePath, localPath string) error
}

// ExecChannel talks to the endpoint through the local ssh, rsync, and scp
// binaries. Transfers prefer rsync and fall back to scp when rsync is not
// installed locally.
type ExecChannel struct {
	endpoint Endpoint
	runner   commandRunner
	onLog    func(log CommandLog)
}

// NewExecChannel builds a channel for the endpoint. onLog receives every
// local invocation the channel makes and may be nil.
func NewExecChannel(endpoint Endpoint, onLog func(log CommandLog)) *ExecChannel {
	return &ExecChannel{
		endpoint: endpoint,
		runner:   &execRunner{},
		onLog:    onLog,
	}
}

// Run executes one remote command over ssh. A remote nonzero exit is
// returned in Result with a nil error; ssh transport failures come back as
// *ConnectivityError.
func (c *ExecChannel) Run(ctx context.Context, cmd Command) (Result, error) {
	args := c.sshArgs()
	args = append(args, c.endpoint.Host, cmd.Line)

	res, runErr := c.runner.Run(ctx, "ssh", args...)
	c.emitLog("ssh", args, res)

	out := Result{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}
	if runErr == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	if res.ExitCode > 0 && res.ExitCode != sshConnectivityExit {
		// The remote command itself exited nonzero; the caller interprets.
		return out, nil
	}

	return out, &ConnectivityError{
		Endpoint: c.endpoint.Addr(),
		Op:       "ssh " + cmd.Label,
		Stderr:   res.Stderr,
		Err:      runErr,
	}
}

// Upload copies a local file into the remote path.
func (c *ExecChannel) Upload(ctx context.Context, localPath, remotePath string) error {
	return c.transfer(ctx, localPath, c.endpoint.Host+":"+remotePath)
}

// Download copies a remote file to the local path.
func (c *ExecChannel) Download(ctx context.Context, remotePath, localPath string) error {
	return c.transfer(ctx, c.endpoint.Host+":"+remotePath, localPath)
}

// transfer runs one rsync copy between source and destination, either of
// which may be remote-qualified, with an scp fallback when rsync is missing.
func (c *ExecChannel) transfer(ctx context.Context, source, destination string) error {
	args := []string{"-avz", "--progress", "-e", c.remoteShell(), source, destination}

	res, runErr := c.runner.Run(ctx, "rsync", args...)
	c.emitLog("rsync", args, res)
	if runErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(runErr, exec.ErrNotFound) {
		return c.transferSCP(ctx, source, destination)
	}

	return c.classifyTransferError("rsync", res, runErr)
}

// transferSCP is the plain single-file copy fallback.
func (c *ExecChannel) transferSCP(ctx context.Context, source, destination string) error {
	args := []string{"-P", strconv.Itoa(c.endpoint.Port)}
	if c.endpoint.IdentityFile != "" {
		args = append(args, "-i", c.endpoint.IdentityFile)
	}
	args = append(args, "-o", "BatchMode=yes", source, destination)

	res, runErr := c.runner.Run(ctx, "scp", args...)
	c.emitLog("scp", args, res)
	if runErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	return c.classifyTransferError("scp", res, runErr)
}

// classifyTransferError maps transfer failures onto the channel taxonomy:
// ssh-level failures become ConnectivityError, everything else surfaces as a
// plain transfer error for the caller's retry policy.
func (c *ExecChannel) classifyTransferError(op string, res commandResult, runErr error) error {
	if res.ExitCode > 0 && res.ExitCode != sshConnectivityExit {
		return fmt.Errorf("%s exited %d: %s", op, res.ExitCode, firstLine(res.Stderr))
	}

	return &ConnectivityError{
		Endpoint: c.endpoint.Addr(),
		Op:       op,
		Stderr:   res.Stderr,
		Err:      runErr,
	}
}

// sshArgs builds the ssh option prefix shared by every remote command.
// BatchMode keeps a missing key from degrading into an interactive prompt
// that would hang a detached run forever.
func (c *ExecChannel) sshArgs() []string {
	args := []string{"-p", strconv.Itoa(c.endpoint.Port)}
	if c.endpoint.IdentityFile != "" {
		args = append(args, "-i", c.endpoint.IdentityFile)
	}
	return append(args, "-o", "BatchMode=yes")
}

// remoteShell renders the ssh command rsync uses as its transport.
func (c *ExecChannel) remoteShell() string {
	parts := append([]string{"ssh"}, c.sshArgs()...)
	return strings.Join(parts, " ")
}

// emitLog forwards invocation logs when a callback is configured.
func (c *ExecChannel) emitLog(command string, args []string, res commandResult) {
	if c.onLog == nil {
		return
	}
	c.onLog(CommandLog{
		Command:  command,
		Args:     append([]string(nil), args...),
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	})
}

// firstLine trims output to its first line for compact error text.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// NewExecChannelForTests constructs a channel with an injectable runner.
func NewExecChannelForTests(endpoint Endpoint, runner commandRunner, onLog func(log CommandLog)) *ExecChannel {
	return &ExecChannel{
		endpoint: endpoint,
		runner:   runner,
		onLog:    onLog,
	}
}
