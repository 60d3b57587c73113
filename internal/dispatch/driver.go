package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"remote-transcriber/internal/remote"
	"remote-transcriber/internal/retry"
)

// DriverConfig fixes run knobs and event callbacks for a driver. Zero values
// fall back to the worker contract defaults, except InitialDelay where zero
// means no settle wait.
type DriverConfig struct {
	PollInterval time.Duration
	Policy       retry.Policy
	InitialDelay time.Duration
	KeepRemote   bool
	OnStage      func(stage string)
	OnStatus     func(line string)
	OnAttempt    func(attempt, maxAttempts int)
}

// RunRequest is the immutable input set for one end-to-end run.
type RunRequest struct {
	InputDir       string
	RemotePath     string
	ServiceCommand string
	Env            map[string]string
}

// OutcomeKind tags the terminal state of a run.
type OutcomeKind string

const (
	// OutcomeSuccess means artifacts were retrieved and verified.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeLaunchFailed covers configuration, connectivity, and
	// provisioning failures before the wait phase.
	OutcomeLaunchFailed OutcomeKind = "launch_failed"
	// OutcomeCancelled means the context ended during the wait or retrieval
	// phase. The remote job keeps running.
	OutcomeCancelled OutcomeKind = "cancelled"
	// OutcomeRetrievalFailed means every retrieval attempt failed; the work
	// directory is kept for a later fetch.
	OutcomeRetrievalFailed OutcomeKind = "retrieval_failed"
)

// Outcome reports how a run ended. WorkDir is set as soon as launch has
// created it, so an interrupted run can be re-attached later.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	WorkDir   string      `json:"workDir,omitempty"`
	Artifacts ArtifactSet `json:"artifacts"`
	Err       error       `json:"-"`
}

// Driver sequences connection probe, input discovery, launch, wait, and
// retrieval over one shared channel. Phases never retry each other; each
// failure maps to exactly one outcome.
type Driver struct {
	channel   remote.Channel
	launcher  *Launcher
	poller    *Poller
	retriever *Retriever
	onStage   func(stage string)
}

// NewDriver wires the phases over the given channel.
func NewDriver(channel remote.Channel, cfg DriverConfig) *Driver {
	policy := cfg.Policy
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetrievalPolicy
	}

	return &Driver{
		channel:   channel,
		launcher:  NewLauncher(channel, cfg.OnStage),
		poller:    NewPoller(channel, cfg.PollInterval, cfg.OnStatus),
		retriever: NewRetriever(channel, policy, cfg.InitialDelay, cfg.KeepRemote, cfg.OnStage, cfg.OnAttempt),
		onStage:   cfg.OnStage,
	}
}

// Run executes one full run and reports its outcome.
func (d *Driver) Run(ctx context.Context, req RunRequest) Outcome {
	if err := validateRunRequest(req); err != nil {
		return Outcome{Kind: OutcomeLaunchFailed, Err: err}
	}

	emitStage(d.onStage, "probing")
	res, err := d.channel.Run(ctx, remote.Probe())
	if err != nil {
		return Outcome{Kind: OutcomeLaunchFailed, Err: err}
	}
	if res.ExitCode != 0 {
		return Outcome{Kind: OutcomeLaunchFailed, Err: errors.New(remoteFailureMessage("connection probe failed", res))}
	}

	pair, err := FindInputPair(req.InputDir)
	if err != nil {
		return Outcome{Kind: OutcomeLaunchFailed, Err: err}
	}

	handle, err := d.launcher.Launch(ctx, LaunchRequest{
		RemotePath:     req.RemotePath,
		ServiceCommand: req.ServiceCommand,
		Pair:           pair,
		Env:            req.Env,
	})
	if err != nil {
		return Outcome{Kind: OutcomeLaunchFailed, Err: err}
	}

	emitStage(d.onStage, "processing")
	if outcome := d.poller.Await(ctx, handle.WorkDir); outcome == PollCancelled {
		return Outcome{Kind: OutcomeCancelled, WorkDir: handle.WorkDir}
	}

	emitStage(d.onStage, "retrieving")
	artifacts, err := d.retriever.Retrieve(ctx, handle, req.InputDir)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Outcome{Kind: OutcomeCancelled, WorkDir: handle.WorkDir, Err: err}
		}
		return Outcome{Kind: OutcomeRetrievalFailed, WorkDir: handle.WorkDir, Err: err}
	}

	return Outcome{Kind: OutcomeSuccess, WorkDir: handle.WorkDir, Artifacts: artifacts}
}

// validateRunRequest rejects incomplete run settings before any remote call.
func validateRunRequest(req RunRequest) error {
	if strings.TrimSpace(req.InputDir) == "" {
		return &ConfigurationError{Field: "inputDir", Message: "input directory is required"}
	}
	if strings.TrimSpace(req.RemotePath) == "" {
		return &ConfigurationError{Field: "remotePath", Message: "remote base path is required"}
	}
	if strings.TrimSpace(req.ServiceCommand) == "" {
		return &ConfigurationError{Field: "serviceCommand", Message: "service command is required"}
	}
	return nil
}

// NewDriverForTests constructs a driver from pre-built phases.
func NewDriverForTests(
	channel remote.Channel,
	launcher *Launcher,
	poller *Poller,
	retriever *Retriever,
	onStage func(stage string),
) *Driver {
	return &Driver{
		channel:   channel,
		launcher:  launcher,
		poller:    poller,
		retriever: retriever,
		onStage:   onStage,
	}
}
