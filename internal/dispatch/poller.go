package dispatch

import (
	"context"
	"strings"
	"time"

	"remote-transcriber/internal/remote"
	"remote-transcriber/internal/retry"
)

// DefaultPollInterval is the pause between completion probes.
const DefaultPollInterval = 5 * time.Second

// PollOutcome reports how a wait ended.
type PollOutcome string

const (
	// PollCompleted means the completion marker appeared.
	PollCompleted PollOutcome = "completed"
	// PollCancelled means the context ended first. The remote job keeps
	// running and its work directory can be re-attached later.
	PollCancelled PollOutcome = "cancelled"
)

// Poller watches a work directory until the completion marker appears. The
// wait is unbounded: the worker gives no distinct failure signal, so a marker
// that never appears is indistinguishable from a slow job and only
// cancellation ends the wait.
type Poller struct {
	channel  remote.Channel
	interval time.Duration
	onStatus func(line string)
}

// NewPoller constructs a poller probing at the given interval.
func NewPoller(channel remote.Channel, interval time.Duration, onStatus func(line string)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{channel: channel, interval: interval, onStatus: onStatus}
}

// Await polls until the marker appears or ctx ends. Each cycle tails the
// status log best-effort, then probes the marker; channel failures during a
// cycle count as "not finished yet". Cancellation is an outcome, not an
// error, and stops the loop within one interval with no further remote calls.
func (p *Poller) Await(ctx context.Context, workDir string) PollOutcome {
	for {
		if ctx.Err() != nil {
			return PollCancelled
		}

		if res, err := p.channel.Run(ctx, remote.TailStatusLog(workDir)); err == nil && res.ExitCode == 0 {
			if line := strings.TrimSpace(res.Stdout); line != "" {
				p.emitStatus(line)
			}
		}

		res, err := p.channel.Run(ctx, remote.CheckCompletionMarker(workDir))
		if err == nil && res.ExitCode == 0 {
			return PollCompleted
		}
		if ctx.Err() != nil {
			return PollCancelled
		}

		if err := retry.Wait(ctx, p.interval); err != nil {
			return PollCancelled
		}
	}
}

// emitStatus forwards status-log lines when callback is configured.
func (p *Poller) emitStatus(line string) {
	if p.onStatus != nil {
		p.onStatus(line)
	}
}
