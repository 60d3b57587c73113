package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"remote-transcriber/internal/archive"
	"remote-transcriber/internal/domain"
	"remote-transcriber/internal/remote"
	"remote-transcriber/internal/retry"
)

// TranscriptsDirName is the folder under the input directory where retrieved
// artifacts land.
const TranscriptsDirName = "transcripts"

// DefaultInitialDelay is the settle pause before the first retrieval attempt,
// giving the worker's final file writes time to land.
const DefaultInitialDelay = 5 * time.Second

// DefaultRetrievalPolicy bounds retrieval to three attempts with a two
// second linear backoff unit.
var DefaultRetrievalPolicy = retry.Policy{MaxAttempts: 3, Unit: 2 * time.Second}

// ArtifactSet lists the transcript files one run produced locally.
type ArtifactSet struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// Retriever downloads and verifies result bundles with bounded retries.
// Every failure inside an attempt is absorbed until the policy is exhausted;
// the remote work directory is removed only after a verified success, and
// only when retention is off.
type Retriever struct {
	channel      remote.Channel
	policy       retry.Policy
	initialDelay time.Duration
	keepRemote   bool
	onStage      func(stage string)
	onAttempt    func(attempt, maxAttempts int)
	wait         func(ctx context.Context, d time.Duration) error
	mkdirAll     func(path string, perm os.FileMode) error
	unpack       func(archivePath, destDir string) ([]string, error)
	remove       func(path string) error
}

// NewRetriever constructs a retriever with the shared retry policy. A zero
// initialDelay skips the settle wait.
func NewRetriever(
	channel remote.Channel,
	policy retry.Policy,
	initialDelay time.Duration,
	keepRemote bool,
	onStage func(stage string),
	onAttempt func(attempt, maxAttempts int),
) *Retriever {
	return &Retriever{
		channel:      channel,
		policy:       policy,
		initialDelay: initialDelay,
		keepRemote:   keepRemote,
		onStage:      onStage,
		onAttempt:    onAttempt,
		wait:         retry.Wait,
		mkdirAll:     os.MkdirAll,
		unpack:       archive.Unpack,
		remove:       os.Remove,
	}
}

// Retrieve builds the result bundle remotely, downloads it, unpacks it into
// <inputDir>/transcripts, and verifies every output category is present.
func (r *Retriever) Retrieve(ctx context.Context, handle Handle, inputDir string) (ArtifactSet, error) {
	destDir := filepath.Join(inputDir, TranscriptsDirName)
	if err := r.mkdirAll(destDir, 0o755); err != nil {
		return ArtifactSet{}, &ConfigurationError{
			Field:   "inputDir",
			Message: fmt.Sprintf("cannot create transcripts directory: %s", destDir),
			Err:     err,
		}
	}

	if err := r.wait(ctx, r.initialDelay); err != nil {
		return ArtifactSet{}, err
	}

	maxAttempts := r.policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := r.wait(ctx, r.policy.Delay(attempt)); err != nil {
			return ArtifactSet{}, err
		}
		r.emitAttempt(attempt, maxAttempts)

		artifacts, err := r.attempt(ctx, handle, destDir)
		if err == nil {
			r.cleanupRemote(ctx, handle.WorkDir)
			return artifacts, nil
		}
		if ctx.Err() != nil {
			return ArtifactSet{}, ctx.Err()
		}
		lastErr = err
	}

	return ArtifactSet{}, &RetrievalExhaustedError{
		WorkDir:  handle.WorkDir,
		Attempts: maxAttempts,
		Err:      lastErr,
	}
}

// attempt performs one full bundle, download, unpack, verify cycle.
func (r *Retriever) attempt(ctx context.Context, handle Handle, destDir string) (ArtifactSet, error) {
	emitStage(r.onStage, "bundling")
	bundle := remote.BuildResultBundle(handle.WorkDir, []string{handle.WAVName, handle.JSONName})
	res, err := r.channel.Run(ctx, bundle)
	if err != nil {
		return ArtifactSet{}, err
	}
	if res.ExitCode != 0 {
		return ArtifactSet{}, errors.New(remoteFailureMessage("remote bundle build failed", res))
	}

	emitStage(r.onStage, "downloading")
	localBundle := filepath.Join(destDir, remote.ResultBundleName)
	remoteBundle := handle.WorkDir + "/" + remote.ResultBundleName
	if err := r.channel.Download(ctx, remoteBundle, localBundle); err != nil {
		return ArtifactSet{}, err
	}

	emitStage(r.onStage, "unpacking")
	extracted, err := r.unpack(localBundle, destDir)
	if err != nil {
		return ArtifactSet{}, err
	}
	_ = r.remove(localBundle)

	emitStage(r.onStage, "verifying")
	if missing := missingCategories(extracted); len(missing) > 0 {
		return ArtifactSet{}, fmt.Errorf("result bundle is missing %s artifacts", strings.Join(missing, ", "))
	}

	return ArtifactSet{Dir: destDir, Files: extracted}, nil
}

// cleanupRemote removes the remote work directory unless retention is on.
// Failures are tolerated: results are already local.
func (r *Retriever) cleanupRemote(ctx context.Context, workDir string) {
	if r.keepRemote {
		return
	}
	emitStage(r.onStage, "cleanup")
	_, _ = r.channel.Run(ctx, remote.RemoveWorkDir(workDir))
}

// emitAttempt forwards attempt numbers when callback is configured.
func (r *Retriever) emitAttempt(attempt, maxAttempts int) {
	if r.onAttempt != nil {
		r.onAttempt(attempt, maxAttempts)
	}
}

// missingCategories reports which expected output categories have no file.
func missingCategories(files []string) []string {
	var missing []string
	for _, category := range domain.ResultCategories() {
		found := false
		for _, file := range files {
			if strings.Contains(filepath.Base(file), category.Marker) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, category.ID)
		}
	}
	return missing
}

// NewRetrieverForTests constructs a retriever with injectable dependencies.
func NewRetrieverForTests(
	channel remote.Channel,
	policy retry.Policy,
	initialDelay time.Duration,
	keepRemote bool,
	onStage func(stage string),
	onAttempt func(attempt, maxAttempts int),
	wait func(ctx context.Context, d time.Duration) error,
	mkdirAll func(path string, perm os.FileMode) error,
	unpack func(archivePath, destDir string) ([]string, error),
	remove func(path string) error,
) *Retriever {
	return &Retriever{
		channel:      channel,
		policy:       policy,
		initialDelay: initialDelay,
		keepRemote:   keepRemote,
		onStage:      onStage,
		onAttempt:    onAttempt,
		wait:         wait,
		mkdirAll:     mkdirAll,
		unpack:       unpack,
		remove:       remove,
	}
}
