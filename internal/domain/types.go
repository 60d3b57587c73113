package domain

// JobStatus tracks each phase of a single remote transcription run.
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusLaunching  JobStatus = "launching"
	JobStatusProcessing JobStatus = "processing"
	JobStatusRetrieving JobStatus = "retrieving"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Settings contains the remote endpoint and run options for one invocation.
// Host may carry a user prefix ("root@gpu-box.example"). PassEnv lists
// environment variable names whose local values are forwarded into the remote
// start command; the values themselves are never persisted.
type Settings struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	RemotePath     string   `json:"remotePath"`
	ServiceCommand string   `json:"serviceCommand"`
	IdentityFile   string   `json:"identityFile,omitempty"`
	KeepRemote     bool     `json:"keepRemote"`
	PassEnv        []string `json:"passEnv,omitempty"`
}

// Job stores the current run identity and lifecycle status. WorkDir is set
// once launch has created the remote directory, ArtifactDir once retrieval
// has unpacked results locally.
type Job struct {
	ID          string    `json:"id"`
	Status      JobStatus `json:"status"`
	WorkDir     string    `json:"workDir,omitempty"`
	ArtifactDir string    `json:"artifactDir,omitempty"`
}
