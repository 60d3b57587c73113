package dispatch

import "fmt"

// ConfigurationError reports invalid or incomplete run input detected before
// any remote operation.
type ConfigurationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error formats configuration failures for logs and UI.
func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LaunchError reports a failed provisioning step. Launch never retries; the
// run is abandoned and whatever was created remotely stays for inspection.
type LaunchError struct {
	Step    string `json:"step"`
	WorkDir string `json:"workDir,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error formats launch failures for logs and UI.
func (e *LaunchError) Error() string {
	if e == nil {
		return ""
	}
	if e.WorkDir == "" {
		return fmt.Sprintf("launch %s: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("launch %s: %s (work dir %s)", e.Step, e.Message, e.WorkDir)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *LaunchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RetrievalExhaustedError reports that every retrieval attempt failed. The
// remote work directory is left intact so results can still be fetched by
// hand or with a later fetch run.
type RetrievalExhaustedError struct {
	WorkDir  string `json:"workDir"`
	Attempts int    `json:"attempts"`
	Err      error  `json:"-"`
}

// Error formats retrieval exhaustion for logs and UI.
func (e *RetrievalExhaustedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("retrieval failed after %d attempts, work dir %s kept: %v", e.Attempts, e.WorkDir, e.Err)
}

// Unwrap exposes the last attempt's error for errors.Is / errors.As.
func (e *RetrievalExhaustedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
