package remote

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Well-known file names inside a remote work directory. These are part of
// the contract with the worker-side service and must not change.
const (
	StatusLogName        = "process.log"
	CompletionMarkerName = "COMPLETED"
	ResultBundleName     = "results.tar.gz"
	InputBundleGlob      = "input_*.tar.gz"
	ResultGlob           = "transcript_*"
)

// Command is one remote shell operation with a short label for logs.
type Command struct {
	Label string
	Line  string
}

// Probe is a cheap connectivity check that any healthy endpoint answers.
func Probe() Command {
	return Command{Label: "probe", Line: `echo "connection test"`}
}

// MakeWorkDir creates the work directory, parents included. Safe to repeat.
func MakeWorkDir(dir string) Command {
	return Command{Label: "mkdir", Line: fmt.Sprintf("mkdir -p %s", safeArg(dir))}
}

// ExtractBundle unpacks an uploaded input bundle inside the work directory.
func ExtractBundle(dir, archiveName string) Command {
	return Command{
		Label: "extract",
		Line:  fmt.Sprintf("cd %s && tar xzf %s", safeArg(dir), safeArg(archiveName)),
	}
}

// StartDetached launches the worker service in the background with output
// redirected to the status log, then echoes the process ID. Env assignments
// precede the command so secrets reach the service without appearing in any
// persisted file.
func StartDetached(dir, serviceCommand, wavName, jsonName string, env map[string]string) Command {
	var b strings.Builder
	fmt.Fprintf(&b, "cd %s && ", safeArg(dir))
	for _, key := range sortedKeys(env) {
		fmt.Fprintf(&b, "%s=%s ", key, singleQuote(env[key]))
	}
	fmt.Fprintf(&b, "nohup %s --wav %s --json %s --work_dir %s > %s 2>&1 & echo $!",
		serviceCommand, safeArg(wavName), safeArg(jsonName), safeArg(dir), StatusLogName)

	return Command{Label: "start", Line: b.String()}
}

// TailStatusLog reads the most recent line of the remote status log.
func TailStatusLog(dir string) Command {
	return Command{
		Label: "tail",
		Line:  fmt.Sprintf("tail -n 1 %s/%s", safeArg(dir), StatusLogName),
	}
}

// CheckCompletionMarker tests for the completion sentinel. Exit status 0
// means the marker exists; nonzero means not finished yet, never "failed".
func CheckCompletionMarker(dir string) Command {
	return Command{
		Label: "marker",
		Line:  fmt.Sprintf("test -f %s/%s", safeArg(dir), CompletionMarkerName),
	}
}

// BuildResultBundle archives result files in the work directory, excluding
// the original inputs and all control files, and verifies the bundle is
// non-empty. The short settle sleep lets trailing service writes land before
// tar scans the directory. The exclude set and transcript_* inclusion glob
// are contract with the worker service.
func BuildResultBundle(dir string, excludeNames []string) Command {
	var b strings.Builder
	fmt.Fprintf(&b, "cd %s && sleep 2 && tar czf %s ", safeArg(dir), ResultBundleName)
	for _, name := range excludeNames {
		fmt.Fprintf(&b, "--exclude=%s ", singleQuote(name))
	}
	fmt.Fprintf(&b, "--exclude=%s ", singleQuote(StatusLogName))
	fmt.Fprintf(&b, "--exclude=%s ", singleQuote(CompletionMarkerName))
	fmt.Fprintf(&b, "--exclude=%s ", singleQuote(InputBundleGlob))
	fmt.Fprintf(&b, "--exclude=%s ", singleQuote("*.log"))
	fmt.Fprintf(&b, "%s && test -s %s", ResultGlob, ResultBundleName)

	return Command{Label: "bundle", Line: b.String()}
}

// RemoveWorkDir deletes the remote work directory and everything under it.
func RemoveWorkDir(dir string) Command {
	return Command{Label: "cleanup", Line: fmt.Sprintf("rm -rf %s", safeArg(dir))}
}

var safeArgPattern = regexp.MustCompile(`^[A-Za-z0-9@%+=:,./_-]+$`)

// safeArg quotes a value for remote shell use unless it is plainly safe.
// Plain paths stay untouched so rendered commands match the documented
// contract byte for byte.
func safeArg(s string) string {
	if s != "" && safeArgPattern.MatchString(s) {
		return s
	}
	return singleQuote(s)
}

// singleQuote wraps a value in single quotes, escaping embedded quotes.
func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// sortedKeys returns map keys in stable order for deterministic commands.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
