package config

import (
	"os"
	"strings"
)

// SecretEnv resolves the named environment variables from the local process
// environment. Names with empty or unset values are skipped, so an endpoint
// that needs no tokens works without any environment preparation. Values are
// handed to the launch step for injection into the remote command and are
// never written to the settings file.
func SecretEnv(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		key := strings.TrimSpace(name)
		if key == "" {
			continue
		}
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
