package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"remote-transcriber/internal/config"
	"remote-transcriber/internal/domain"
)

// connectionOptions holds the per-command overrides for persisted settings.
type connectionOptions struct {
	settingsPath   string
	host           string
	port           int
	identityFile   string
	remotePath     string
	serviceCommand string
	keepRemote     bool
}

// addConnectionFlags registers the shared settings override flags.
func addConnectionFlags(cmd *cobra.Command, opts *connectionOptions) {
	cmd.Flags().StringVar(&opts.settingsPath, "settings", "", "Settings file (default ~/.remote-transcriber/settings.json)")
	cmd.Flags().StringVar(&opts.host, "host", "", "Remote host, overrides saved settings")
	cmd.Flags().IntVar(&opts.port, "port", 0, "SSH port, overrides saved settings")
	cmd.Flags().StringVar(&opts.identityFile, "identity", "", "SSH identity file, overrides saved settings")
	cmd.Flags().StringVar(&opts.remotePath, "remote-path", "", "Remote base path for work directories, overrides saved settings")
	cmd.Flags().StringVar(&opts.serviceCommand, "service-command", "", "Worker service command, overrides saved settings")
	cmd.Flags().BoolVar(&opts.keepRemote, "keep-remote", false, "Keep the remote work directory after retrieval")
}

// resolveSettings loads persisted settings and applies flag overrides.
// A missing settings file yields defaults, so a fully flagged invocation
// works without prior setup.
func resolveSettings(opts *connectionOptions) (domain.Settings, error) {
	path := opts.settingsPath
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return domain.Settings{}, fmt.Errorf("resolve settings path: %w", err)
		}
		path = defaultPath
	}

	settings, err := config.NewJSONStore(path).Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	return applyOverrides(settings, opts), nil
}

// applyOverrides merges nonzero flag values over loaded settings.
func applyOverrides(settings domain.Settings, opts *connectionOptions) domain.Settings {
	if opts.host != "" {
		settings.Host = opts.host
	}
	if opts.port > 0 {
		settings.Port = opts.port
	}
	if opts.identityFile != "" {
		settings.IdentityFile = opts.identityFile
	}
	if opts.remotePath != "" {
		settings.RemotePath = opts.remotePath
	}
	if opts.serviceCommand != "" {
		settings.ServiceCommand = opts.serviceCommand
	}
	if opts.keepRemote {
		settings.KeepRemote = true
	}
	return settings
}

// requireEndpoint rejects runs before any subprocess is spawned when no host
// is configured; ssh would otherwise fail with an opaque usage error.
func requireEndpoint(settings domain.Settings) error {
	if strings.TrimSpace(settings.Host) == "" {
		return &exitError{
			code: exitLaunchFailed,
			err:  fmt.Errorf("no remote host configured; set one with --host or save it in the settings file"),
		}
	}
	return nil
}
