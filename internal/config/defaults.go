package config

import (
	"remote-transcriber/internal/domain"
)

// DefaultServiceCommand starts the worker-side service script from the
// unpacked work directory.
const DefaultServiceCommand = "python3 gpu_service.py"

// DefaultSettings returns baseline configuration for first launch. Host is
// deliberately empty: the endpoint is rented per session and must be filled
// in before the first run.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		Host:           "",
		Port:           22,
		RemotePath:     "/workspace",
		ServiceCommand: DefaultServiceCommand,
		KeepRemote:     false,
		PassEnv:        []string{"HF_TOKEN"},
	}
}
