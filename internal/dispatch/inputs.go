package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InputPair is the audio recording and its speaker-map companion for one run.
type InputPair struct {
	WAVPath  string `json:"wavPath"`
	JSONPath string `json:"jsonPath"`
}

// WAVName returns the base name of the recording.
func (p InputPair) WAVName() string { return filepath.Base(p.WAVPath) }

// JSONName returns the base name of the speaker map.
func (p InputPair) JSONName() string { return filepath.Base(p.JSONPath) }

// FindInputPair locates exactly one .wav and one .json file in inputDir. Any
// other count means the directory is not a valid run input: the worker
// service processes a single pair per run.
func FindInputPair(inputDir string) (InputPair, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return InputPair{}, &ConfigurationError{
			Field:   "inputDir",
			Message: fmt.Sprintf("cannot read input directory: %s", inputDir),
			Err:     err,
		}
	}

	var wavFiles []string
	var jsonFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".wav":
			wavFiles = append(wavFiles, filepath.Join(inputDir, entry.Name()))
		case ".json":
			jsonFiles = append(jsonFiles, filepath.Join(inputDir, entry.Name()))
		}
	}

	if len(wavFiles) != 1 || len(jsonFiles) != 1 {
		return InputPair{}, &ConfigurationError{
			Field: "inputDir",
			Message: fmt.Sprintf(
				"expected exactly one WAV and one JSON file, found %d WAV and %d JSON",
				len(wavFiles), len(jsonFiles),
			),
		}
	}

	return InputPair{WAVPath: wavFiles[0], JSONPath: jsonFiles[0]}, nil
}
