package dispatch

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// TestFindInputPairSingleMatch checks discovery ignores other entries.
func TestFindInputPairSingleMatch(t *testing.T) {
	inputDir := t.TempDir()
	wavPath := filepath.Join(inputDir, "meeting_recording.wav")
	jsonPath := filepath.Join(inputDir, "meeting_recording.json")
	mustWriteFile(t, wavPath, "wav")
	mustWriteFile(t, jsonPath, "{}")
	mustWriteFile(t, filepath.Join(inputDir, "notes.txt"), "ignore me")
	mustWriteFile(t, filepath.Join(inputDir, "transcripts", "old_transcript.txt"), "ignore me too")

	pair, err := FindInputPair(inputDir)
	if err != nil {
		t.Fatalf("FindInputPair: %v", err)
	}
	if pair.WAVPath != wavPath {
		t.Fatalf("WAVPath = %q, want %q", pair.WAVPath, wavPath)
	}
	if pair.JSONPath != jsonPath {
		t.Fatalf("JSONPath = %q, want %q", pair.JSONPath, jsonPath)
	}
	if pair.WAVName() != "meeting_recording.wav" {
		t.Fatalf("WAVName = %q", pair.WAVName())
	}
	if pair.JSONName() != "meeting_recording.json" {
		t.Fatalf("JSONName = %q", pair.JSONName())
	}
}

// TestFindInputPairRejectsMultipleWavs checks extra recordings are fatal.
func TestFindInputPairRejectsMultipleWavs(t *testing.T) {
	inputDir := t.TempDir()
	mustWriteFile(t, filepath.Join(inputDir, "a.wav"), "wav")
	mustWriteFile(t, filepath.Join(inputDir, "b.wav"), "wav")
	mustWriteFile(t, filepath.Join(inputDir, "a.json"), "{}")

	_, err := FindInputPair(inputDir)
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("error = %v, want *ConfigurationError", err)
	}
	if !strings.Contains(configErr.Message, "2 WAV") {
		t.Fatalf("message should report the WAV count, got %q", configErr.Message)
	}
}

// TestFindInputPairRejectsMissingCompanion checks a lone wav is fatal.
func TestFindInputPairRejectsMissingCompanion(t *testing.T) {
	inputDir := t.TempDir()
	mustWriteFile(t, filepath.Join(inputDir, "a.wav"), "wav")

	_, err := FindInputPair(inputDir)
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("error = %v, want *ConfigurationError", err)
	}
	if !strings.Contains(configErr.Message, "0 JSON") {
		t.Fatalf("message should report the JSON count, got %q", configErr.Message)
	}
}

// TestFindInputPairMissingDirectory checks unreadable dirs surface as config errors.
func TestFindInputPairMissingDirectory(t *testing.T) {
	_, err := FindInputPair(filepath.Join(t.TempDir(), "absent"))
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("error = %v, want *ConfigurationError", err)
	}
	if configErr.Unwrap() == nil {
		t.Fatal("expected wrapped filesystem error")
	}
}
