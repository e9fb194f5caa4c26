package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCreateAndResolve(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "did.jsonl")

	var stdout, stderr bytes.Buffer
	code := Run([]string{"webvhctl", "create", "-domain", "example.com", "-out", logPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), "created did:webvh:")
	require.FileExists(t, logPath)

	stdout.Reset()
	code = Run([]string{"webvhctl", "resolve", "-log", logPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var resolved struct {
		DID  string `json:"DID"`
		Meta struct {
			VersionID string `json:"versionId"`
		} `json:"Meta"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resolved))
	require.Contains(t, resolved.DID, "did:webvh:")
	require.Regexp(t, `^1-`, resolved.Meta.VersionID)
}

func TestRunRejectsUnknownSubcommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"webvhctl", "bogus"}, &stdout, &stderr)
	require.Equal(t, 2, code)
	require.Contains(t, stderr.String(), "unknown subcommand")
}

func TestRunRequiresArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"webvhctl"}, &stdout, &stderr)
	require.Equal(t, 2, code)
}

func TestRunCreateRequiresDomain(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := Run([]string{"webvhctl", "create", "-out", filepath.Join(dir, "did.jsonl")}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "-domain is required")
}

func TestRunUpdateWithoutKeyIsRejected(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"webvhctl", "update", "-log", "did.jsonl"}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "does not persist signing keys")
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
