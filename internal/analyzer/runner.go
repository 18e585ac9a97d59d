package analyzer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// exit status reported when the command itself could not be started.
const exitRuntimeMissing = 127

// Runner is the execution seam between the analyzer and the host running it.
// Implementations stage spec content where the analyzer binary can read it
// and execute commands capturing stdout, stderr, and exit status.
type Runner interface {
	// Stage writes content to a fresh scratch file named after pattern
	// (os.CreateTemp semantics) under dir and returns its path.
	Stage(dir, pattern string, content []byte) (string, error)
	// Remove deletes a previously staged scratch file.
	Remove(path string) error
	// Run executes name with args, bounded by ctx.
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exit int32, err error)
	// ArtifactExists reports whether path names an existing regular file.
	ArtifactExists(path string) bool
}

// LocalRunner executes the analyzer on this host.
type LocalRunner struct{}

func (LocalRunner) Stage(dir, pattern string, content []byte) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (LocalRunner) Remove(path string) error {
	return os.Remove(path)
}

func (LocalRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitCode()), err
	}

	exitCode := int32(1)
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = exitRuntimeMissing
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

func (LocalRunner) ArtifactExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
