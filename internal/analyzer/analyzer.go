// Package analyzer invokes the external LTSA command-line tool.
//
// Ownership boundary:
// - flag derivation per analysis mode
// - scratch-file lifecycle for staged specs
// - bounded subprocess invocation and output capture
// - health probing of the runtime and the analyzer artifact
//
// The analyzer holds no model-checking logic; the external tool is opaque.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrTimeout            = errors.New("analyzer: run timed out")
	ErrRuntimeUnavailable = errors.New("analyzer: runtime unavailable")
)

// Config locates the analyzer and bounds its invocations.
type Config struct {
	// JarPath is the analyzer artifact passed to `java -jar`.
	JarPath string
	// JavaBin is the runtime binary, `java` unless overridden.
	JavaBin string
	// WorkDir holds staged spec files; empty means the OS temp dir.
	WorkDir string
	// RunTimeout bounds one analyzer invocation.
	RunTimeout time.Duration
	// ProbeTimeout bounds the health probe's runtime check.
	ProbeTimeout time.Duration
}

// Request carries one self-contained analysis payload.
type Request struct {
	Content  string
	Process  string
	Property string
}

// Result relays what the analyzer reported. Success tracks exit status only;
// Output is stdout, Diagnostic is stderr.
type Result struct {
	RunID      string
	Success    bool
	Output     string
	Diagnostic string
	ExitCode   int32
	Duration   time.Duration
}

// Health reports the probe's two independent checks.
type Health struct {
	RuntimeAvailable bool
	ArtifactExists   bool
	JarPath          string
}

// Healthy reports whether both probe checks passed.
func (h Health) Healthy() bool {
	return h.RuntimeAvailable && h.ArtifactExists
}

// Analyzer runs the external tool through a Runner seam.
type Analyzer struct {
	cfg    Config
	runner Runner
}

func New(cfg Config, runner Runner) *Analyzer {
	if cfg.JavaBin == "" {
		cfg.JavaBin = "java"
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if runner == nil {
		runner = LocalRunner{}
	}
	return &Analyzer{cfg: cfg, runner: runner}
}

// Run stages req.Content in a fresh scratch file, invokes the analyzer with
// mode-derived flags, and relays stdout/stderr/exit status. The scratch file
// is removed on every exit path. A nonzero analyzer exit is not an error to
// the caller; it is a Result with Success=false. Errors are reserved for
// invalid requests, timeouts, and an unavailable runtime.
func (a *Analyzer) Run(ctx context.Context, mode Mode, req Request) (Result, error) {
	if strings.TrimSpace(req.Content) == "" {
		return Result{}, ErrEmptyContent
	}
	process := strings.TrimSpace(req.Process)
	if process == "" {
		process = DefaultProcess
	}
	flags, err := mode.Args(process, strings.TrimSpace(req.Property))
	if err != nil {
		return Result{}, err
	}

	runID := uuid.NewString()
	specPath, err := a.runner.Stage(a.cfg.WorkDir, "spec-"+runID+"-*.lts", []byte(req.Content))
	if err != nil {
		return Result{RunID: runID}, fmt.Errorf("stage spec: %w", err)
	}
	defer func() {
		if err := a.runner.Remove(specPath); err != nil {
			log.Warn().Str("run_id", runID).Str("path", specPath).Err(err).Msg("spec_cleanup_failed")
		}
	}()

	args := append([]string{"-jar", a.cfg.JarPath, specPath}, flags...)
	log.Info().
		Str("run_id", runID).
		Str("mode", string(mode)).
		Str("process", process).
		Str("spec", specPath).
		Msg("analyzer_run")

	runCtx, cancel := context.WithTimeout(ctx, a.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, exit, runErr := a.runner.Run(runCtx, a.cfg.JavaBin, args...)
	result := Result{
		RunID:      runID,
		Success:    runErr == nil && exit == 0,
		Output:     string(stdout),
		Diagnostic: string(stderr),
		ExitCode:   exit,
		Duration:   time.Since(start),
	}

	if runErr != nil {
		if runCtx.Err() == context.DeadlineExceeded || errors.Is(runErr, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w after %s", ErrTimeout, a.cfg.RunTimeout)
		}
		if isRuntimeMissing(runErr, exit) {
			return result, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, runErr)
		}
		// Analyzer-reported failure: relay it, exit status decides success.
	}
	return result, nil
}

// Probe checks the runtime and the analyzer artifact independently, so
// operators can tell "tool missing" from "runtime missing".
func (a *Analyzer) Probe(ctx context.Context) Health {
	h := Health{JarPath: a.cfg.JarPath}
	h.ArtifactExists = a.runner.ArtifactExists(a.cfg.JarPath)

	probeCtx, cancel := context.WithTimeout(ctx, a.cfg.ProbeTimeout)
	defer cancel()

	// `java -version` only has to be invocable; its exit status is not the
	// point of the probe.
	_, _, exit, err := a.runner.Run(probeCtx, a.cfg.JavaBin, "-version")
	switch {
	case err == nil:
		h.RuntimeAvailable = true
	case probeCtx.Err() == context.DeadlineExceeded:
		h.RuntimeAvailable = false
	case isRuntimeMissing(err, exit):
		h.RuntimeAvailable = false
	default:
		h.RuntimeAvailable = true
	}
	return h
}

// isRuntimeMissing reports whether err means the runtime binary itself could
// not be started, locally (exec.Error) or remotely (shell exit 127).
func isRuntimeMissing(err error, exit int32) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return true
	}
	return exit == exitRuntimeMissing
}
