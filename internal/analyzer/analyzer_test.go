package analyzer

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"
)

type stubRunner struct {
	stagePath string
	stageErr  error
	staged    []byte
	removed   []string

	stdout []byte
	stderr []byte
	exit   int32
	runErr error
	// runFn overrides the canned outputs above when set.
	runFn func(ctx context.Context) ([]byte, []byte, int32, error)

	ranName string
	ranArgs []string

	artifact bool
}

func (s *stubRunner) Stage(dir, pattern string, content []byte) (string, error) {
	if s.stageErr != nil {
		return "", s.stageErr
	}
	s.staged = content
	if s.stagePath == "" {
		s.stagePath = "/scratch/" + pattern
	}
	return s.stagePath, nil
}

func (s *stubRunner) Remove(path string) error {
	s.removed = append(s.removed, path)
	return nil
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	s.ranName = name
	s.ranArgs = args
	if s.runFn != nil {
		return s.runFn(ctx)
	}
	return s.stdout, s.stderr, s.exit, s.runErr
}

func (s *stubRunner) ArtifactExists(string) bool {
	return s.artifact
}

func TestModeArgs(t *testing.T) {
	cases := []struct {
		mode     Mode
		property string
		want     []string
	}{
		{ModeParse, "", []string{"-b", "parse"}},
		{ModeCompile, "", []string{"-b", "compile", "-p", "SYS"}},
		{ModeCompose, "", []string{"-b", "compose", "-p", "SYS"}},
		{ModeSafety, "", []string{"-c", "safety", "-p", "SYS"}},
		{ModeProgress, "", []string{"-c", "progress", "-p", "SYS"}},
		{ModeLTL, "NoEat", []string{"-c", "ltl_property", "-p", "SYS", "-l", "NoEat"}},
	}
	for _, tc := range cases {
		got, err := tc.mode.Args("SYS", tc.property)
		if err != nil {
			t.Fatalf("mode %s: %v", tc.mode, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("mode %s: got %v want %v", tc.mode, got, tc.want)
		}
	}

	if _, err := ModeLTL.Args("SYS", ""); !errors.Is(err, ErrPropertyRequired) {
		t.Fatalf("expected ErrPropertyRequired, got %v", err)
	}
	if _, err := Mode("simulate").Args("SYS", ""); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestRunStagesSpecAndDerivesCommand(t *testing.T) {
	runner := &stubRunner{
		stagePath: "/scratch/spec.lts",
		stdout:    []byte("Compiled: SYS\n"),
	}
	a := New(Config{JarPath: "/opt/ltsa.jar"}, runner)

	res, err := a.Run(context.Background(), ModeCompile, Request{
		Content: "SYS = (a -> SYS).",
		Process: "SYS",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Success || res.Output != "Compiled: SYS\n" || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.RunID == "" {
		t.Fatalf("expected a run id")
	}
	if string(runner.staged) != "SYS = (a -> SYS)." {
		t.Fatalf("unexpected staged content: %q", runner.staged)
	}
	if runner.ranName != "java" {
		t.Fatalf("unexpected runtime binary: %q", runner.ranName)
	}
	want := []string{"-jar", "/opt/ltsa.jar", "/scratch/spec.lts", "-b", "compile", "-p", "SYS"}
	if !reflect.DeepEqual(runner.ranArgs, want) {
		t.Fatalf("unexpected args: got %v want %v", runner.ranArgs, want)
	}
	if len(runner.removed) != 1 || runner.removed[0] != "/scratch/spec.lts" {
		t.Fatalf("scratch file not removed: %v", runner.removed)
	}
}

func TestRunDefaultsProcessName(t *testing.T) {
	runner := &stubRunner{}
	a := New(Config{JarPath: "ltsa.jar"}, runner)

	if _, err := a.Run(context.Background(), ModeSafety, Request{Content: "P = STOP."}); err != nil {
		t.Fatalf("run: %v", err)
	}
	joined := strings.Join(runner.ranArgs, " ")
	if !strings.Contains(joined, "-p "+DefaultProcess) {
		t.Fatalf("expected default process in args: %v", runner.ranArgs)
	}
}

func TestRunAnalyzerFailureIsNotAnError(t *testing.T) {
	runner := &stubRunner{
		stderr: []byte("ERROR - property SAFE violated\n"),
		exit:   1,
		runErr: errors.New("exit status 1"),
	}
	a := New(Config{JarPath: "ltsa.jar"}, runner)

	res, err := a.Run(context.Background(), ModeSafety, Request{Content: "P = STOP."})
	if err != nil {
		t.Fatalf("analyzer failure must not surface as error: %v", err)
	}
	if res.Success || res.ExitCode != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Diagnostic, "violated") {
		t.Fatalf("expected stderr relayed as diagnostic: %q", res.Diagnostic)
	}
	if len(runner.removed) != 1 {
		t.Fatalf("scratch file not removed on analyzer failure")
	}
}

func TestRunTimeoutIsDistinct(t *testing.T) {
	runner := &stubRunner{
		runFn: func(ctx context.Context) ([]byte, []byte, int32, error) {
			<-ctx.Done()
			return nil, nil, 1, ctx.Err()
		},
	}
	a := New(Config{JarPath: "ltsa.jar", RunTimeout: 25 * time.Millisecond}, runner)

	_, err := a.Run(context.Background(), ModeParse, Request{Content: "P = STOP."})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if errors.Is(err, ErrRuntimeUnavailable) {
		t.Fatalf("timeout conflated with runtime failure")
	}
	if len(runner.removed) != 1 {
		t.Fatalf("scratch file not removed on timeout")
	}
}

func TestRunRuntimeMissing(t *testing.T) {
	cases := []struct {
		name   string
		exit   int32
		runErr error
	}{
		{"local exec error", 127, &exec.Error{Name: "java", Err: exec.ErrNotFound}},
		{"remote exit 127", 127, errors.New("Process exited with status 127")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &stubRunner{exit: tc.exit, runErr: tc.runErr}
			a := New(Config{JarPath: "ltsa.jar"}, runner)

			_, err := a.Run(context.Background(), ModeParse, Request{Content: "P = STOP."})
			if !errors.Is(err, ErrRuntimeUnavailable) {
				t.Fatalf("expected ErrRuntimeUnavailable, got %v", err)
			}
			if len(runner.removed) != 1 {
				t.Fatalf("scratch file not removed on runtime failure")
			}
		})
	}
}

func TestRunRejectsInvalidRequests(t *testing.T) {
	runner := &stubRunner{}
	a := New(Config{JarPath: "ltsa.jar"}, runner)

	if _, err := a.Run(context.Background(), ModeParse, Request{Content: "   "}); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if _, err := a.Run(context.Background(), ModeLTL, Request{Content: "P = STOP."}); !errors.Is(err, ErrPropertyRequired) {
		t.Fatalf("expected ErrPropertyRequired, got %v", err)
	}
	if runner.ranName != "" {
		t.Fatalf("invalid request must not reach the runner")
	}
	if len(runner.removed) != 0 {
		t.Fatalf("nothing staged, nothing to remove: %v", runner.removed)
	}
}

func TestRunStageFailureSkipsCleanup(t *testing.T) {
	runner := &stubRunner{stageErr: errors.New("disk full")}
	a := New(Config{JarPath: "ltsa.jar"}, runner)

	if _, err := a.Run(context.Background(), ModeParse, Request{Content: "P = STOP."}); err == nil {
		t.Fatalf("expected staging error")
	}
	if len(runner.removed) != 0 {
		t.Fatalf("remove called for a file that was never staged")
	}
}

func TestProbeBooleansAreIndependent(t *testing.T) {
	cases := []struct {
		name        string
		artifact    bool
		runErr      error
		exit        int32
		wantRuntime bool
	}{
		{"both available", true, nil, 0, true},
		{"jar missing only", false, nil, 0, true},
		{"runtime missing only", true, &exec.Error{Name: "java", Err: exec.ErrNotFound}, 127, false},
		{"nonzero version exit still invocable", true, errors.New("exit status 1"), 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &stubRunner{artifact: tc.artifact, runErr: tc.runErr, exit: tc.exit}
			a := New(Config{JarPath: "ltsa.jar"}, runner)

			h := a.Probe(context.Background())
			if h.ArtifactExists != tc.artifact {
				t.Fatalf("artifact: got %v want %v", h.ArtifactExists, tc.artifact)
			}
			if h.RuntimeAvailable != tc.wantRuntime {
				t.Fatalf("runtime: got %v want %v", h.RuntimeAvailable, tc.wantRuntime)
			}
			if h.Healthy() != (tc.artifact && tc.wantRuntime) {
				t.Fatalf("aggregate must follow both booleans: %+v", h)
			}
		})
	}
}
