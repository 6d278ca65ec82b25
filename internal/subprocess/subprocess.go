// Package subprocess implements the Recipe Runner's Subprocess Adapter:
// argv-based process spawning with a deadline, concurrent stdout/stderr
// capture, and a graceful-then-forced process-group kill on timeout.
// The concurrency shape is adapted from the executor's goroutine +
// WaitGroup tool-execution pattern; the kill sequencing mirrors the
// signal-then-wait-then-force pattern used for locally spawned agent
// processes elsewhere in the corpus.
package subprocess

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/vinayprograms/agentkit/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("recipeflow")

// Reason classifies why a Result does not represent a clean, zero-exit
// completion.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSpawnFailed
	ReasonTimeout
	ReasonNonZeroExit
	ReasonKilled
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSpawnFailed:
		return "spawn_failed"
	case ReasonTimeout:
		return "timeout"
	case ReasonNonZeroExit:
		return "non_zero_exit"
	case ReasonKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// Spec describes one subprocess invocation.
type Spec struct {
	Argv       []string
	WorkingDir string
	Env        []string // additional KEY=VALUE entries appended to the child's inherited environment
	Timeout    time.Duration
	Grace      time.Duration // SIGTERM-to-SIGKILL grace period on timeout; defaults to 5s
	Advisory   bool          // spawn failures return success=false instead of an error
	Check      bool          // when true, a non-zero exit also populates Result.Err
	Stdin      []byte
}

// Result is the outcome of a Spawn call. Stdout/Stderr are always
// populated with whatever was captured before a timeout or exit: a
// timeout returns partial output, never a dropped buffer.
type Result struct {
	Success  bool
	ExitCode int
	Pid      int
	Stdout   string
	Stderr   string
	Reason   Reason
	Duration time.Duration
	Err      error
}

// TimeoutError is returned (as Result.Err) when a subprocess is killed
// for exceeding its deadline. It carries everything a caller needs to
// diagnose or report the timeout: the configured timeout, the actual
// elapsed duration, the argv that was run, the killed process's pid,
// and whatever stdout/stderr had already been captured.
type TimeoutError struct {
	Timeout  time.Duration
	Duration time.Duration
	Argv     []string
	Pid      int
	Stdout   string
	Stderr   string
	Killed   bool
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("subprocess %v timed out after %s (pid %d)", e.Argv, e.Timeout, e.Pid)
}

var log = logging.New().WithComponent("subprocess")

// Spawn runs spec.Argv to completion or until spec.Timeout elapses,
// whichever comes first. On timeout, the child's entire process group
// is signalled SIGTERM, given a grace period to exit, then SIGKILL'd;
// whatever output had already been captured is still returned.
func Spawn(ctx context.Context, spec Spec) Result {
	start := time.Now()
	correlationID := uuid.New().String()

	ctx, span := tracer.Start(ctx, "subprocess.spawn")
	span.SetAttributes(attribute.Int("argv.len", len(spec.Argv)), attribute.String("correlation_id", correlationID))
	defer span.End()

	if len(spec.Argv) == 0 {
		err := fmt.Errorf("empty argv")
		span.RecordError(err)
		return failSpawn(spec, err, start, correlationID)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.WorkingDir
	if len(spec.Env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.Env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	var mu sync.Mutex
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		span.RecordError(err)
		return failSpawn(spec, err, start, correlationID)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		span.RecordError(err)
		return failSpawn(spec, err, start, correlationID)
	}
	if len(spec.Stdin) > 0 {
		cmd.Stdin = bytes.NewReader(spec.Stdin)
	}

	if err := cmd.Start(); err != nil {
		span.RecordError(err)
		return failSpawn(spec, err, start, correlationID)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go drain(&wg, stdoutPipe, &stdout, &mu)
	go drain(&wg, stderrPipe, &stderr, &mu)

	waitDone := make(chan error, 1)
	go func() {
		wg.Wait()
		waitDone <- cmd.Wait()
	}()

	select {
	case err := <-waitDone:
		mu.Lock()
		out, errOut := stdout.String(), stderr.String()
		mu.Unlock()
		pid := 0
		if cmd.Process != nil {
			pid = cmd.Process.Pid
		}
		res := finish(cmd, err, out, errOut, start, spec.Check, correlationID, pid)
		if res.Err != nil {
			span.RecordError(res.Err)
		}
		return res
	case <-runCtx.Done():
		grace := spec.Grace
		if grace <= 0 {
			grace = 5 * time.Second
		}
		pid := 0
		if cmd.Process != nil {
			pid = cmd.Process.Pid
		}
		killProcessGroup(cmd, grace)
		<-waitDone // drains already in progress; ignore the final Wait error, it's a kill artifact
		mu.Lock()
		out, errOut := stdout.String(), stderr.String()
		mu.Unlock()
		timeoutErr := &TimeoutError{
			Timeout:  spec.Timeout,
			Duration: time.Since(start),
			Argv:     spec.Argv,
			Pid:      pid,
			Stdout:   out,
			Stderr:   errOut,
			Killed:   true,
		}
		span.RecordError(timeoutErr)
		log.Warn("subprocess timed out", map[string]interface{}{
			"argv":           spec.Argv,
			"pid":            pid,
			"correlation_id": correlationID,
		})
		return Result{
			Success:  false,
			ExitCode: -1,
			Pid:      pid,
			Stdout:   out,
			Stderr:   errOut,
			Reason:   ReasonTimeout,
			Duration: time.Since(start),
			Err:      timeoutErr,
		}
	}
}

func drain(wg *sync.WaitGroup, r io.Reader, buf *bytes.Buffer, mu *sync.Mutex) {
	defer wg.Done()
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			mu.Lock()
			buf.Write(chunk[:n])
			mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// killProcessGroup sends SIGTERM to the child's process group, sleeps
// for the full grace period (it does not return early if the group exits
// sooner), then sends SIGKILL unconditionally. The actual reap happens via the caller's waitDone
// channel; this function only escalates signals.
func killProcessGroup(cmd *exec.Cmd, grace time.Duration) {
	if cmd.Process == nil {
		return
	}
	pgid := cmd.Process.Pid
	_ = syscall.Kill(-pgid, syscall.SIGTERM)
	time.Sleep(grace)
	_ = syscall.Kill(-pgid, syscall.SIGKILL)
}

func finish(cmd *exec.Cmd, waitErr error, stdout, stderr string, start time.Time, check bool, correlationID string, pid int) Result {
	if waitErr == nil {
		return Result{
			Success:  true,
			ExitCode: 0,
			Pid:      pid,
			Stdout:   stdout,
			Stderr:   stderr,
			Reason:   ReasonNone,
			Duration: time.Since(start),
		}
	}
	exitErr, ok := waitErr.(*exec.ExitError)
	if !ok {
		log.Warn("subprocess wait failed outside of a normal exit", map[string]interface{}{
			"error":          waitErr.Error(),
			"correlation_id": correlationID,
		})
		return Result{
			Success:  false,
			ExitCode: -1,
			Pid:      pid,
			Stdout:   stdout,
			Stderr:   stderr,
			Reason:   ReasonSpawnFailed,
			Duration: time.Since(start),
			Err:      waitErr,
		}
	}
	res := Result{
		Success:  false,
		ExitCode: exitErr.ExitCode(),
		Pid:      pid,
		Stdout:   stdout,
		Stderr:   stderr,
		Reason:   ReasonNonZeroExit,
		Duration: time.Since(start),
	}
	if check {
		res.Err = waitErr
	}
	return res
}

func failSpawn(spec Spec, err error, start time.Time, correlationID string) Result {
	log.Warn("subprocess failed to spawn", map[string]interface{}{
		"argv":           spec.Argv,
		"error":          err.Error(),
		"correlation_id": correlationID,
	})
	res := Result{
		Success:  false,
		ExitCode: -1,
		Reason:   ReasonSpawnFailed,
		Duration: time.Since(start),
		Err:      err,
	}
	if spec.Advisory {
		res.Err = nil
	}
	return res
}

// NonInteractiveEnv returns the environment overlay requested by
// Spec.Env when callers want a "non-interactive" child: suppressed
// credential and terminal prompts in common tools, without the adapter
// ever writing to the child's stdin on their behalf.
func NonInteractiveEnv() []string {
	return []string{
		"GIT_TERMINAL_PROMPT=0",
		"GH_PROMPT_DISABLED=1",
		"CI=1",
	}
}
