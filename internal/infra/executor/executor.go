// Package executor runs external worker processes and maps their exit status
// to invocation results.
package executor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/runoshun/review-bridge/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Log categories.
const (
	categoryInvoker = "invoker"
	categoryWorker  = "worker"
)

// Client implements domain.WorkerInvoker using os/exec.
type Client struct {
	logger    domain.Logger
	waitDelay time.Duration
}

// NewClient creates a new worker invoker.
// waitDelay bounds how long output pipes may stay open after the worker
// exits or is killed, for example by a background child (0 = no bound).
func NewClient(logger domain.Logger, waitDelay time.Duration) *Client {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Client{
		logger:    logger,
		waitDelay: waitDelay,
	}
}

// Ensure Client implements domain.WorkerInvoker interface.
var _ domain.WorkerInvoker = (*Client)(nil)

// Invoke starts the worker, drains stdout and stderr concurrently, waits for
// exit and returns exactly one of success or failure.
func (c *Client) Invoke(ctx context.Context, req domain.InvocationRequest, diag domain.DiagnosticFunc) domain.InvocationResult {
	start := time.Now()
	tr := &tracker{logger: c.logger, id: req.ID, state: domain.StateNotStarted}

	res := c.invoke(ctx, req, diag, tr)
	res.State = tr.state
	res.Duration = time.Since(start)

	c.logger.Info(req.ID, categoryInvoker, fmt.Sprintf("finished: state=%s exit=%d duration=%s",
		res.State, res.ExitCode, res.Duration.Round(time.Millisecond)))
	return res
}

func (c *Client) invoke(ctx context.Context, req domain.InvocationRequest, diag domain.DiagnosticFunc, tr *tracker) domain.InvocationResult {
	if err := ctx.Err(); err != nil {
		return tr.cancel(err)
	}
	if req.Executable == "" {
		return tr.spawnFailed(errors.New("executable path is empty"))
	}

	c.logger.Info(req.ID, categoryInvoker, fmt.Sprintf("spawn: %s %s (%d args)", req.Executable, req.Entry, len(req.Args)))

	// #nosec G204 - arguments are passed as argv without a shell
	cmd := exec.CommandContext(ctx, req.Executable, req.Argv()...)
	cmd.Dir = req.Dir
	if len(req.Env) > 0 {
		cmd.Env = append(os.Environ(), req.Env...)
	}

	// The pipes are created here rather than by exec so the drains do not
	// hold cmd.Wait: a leftover child of the worker may keep the write ends open.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return tr.spawnFailed(fmt.Errorf("create stdout pipe: %w", err))
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return tr.spawnFailed(fmt.Errorf("create stderr pipe: %w", err))
	}
	defer closeAll(stdoutR, stderrR)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	startErr := cmd.Start()
	closeAll(stdoutW, stderrW)
	if startErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return tr.cancel(ctxErr)
		}
		return tr.spawnFailed(startErr)
	}
	tr.to(domain.StateSpawned)
	tr.to(domain.StateDraining)

	var out, errOut bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		if _, err := io.Copy(&out, stdoutR); err != nil {
			return fmt.Errorf("read stdout: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return c.drainDiagnostics(stderrR, &errOut, req.ID, diag)
	})
	drained := make(chan error, 1)
	go func() { drained <- g.Wait() }()

	waitErr := cmd.Wait()
	tr.to(domain.StateWaiting)
	drainErr := c.awaitDrains(req.ID, drained, stdoutR, stderrR)

	if waitErr != nil && ctx.Err() != nil {
		return tr.cancel(ctx.Err())
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			msg := domain.WorkerFailureMessage(decodeDiagnostics(errOut.Bytes()))
			return tr.fail(domain.KindWorkerFailure, msg, exitErr.ExitCode(), waitErr)
		}
		return tr.fail(domain.KindWait, waitErr.Error(), exitCodeFrom(waitErr, cmd.ProcessState), waitErr)
	}
	if drainErr != nil {
		return tr.fail(domain.KindWait, drainErr.Error(), 0, drainErr)
	}

	payload := out.Bytes()
	if !utf8.Valid(payload) {
		decodeErr := invalidUTF8Error(payload)
		return tr.fail(domain.KindOutputDecode, decodeErr.Error(), 0, decodeErr)
	}

	tr.to(domain.StateSucceeded)
	return domain.InvocationResult{
		Output:   string(payload),
		ExitCode: 0,
	}
}

// drainDiagnostics copies stderr into buf and reports each line as it arrives.
func (c *Client) drainDiagnostics(r io.Reader, buf *bytes.Buffer, id string, diag domain.DiagnosticFunc) error {
	br := bufio.NewReader(r)
	for {
		chunk, err := br.ReadBytes('\n')
		if len(chunk) > 0 {
			buf.Write(chunk)
			line := strings.ToValidUTF8(strings.TrimRight(string(chunk), "\r\n"), "�")
			c.logger.Info(id, categoryWorker, line)
			if diag != nil {
				diag(line)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read stderr: %w", err)
		}
	}
}

// awaitDrains waits for both drains once the worker has exited. If the
// output pipes are still open after waitDelay, they are closed and the output
// read so far is kept. A zero waitDelay waits without bound.
func (c *Client) awaitDrains(id string, drained <-chan error, pipes ...io.Closer) error {
	if c.waitDelay <= 0 {
		return <-drained
	}

	timer := time.NewTimer(c.waitDelay)
	defer timer.Stop()
	select {
	case err := <-drained:
		return err
	case <-timer.C:
	}

	c.logger.Warn(id, categoryInvoker, fmt.Sprintf("output still open %s after worker exit; closing pipes", c.waitDelay))
	closeAll(pipes...)
	<-drained
	return nil
}

func closeAll(files ...io.Closer) {
	for _, f := range files {
		_ = f.Close()
	}
}

// decodeDiagnostics turns captured stderr into the failure text.
// Trailing line breaks are dropped; bytes that are not valid UTF-8 yield the
// fixed placeholder instead of an error.
func decodeDiagnostics(b []byte) string {
	if !utf8.Valid(b) {
		return domain.UnknownWorkerError
	}
	return strings.TrimRight(string(b), "\r\n")
}

// invalidUTF8Error describes the first invalid sequence in b.
func invalidUTF8Error(b []byte) error {
	offset := 0
	for offset < len(b) {
		r, size := utf8.DecodeRune(b[offset:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		offset += size
	}
	return fmt.Errorf("invalid utf-8 sequence at byte offset %d of %d", offset, len(b))
}

// exitCodeFrom extracts an exit code from a wait error or process state.
// Returns -1 when no exit status is available.
func exitCodeFrom(waitErr error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) && exitErr.ProcessState != nil {
		return exitErr.ProcessState.ExitCode()
	}
	return -1
}
