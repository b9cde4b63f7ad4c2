package evaluator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/irdumbs/jamcord/internal/errors"
)

// DefaultSettle is how long a Pipe waits after writing a block before
// collecting whatever the interpreter printed in response.
const DefaultSettle = 300 * time.Millisecond

// Pipe drives a long-lived interpreter process over stdin/stdout. It is the
// production Evaluator: code blocks are written to the process, and output
// the process prints while the block settles is captured as the side
// channel. REPL-style interpreters do not report return values separately,
// so Result.Value is always empty here.
type Pipe struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	settle time.Duration

	mu  sync.Mutex
	buf bytes.Buffer // output accumulated since the last drain

	closed atomic.Bool
	done   chan struct{} // closed when the process exits
}

// StartPipe launches the interpreter process described by argv and begins
// capturing its combined output. settle <= 0 uses DefaultSettle.
func StartPipe(argv []string, settle time.Duration) (*Pipe, error) {
	if len(argv) == 0 {
		return nil, errors.New("evaluator: empty command")
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("evaluator: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("evaluator: stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout // interleave, the jam console shows both

	p := &Pipe{
		cmd:    cmd,
		stdin:  stdin,
		settle: settle,
		done:   make(chan struct{}),
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("evaluator: start %s: %w", argv[0], err)
	}

	go p.collect(stdout)
	return p, nil
}

// collect copies interpreter output into the capture buffer until the
// process exits.
func (p *Pipe) collect(r io.Reader) {
	defer close(p.done)

	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			p.mu.Lock()
			p.buf.Write(chunk[:n])
			p.mu.Unlock()
		}
		if err != nil {
			p.closed.Store(true)
			return
		}
	}
}

// drain returns and clears everything captured so far.
func (p *Pipe) drain() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.buf.String()
	p.buf.Reset()
	return out
}

// Evaluate writes one block to the interpreter, waits for it to settle, and
// returns whatever the interpreter printed meanwhile. Output left over from
// earlier asynchronous printing is discarded first so each call captures
// only its own window.
func (p *Pipe) Evaluate(ctx context.Context, code string) (Result, error) {
	if p.closed.Load() {
		return Result{}, errors.ErrEvaluatorClosed
	}

	p.drain()

	if _, err := io.WriteString(p.stdin, code+"\n"); err != nil {
		p.closed.Store(true)
		return Result{}, fmt.Errorf("%w: %v", errors.ErrEvaluatorClosed, err)
	}

	select {
	case <-time.After(p.settle):
	case <-p.done:
		// Process died mid-evaluation; report what it managed to print.
		return Result{}, errors.NewEvalError("interpreter exited", errors.ErrEvaluatorClosed).
			WithOutput(p.drain())
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	return Result{Output: p.drain()}, nil
}

// Close shuts down the interpreter process. Safe to call more than once.
func (p *Pipe) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	_ = p.stdin.Close()

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		<-p.done
	}
	return p.cmd.Wait()
}
