package ffmpegcodec

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// stderrLimit bounds how much ffmpeg diagnostic output is kept for errors.
const stderrLimit = 4096

// process is a running ffmpeg with stdin for input. stdout is drained into
// memory by a goroutine so ffmpeg never blocks on output while the caller
// is blocked writing input.
type process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	mu     sync.Mutex
	out    []byte
	err    error
	stderr tailBuffer
	done   chan struct{}
}

func startProcess(ffmpegPath string, args []string) (*process, error) {
	p := &process{done: make(chan struct{})}
	p.cmd = exec.Command(ffmpegPath, args...)
	p.cmd.Stderr = &p.stderr

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	p.stdin = stdin

	if err := p.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	go p.read(stdout)
	return p, nil
}

func (p *process) read(r io.Reader) {
	defer close(p.done)
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			p.mu.Lock()
			p.out = append(p.out, buf[:n]...)
			p.mu.Unlock()
		}
		if err != nil {
			if err != io.EOF {
				p.mu.Lock()
				p.err = err
				p.mu.Unlock()
			}
			return
		}
	}
}

func (p *process) write(data []byte) error {
	if _, err := p.stdin.Write(data); err != nil {
		return fmt.Errorf("write to ffmpeg: %w\nstderr: %s", err, p.stderr.String())
	}
	return nil
}

// take removes the first size bytes of buffered output. It returns nil
// while fewer than size bytes are available.
func (p *process) take(size int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if size <= 0 || len(p.out) < size {
		return nil
	}
	chunk := make([]byte, size)
	copy(chunk, p.out)
	p.out = p.out[size:]
	if len(p.out) == 0 {
		p.out = nil
	}
	return chunk
}

// rest removes and returns all buffered output.
func (p *process) rest() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.out
	p.out = nil
	return out
}

// finish closes ffmpeg's input and waits for it to write its remaining
// output and exit.
func (p *process) finish() error {
	p.stdin.Close()
	<-p.done
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg exited: %w\nstderr: %s", err, p.stderr.String())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return fmt.Errorf("read ffmpeg output: %w", p.err)
	}
	return nil
}

// kill stops ffmpeg without waiting for pending output.
func (p *process) kill() {
	p.stdin.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	<-p.done
	p.cmd.Wait()
}

// tailBuffer keeps the last stderrLimit bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *tailBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, data...)
	if over := len(b.buf) - stderrLimit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(data), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
