// Package spinner shows the progress of long pipeline steps on stderr.
package spinner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is a single-line progress indicator. It can be started again after
// it was stopped.
type Spinner struct {
	delay  time.Duration
	writer io.Writer

	mu      sync.Mutex
	active  bool
	message string
	done    int
	total   int
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New returns a stopped spinner writing to w.
func New(w io.Writer, message string) *Spinner {
	return &Spinner{
		delay:   100 * time.Millisecond,
		writer:  w,
		message: message,
	}
}

// Start animates the spinner until Stop is called or ctx is done.
func (s *Spinner) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}
	s.active = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	if IsTerminal(s.writer) {
		fmt.Fprint(s.writer, "\r\033[2K")
	} else {
		fmt.Fprint(s.writer, "\r")
	}
}

// Active reports whether the spinner is running.
func (s *Spinner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Progress sets a done/total counter shown after the message. Its signature
// matches the progress callbacks of batch runs.
func (s *Spinner) Progress(done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done, s.total = done, total
}

func (s *Spinner) line(frame int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := frames[frame%len(frames)]
	if s.total > 0 {
		return fmt.Sprintf("\r%s %s (%d/%d)", f, s.message, s.done, s.total)
	}
	return fmt.Sprintf("\r%s %s", f, s.message)
}

func (s *Spinner) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(s.writer, s.line(frame))
		}
	}
}

// Step runs fn with a spinner on w. The spinner is skipped when quiet is set
// or w is not a terminal, so redirected output stays clean.
func Step(ctx context.Context, w io.Writer, quiet bool, message string, fn func(*Spinner) error) error {
	s := New(w, message)
	if quiet || !IsTerminal(w) {
		return fn(s)
	}
	s.Start(ctx)
	defer s.Stop()
	return fn(s)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
