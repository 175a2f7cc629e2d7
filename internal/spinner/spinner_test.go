package spinner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerStartStop(t *testing.T) {
	var buf syncBuffer
	s := New(&buf, "Weighing keywords")

	if s.Active() {
		t.Error("Spinner should not be active initially")
	}

	s.Start(context.Background())
	s.Start(context.Background())
	if !s.Active() {
		t.Error("Spinner should be active after Start()")
	}

	time.Sleep(250 * time.Millisecond)
	s.Stop()
	s.Stop()

	if s.Active() {
		t.Error("Spinner should not be active after Stop()")
	}

	output := buf.String()
	if !strings.Contains(output, "Weighing keywords") {
		t.Errorf("Expected message in output, got %q", output)
	}
	if !strings.HasSuffix(output, "\r") {
		t.Error("Expected output to end with carriage return")
	}
}

func TestSpinnerRestart(t *testing.T) {
	var buf syncBuffer
	s := New(&buf, "first")

	s.Start(context.Background())
	s.Stop()

	s.SetMessage("second")
	s.Start(context.Background())
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "second") {
		t.Errorf("Expected restarted spinner to draw, got %q", buf.String())
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	var buf syncBuffer
	s := New(&buf, "Fetching MeSH")

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("spinner goroutine did not exit after context cancel")
	}
	s.Stop()
}

func TestSpinnerLine(t *testing.T) {
	tests := []struct {
		name        string
		done, total int
		want        string
	}{
		{"message only", 0, 0, "\r⠋ Fetching MeSH"},
		{"with progress", 3, 10, "\r⠋ Fetching MeSH (3/10)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&bytes.Buffer{}, "Fetching MeSH")
			s.Progress(tt.done, tt.total)
			if got := s.line(0); got != tt.want {
				t.Errorf("line(0) = %q, want %q", got, tt.want)
			}
		})
	}

	s := New(&bytes.Buffer{}, "x")
	if got, want := s.line(len(frames)+1), "\r⠙ x"; got != want {
		t.Errorf("line wraps frames: got %q, want %q", got, want)
	}
}

func TestStep(t *testing.T) {
	var buf bytes.Buffer
	wantErr := errors.New("boom")

	calls := 0
	err := Step(context.Background(), &buf, false, "Counting", func(s *Spinner) error {
		calls++
		s.Progress(1, 2)
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("Step() error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
	if buf.Len() != 0 {
		t.Errorf("Step() wrote %q to a non-terminal writer", buf.String())
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}
