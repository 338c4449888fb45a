package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows a one-line status on a terminal while a report runs.
// On anything that is not a terminal it prints the first message once and
// stays silent until Stop.
type Spinner struct {
	out         io.Writer
	interactive bool
	interval    time.Duration

	mu      sync.Mutex
	message string
	active  bool
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a spinner writing to stderr.
func NewSpinner(message string) *Spinner {
	return NewSpinnerTo(os.Stderr, message, isTerminal(os.Stderr) && os.Getenv("NO_COLOR") == "")
}

// NewSpinnerTo creates a spinner on w. Non-interactive spinners never
// animate.
func NewSpinnerTo(w io.Writer, message string, interactive bool) *Spinner {
	return &Spinner{
		out:         w,
		interactive: interactive,
		interval:    100 * time.Millisecond,
		message:     message,
	}
}

// Start begins spinning. Calling it on a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true

	if !s.interactive {
		fmt.Fprintf(s.out, "%s...\n", s.message)
		return
	}

	s.done = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.spin(s.done, s.stopped)
}

func (s *Spinner) spin(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i = (i + 1) % len(frames) {
		select {
		case <-done:
			fmt.Fprint(s.out, "\r\033[K")
			return
		case <-ticker.C:
			s.mu.Lock()
			fmt.Fprintf(s.out, "\r\033[K%s %s", frames[i], s.message)
			s.mu.Unlock()
		}
	}
}

// Update replaces the status message.
func (s *Spinner) Update(format string, args ...interface{}) {
	s.mu.Lock()
	s.message = fmt.Sprintf(format, args...)
	s.mu.Unlock()
}

// Stop halts the spinner, clears its line and prints finalMessage if it
// is not empty.
func (s *Spinner) Stop(finalMessage string) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	done, stopped := s.done, s.stopped
	s.mu.Unlock()

	if done != nil {
		close(done)
		<-stopped
	}
	if finalMessage != "" {
		fmt.Fprintf(s.out, "%s\n", finalMessage)
	}
}

func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
