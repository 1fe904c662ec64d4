// Package spinner shows progress on a terminal while a report is generated.
// On a non-terminal writer it prints one static line instead of animating.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"

	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// DefaultInterval is the frame rate used when none is configured.
const DefaultInterval = 80 * time.Millisecond

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is safe for concurrent use. Start and Stop may be called any
// number of times; extra calls are no-ops.
type Spinner struct {
	mu       sync.Mutex
	w        io.Writer
	message  string
	interval time.Duration
	tty      bool
	now      func() time.Time

	active  bool
	started time.Time
	frame   int
	width   int
	stop    chan struct{}
	done    chan struct{}
}

// Option configures a Spinner.
type Option func(*Spinner)

// WithInterval sets the animation frame interval.
func WithInterval(d time.Duration) Option {
	return func(s *Spinner) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTTY overrides terminal detection.
func WithTTY(tty bool) Option {
	return func(s *Spinner) { s.tty = tty }
}

// WithClock sets the time source used for elapsed time.
func WithClock(now func() time.Time) Option {
	return func(s *Spinner) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a spinner writing to w. A nil writer means os.Stderr.
func New(w io.Writer, message string, opts ...Option) *Spinner {
	if w == nil {
		w = os.Stderr
	}
	s := &Spinner{
		w:        w,
		message:  message,
		interval: DefaultInterval,
		tty:      IsTerminal(w),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
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

// Start begins the animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}
	s.active = true
	s.started = s.now()
	s.frame = 0

	if !s.tty {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	fmt.Fprint(s.w, hideCursor)
	go s.loop(s.stop, s.done)
}

func (s *Spinner) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.render()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	line := fmt.Sprintf("%s %s %s", frames[s.frame%len(frames)], s.message, formatElapsed(s.now().Sub(s.started)))
	s.frame++
	s.clear()
	fmt.Fprint(s.w, line)
	s.width = len(line)
}

// clear blanks the current line. Caller holds s.mu.
func (s *Spinner) clear() {
	if s.width > 0 {
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.width)+"\r")
		s.width = 0
	}
}

// Stop halts the animation and erases the spinner line.
func (s *Spinner) Stop() {
	s.halt()
}

// Success stops the spinner and prints a check mark with message.
func (s *Spinner) Success(message string) {
	s.finish("✓", colorGreen, message)
}

// Fail stops the spinner and prints a cross with message.
func (s *Spinner) Fail(message string) {
	s.finish("✗", colorRed, message)
}

func (s *Spinner) finish(symbol, color, message string) {
	elapsed, wasActive := s.halt()

	s.mu.Lock()
	defer s.mu.Unlock()

	if message == "" {
		message = s.message
	}
	suffix := ""
	if wasActive {
		suffix = " " + formatElapsed(elapsed)
	}
	if s.tty {
		fmt.Fprintf(s.w, "%s%s%s %s%s\n", color, symbol, colorReset, message, suffix)
		return
	}
	fmt.Fprintf(s.w, "%s %s%s\n", symbol, message, suffix)
}

// halt stops the loop and returns how long the spinner ran.
func (s *Spinner) halt() (time.Duration, bool) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return 0, false
	}
	s.active = false
	elapsed := s.now().Sub(s.started)
	stop, done := s.stop, s.done
	s.mu.Unlock()

	if stop == nil {
		return elapsed, true
	}
	close(stop)
	<-done

	s.mu.Lock()
	s.clear()
	fmt.Fprint(s.w, showCursor)
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	return elapsed, true
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%.1fs)", d.Seconds())
	}
	return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
}
