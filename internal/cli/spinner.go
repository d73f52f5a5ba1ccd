package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/blockstack/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is the time between two frames.
const spinnerInterval = 80 * time.Millisecond

// Spinner draws a one-line progress indicator until it is stopped or its
// context ends. The message can change while it spins.
type Spinner struct {
	w   io.Writer
	ctx context.Context

	mu      sync.Mutex
	message string
	width   int // widest line drawn, for clearing

	once    sync.Once
	halt    chan struct{}
	stopped chan struct{}
}

// newSpinner creates a spinner on stderr that stops when ctx is done.
func newSpinner(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		ctx:     ctx,
		message: message,
		halt:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the animation in its own goroutine.
func (s *Spinner) Start() {
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.clear()
			return
		case <-s.halt:
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := frame + " " + s.message
	s.width = max(s.width, len(line))
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+2))
	}
}

// SetMessage replaces the text shown next to the frame.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Message returns the current text.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Stop ends the animation and clears the line. It may be called more than
// once, and before Start.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.halt)
	})
	select {
	case <-s.stopped:
	case <-time.After(2 * spinnerInterval):
		// Never started.
	}
	s.clear()
}

// StopWithError stops the spinner and prints msg as an error.
func (s *Spinner) StopWithError(msg string) {
	s.Stop()
	printError("%s", msg)
}

// Cancelled reports whether the spinner's context ended.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// =============================================================================
// Stage Hooks
// =============================================================================

// stageHooks names the running pipeline stage on a spinner.
type stageHooks struct {
	observability.NoopPipelineHooks
	spinner *Spinner
}

func (h stageHooks) OnLoadStart(_ context.Context, source string) {
	h.spinner.SetMessage(fmt.Sprintf("Loading %s...", filepath.Base(source)))
}

func (h stageHooks) OnLoadComplete(_ context.Context, _ string, blocks int, _ time.Duration, err error) {
	if err == nil {
		h.spinner.SetMessage(fmt.Sprintf("Settling %d blocks...", blocks))
	}
}

func (h stageHooks) OnExportStart(_ context.Context, formats []string) {
	h.spinner.SetMessage(fmt.Sprintf("Exporting %s...", strings.Join(formats, ", ")))
}

// trackStages points the pipeline hooks at s until the returned function
// is called.
func trackStages(s *Spinner) (restore func()) {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(stageHooks{spinner: s})
	return func() { observability.SetPipelineHooks(prev) }
}
