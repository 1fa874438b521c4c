// Package clipboard reads the user's text selection and watches it for changes.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaguanLabs/seltra/internal/command"
	xclipboard "golang.design/x/clipboard"
)

// Source reads the current text selection.
type Source interface {
	Selection(ctx context.Context) (string, error)
}

// Writer replaces the clipboard text.
type Writer interface {
	Write(text string) error
}

// Xsel reads the X primary selection with `xsel -o`.
type Xsel struct {
	Command string        // Executable, default "xsel"
	Timeout time.Duration // Per-read timeout, default 1s
}

// NewXsel returns an Xsel source with default settings.
func NewXsel() *Xsel {
	return &Xsel{Command: "xsel", Timeout: time.Second}
}

// Selection returns the trimmed primary selection.
func (x *Xsel) Selection(ctx context.Context) (string, error) {
	return command.Run(ctx, x.timeout(), "", x.command(), "-o")
}

// Available reports whether xsel can be run. Some builds exit non-zero for
// --version, so --help is tried as well.
func (x *Xsel) Available(ctx context.Context) bool {
	if command.Available(ctx, 5*time.Second, x.command(), "--version") {
		return true
	}
	_, err := command.Run(ctx, 5*time.Second, "", x.command(), "--help")
	var exitErr *command.ExitError
	return err == nil || (errors.As(err, &exitErr) && exitErr.Code == 1)
}

func (x *Xsel) command() string {
	if x.Command == "" {
		return "xsel"
	}
	return x.Command
}

func (x *Xsel) timeout() time.Duration {
	if x.Timeout <= 0 {
		return time.Second
	}
	return x.Timeout
}

// System reads and writes the desktop clipboard through the platform API.
// It needs no external tool but sees the copy buffer, not the primary
// selection.
type System struct {
	once    sync.Once
	initErr error
	writeMu sync.Mutex
	changed <-chan struct{}
}

// NewSystem returns a System clipboard. Initialization is deferred to first use.
func NewSystem() *System {
	return &System{}
}

func (s *System) init() error {
	s.once.Do(func() {
		s.initErr = xclipboard.Init()
	})
	if s.initErr != nil {
		return fmt.Errorf("initializing clipboard: %w", s.initErr)
	}
	return nil
}

// Selection returns the clipboard text.
func (s *System) Selection(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.init(); err != nil {
		return "", err
	}
	return string(xclipboard.Read(xclipboard.FmtText)), nil
}

// Write replaces the clipboard text. Writes are serialized.
//
// On X11 the text is served by this process, so it is lost when the
// process exits unless a clipboard manager has taken it over. Short-lived
// callers should Hold after writing.
func (s *System) Write(text string) error {
	if err := s.init(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.changed = xclipboard.Write(xclipboard.FmtText, []byte(text))
	return nil
}

// Hold keeps serving the last written text until another program owns the
// clipboard, ctx is done or limit elapses. It returns true when ownership
// moved on before the deadline.
func (s *System) Hold(ctx context.Context, limit time.Duration) bool {
	s.writeMu.Lock()
	changed := s.changed
	s.writeMu.Unlock()
	if changed == nil {
		return false
	}

	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case <-changed:
		return true
	case <-ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}

var _ Writer = (*System)(nil)
