package position

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ZaguanLabs/seltra/internal/command"
)

// ErrCursorUnavailable is returned when the pointer position cannot be read.
var ErrCursorUnavailable = errors.New("cursor position unavailable")

// CursorLocator reports the pointer position.
type CursorLocator interface {
	CursorPosition(ctx context.Context) (Point, error)
}

// Xdotool reads the pointer position with `xdotool getmouselocation --shell`.
type Xdotool struct {
	Command string        // Executable, default "xdotool"
	Timeout time.Duration // Per-call timeout, default 2s
}

// NewXdotool returns an Xdotool locator with default settings.
func NewXdotool() *Xdotool {
	return &Xdotool{Command: "xdotool", Timeout: 2 * time.Second}
}

// CursorPosition runs xdotool and parses its X= and Y= lines. Every
// failure wraps ErrCursorUnavailable.
func (x *Xdotool) CursorPosition(ctx context.Context) (Point, error) {
	out, err := command.Run(ctx, x.timeout(), "", x.command(), "getmouselocation", "--shell")
	if err != nil {
		return Point{}, fmt.Errorf("%w: %w", ErrCursorUnavailable, err)
	}
	return parseMouseLocation(out)
}

// Available reports whether `xdotool --version` succeeds.
func (x *Xdotool) Available(ctx context.Context) bool {
	return command.Available(ctx, 5*time.Second, x.command(), "--version")
}

func (x *Xdotool) command() string {
	if x.Command == "" {
		return "xdotool"
	}
	return x.Command
}

func (x *Xdotool) timeout() time.Duration {
	if x.Timeout <= 0 {
		return 2 * time.Second
	}
	return x.Timeout
}

// parseMouseLocation parses the --shell output, e.g.
//
//	X=812
//	Y=407
//	SCREEN=0
//	WINDOW=65011722
func parseMouseLocation(out string) (Point, error) {
	var p Point
	var haveX, haveY bool

	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		switch key {
		case "X":
			if err != nil {
				return Point{}, fmt.Errorf("%w: bad X value %q", ErrCursorUnavailable, value)
			}
			p.X, haveX = n, true
		case "Y":
			if err != nil {
				return Point{}, fmt.Errorf("%w: bad Y value %q", ErrCursorUnavailable, value)
			}
			p.Y, haveY = n, true
		}
	}

	if !haveX || !haveY {
		return Point{}, fmt.Errorf("%w: unexpected output %q", ErrCursorUnavailable, out)
	}
	return p, nil
}
