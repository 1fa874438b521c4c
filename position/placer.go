package position

import (
	"context"
	"log/slog"
)

// FallbackScreen is used when no ScreenSource can report a size.
var FallbackScreen = Screen{Width: 1920, Height: 1080}

// Placer positions popups near the pointer.
type Placer struct {
	cursor CursorLocator
	screen ScreenSource
	layout Layout
	logger *slog.Logger
}

// Option configures a Placer.
type Option func(*Placer)

// WithLayout sets the layout constants.
func WithLayout(layout Layout) Option {
	return func(p *Placer) {
		p.layout = layout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Placer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPlacer creates a Placer.
func NewPlacer(cursor CursorLocator, screen ScreenSource, opts ...Option) *Placer {
	p := &Placer{
		cursor: cursor,
		screen: screen,
		layout: DefaultLayout(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Place returns where a width×height popup goes. The second result is
// false when the pointer could not be located and the popup was centered.
func (p *Placer) Place(ctx context.Context, width, height int) (Point, bool) {
	screen, err := p.screen.ScreenSize()
	if err != nil {
		p.logger.Warn("reading screen size failed, using fallback", "error", err, "fallback", FallbackScreen)
		screen = FallbackScreen
	}

	cursor, err := p.cursor.CursorPosition(ctx)
	if err != nil {
		p.logger.Warn("cursor position unavailable, centering popup", "error", err)
		return Centered(screen, width, height), false
	}

	pt := Compute(Request{
		CursorX:     cursor.X,
		CursorY:     cursor.Y,
		PopupWidth:  width,
		PopupHeight: height,
	}, screen, p.layout)

	p.logger.Debug("calculated popup position", "cursor", cursor, "position", pt)
	return pt, true
}
