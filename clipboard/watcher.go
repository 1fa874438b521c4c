package clipboard

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// Watcher defaults.
const (
	DefaultInterval  = 500 * time.Millisecond
	DefaultMinLength = 1
	DefaultMaxLength = 500
)

// Watcher polls a Source and reports each new selection once.
type Watcher struct {
	source   Source
	interval time.Duration
	minLen   int
	maxLen   int
	logger   *slog.Logger

	last string
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLengthBounds sets the accepted selection length in characters.
func WithLengthBounds(minLen, maxLen int) WatcherOption {
	return func(w *Watcher) {
		if minLen > 0 {
			w.minLen = minLen
		}
		if maxLen > 0 {
			w.maxLen = maxLen
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a Watcher over source.
func NewWatcher(source Source, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		source:   source,
		interval: DefaultInterval,
		minLen:   DefaultMinLength,
		maxLen:   DefaultMaxLength,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Poll reads the source once. It returns the selection and true when it is
// non-empty, within the length bounds and different from the last one
// reported. Read failures count as no selection.
func (w *Watcher) Poll(ctx context.Context) (string, bool) {
	text, err := w.source.Selection(ctx)
	if err != nil {
		w.logger.Debug("reading selection failed", "error", err)
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" || text == w.last {
		return "", false
	}
	n := utf8.RuneCountInString(text)
	if n < w.minLen || n > w.maxLen {
		return "", false
	}

	w.last = text
	w.logger.Debug("new selection", "chars", n)
	return text, true
}

// Run polls until ctx is done, calling fn for every new selection on the
// polling goroutine. A slow fn delays the next poll.
func (w *Watcher) Run(ctx context.Context, fn func(string)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("selection watcher started", "interval", w.interval)
	defer w.logger.Info("selection watcher stopped")

	for {
		if text, ok := w.Poll(ctx); ok {
			fn(text)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
