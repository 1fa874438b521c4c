package clipboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// scripted returns its values in order, repeating the last one.
type scripted struct {
	mu     sync.Mutex
	values []string
	errs   []error
	calls  int
}

func (s *scripted) Selection(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.values) {
		i = len(s.values) - 1
	}
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.values[i], err
}

func TestWatcher_Poll(t *testing.T) {
	src := &scripted{
		values: []string{"", "hello", "hello", "  hello  ", "world", strings.Repeat("x", 501), "ñandú", ""},
		errs:   []error{nil, nil, nil, nil, nil, nil, nil, errors.New("xsel failed")},
	}
	w := NewWatcher(src)

	want := []struct {
		text string
		ok   bool
	}{
		{"", false},
		{"hello", true},
		{"", false},
		{"", false},
		{"world", true},
		{"", false},
		{"ñandú", true},
		{"", false},
	}

	for i, tt := range want {
		text, ok := w.Poll(context.Background())
		if text != tt.text || ok != tt.ok {
			t.Errorf("poll %d = (%q, %v), want (%q, %v)", i, text, ok, tt.text, tt.ok)
		}
	}
}

func TestWatcher_LengthBounds(t *testing.T) {
	src := &scripted{values: []string{"ab", "abcd", "abcdefg"}}
	w := NewWatcher(src, WithLengthBounds(3, 5))

	var got []string
	for i := 0; i < 3; i++ {
		if text, ok := w.Poll(context.Background()); ok {
			got = append(got, text)
		}
	}
	if len(got) != 1 || got[0] != "abcd" {
		t.Errorf("got %v, want [abcd]", got)
	}
}

func TestWatcher_Defaults(t *testing.T) {
	w := NewWatcher(&scripted{values: []string{""}}, WithInterval(0), WithLengthBounds(0, 0), WithLogger(nil))
	if w.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", w.interval, DefaultInterval)
	}
	if w.minLen != DefaultMinLength || w.maxLen != DefaultMaxLength {
		t.Errorf("bounds = %d..%d", w.minLen, w.maxLen)
	}
	if w.logger == nil {
		t.Error("logger should default")
	}
}

func TestWatcher_Run(t *testing.T) {
	src := &scripted{values: []string{"one", "one", "two"}}
	w := NewWatcher(src, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var got []string

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(text string) {
			mu.Lock()
			got = append(got, text)
			n := len(got)
			mu.Unlock()
			if n == 2 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("Run did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("got %v, want [one two]", got)
	}
}
