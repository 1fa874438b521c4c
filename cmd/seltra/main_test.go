package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaguanLabs/seltra"
	"github.com/ZaguanLabs/seltra/cache"
	"github.com/ZaguanLabs/seltra/clipboard"
	"github.com/ZaguanLabs/seltra/config"
	"github.com/ZaguanLabs/seltra/position"
	"github.com/ZaguanLabs/seltra/provider"
	"github.com/ZaguanLabs/seltra/worker"
)

// fakeServices answers both the LibreTranslate form POST and the Google
// free endpoint GET.
func fakeServices(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/translate"):
			if r.FormValue("q") == "boom" {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"model crashed"}`))
				return
			}
			translations := map[string]string{"Hello": "Hola", "hello": "hola", "Good morning": "Buenos días"}
			json.NewEncoder(w).Encode(map[string]string{"translatedText": translations[r.FormValue("q")]})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/single"):
			w.Write([]byte(`[[["hola","hello",null,null,10]],null,"en"]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"SELTRA_PROVIDER", "SELTRA_SOURCE_LANG", "SELTRA_TARGET_LANG", "SELTRA_REDIS_URL", "OPENAI_API_KEY", "SELTRA_ENV_FILE"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "seltra")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"-version"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "seltra "+seltra.Version) {
		t.Errorf("expected version output, got: %s", stdout.String())
	}
}

func TestRun_UnknownProvider(t *testing.T) {
	isolate(t)
	var stdout, stderr bytes.Buffer
	err := run([]string{"-no-console", "-provider", "babelfish", "Hello"}, &stdout, &stderr)

	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if seltra.ReasonOf(err) != seltra.ReasonUnknownProvider {
		t.Errorf("expected UNKNOWN_PROVIDER, got: %v", err)
	}
}

func TestRun_Translate(t *testing.T) {
	isolate(t)
	srv := fakeServices(t, nil)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-no-console", "-provider", "libretranslate", "-service-url", srv.URL + "/translate", "-target", "es", "Hello"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := stdout.String(); got != "Hola\n" {
		t.Errorf("stdout = %q, want %q", got, "Hola\n")
	}
}

func TestRun_TranslateStdinJSON(t *testing.T) {
	isolate(t)
	srv := fakeServices(t, nil)

	stdin = strings.NewReader("Good morning\n")
	t.Cleanup(func() { stdin = os.Stdin })

	var stdout, stderr bytes.Buffer
	err := run([]string{"-no-console", "-json", "-provider", "libretranslate", "-service-url", srv.URL + "/translate"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var out TranslationOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout.String(), err)
	}
	if !out.OK || out.Translation != "Buenos días" || out.Words != 2 {
		t.Errorf("output = %+v", out)
	}
	if out.Provider != provider.NameLibreTranslate || out.Source != "en" || out.Target != "es" {
		t.Errorf("output = %+v", out)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	isolate(t)
	stdin = strings.NewReader("   \n")
	t.Cleanup(func() { stdin = os.Stdin })

	var stdout, stderr bytes.Buffer
	err := run([]string{"-no-console", "-provider", "libretranslate", "-service-url", "http://127.0.0.1:1/translate"}, &stdout, &stderr)
	if seltra.ReasonOf(err) != seltra.ReasonEmptyInput {
		t.Errorf("err = %v, want EMPTY_INPUT", err)
	}
	if !strings.HasPrefix(err.Error(), "EMPTY_INPUT: ") {
		t.Errorf("error text = %q", err.Error())
	}
}

func TestRun_ServiceError(t *testing.T) {
	isolate(t)
	srv := fakeServices(t, nil)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-no-console", "-retries", "0", "-provider", "libretranslate", "-service-url", srv.URL + "/translate", "boom"}, &stdout, &stderr)
	if seltra.ReasonOf(err) != seltra.ReasonServiceError {
		t.Errorf("err = %v, want SERVICE_ERROR", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("failure should print nothing to stdout, got %q", stdout.String())
	}
}

func TestRun_Lines(t *testing.T) {
	isolate(t)
	var calls atomic.Int32
	srv := fakeServices(t, &calls)

	stdin = strings.NewReader("Hello\n\nGood morning\nHello\n")
	t.Cleanup(func() { stdin = os.Stdin })

	var stdout, stderr bytes.Buffer
	err := run([]string{"-no-console", "-lines", "-provider", "libretranslate", "-service-url", srv.URL + "/translate"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got, want := stdout.String(), "Hola\nBuenos días\nHola\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 service calls for 2 distinct lines, got %d", calls.Load())
	}
}

func TestRun_LinesJSONFailure(t *testing.T) {
	isolate(t)
	srv := fakeServices(t, nil)

	stdin = strings.NewReader("Hello\nboom\n")
	t.Cleanup(func() { stdin = os.Stdin })

	var stdout, stderr bytes.Buffer
	err := run([]string{"-no-console", "-lines", "-json", "-provider", "libretranslate", "-service-url", srv.URL + "/translate"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 lines failed") {
		t.Errorf("err = %v", err)
	}

	var out []TranslationOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout.String(), err)
	}
	if len(out) != 2 || !out[0].OK || out[1].OK || out[1].Reason != string(seltra.ReasonServiceError) {
		t.Errorf("output = %+v", out)
	}
}

func TestRun_Save(t *testing.T) {
	dir := isolate(t)
	srv := fakeServices(t, nil)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-no-console", "-save", "-provider", "libretranslate", "-service-url", srv.URL + "/translate", "-target", "ca", "Hello"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	prefs, err := config.LoadPreferences(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("LoadPreferences failed: %v", err)
	}
	want := config.TranslationPrefs{Provider: "libretranslate", SourceLang: "en", TargetLang: "ca"}
	if prefs.Translation != want {
		t.Errorf("saved %+v, want %+v", prefs.Translation, want)
	}
}

func TestRun_CacheImportExport(t *testing.T) {
	isolate(t)
	var calls atomic.Int32
	srv := fakeServices(t, &calls)

	tmp := t.TempDir()
	firstPath := filepath.Join(tmp, "first.json")
	secondPath := filepath.Join(tmp, "second.json")
	args := []string{"-no-console", "-provider", "libretranslate", "-service-url", srv.URL + "/translate"}

	var stdout, stderr bytes.Buffer
	if err := run(append(args, "-cache-export", firstPath, "Hello"), &stdout, &stderr); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("first run should call the service once, got %d", calls.Load())
	}

	// Mark the exported value so a cache hit is visible in the output
	var export cache.ExportFormat
	data, err := os.ReadFile(firstPath)
	if err != nil {
		t.Fatalf("export file: %v", err)
	}
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatal(err)
	}
	if len(export.Entries) != 1 || export.Entries[0].Provider != provider.NameLibreTranslate {
		t.Fatalf("export = %+v", export)
	}
	export.Entries[0].Value = "Hola (cached)"
	data, _ = json.Marshal(export)
	if err := os.WriteFile(firstPath, data, 0o600); err != nil {
		t.Fatal(err)
	}

	stdout.Reset()
	if err := run(append(args, "-cache-import", firstPath, "-cache-export", secondPath, "Hello"), &stdout, &stderr); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if got := stdout.String(); got != "Hola (cached)\n" {
		t.Errorf("stdout = %q", got)
	}
	if calls.Load() != 1 {
		t.Errorf("cache hit should skip the service, got %d calls", calls.Load())
	}
	if _, err := os.Stat(secondPath); err != nil {
		t.Errorf("second export missing: %v", err)
	}

	// A different endpoint must not reuse the imported entry
	other := fakeServices(t, &calls)
	stdout.Reset()
	otherArgs := []string{"-no-console", "-provider", "libretranslate", "-service-url", other.URL + "/translate", "-cache-import", firstPath, "Hello"}
	if err := run(otherArgs, &stdout, &stderr); err != nil {
		t.Fatalf("third run failed: %v", err)
	}
	if got := stdout.String(); got != "Hola\n" {
		t.Errorf("stdout = %q, want a fresh translation", got)
	}
}

func TestRun_ListJSON(t *testing.T) {
	dir := isolate(t)
	srv := fakeServices(t, nil)

	prefs := config.Preferences{
		Translation: config.TranslationPrefs{Provider: provider.NameGoogle},
		Providers: map[string]config.ProviderPrefs{
			provider.NameGoogle:         {ServiceURL: srv.URL + "/translate_a/single"},
			provider.NameLibreTranslate: {ServiceURL: srv.URL + "/translate"},
			provider.NameApertium:       {Engine: filepath.Join(t.TempDir(), "no-apertium")},
		},
	}
	if err := config.SavePreferences(filepath.Join(dir, "config.json"), prefs); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-no-console", "-list", "-json"}, &stdout, &stderr); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var out []ProviderOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout.String(), err)
	}

	want := map[string]struct{ active, available bool }{
		provider.NameApertium:       {false, false},
		provider.NameGoogle:         {true, true},
		provider.NameLibreTranslate: {false, true},
		provider.NameOpenAI:         {false, false},
	}
	if len(out) != len(want) {
		t.Fatalf("got %d providers: %+v", len(out), out)
	}
	for _, p := range out {
		w, ok := want[p.Name]
		if !ok {
			t.Errorf("unexpected provider %q", p.Name)
			continue
		}
		if p.Active != w.active || p.Available != w.available {
			t.Errorf("%s: active=%v available=%v, want %v %v", p.Name, p.Active, p.Available, w.active, w.available)
		}
	}
}

type fixedCursor position.Point

func (c fixedCursor) CursorPosition(context.Context) (position.Point, error) {
	return position.Point(c), nil
}

type oneSelection struct{ text string }

func (s oneSelection) Selection(context.Context) (string, error) { return s.text, nil }

func TestWatchLoop(t *testing.T) {
	r := seltra.NewRegistry()
	provider.NewMock().Register(r)
	engine, err := seltra.NewEngine(r, provider.NameMock)
	if err != nil {
		t.Fatal(err)
	}

	d, err := worker.New(engine)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	watcher := clipboard.NewWatcher(oneSelection{"Hello"}, clipboard.WithInterval(5*time.Millisecond))
	placer := position.NewPlacer(fixedCursor{X: 800, Y: 100}, position.Fixed{Width: 1920, Height: 1080})

	errStop := errors.New("stop")
	var got []PopupEvent
	emit := func(ev PopupEvent) error {
		got = append(got, ev)
		return errStop
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	copied := &recordingWriter{}
	err = watchLoop(ctx, watcher, d, placer, 420, 320, copied, emit, slogDiscard())
	if !errors.Is(err, errStop) {
		t.Fatalf("watchLoop returned %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d events", len(got))
	}
	ev := got[0]
	if ev.Text != "Hello" || ev.Translation != "Hola" || ev.Provider != provider.NameMock {
		t.Errorf("event = %+v", ev)
	}
	if ev.X != 800 || ev.Y != 140 || !ev.Located {
		t.Errorf("position = (%d,%d) located=%v, want (800,140)", ev.X, ev.Y, ev.Located)
	}
	if ev.display() != "Hola" {
		t.Errorf("display = %q", ev.display())
	}
	if got := copied.texts(); len(got) != 1 || got[0] != "Hola" {
		t.Errorf("copied = %q, want [Hola]", got)
	}
}

func TestWatchLoop_FailuresAreNotCopied(t *testing.T) {
	r := seltra.NewRegistry()
	m := provider.NewMock()
	m.Err = seltra.NewError(seltra.ReasonServiceError, "down", nil)
	m.Register(r)
	engine, err := seltra.NewEngine(r, provider.NameMock)
	if err != nil {
		t.Fatal(err)
	}

	d, err := worker.New(engine, worker.WithRetry(seltra.RetryConfig{MaxRetries: 0}))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	watcher := clipboard.NewWatcher(oneSelection{"Hello"}, clipboard.WithInterval(5*time.Millisecond))
	placer := position.NewPlacer(fixedCursor{X: 800, Y: 100}, position.Fixed{Width: 1920, Height: 1080})

	errStop := errors.New("stop")
	var got []PopupEvent
	emit := func(ev PopupEvent) error {
		got = append(got, ev)
		return errStop
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	copied := &recordingWriter{}
	if err := watchLoop(ctx, watcher, d, placer, 420, 320, copied, emit, slogDiscard()); !errors.Is(err, errStop) {
		t.Fatalf("watchLoop returned %v", err)
	}
	if len(got) != 1 || got[0].Reason != string(seltra.ReasonServiceError) {
		t.Fatalf("events = %+v", got)
	}
	if n := len(copied.texts()); n != 0 {
		t.Errorf("a failed translation should not be copied, got %d writes", n)
	}
}

type recordingWriter struct {
	mu     sync.Mutex
	copied []string
}

func (w *recordingWriter) Write(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.copied = append(w.copied, text)
	return nil
}

func (w *recordingWriter) texts() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.copied...)
}

func TestPopupEvent_DisplayFailure(t *testing.T) {
	ev := PopupEvent{Reason: "TIMEOUT", Message: "took too long"}
	if ev.display() != "TIMEOUT: took too long" {
		t.Errorf("display = %q", ev.display())
	}
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
