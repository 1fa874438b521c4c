// Command seltra translates text with a pluggable backend. With -watch it
// follows the X selection and reports where each translation popup goes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/ZaguanLabs/seltra"
	"github.com/ZaguanLabs/seltra/cache"
	"github.com/ZaguanLabs/seltra/clipboard"
	"github.com/ZaguanLabs/seltra/config"
	"github.com/ZaguanLabs/seltra/logging"
	"github.com/ZaguanLabs/seltra/position"
	"github.com/ZaguanLabs/seltra/provider"
	"github.com/ZaguanLabs/seltra/worker"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = seltra.Version
	commit    = seltra.GitCommit
	buildDate = seltra.BuildDate
)

// copyHold bounds how long a one-shot -copy keeps serving the clipboard
// so a clipboard manager can take the text over.
const copyHold = 2 * time.Second

// stdin is read when no text argument is given.
var stdin io.Reader = os.Stdin

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	provider    string
	source      string
	target      string
	serviceURL  string
	apiKey      string
	model       string
	timeout     time.Duration
	rpm         int
	retries     int
	list        bool
	check       bool
	jsonOut     bool
	watch       bool
	save        bool
	copy        bool
	lines       bool
	logLevel    string
	logFile     bool
	noConsole   bool
	configDir   string
	redisURL    string
	noCache     bool
	cacheImport string
	cacheExport string
	popupWidth  int
	popupHeight int
	showVersion bool
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(seltra.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.provider, "provider", "", "Translation provider (apertium, google, libretranslate, openai)")
	fs.StringVar(&o.source, "source", "", "Source language code (e.g., en)")
	fs.StringVar(&o.target, "target", "", "Target language code (e.g., es)")
	fs.StringVar(&o.serviceURL, "service-url", "", "Endpoint override for the selected provider")
	fs.StringVar(&o.apiKey, "api-key", "", "API key for the selected provider")
	fs.StringVar(&o.model, "model", "", "Model for LLM providers")
	fs.DurationVar(&o.timeout, "timeout", 0, "Per-request timeout (default: provider setting)")
	fs.IntVar(&o.rpm, "rpm", 0, "Client-side rate limit in requests per minute")
	fs.IntVar(&o.retries, "retries", 2, "Retries for timeouts and network errors")
	fs.BoolVar(&o.list, "list", false, "List providers with availability")
	fs.BoolVar(&o.check, "check", false, "Check external dependencies")
	fs.BoolVar(&o.jsonOut, "json", false, "Output as JSON")
	fs.BoolVar(&o.watch, "watch", false, "Translate every new text selection")
	fs.BoolVar(&o.save, "save", false, "Save provider and languages to the preferences file")
	fs.BoolVar(&o.copy, "copy", false, "Copy the translation to the clipboard")
	fs.BoolVar(&o.lines, "lines", false, "Translate each input line separately")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&o.logFile, "log-file", false, "Also log to translator.log in the config directory")
	fs.BoolVar(&o.noConsole, "no-console", false, "Disable console logging")
	fs.StringVar(&o.configDir, "config-dir", "", "Configuration directory (default: $XDG_CONFIG_HOME/seltra)")
	fs.StringVar(&o.redisURL, "redis", "", "Cache translations in Redis at this URL")
	fs.BoolVar(&o.noCache, "no-cache", false, "Disable the translation cache")
	fs.StringVar(&o.cacheImport, "cache-import", "", "Load cache entries from a JSON file before translating")
	fs.StringVar(&o.cacheExport, "cache-export", "", "Write cache entries to a JSON file on exit")
	fs.IntVar(&o.popupWidth, "popup-width", 420, "Popup width used for placement")
	fs.IntVar(&o.popupHeight, "popup-height", 320, "Popup height used for placement")
	fs.BoolVar(&o.showVersion, "version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if o.showVersion {
		fmt.Fprintf(stdout, "%s %s\n", seltra.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	var console io.Writer = stderr
	if o.noConsole {
		console = nil
	}

	// Warnings raised while loading the configuration go to the console
	bootLogger := logging.Console(console, slog.LevelWarn, false)
	cfg, err := config.Load(config.LoadOptions{Dir: o.configDir, Logger: bootLogger})
	if err != nil {
		return err
	}
	applyFlags(cfg, o)

	logOpts := logging.Options{Level: cfg.LogLevel, Console: console}
	if cfg.LogToFile {
		logOpts.FilePath = cfg.LogPath()
	}
	logger, closer, err := logging.Setup(logOpts)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store cache.Enumerable
	if !o.noCache {
		store, err = cache.Open(ctx, cache.Config{
			RedisURL:   cfg.RedisURL,
			TTL:        cfg.CacheTTL,
			MaxEntries: cfg.CacheMaxEntries,
		}, logger)
		if err != nil {
			return err
		}
		if c, ok := store.(io.Closer); ok {
			defer c.Close()
		}
		if o.cacheImport != "" {
			res, err := cache.NewImporter(store).ImportFromFile(o.cacheImport)
			if err != nil {
				return fmt.Errorf("importing cache: %w", err)
			}
			logger.Info("imported cache entries", "imported", res.Imported, "failed", res.Failed)
		}
		if o.cacheExport != "" {
			defer func() {
				n, err := cache.NewExporter(store).ExportToFile(o.cacheExport, map[string]string{"provider": cfg.Provider})
				if err != nil {
					logger.Error("exporting cache failed", "error", err)
					return
				}
				logger.Info("exported cache entries", "count", n, "path", o.cacheExport)
			}()
		}
	}

	registry := provider.NewRegistry(provider.WithLogger(logger))
	engineOpts := []seltra.EngineOption{
		seltra.WithLanguages(cfg.SourceLang, cfg.TargetLang),
		seltra.WithProviderConfigs(cfg.Providers),
		seltra.WithLogger(logger),
	}
	if store != nil {
		engineOpts = append(engineOpts, seltra.WithCache(store))
	}
	engine, err := seltra.NewEngine(registry, cfg.Provider, engineOpts...)
	if err != nil {
		return err
	}

	if o.save {
		source, target := engine.Languages()
		if err := config.SaveSelection(cfg.PrefsPath(), engine.ActiveProvider(), source, target); err != nil {
			return fmt.Errorf("saving preferences: %w", err)
		}
		logger.Info("saved preferences", "path", cfg.PrefsPath())
	}

	retry := seltra.DefaultRetryConfig()
	retry.MaxRetries = max(o.retries, 0)

	switch {
	case o.list:
		return listProviders(ctx, engine, stdout, o.jsonOut)
	case o.check:
		return printChecks(stdout, checkDependencies(ctx, engine, cfg), o.jsonOut)
	case o.watch:
		for _, c := range checkDependencies(ctx, engine, cfg) {
			if !c.OK {
				logger.Warn("dependency missing", "name", c.Name, "detail", c.Detail)
			}
		}
		return runWatch(ctx, cfg, engine, retry, o, stdout, logger)
	}

	text, err := inputText(fs.Args())
	if err != nil {
		return err
	}
	if o.lines {
		return translateLines(ctx, engine, text, o, stdout, logger)
	}
	return translateOnce(ctx, engine, retry, text, o, stdout)
}

// applyFlags layers command-line flags over the loaded configuration.
func applyFlags(cfg *config.Config, o options) {
	if o.provider != "" {
		cfg.Provider = o.provider
	}
	if o.source != "" {
		cfg.SourceLang = o.source
	}
	if o.target != "" {
		cfg.TargetLang = o.target
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFile {
		cfg.LogToFile = true
	}
	if o.redisURL != "" {
		cfg.RedisURL = o.redisURL
	}

	override := seltra.ProviderConfig{
		ServiceURL:        o.serviceURL,
		APIKey:            o.apiKey,
		Model:             o.model,
		Timeout:           o.timeout,
		RequestsPerMinute: o.rpm,
	}
	cfg.Providers[cfg.Provider] = cfg.Providers[cfg.Provider].Merge(override)
}

func inputText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// TranslationOutput is the JSON shape of a one-shot translation.
type TranslationOutput struct {
	Provider    string `json:"provider"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
	Words       int    `json:"words"`
	OK          bool   `json:"ok"`
	Reason      string `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

func translateOnce(ctx context.Context, engine *seltra.Engine, retry seltra.RetryConfig, text string, o options, stdout io.Writer) error {
	start := time.Now()
	result := seltra.TranslateWithRetry(ctx, engine, retry, text)
	elapsed := time.Since(start)

	if result.OK() && o.copy {
		sys := clipboard.NewSystem()
		if err := sys.Write(result.Text()); err != nil {
			return fmt.Errorf("copying translation: %w", err)
		}
		// The copied text lives only as long as this process owns it
		defer sys.Hold(ctx, copyHold)
	}

	if o.jsonOut {
		source, target := engine.Languages()
		out := TranslationOutput{
			Provider:    engine.ActiveProvider(),
			Source:      source,
			Target:      target,
			Text:        strings.TrimSpace(text),
			Translation: result.Text(),
			Words:       engine.WordCount(text),
			OK:          result.OK(),
			Reason:      string(result.Reason()),
			Message:     result.Message(),
			ElapsedMs:   elapsed.Milliseconds(),
		}
		if err := writeJSON(stdout, out); err != nil {
			return err
		}
	} else if result.OK() {
		fmt.Fprintln(stdout, result.Text())
	}

	return result.Err()
}

// translateLines translates every non-blank line of text as one batch.
// Failed lines print their reason in place of a translation.
func translateLines(ctx context.Context, engine *seltra.Engine, text string, o options, stdout io.Writer, logger *slog.Logger) error {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return seltra.NewError(seltra.ReasonEmptyInput, "empty text provided", nil)
	}

	start := time.Now()
	results := engine.TranslateBatch(ctx, lines, seltra.DefaultBatchConcurrency)
	elapsed := time.Since(start)

	source, target := engine.Languages()
	outputs := make([]TranslationOutput, len(results))
	failed := 0
	for i, r := range results {
		if !r.OK() {
			failed++
			logger.Warn("line failed", "line", i+1, "reason", r.Reason(), "error", r.Message())
		}
		outputs[i] = TranslationOutput{
			Provider:    engine.ActiveProvider(),
			Source:      source,
			Target:      target,
			Text:        lines[i],
			Translation: r.Text(),
			Words:       engine.WordCount(lines[i]),
			OK:          r.OK(),
			Reason:      string(r.Reason()),
			Message:     r.Message(),
			ElapsedMs:   elapsed.Milliseconds(),
		}
	}

	if o.jsonOut {
		if err := writeJSON(stdout, outputs); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Fprintln(stdout, r)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed", failed, len(lines))
	}
	return nil
}

// ProviderOutput is the JSON shape of one -list entry.
type ProviderOutput struct {
	Name             string   `json:"name"`
	Active           bool     `json:"active"`
	Available        bool     `json:"available"`
	Description      string   `json:"description"`
	RequiresInternet bool     `json:"requires_internet"`
	Languages        []string `json:"languages"`
	TimeoutSeconds   float64  `json:"timeout_seconds"`
}

func listProviders(ctx context.Context, engine *seltra.Engine, stdout io.Writer, jsonOut bool) error {
	statuses := engine.AvailableProviders(ctx)
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	active := engine.ActiveProvider()
	out := make([]ProviderOutput, 0, len(names))
	for _, name := range names {
		s := statuses[name]
		out = append(out, ProviderOutput{
			Name:             name,
			Active:           name == active,
			Available:        s.Available,
			Description:      s.Description,
			RequiresInternet: s.RequiresInternet,
			Languages:        s.Languages.Codes(),
			TimeoutSeconds:   s.Timeout.Seconds(),
		})
	}

	if jsonOut {
		return writeJSON(stdout, out)
	}

	for _, p := range out {
		mark := " "
		if p.Active {
			mark = "*"
		}
		status := "available"
		if !p.Available {
			status = "unavailable"
		}
		fmt.Fprintf(stdout, "%s %-15s %-12s %s\n", mark, p.Name, status, p.Description)
	}
	return nil
}

// Check is the outcome of one dependency check.
type Check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// checkDependencies probes the active backend and the desktop tools the
// watcher relies on.
func checkDependencies(ctx context.Context, engine *seltra.Engine, cfg *config.Config) []Check {
	info := engine.ProviderInfo(ctx)
	xsel := &clipboard.Xsel{Command: cfg.SelectionCommand}
	xdotool := &position.Xdotool{Command: cfg.CursorCommand}

	return []Check{
		{Name: "translation engine", OK: info.Available, Detail: info.Name + ": " + info.Description},
		{Name: "selection tool", OK: xsel.Available(ctx), Detail: cfg.SelectionCommand},
		{Name: "cursor tool", OK: xdotool.Available(ctx), Detail: cfg.CursorCommand},
	}
}

func printChecks(stdout io.Writer, checks []Check, jsonOut bool) error {
	if jsonOut {
		return writeJSON(stdout, checks)
	}
	for _, c := range checks {
		status := "ok"
		if !c.OK {
			status = "missing"
		}
		fmt.Fprintf(stdout, "%-20s %-8s %s\n", c.Name, status, c.Detail)
	}
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config, engine *seltra.Engine, retry seltra.RetryConfig, o options, stdout io.Writer, logger *slog.Logger) error {
	watcher := clipboard.NewWatcher(
		&clipboard.Xsel{Command: cfg.SelectionCommand},
		clipboard.WithInterval(cfg.PollInterval),
		clipboard.WithLengthBounds(cfg.MinLength, cfg.MaxLength),
		clipboard.WithLogger(logger),
	)

	dispatcher, err := worker.New(engine, worker.WithRetry(retry), worker.WithLogger(logger))
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	placer := position.NewPlacer(
		&position.Xdotool{Command: cfg.CursorCommand},
		position.Display{},
		position.WithLogger(logger),
	)

	var copier clipboard.Writer
	if o.copy {
		copier = clipboard.NewSystem()
	}

	emit := func(ev PopupEvent) error {
		if o.jsonOut {
			return json.NewEncoder(stdout).Encode(ev)
		}
		fmt.Fprintf(stdout, "[%d,%d] %s\n", ev.X, ev.Y, ev.display())
		return nil
	}
	return watchLoop(ctx, watcher, dispatcher, placer, o.popupWidth, o.popupHeight, copier, emit, logger)
}

// PopupEvent is one translation ready to be shown.
type PopupEvent struct {
	JobID       string `json:"job_id"`
	Provider    string `json:"provider"`
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Located     bool   `json:"located"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

func (ev PopupEvent) display() string {
	if ev.Reason != "" {
		return ev.Reason + ": " + ev.Message
	}
	return ev.Translation
}

// watchLoop feeds new selections to the dispatcher and emits each result
// with its popup position until ctx is done or emit fails. A non-nil copier
// receives every successful translation.
func watchLoop(ctx context.Context, watcher *clipboard.Watcher, d *worker.Dispatcher, placer *position.Placer, width, height int, copier clipboard.Writer, emit func(PopupEvent) error, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		watcher.Run(ctx, func(text string) {
			if _, err := d.Submit(text); err != nil {
				logger.Warn("selection dropped", "error", err)
			}
		})
	}()
	defer func() {
		cancel()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case out, ok := <-d.Results():
			if !ok {
				return nil
			}
			if copier != nil && out.Result.OK() {
				if err := copier.Write(out.Result.Text()); err != nil {
					logger.Warn("copying translation failed", "job", out.JobID, "error", err)
				}
			}
			pt, located := placer.Place(ctx, width, height)
			ev := PopupEvent{
				JobID:       out.JobID,
				Provider:    out.Provider,
				Text:        out.Input,
				Translation: out.Result.Text(),
				Reason:      string(out.Result.Reason()),
				Message:     out.Result.Message(),
				X:           pt.X,
				Y:           pt.Y,
				Located:     located,
				ElapsedMs:   out.Elapsed.Milliseconds(),
			}
			if err := emit(ev); err != nil {
				return err
			}
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
