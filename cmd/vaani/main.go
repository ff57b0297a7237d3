// Command vaani is the voice-gated conversational banking server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vaani-labs/vaani/internal/app"
	"github.com/vaani-labs/vaani/internal/config"
	"github.com/vaani-labs/vaani/internal/observe"
	"github.com/vaani-labs/vaani/internal/server"
	"github.com/vaani-labs/vaani/pkg/provider/intent"
	"github.com/vaani-labs/vaani/pkg/provider/intent/modelserver"
	"github.com/vaani-labs/vaani/pkg/provider/stt"
	"github.com/vaani-labs/vaani/pkg/provider/stt/whisper"
	"github.com/vaani-labs/vaani/pkg/provider/translate"
	"github.com/vaani-labs/vaani/pkg/provider/translate/libretranslate"
	"github.com/vaani-labs/vaani/pkg/provider/voiceenc"
	"github.com/vaani-labs/vaani/pkg/provider/voiceenc/resemblyzer"
)

// version is stamped by the build via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vaani: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "vaani: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("vaani starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry first so every later subsystem records into the real
	// providers.
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "vaani",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	application, err := app.New(ctx, cfg, providers, app.WithMetrics(metrics))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.New(application, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready, press Ctrl+C to shut down", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("shutdown signal received, stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the provider
// from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterVoiceEncoder("resemblyzer", func(entry config.ProviderEntry) (voiceenc.Provider, error) {
		var opts []resemblyzer.Option
		if dims := optInt(entry.Options, "dimensions"); dims > 0 {
			opts = append(opts, resemblyzer.WithDimensions(dims))
		}
		if t := optDuration(entry.Options, "timeout"); t > 0 {
			opts = append(opts, resemblyzer.WithTimeout(t))
		}
		return resemblyzer.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterNLU("modelserver", func(entry config.ProviderEntry) (intent.Provider, error) {
		var opts []modelserver.Option
		if t := optDuration(entry.Options, "timeout"); t > 0 {
			opts = append(opts, modelserver.WithTimeout(t))
		}
		return modelserver.New(entry.BaseURL, opts...), nil
	})

	reg.RegisterTranslate("libretranslate", func(entry config.ProviderEntry) (translate.Provider, error) {
		var opts []libretranslate.Option
		if entry.APIKey != "" {
			opts = append(opts, libretranslate.WithAPIKey(entry.APIKey))
		}
		return libretranslate.New(entry.BaseURL, opts...), nil
	})
}

// buildProviders instantiates all providers named in cfg using the registry
// and returns them in an [app.Providers] struct for the application to
// consume.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	if name := cfg.Providers.VoiceEncoder.Name; name != "" {
		p, err := reg.CreateVoiceEncoder(cfg.Providers.VoiceEncoder)
		if err != nil {
			return nil, fmt.Errorf("create voice encoder provider %q: %w", name, err)
		}
		ps.VoiceEncoder = p
		slog.Info("provider created", "kind", "voice_encoder", "name", name, "model", p.ModelID())
	}

	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(cfg.Providers.STT)
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", name, err)
		}
		ps.STT = p
		slog.Info("provider created", "kind", "stt", "name", name, "model", p.ModelID())
	}

	if name := cfg.Providers.NLU.Name; name != "" {
		p, err := reg.CreateNLU(cfg.Providers.NLU)
		if err != nil {
			return nil, fmt.Errorf("create nlu provider %q: %w", name, err)
		}
		ps.NLU = p
		slog.Info("provider created", "kind", "nlu", "name", name)
	}

	if name := cfg.Providers.Translate.Name; name != "" {
		p, err := reg.CreateTranslate(cfg.Providers.Translate)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("translate provider not registered, translation disabled", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create translate provider %q: %w", name, err)
		} else {
			ps.Translate = p
			slog.Info("provider created", "kind", "translate", "name", name)
		}
	}

	return ps, nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a
// string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optInt extracts an integer value from a provider Options map. YAML decodes
// numbers as int, so a plain type assertion covers the common case.
func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	switch v := opts[key].(type) {
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// optDuration extracts a duration value ("5s", "500ms") from a provider
// Options map.
func optDuration(opts map[string]any, key string) time.Duration {
	s := optString(opts, key)
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		slog.Warn("invalid duration option, ignoring", "key", key, "value", s)
		return 0
	}
	return d
}
