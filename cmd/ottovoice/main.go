// OttoVoice: a terminal front end for the voice-response core.
//
// Usage:
//
//	ottovoice [-verbose] [-quiet] [-no-speech] [-no-audio] [-persona id]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hammamikhairi/ottovoice/internal/config"
	"github.com/hammamikhairi/ottovoice/internal/content"
	"github.com/hammamikhairi/ottovoice/internal/conversation"
	"github.com/hammamikhairi/ottovoice/internal/display"
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/engine"
	"github.com/hammamikhairi/ottovoice/internal/logger"
	"github.com/hammamikhairi/ottovoice/internal/metrics"
	"github.com/hammamikhairi/ottovoice/internal/phrase"
	"github.com/hammamikhairi/ottovoice/internal/resolve"
	"github.com/hammamikhairi/ottovoice/internal/speech"
	"github.com/hammamikhairi/ottovoice/internal/voice"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".otto-logs/ottovoice.log", "file to write logs to (use \"stderr\" to log to console)")
	noSpeech := flag.Bool("no-speech", false, "disable cloud synthesis even if Azure keys are set")
	noAudio := flag.Bool("no-audio", false, "skip the audio device and use the local fallback voice")
	persona := flag.String("persona", "", "persona to start with (overrides OTTO_DEFAULT_PERSONA)")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address (overrides OTTO_METRICS_ADDR)")
	noWarmup := flag.Bool("no-warmup", false, "skip pre-synthesizing the phrase table at startup")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *persona != "" {
		cfg.DefaultPersona = *persona
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	// Configure logger.
	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the prompt stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Third-party libraries log through the standard logger; keep them
	// off the terminal too.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	// Cancelled when the UI quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := content.NewMemorySource(log.Named("content"))
	if _, err := src.Persona(ctx, cfg.DefaultPersona); err != nil {
		log.Error("unknown persona %q, using %q", cfg.DefaultPersona, content.PersonaOtto)
		cfg.DefaultPersona = content.PersonaOtto
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(cfg.MetricsNamespace, reg)
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
		log.Info("metrics on http://%s/metrics", cfg.MetricsAddr)
	}

	// Cloud synthesis is optional; without it every utterance uses the
	// local fallback voice.
	var tts domain.Synthesizer
	if cfg.ProviderEnabled() && !*noSpeech {
		tts = speech.NewAzureClient(cfg.AzureKey, cfg.AzureRegion, log.Named("azure"),
			speech.WithHTTPTimeout(cfg.SynthTimeout),
		)
		log.Info("cloud voice enabled (region=%s)", cfg.AzureRegion)
	} else if !*noSpeech {
		log.Info("cloud voice disabled: set AZURE_SPEECH_KEY and AZURE_SPEECH_REGION to enable")
	}

	var audio domain.AudioDevice
	if !*noAudio {
		player, err := speech.NewPlayer(log.Named("player"))
		if err != nil {
			log.Error("audio player init failed, using the fallback voice: %v", err)
		} else {
			audio = player
		}
	}

	match := phrase.DefaultMatchConfig()
	match.Threshold = cfg.MatchThreshold

	orch := voice.New(voice.Deps{
		Content:     src,
		Synthesizer: tts,
		Fallback:    speech.NewLocalSynth(log.Named("local")),
		Audio:       audio,
	}, log.Named("voice"),
		voice.WithDefaultPersona(cfg.DefaultPersona),
		voice.WithMetrics(m),
		voice.WithWarmup(!*noWarmup),
		voice.WithFallbackParams(domain.FallbackParams{Rate: cfg.FallbackRate, Volume: cfg.FallbackVolume}),
		voice.WithCacheOptions(
			phrase.WithCapacity(cfg.CacheCapacity),
			phrase.WithPreloadThreshold(cfg.PreloadPriority),
			phrase.WithMatchConfig(match),
		),
		voice.WithTrackerOptions(conversation.WithIdleThreshold(cfg.IdleThreshold)),
		voice.WithResolverOptions(
			resolve.WithTimeout(cfg.SynthTimeout),
			resolve.WithFlavorChance(cfg.FlavorChance),
			resolve.WithCaching(cfg.CachingEnabled),
			resolve.WithChunkSize(cfg.ChunkSize),
			resolve.WithAudioStore(speech.NewAudioStore(speech.DefaultAudioStoreSize, log.Named("audio"))),
		),
		voice.WithStatusListener(func(s voice.Status) {
			log.Debug("playing=%v queued=%d degraded=%v", s.IsPlaying, s.QueueLength, s.Degraded)
		}),
	)
	if err := orch.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer orch.Close()

	attention := voice.NewAttention(orch, log.Named("attention"))
	attention.Start(ctx)
	defer attention.Stop()

	ui := display.NewUI(orch)
	app := &cliApp{
		orch:    orch,
		engine:  engine.New(src, orch.Tracker(), log.Named("engine")),
		parser:  conversation.NewKeywordParser(log.Named("parser")),
		content: src,
		log:     log,
		ui:      ui,
	}

	fmt.Println(display.RenderBanner("Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	// Run app logic in a background goroutine.
	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal and blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	return mux
}
