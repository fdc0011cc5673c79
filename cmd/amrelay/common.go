package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/oukeidos/amrelay/internal/answer"
	"github.com/oukeidos/amrelay/internal/auth"
	"github.com/oukeidos/amrelay/internal/breaker"
	"github.com/oukeidos/amrelay/internal/cambai"
	"github.com/oukeidos/amrelay/internal/cleanup"
	"github.com/oukeidos/amrelay/internal/config"
	"github.com/oukeidos/amrelay/internal/gemini"
	"github.com/oukeidos/amrelay/internal/gtranslate"
	"github.com/oukeidos/amrelay/internal/httpclient"
	"github.com/oukeidos/amrelay/internal/logger"
	"github.com/oukeidos/amrelay/internal/openai"
	"github.com/oukeidos/amrelay/internal/prompt"
	"github.com/oukeidos/amrelay/internal/relay"
	"golang.org/x/term"
)

var (
	isTerminal   = term.IsTerminal
	getEnvKey    = auth.GetEnvKey
	getStatus    = auth.GetStatus
	saveKey      = auth.SaveKey
	deleteKey    = auth.DeleteKey
	promptForKey = auth.PromptForAPIKey
	newConfirmer = prompt.DefaultConfirmer
)

func setupLogging(opts *globalOptions) error {
	format, err := logger.ParseFormat(opts.logFormat)
	if err != nil {
		return err
	}
	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if opts.logFile != "" {
		f, err := logger.OpenFile(opts.logFile)
		if err != nil {
			return err
		}
		cleanup.Register("log file", f.Close)
		logFileW = f
	}
	logger.Init(logLevel, format, logFileW)
	return nil
}

func loadConfig(opts *globalOptions) (*config.Config, error) {
	return config.Load(config.Options{
		EnvFile:       opts.envFile,
		ConfigFile:    opts.configFile,
		AllowKeychain: opts.allowKeychain,
	})
}

func breakerSettings(cfg *config.Config) breaker.Settings {
	return breaker.Settings{
		Failures: uint32(cfg.Breaker.Failures),
		Cooldown: cfg.Breaker.Cooldown,
	}
}

func newTranslator(ctx context.Context, cfg *config.Config) (relay.Translator, error) {
	var t relay.Translator
	switch cfg.TranslationProvider {
	case config.TranslationGoogle:
		svc, err := gtranslate.NewService(ctx, gtranslate.Config{
			APIKey:          cfg.Google.APIKey,
			CredentialsFile: cfg.Google.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		cleanup.Register("google translate client", svc.Close)
		t = svc
	default:
		t = cambai.NewClient(cambai.Config{
			BaseURL:      cfg.Camb.BaseURL,
			APIKey:       cfg.Camb.APIKey,
			PollInterval: cfg.Camb.PollInterval,
			MaxWait:      cfg.Camb.PollMaxWait,
			MaxAttempts:  cfg.Camb.PollMaxAttempts,
		}, httpclient.NewClient(cfg.HTTPTimeout))
	}

	if s := breakerSettings(cfg); s.Enabled() {
		return breaker.WrapTranslator(t, s), nil
	}
	return t, nil
}

func newAnswerer(ctx context.Context, cfg *config.Config) (relay.Answerer, error) {
	var a relay.Answerer
	switch cfg.AnswerProvider {
	case config.AnswerOpenAI:
		c := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, httpclient.NewClient(cfg.HTTPTimeout))
		c.SetSystemInstruction(cfg.SystemPrompt)
		a = c
	case config.AnswerGemini:
		c, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.HTTPTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		cleanup.Register("gemini client", c.Close)
		c.SetSystemInstruction(cfg.SystemPrompt)
		a = c
	default:
		a = answer.NewHTTPProvider(cfg.AnswerURL, httpclient.NewClient(cfg.HTTPTimeout))
	}

	if s := breakerSettings(cfg); s.Enabled() {
		return breaker.WrapAnswerer(a, s), nil
	}
	return a, nil
}

// newService builds the relay. The answer provider is only built when
// withAnswer is set, so translate-only commands need no answer settings.
func newService(ctx context.Context, cfg *config.Config, withAnswer bool) (*relay.Service, error) {
	t, err := newTranslator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var a relay.Answerer
	if withAnswer {
		if a, err = newAnswerer(ctx, cfg); err != nil {
			return nil, err
		}
	}
	logger.Debug("Relay configured", "translation", cfg.TranslationProvider, "qa", cfg.AnswerProvider)
	return relay.New(t, a, relay.Options{MaxGraphemes: cfg.MaxInputGraphemes}), nil
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Cancellation requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
