// Package config loads the relay's settings from the environment, an
// optional .env file and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/oukeidos/amrelay/internal/auth"
	"github.com/oukeidos/amrelay/internal/breaker"
	"github.com/oukeidos/amrelay/internal/cambai"
	"github.com/oukeidos/amrelay/internal/gemini"
	"github.com/oukeidos/amrelay/internal/httpclient"
	"github.com/oukeidos/amrelay/internal/openai"
	"github.com/oukeidos/amrelay/internal/relay"
	"github.com/oukeidos/amrelay/internal/server"
)

const (
	TranslationCamb   = "camb"
	TranslationGoogle = "google"

	AnswerHTTP   = "http"
	AnswerOpenAI = "openai"
	AnswerGemini = "gemini"

	DefaultPort    = 3000
	defaultEnvFile = ".env"
)

// lookupKey is swapped in tests.
var lookupKey = auth.GetKey

type CambConfig struct {
	APIKey          string
	BaseURL         string
	PollInterval    time.Duration
	PollMaxWait     time.Duration
	PollMaxAttempts int
}

type GoogleConfig struct {
	APIKey          string
	CredentialsFile string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type BreakerConfig struct {
	Failures int
	Cooldown time.Duration
}

// Config is built once at startup and only read afterwards.
type Config struct {
	Port               int
	HTTPTimeout        time.Duration
	ShutdownTimeout    time.Duration
	MaxInputGraphemes  int
	CORSAllowedOrigins []string

	TranslationProvider string
	Camb                CambConfig
	Google              GoogleConfig

	AnswerProvider string
	AnswerURL      string
	SystemPrompt   string
	OpenAI         OpenAIConfig
	Gemini         GeminiConfig

	Breaker BreakerConfig
}

type Options struct {
	// EnvFile is loaded into the process environment without overriding
	// variables that are already set. Empty means ".env" if it exists.
	EnvFile string
	// ConfigFile is an optional YAML file. Environment variables win.
	ConfigFile string
	// AllowKeychain lets missing API keys be read from the OS keychain.
	AllowKeychain bool
}

// Load reads the configuration. It does not validate it.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:               v.GetInt("port"),
		HTTPTimeout:        v.GetDuration("http.timeout"),
		ShutdownTimeout:    v.GetDuration("shutdown.timeout"),
		MaxInputGraphemes:  v.GetInt("max_input_graphemes"),
		CORSAllowedOrigins: stringList(v, "cors.allowed_origins"),

		TranslationProvider: strings.ToLower(strings.TrimSpace(v.GetString("translation.provider"))),
		Camb: CambConfig{
			APIKey:          apiKey(v, "camb.api_key", "camb", opts.AllowKeychain),
			BaseURL:         strings.TrimSpace(v.GetString("camb.base_url")),
			PollInterval:    v.GetDuration("poll.interval"),
			PollMaxWait:     v.GetDuration("poll.max_wait"),
			PollMaxAttempts: v.GetInt("poll.max_attempts"),
		},
		Google: GoogleConfig{
			APIKey:          apiKey(v, "google.translate_api_key", "google", opts.AllowKeychain),
			CredentialsFile: strings.TrimSpace(v.GetString("google.application_credentials")),
		},

		AnswerProvider: strings.ToLower(strings.TrimSpace(v.GetString("answer.provider"))),
		AnswerURL:      strings.TrimSpace(v.GetString("answer.url")),
		SystemPrompt:   v.GetString("answer.system_prompt"),
		OpenAI: OpenAIConfig{
			APIKey:  apiKey(v, "openai.api_key", "openai", opts.AllowKeychain),
			BaseURL: strings.TrimSpace(v.GetString("openai.base_url")),
			Model:   strings.TrimSpace(v.GetString("openai.model")),
		},
		Gemini: GeminiConfig{
			APIKey: apiKey(v, "gemini.api_key", "gemini", opts.AllowKeychain),
			Model:  strings.TrimSpace(v.GetString("gemini.model")),
		},

		Breaker: BreakerConfig{
			Failures: v.GetInt("breaker.failures"),
			Cooldown: v.GetDuration("breaker.cooldown"),
		},
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("http.timeout", httpclient.DefaultTimeout)
	v.SetDefault("shutdown.timeout", server.DefaultShutdownTimeout)
	v.SetDefault("max_input_graphemes", relay.DefaultMaxGraphemes)
	v.SetDefault("cors.allowed_origins", "")

	v.SetDefault("translation.provider", TranslationCamb)
	v.SetDefault("camb.api_key", "")
	v.SetDefault("camb.base_url", cambai.DefaultBaseURL)
	v.SetDefault("poll.interval", cambai.DefaultPollInterval)
	v.SetDefault("poll.max_wait", cambai.DefaultMaxWait)
	v.SetDefault("poll.max_attempts", cambai.DefaultMaxAttempts)
	v.SetDefault("google.translate_api_key", "")
	v.SetDefault("google.application_credentials", "")

	v.SetDefault("answer.provider", AnswerHTTP)
	v.SetDefault("answer.url", "")
	v.SetDefault("answer.system_prompt", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", openai.DefaultBaseURL)
	v.SetDefault("openai.model", openai.DefaultModel)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", gemini.DefaultModel)

	v.SetDefault("breaker.failures", breaker.DefaultFailures)
	v.SetDefault("breaker.cooldown", breaker.DefaultCooldown)
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(defaultEnvFile); err != nil {
			return nil
		}
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func apiKey(v *viper.Viper, key, service string, allowKeychain bool) string {
	if val := strings.TrimSpace(v.GetString(key)); val != "" {
		return val
	}
	val, _ := lookupKey(service, allowKeychain)
	return val
}

// stringList accepts a YAML list or a comma separated string.
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ValidateTranslation checks what the translation backend needs.
func (c *Config) ValidateTranslation() error {
	var errs []error
	switch c.TranslationProvider {
	case TranslationCamb:
		if c.Camb.APIKey == "" {
			errs = append(errs, errors.New("CAMB_API_KEY is required for the camb translation provider"))
		}
		if err := checkURL("CAMB_BASE_URL", c.Camb.BaseURL); err != nil {
			errs = append(errs, err)
		}
		if c.Camb.PollInterval <= 0 {
			errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
		}
		if c.Camb.PollMaxWait <= 0 {
			errs = append(errs, errors.New("POLL_MAX_WAIT must be positive"))
		}
		if c.Camb.PollMaxAttempts < 0 {
			errs = append(errs, errors.New("POLL_MAX_ATTEMPTS must not be negative"))
		}
	case TranslationGoogle:
		if c.Google.APIKey == "" && c.Google.CredentialsFile == "" {
			errs = append(errs, errors.New("GOOGLE_TRANSLATE_API_KEY or GOOGLE_APPLICATION_CREDENTIALS is required for the google translation provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("TRANSLATION_PROVIDER must be %q or %q, got %q", TranslationCamb, TranslationGoogle, c.TranslationProvider))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.Breaker.Failures < 0 {
		errs = append(errs, errors.New("BREAKER_FAILURES must not be negative"))
	}
	return errors.Join(errs...)
}

// Validate checks everything the server needs.
func (c *Config) Validate() error {
	errs := []error{c.ValidateTranslation()}
	switch c.AnswerProvider {
	case AnswerHTTP:
		if c.AnswerURL == "" {
			errs = append(errs, errors.New("ANSWER_URL is required for the http answer provider"))
		} else if err := checkURL("ANSWER_URL", c.AnswerURL); err != nil {
			errs = append(errs, err)
		}
	case AnswerOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai answer provider"))
		}
		if err := checkURL("OPENAI_BASE_URL", c.OpenAI.BaseURL); err != nil {
			errs = append(errs, err)
		}
	case AnswerGemini:
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini answer provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("ANSWER_PROVIDER must be one of %q, %q, %q, got %q", AnswerHTTP, AnswerOpenAI, AnswerGemini, c.AnswerProvider))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func checkURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL", name)
	}
	return nil
}
