package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/champs-software/support-chat/internal/service/assistant"
)

// Config aggregates the service's configuration.
type Config struct {
	Server    ServerConfig
	Assistant AssistantConfig
	Corpus    CorpusConfig
	Session   SessionConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	asst, err := loadAssistantConfig()
	if err != nil {
		return nil, err
	}

	corpusCfg, err := loadCorpusConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Assistant: asst, Corpus: corpusCfg, Session: session}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// allow ":8080" or "127.0.0.1:8080" directly
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AssistantConfig describes the remote LLM-assistant backend.
type AssistantConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	RunTimeout   time.Duration
	PollInterval time.Duration
}

// Enabled reports whether the required credentials are present.
func (c AssistantConfig) Enabled() bool {
	return c.APIKey != ""
}

// NewClient builds the OpenAI-backed assistant client from this configuration.
func (c AssistantConfig) NewClient() (*assistant.OpenAI, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	return assistant.NewOpenAI(assistant.OpenAIConfig{
		APIKey:       c.APIKey,
		Model:        c.Model,
		BaseURL:      c.BaseURL,
		RunTimeout:   c.RunTimeout,
		PollInterval: c.PollInterval,
	}), nil
}

func loadAssistantConfig() (AssistantConfig, error) {
	runTimeout := 120 * time.Second
	if override, err := parseOptionalIntEnv("RUN_TIMEOUT_SECONDS"); err != nil {
		return AssistantConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AssistantConfig{}, fmt.Errorf("RUN_TIMEOUT_SECONDS must be positive, got %d", *override)
		}
		runTimeout = time.Duration(*override) * time.Second
	}

	pollInterval := time.Second
	if override, err := parseOptionalIntEnv("RUN_POLL_MS"); err != nil {
		return AssistantConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AssistantConfig{}, fmt.Errorf("RUN_POLL_MS must be positive, got %d", *override)
		}
		pollInterval = time.Duration(*override) * time.Millisecond
	}

	return AssistantConfig{
		APIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:        getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		BaseURL:      strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		RunTimeout:   runTimeout,
		PollInterval: pollInterval,
	}, nil
}

// CorpusConfig describes the document sources backing each corpus.
type CorpusConfig struct {
	MobileDir  string
	DesktopDir string
	AllDir     string
	Preload    bool
}

func loadCorpusConfig() (CorpusConfig, error) {
	preload, err := parseBoolEnv("ENABLE_PRELOAD", true)
	if err != nil {
		return CorpusConfig{}, err
	}

	return CorpusConfig{
		MobileDir:  getEnvOrDefault("CORPUS_MOBILE_DIR", "/app/data/mobile"),
		DesktopDir: getEnvOrDefault("CORPUS_DESKTOP_DIR", "/app/data/desktop"),
		AllDir:     getEnvOrDefault("CORPUS_ALL_DIR", "/app/data/all"),
		Preload:    preload,
	}, nil
}

// SessionConfig describes session lifecycle settings.
type SessionConfig struct {
	// TTL is the idle lifetime of a session. Zero disables expiry.
	TTL time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	ttl := 12 * time.Hour
	if override, err := parseOptionalIntEnv("SESSION_TTL_MINUTES"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return SessionConfig{}, fmt.Errorf("SESSION_TTL_MINUTES must not be negative, got %d", *override)
		}
		ttl = time.Duration(*override) * time.Minute
	}

	return SessionConfig{TTL: ttl}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
