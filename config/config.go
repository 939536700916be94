package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all medtriage configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Sink     SinkConfig     `yaml:"sink"`
	Agents   AgentsConfig   `yaml:"agents"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RedisConfig enables the queue front end and, without a database, the Redis log store.
type RedisConfig struct {
	URL           string `yaml:"url"`
	InboundStream string `yaml:"inbound_stream"`
	ConsumerGroup string `yaml:"consumer_group"`
	ConsumerName  string `yaml:"consumer_name"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// SinkConfig tunes the persistence sink.
type SinkConfig struct {
	Buffer      int    `yaml:"buffer"`
	RedisStream string `yaml:"redis_stream"`
	RedisMaxLen int64  `yaml:"redis_max_len"`
	MemoryLimit int    `yaml:"memory_limit"`
}

// AgentsConfig holds one endpoint per agent plus shared call settings.
type AgentsConfig struct {
	Timeout        time.Duration  `yaml:"timeout"`
	TargetLanguage string         `yaml:"target_language"`
	Voice          EndpointConfig `yaml:"voice"`
	Triage         EndpointConfig `yaml:"triage"`
	Translation    EndpointConfig `yaml:"translation"`
	History        EndpointConfig `yaml:"history"`
	Vitals         EndpointConfig `yaml:"vitals"`
	Insurance      EndpointConfig `yaml:"insurance"`
	Dispatch       EndpointConfig `yaml:"dispatch"`
}

// EndpointConfig locates one external agent. An empty URL, or "mock",
// selects the deterministic mock implementation.
type EndpointConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// Mock reports whether no real endpoint is configured.
func (e EndpointConfig) Mock() bool {
	return e.URL == "" || strings.EqualFold(e.URL, "mock")
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: "8000"},
		Redis: RedisConfig{
			InboundStream: "triage:inbound",
			ConsumerGroup: "triage-orchestrator",
			ConsumerName:  hostnameOr("orchestrator-1"),
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Sink: SinkConfig{
			Buffer:      256,
			RedisStream: "triage:logs",
			RedisMaxLen: 10000,
			MemoryLimit: 500,
		},
		Agents: AgentsConfig{
			Timeout:        20 * time.Second,
			TargetLanguage: "en",
		},
	}
}

// Load reads the optional YAML file at path over the defaults, then applies
// environment variables, which always win.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Agents.Timeout <= 0 {
		return Config{}, fmt.Errorf("agent timeout must be positive, got %s", cfg.Agents.Timeout)
	}
	if cfg.Sink.Buffer <= 0 {
		return Config{}, fmt.Errorf("sink buffer must be positive, got %d", cfg.Sink.Buffer)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Port, "PORT")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Redis.InboundStream, "REDIS_INBOUND_STREAM")
	setString(&cfg.Redis.ConsumerName, "REDIS_CONSUMER_NAME")
	setString(&cfg.Database.URL, "DATABASE_URL")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	if v := os.Getenv("SINK_BUFFER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SINK_BUFFER %q: %w", v, err)
		}
		cfg.Sink.Buffer = n
	}

	if v := os.Getenv("AGENT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AGENT_TIMEOUT %q: %w", v, err)
		}
		cfg.Agents.Timeout = d
	}
	setString(&cfg.Agents.TargetLanguage, "TRANSLATION_TARGET_LANGUAGE")

	setEndpoint(&cfg.Agents.Voice, []string{"VOICE_API_URL"}, []string{"VOICE_API_KEY"})
	setEndpoint(&cfg.Agents.Triage, []string{"TRIAGE_API_URL"}, []string{"TRIAGE_API_KEY"})
	setEndpoint(&cfg.Agents.Translation, []string{"TRANSLATION_API_URL"}, []string{"TRANSLATION_API_KEY", "GEMINI_API_KEY"})
	setEndpoint(&cfg.Agents.History, []string{"HISTORY_API_URL", "MEDICAL_OFFICE_TRIAGE_API_URL"}, []string{"HISTORY_API_KEY"})
	setEndpoint(&cfg.Agents.Vitals, []string{"VITALS_API_URL", "ML_API_URL"}, []string{"VITALS_API_KEY"})
	setEndpoint(&cfg.Agents.Insurance, []string{"INSURANCE_API_URL"}, []string{"INSURANCE_API_KEY"})
	setEndpoint(&cfg.Agents.Dispatch, []string{"DISPATCH_API_URL"}, []string{"DISPATCH_API_KEY"})
	return nil
}

// setString overwrites dst with the first non-empty variable among keys.
func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			*dst = v
			return
		}
	}
}

func setEndpoint(e *EndpointConfig, urlKeys, apiKeyKeys []string) {
	setString(&e.URL, urlKeys...)
	setString(&e.APIKey, apiKeyKeys...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hostnameOr(fallback string) string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return fallback
}
