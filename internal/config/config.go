package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"clinicchat/internal/domain"
)

const DefaultBaseURL = "https://2o02845p39.execute-api.ap-south-1.amazonaws.com/plane_BA"

// Transcriber backends.
const (
	TranscriberDeepgram = "deepgram"
	TranscriberWhisper  = "whisper"
)

// Config stores runtime configuration.
type Config struct {
	Gateway  GatewayConfig
	Session  SessionConfig
	Speech   SpeechConfig
	Deepgram DeepgramConfig
	OpenAI   OpenAIConfig
	Audio    AudioConfig
	Rules    RulesConfig
	Log      LogConfig
}

type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	DefaultUserID string
	AutoSend      bool
}

type SpeechConfig struct {
	Transcriber string
}

type DeepgramConfig struct {
	APIKey       string
	APIBaseURL   string
	Model        string
	Language     string
	SmartFormat  bool
	CloseTimeout time.Duration
}

type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

type AudioConfig struct {
	RecorderCommand  string
	InputFormat      string
	InputDevice      string
	SampleRate       int
	Channels         int
	ChunkSize        int
	MaxRecordingTime time.Duration
}

type RulesConfig struct {
	Path           string
	IterationLimit int
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadDotEnv reads .env-style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load resolves configuration from environment variables and defaults.
func Load() (Config, error) {
	rulesPath := strings.TrimSpace(os.Getenv("CLINICCHAT_RULES_FILE"))
	if rulesPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			rulesPath = filepath.Join(home, ".config", "clinicchat", "substitutions.rules")
		}
	}

	cfg := Config{
		Gateway: GatewayConfig{
			BaseURL: envOrDefault("CLINICCHAT_BASE_URL", DefaultBaseURL),
			Timeout: time.Duration(envOrDefaultInt("CLINICCHAT_HTTP_TIMEOUT_MS", 10000)) * time.Millisecond,
		},
		Session: SessionConfig{
			DefaultUserID: envOrDefault("CLINICCHAT_DEFAULT_USER", domain.DefaultUserID),
			AutoSend:      envOrDefaultBool("CLINICCHAT_AUTO_SEND", false),
		},
		Speech: SpeechConfig{
			Transcriber: strings.ToLower(envOrDefault("CLINICCHAT_TRANSCRIBER", TranscriberDeepgram)),
		},
		Deepgram: DeepgramConfig{
			APIKey:       strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:   envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:        envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:     strings.TrimSpace(os.Getenv("DEEPGRAM_LANGUAGE")),
			SmartFormat:  envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
			CloseTimeout: time.Duration(envOrDefaultInt("DEEPGRAM_CLOSE_TIMEOUT_MS", 10000)) * time.Millisecond,
		},
		OpenAI: OpenAIConfig{
			APIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL:  strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
			Model:    envOrDefault("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
			Language: strings.TrimSpace(os.Getenv("OPENAI_TRANSCRIBE_LANGUAGE")),
		},
		Audio: AudioConfig{
			RecorderCommand:  envOrDefault("CLINICCHAT_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:      envOrDefault("CLINICCHAT_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:      envOrDefault("CLINICCHAT_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:       envOrDefaultInt("CLINICCHAT_SAMPLE_RATE", 16000),
			Channels:         envOrDefaultInt("CLINICCHAT_CHANNELS", 1),
			ChunkSize:        envOrDefaultInt("CLINICCHAT_AUDIO_CHUNK_SIZE", 4096),
			MaxRecordingTime: time.Duration(envOrDefaultInt("CLINICCHAT_MAX_RECORDING_SECONDS", 120)) * time.Second,
		},
		Rules: RulesConfig{
			Path:           rulesPath,
			IterationLimit: envOrDefaultInt("CLINICCHAT_RULE_ITERATION_LIMIT", 30),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
			Format: strings.ToLower(envOrDefault("LOG_FORMAT", "console")),
		},
	}

	if cfg.Gateway.Timeout <= 0 {
		cfg.Gateway.Timeout = 10 * time.Second
	}
	if cfg.Deepgram.CloseTimeout <= 0 {
		cfg.Deepgram.CloseTimeout = 10 * time.Second
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.ChunkSize < 256 {
		cfg.Audio.ChunkSize = 4096
	}
	if cfg.Audio.MaxRecordingTime <= 0 {
		cfg.Audio.MaxRecordingTime = 120 * time.Second
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 30
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks values that have no usable fallback.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Session.DefaultUserID) == "" {
		return errors.New("CLINICCHAT_DEFAULT_USER cannot be blank")
	}
	switch c.Speech.Transcriber {
	case TranscriberDeepgram, TranscriberWhisper:
	default:
		return fmt.Errorf("unsupported CLINICCHAT_TRANSCRIBER %q", c.Speech.Transcriber)
	}
	return nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
