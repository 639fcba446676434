package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/smith3v/ancestral-lingo/pkg/logger"
)

type Config struct {
	Database  DatabaseConfig `json:"database" envPrefix:"DB_"`
	Telegram  TelegramConfig `json:"telegram" envPrefix:"TELEGRAM_"`
	Logging   LoggingConfig  `json:"logging" envPrefix:"LOG_"`
	Game      GameConfig     `json:"game" envPrefix:"GAME_"`
	Speech    SpeechConfig   `json:"speech" envPrefix:"SPEECH_"`
	Reminders ReminderConfig `json:"reminders" envPrefix:"REMINDER_"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite". Path is only used by sqlite.
	Driver   string `json:"driver" env:"DRIVER" validate:"omitempty,oneof=postgres sqlite"`
	Path     string `json:"path" env:"PATH"`
	Host     string `json:"host" env:"HOST"`
	User     string `json:"user" env:"USER"`
	Password string `json:"password" env:"PASSWORD"`
	DBName   string `json:"dbname" env:"NAME"`
	Port     int    `json:"port" env:"PORT" validate:"gte=0,lte=65535"`
	SSLMode  string `json:"sslmode" env:"SSLMODE"`
}

type TelegramConfig struct {
	Token string `json:"token" env:"TOKEN" validate:"required"`
}

type LoggingConfig struct {
	Level     string `json:"level" env:"LEVEL" validate:"omitempty,oneof=debug info error"`
	File      string `json:"file" env:"FILE"`
	GormLevel string `json:"gorm_level" env:"GORM_LEVEL" validate:"omitempty,oneof=silent error warn info"`
}

type GameConfig struct {
	QuestionCount int      `json:"question_count" env:"QUESTION_COUNT" validate:"gte=0,lte=50"`
	Timezone      string   `json:"timezone" env:"TIMEZONE"`
	VocabularyDir string   `json:"vocabulary_dir" env:"VOCABULARY_DIR"`
	IdleTimeout   Duration `json:"idle_timeout" env:"IDLE_TIMEOUT"`
	// SnapshotRetention of zero keeps unfinished lessons forever.
	SnapshotRetention Duration `json:"snapshot_retention" env:"SNAPSHOT_RETENTION"`
	MismatchDelay     Duration `json:"mismatch_delay" env:"MISMATCH_DELAY"`
}

type SpeechConfig struct {
	Enabled    bool     `json:"enabled" env:"ENABLED"`
	Lang       string   `json:"lang" env:"LANG"`
	Rate       float64  `json:"rate" env:"RATE" validate:"gte=0,lte=2"`
	AudioDelay Duration `json:"audio_delay" env:"AUDIO_DELAY"`
}

// ReminderConfig controls the daily streak reminder. Hour is the local hour
// (in game.timezone) after which users whose streak is at risk are nudged.
type ReminderConfig struct {
	Enabled bool `json:"enabled" env:"ENABLED"`
	Hour    int  `json:"hour" env:"HOUR" validate:"gte=0,lte=23"`
}

// Duration accepts Go duration strings ("500ms", "24h") in JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

const (
	DefaultQuestionCount     = 8
	DefaultIdleTimeout       = 30 * time.Minute
	DefaultSnapshotRetention = 30 * 24 * time.Hour
	DefaultMismatchDelay     = 500 * time.Millisecond
	DefaultAudioDelay        = 500 * time.Millisecond
	DefaultSpeechLang        = "es-ES"
	DefaultSpeechRate        = 0.8
	DefaultReminderHour      = 19
)

var AppConfig Config

var errInvalidConfig = errors.New("invalid config")

// LoadConfig reads the JSON file, applies LINGO_* environment overrides,
// fills defaults and validates the result into AppConfig.
func LoadConfig(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	cfg := Defaults()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "LINGO_"}); err != nil {
		logger.Error("failed to apply environment overrides", "error", err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("config validation failed", "error", err)
		return err
	}

	AppConfig = cfg
	return nil
}

// Defaults returns the configuration used for every field the file omits.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:  "postgres",
			Port:    5432,
			SSLMode: "disable",
		},
		Logging: LoggingConfig{
			Level:     "info",
			GormLevel: "warn",
		},
		Game: GameConfig{
			QuestionCount:     DefaultQuestionCount,
			IdleTimeout:       Duration{DefaultIdleTimeout},
			SnapshotRetention: Duration{DefaultSnapshotRetention},
			MismatchDelay:     Duration{DefaultMismatchDelay},
		},
		Speech: SpeechConfig{
			Enabled:    true,
			Lang:       DefaultSpeechLang,
			Rate:       DefaultSpeechRate,
			AudioDelay: Duration{DefaultAudioDelay},
		},
		Reminders: ReminderConfig{
			Enabled: true,
			Hour:    DefaultReminderHour,
		},
	}
}

func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required for sqlite", errInvalidConfig)
	}
	if _, err := c.Game.Location(); err != nil {
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	return nil
}

// Location resolves the timezone used to decide calendar days for streaks.
func (g GameConfig) Location() (*time.Location, error) {
	if g.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(g.Timezone)
}
