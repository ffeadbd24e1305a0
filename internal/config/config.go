// Package config loads layered settings: flags, MOCKEXAM_* environment
// variables, an optional mockexam.yaml and built-in defaults, in that order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/llm"
	"github.com/abhisek/mockexam/internal/session"
)

// EnvPrefix prefixes every environment variable the app reads.
const EnvPrefix = "MOCKEXAM"

// Config is the full application configuration.
type Config struct {
	LLM   llm.Config  `mapstructure:"llm"`
	Exam  ExamConfig  `mapstructure:"exam"`
	DB    string      `mapstructure:"db"`
	Lang  string      `mapstructure:"lang"`
	Log   LogConfig   `mapstructure:"log"`
	Serve ServeConfig `mapstructure:"serve"`
}

// ExamConfig holds session parameters and the default exam selection.
type ExamConfig struct {
	Length      int           `mapstructure:"length"`
	Duration    time.Duration `mapstructure:"duration"`
	Tick        time.Duration `mapstructure:"tick"`
	StartPolicy string        `mapstructure:"start_policy"`
	Subject     string        `mapstructure:"subject"`
	Difficulty  string        `mapstructure:"difficulty"`
}

// LogConfig selects the log level, format and destination file.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// ServeConfig configures the HTTP adapter.
type ServeConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"provider":   "llm.provider",
	"db":         "db",
	"lang":       "lang",
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
	"subject":    "exam.subject",
	"difficulty": "exam.difficulty",
	"length":     "exam.length",
	"duration":   "exam.duration",
	"addr":       "serve.addr",
}

// New returns a viper instance with defaults, environment binding, flags
// from fs (may be nil) and the config file. configFile overrides the search
// for mockexam.yaml when set.
func New(fs *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("mockexam")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$XDG_CONFIG_HOME/mockexam")
		v.AddConfigPath("$HOME/.config/mockexam")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	l := llm.DefaultConfig()
	v.SetDefault("llm.provider", l.Provider)
	v.SetDefault("llm.timeout", l.Timeout)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", l.Anthropic.Model)
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", l.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", l.Gemini.Model)
	v.SetDefault("llm.gemini.base_url", "")
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", l.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.retry.max_attempts", l.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", l.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", l.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", l.Retry.Multiplier)

	s := session.DefaultConfig()
	v.SetDefault("exam.length", s.ExamLength)
	v.SetDefault("exam.duration", s.Duration)
	v.SetDefault("exam.tick", s.TickInterval)
	v.SetDefault("exam.start_policy", s.StartPolicy.String())
	v.SetDefault("exam.subject", string(exam.SubjectDatabase))
	v.SetDefault("exam.difficulty", string(exam.DifficultyBasic))

	v.SetDefault("db", "")
	v.SetDefault("lang", "en")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.allowed_origins", []string{"*"})
}

// Load decodes v into a Config. When the selected LLM provider has no key,
// the standard provider environment variables are probed.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if !cfg.LLM.HasKey() {
		if found, ok := llm.DiscoverConfig(); ok {
			found.Timeout = cfg.LLM.Timeout
			found.Retry = cfg.LLM.Retry
			slog.Debug("using discovered LLM credentials", "provider", found.Provider)
			cfg.LLM = found
		}
	}

	if _, err := cfg.Exam.Session(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Session converts the exam settings to a session configuration.
func (e ExamConfig) Session() (session.Config, error) {
	policy, err := session.ParseStartPolicy(e.StartPolicy)
	if err != nil {
		return session.Config{}, err
	}
	cfg := session.Config{
		ExamLength:   e.Length,
		Duration:     e.Duration,
		TickInterval: e.Tick,
		StartPolicy:  policy,
	}
	if err := cfg.Validate(); err != nil {
		return session.Config{}, fmt.Errorf("exam: %w", err)
	}
	return cfg, nil
}

// Selection parses the configured default subject and difficulty.
func (e ExamConfig) Selection() (exam.Subject, exam.Difficulty, error) {
	subject, err := exam.ParseSubject(e.Subject)
	if err != nil {
		return "", "", err
	}
	difficulty, err := exam.ParseDifficulty(e.Difficulty)
	if err != nil {
		return "", "", err
	}
	return subject, difficulty, nil
}
