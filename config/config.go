// Package config loads environment-driven configuration. Settings are
// processed from the environment via envconfig struct tags; a .env file
// (default or passed with -env) is exported into the environment first.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

var (
	envFilePath string
	parseOnce   sync.Once
)

// MustNew is New for program startup: it panics on a bad environment.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New exports the .env file into the environment (when present) and
// processes a fresh T from env vars with the given prefix.
func New[T any](prefix string) (*T, error) {
	filepath := resolveEnvPath()
	if filepath != "" {
		if err := exportEnvironment(filepath); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := exportEnvironmentIfExists(".env"); err != nil {
		return nil, fmt.Errorf("failed to load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}

	return &conf, nil
}

func resolveEnvPath() string {
	parseOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFilePath, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	return strings.TrimSpace(envFilePath)
}

func exportEnvironmentIfExists(filepath string) error {
	info, err := os.Stat(filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(filepath)
}

func exportEnvironment(filepath string) error {
	viper.SetConfigFile(filepath)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}

	for k, v := range viper.AllSettings() {
		if err := os.Setenv(strings.ToUpper(k), fmt.Sprint(v)); err != nil {
			return err
		}
	}

	return nil
}

// Config holds the engine tunables. Process it with New[Config]("costpilot")
// so vars read as COSTPILOT_AGENT_TIMEOUT and so on.
type Config struct {
	// Model endpoints.
	OpenAIModel    string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	AnthropicModel string `envconfig:"ANTHROPIC_MODEL" default:"claude-3-5-sonnet-20241022"`

	// Engine tunables.
	AgentTimeout         time.Duration `envconfig:"AGENT_TIMEOUT" default:"30s"`
	ConsolidationRetries int           `envconfig:"CONSOLIDATION_RETRIES" default:"2"`
	EventBuffer          int           `envconfig:"EVENT_BUFFER" default:"32"`

	// Retrieval and citation limits.
	SearchTopK int `envconfig:"SEARCH_TOP_K" default:"5"`
	SourceCap  int `envconfig:"SOURCE_CAP" default:"5"`

	// Conversation re-hydration window.
	HistoryWindow int `envconfig:"HISTORY_WINDOW" default:"15"`

	// Postgres conversation store; empty keeps the in-memory store.
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
}
