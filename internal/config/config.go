package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "QUOTER"

// QuoteConfig holds configuration for a single quote.
type QuoteConfig struct {
	Snapshots    string
	PGDSN        string
	ChainID      uint64
	Pool         string
	Kind         string
	From         int
	To           int
	Index        int
	Amount       string
	Amounts      []string
	Raw          bool
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// BatchConfig holds configuration for batch quoting.
type BatchConfig struct {
	Snapshots    string
	PGDSN        string
	ChainID      uint64
	In           string
	Out          string
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// ServeConfig holds configuration for the HTTP server.
type ServeConfig struct {
	Snapshots       string
	PGDSN           string
	ChainID         uint64
	Listen          string
	ReloadInterval  time.Duration
	ShutdownTimeout time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	LogLevel        string
}

// ImportConfig holds configuration for loading snapshots into Postgres.
type ImportConfig struct {
	In           string
	PGDSN        string
	ChainID      uint64
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"kind":          "swap",
		"index":         0,
		"raw":           false,
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		Snapshots:    v.GetString("snapshots"),
		PGDSN:        v.GetString("pg-dsn"),
		ChainID:      v.GetUint64("chain-id"),
		Pool:         v.GetString("pool"),
		Kind:         v.GetString("kind"),
		From:         v.GetInt("from"),
		To:           v.GetInt("to"),
		Index:        v.GetInt("index"),
		Amount:       v.GetString("amount"),
		Amounts:      getStringSlice(v, "amounts"),
		Raw:          v.GetBool("raw"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}

// LoadBatch merges config file, environment variables, and flags into BatchConfig.
func LoadBatch(cfgFile string, flags *pflag.FlagSet) (BatchConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"out":           "./data/quotes.jsonl",
		"batch-size":    500,
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return BatchConfig{}, err
	}

	return BatchConfig{
		Snapshots:    v.GetString("snapshots"),
		PGDSN:        v.GetString("pg-dsn"),
		ChainID:      v.GetUint64("chain-id"),
		In:           v.GetString("in"),
		Out:          v.GetString("out"),
		BatchSize:    v.GetInt("batch-size"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"listen":           ":8080",
		"reload-interval":  time.Duration(0),
		"shutdown-timeout": 10 * time.Second,
		"max-retries":      5,
		"retry-backoff":    500 * time.Millisecond,
		"log-level":        "info",
	})
	if err != nil {
		return ServeConfig{}, err
	}

	return ServeConfig{
		Snapshots:       v.GetString("snapshots"),
		PGDSN:           v.GetString("pg-dsn"),
		ChainID:         v.GetUint64("chain-id"),
		Listen:          v.GetString("listen"),
		ReloadInterval:  v.GetDuration("reload-interval"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		LogLevel:        v.GetString("log-level"),
	}, nil
}

// LoadImport merges config file, environment variables, and flags into ImportConfig.
func LoadImport(cfgFile string, flags *pflag.FlagSet) (ImportConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"batch-size":    500,
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return ImportConfig{}, err
	}

	return ImportConfig{
		In:           v.GetString("in"),
		PGDSN:        v.GetString("pg-dsn"),
		ChainID:      v.GetUint64("chain-id"),
		BatchSize:    v.GetInt("batch-size"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}

func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
