package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "TOOLCALL"

	DefaultModel          = "openai/gpt-4o-mini"
	DefaultBaseURL        = "https://openrouter.ai/api/v1"
	DefaultTimeout        = 60 * time.Second
	DefaultExecTimeout    = 20 * time.Second
	DefaultPythonBin      = "python3"
	DefaultNodeBin        = "node"
	DefaultSearchProvider = "exa"
	DefaultSearchResults  = 10
	DefaultOutputMaxBytes = 16 * 1024
	DefaultMaxFileBytes   = 256 * 1024
	DefaultMaxResults     = 50
)

// Limits bounds capability output.
type Limits struct {
	OutputMaxBytes int `mapstructure:"output_max_bytes"`
	MaxFileBytes   int `mapstructure:"max_file_bytes"`
	MaxResults     int `mapstructure:"max_results"`
}

// Search selects the web search backend.
type Search struct {
	Provider   string `mapstructure:"provider"`
	MaxResults int    `mapstructure:"max_results"`
	APIKey     string `mapstructure:"api_key"`
}

// Config holds runtime configuration values.
type Config struct {
	Model       string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	Verbose     bool
	JSON        bool
	Workspace   string
	SQLitePath  string
	PythonBin   string
	NodeBin     string
	ExecTimeout time.Duration
	Disable     []string
	Search      Search
	Limits      Limits
}

type rawConfig struct {
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Verbose     bool          `mapstructure:"verbose"`
	JSON        bool          `mapstructure:"json"`
	Workspace   string        `mapstructure:"workspace"`
	SQLitePath  string        `mapstructure:"sqlite_path"`
	PythonBin   string        `mapstructure:"python_bin"`
	NodeBin     string        `mapstructure:"node_bin"`
	ExecTimeout time.Duration `mapstructure:"exec_timeout"`
	Disable     []string      `mapstructure:"disable"`
	Search      Search        `mapstructure:"search"`
	Limits      Limits        `mapstructure:"limits"`
}

// flagKeys maps CLI flags onto config keys.
var flagKeys = map[string]string{
	"model":        "model",
	"base-url":     "base_url",
	"timeout":      "timeout",
	"verbose":      "verbose",
	"json":         "json",
	"workspace":    "workspace",
	"sqlite":       "sqlite_path",
	"python":       "python_bin",
	"node":         "node_bin",
	"exec-timeout": "exec_timeout",
	"search":       "search.provider",
	"disable":      "disable",
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("model", DefaultModel)
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("api_key", "")
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("verbose", false)
	v.SetDefault("json", false)
	v.SetDefault("workspace", ".")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("python_bin", DefaultPythonBin)
	v.SetDefault("node_bin", DefaultNodeBin)
	v.SetDefault("exec_timeout", DefaultExecTimeout.String())
	v.SetDefault("disable", []string{})
	v.SetDefault("search.provider", DefaultSearchProvider)
	v.SetDefault("search.max_results", DefaultSearchResults)
	v.SetDefault("search.api_key", "")
	v.SetDefault("limits.output_max_bytes", DefaultOutputMaxBytes)
	v.SetDefault("limits.max_file_bytes", DefaultMaxFileBytes)
	v.SetDefault("limits.max_results", DefaultMaxResults)

	if cmd != nil {
		for flag, key := range flagKeys {
			if f := lookupFlag(cmd, flag); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	if v.GetString("api_key") == "" {
		for _, env := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY"} {
			if key := os.Getenv(env); key != "" {
				v.Set("api_key", key)
				break
			}
		}
	}
	if v.GetString("search.api_key") == "" {
		if key := os.Getenv("EXA_API_KEY"); key != "" {
			v.Set("search.api_key", key)
		}
	}

	var raw rawConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &raw,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg := Config{
		Model:       raw.Model,
		BaseURL:     raw.BaseURL,
		APIKey:      raw.APIKey,
		Timeout:     raw.Timeout,
		Verbose:     raw.Verbose,
		JSON:        raw.JSON,
		Workspace:   raw.Workspace,
		SQLitePath:  raw.SQLitePath,
		PythonBin:   raw.PythonBin,
		NodeBin:     raw.NodeBin,
		ExecTimeout: raw.ExecTimeout,
		Disable:     cleanList(raw.Disable),
		Search:      raw.Search,
		Limits:      raw.Limits,
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = DefaultExecTimeout
	}
	if cfg.Workspace == "" {
		cfg.Workspace = "."
	}
	cfg.Search.Provider = strings.ToLower(strings.TrimSpace(cfg.Search.Provider))
	switch cfg.Search.Provider {
	case "", DefaultSearchProvider:
		cfg.Search.Provider = DefaultSearchProvider
	case "none":
	default:
		return Config{}, fmt.Errorf("unknown search provider %q (want exa or none)", cfg.Search.Provider)
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = DefaultSearchResults
	}
	if cfg.Limits.OutputMaxBytes <= 0 {
		cfg.Limits.OutputMaxBytes = DefaultOutputMaxBytes
	}
	if cfg.Limits.MaxFileBytes <= 0 {
		cfg.Limits.MaxFileBytes = DefaultMaxFileBytes
	}
	if cfg.Limits.MaxResults <= 0 {
		cfg.Limits.MaxResults = DefaultMaxResults
	}

	return cfg, nil
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	return cmd.InheritedFlags().Lookup(name)
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func loadConfigFile(v *viper.Viper) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "toolcall")
	for _, name := range []string{"config.yaml", "config.yml", "config.json", "config.toml"} {
		path := filepath.Join(base, name)
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			return nil
		}
	}
	return nil
}
