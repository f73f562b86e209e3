package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tinytelemetry/flowdeck/internal/flowapi"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

// appConfig holds dashboard and CLI configuration.
type appConfig struct {
	Host               string        `mapstructure:"host"`
	Scheme             string        `mapstructure:"scheme"`
	Port               int           `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base-url"`
	PollInterval       time.Duration `mapstructure:"poll-interval"`
	AutoRefresh        bool          `mapstructure:"auto-refresh"`
	RequestTimeout     time.Duration `mapstructure:"request-timeout"`
	DownloadDir        string        `mapstructure:"download-dir"`
	DownloadDelay      time.Duration `mapstructure:"download-delay"`
	LogFile            string        `mapstructure:"log-file"`
	ReverseScrollWheel bool          `mapstructure:"reverse-scroll-wheel"`
}

// configFlags are the persistent flags that override config keys of the
// same name.
var configFlags = []string{"host", "scheme", "port", "base-url", "poll-interval", "auto-refresh", "request-timeout", "download-dir"}

func defaultConfigPath(home string) string {
	return filepath.Join(home, ".config", "flowdeck", "config.yml")
}

func defaultLogPath(home string) string {
	return filepath.Join(home, ".local", "state", "flowdeck", "flowdeck.log")
}

// loadConfig merges defaults, the config file, FLOWDECK_* environment
// variables and, when cmd is set, its changed flags.
func loadConfig(configPath string, cmd *cobra.Command) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("FLOWDECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("host", model.DefaultBackendHost)
	v.SetDefault("scheme", model.DefaultBackendScheme)
	v.SetDefault("port", model.DefaultBackendPort)
	v.SetDefault("base-url", "")
	v.SetDefault("poll-interval", model.DefaultPollInterval)
	v.SetDefault("auto-refresh", true)
	v.SetDefault("request-timeout", model.DefaultRequestTimeout)
	v.SetDefault("download-dir", ".")
	v.SetDefault("download-delay", model.DefaultDownloadDelay)
	v.SetDefault("log-file", defaultLogPath(home))
	v.SetDefault("reverse-scroll-wheel", false)

	if cmd != nil {
		for _, name := range configFlags {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(name, f); err != nil {
					return cfg, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(defaultConfigPath(home))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c appConfig) validate() error {
	if c.BaseURL == "" && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("port %d out of range (1-65535)", c.Port)
	}
	if c.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("poll-interval %s too short (minimum 100ms)", c.PollInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request-timeout must be positive")
	}
	if c.DownloadDelay < 0 {
		return fmt.Errorf("download-delay must not be negative")
	}
	switch c.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("scheme %q not supported (want http or https)", c.Scheme)
	}
	return nil
}

// backendURL is base-url when set, otherwise derived from host and port.
func (c appConfig) backendURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return flowapi.BaseURLForHost(c.Scheme, c.Host, c.Port)
}

func (c appConfig) client() *flowapi.Client {
	return flowapi.NewClient(c.backendURL(), flowapi.WithTimeout(c.RequestTimeout))
}
