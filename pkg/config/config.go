package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Scan      ScanConfig      `mapstructure:"scan"`
	Chart     ChartConfig     `mapstructure:"chart"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// ScanConfig controls how the data root is inventoried
type ScanConfig struct {
	Root          string   `mapstructure:"root"`
	Extensions    []string `mapstructure:"extensions"`
	Strict        bool     `mapstructure:"strict"`
	IncludeHidden bool     `mapstructure:"include_hidden"`
}

// ChartConfig contains chart rendering options
type ChartConfig struct {
	Title      string `mapstructure:"title"`
	Subtitle   string `mapstructure:"subtitle"`
	Output     string `mapstructure:"output"`
	Width      string `mapstructure:"width"`
	Height     string `mapstructure:"height"`
	AssetsHost string `mapstructure:"assets_host"`
}

// ServerConfig contains the chart viewer configuration
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	OpenBrowser bool   `mapstructure:"open_browser"`
}

// TelemetryConfig contains telemetry configuration
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Addr returns the listen address of the chart viewer
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load loads the configuration from viper
func Load() (*Config, error) {
	cfg := &Config{}

	// Set defaults
	SetDefaults()

	// Unmarshal configuration
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Post-process configuration
	if err := postProcess(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SetDefaults registers the default value of every key
func SetDefaults() {
	// Scan defaults
	viper.SetDefault("scan.root", "data")
	viper.SetDefault("scan.extensions", []string{})
	viper.SetDefault("scan.strict", true)
	viper.SetDefault("scan.include_hidden", false)

	// Chart defaults
	viper.SetDefault("chart.title", "File size vs f-number")
	viper.SetDefault("chart.subtitle", "")
	viper.SetDefault("chart.output", "")
	viper.SetDefault("chart.width", "1200px")
	viper.SetDefault("chart.height", "700px")
	viper.SetDefault("chart.assets_host", "")

	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 0) // Auto-assign
	viper.SetDefault("server.open_browser", true)

	// Telemetry defaults
	viper.SetDefault("telemetry.enabled", false)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", false)

	// Environment variable mappings
	_ = viper.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func postProcess(cfg *Config) error {
	root := strings.TrimSpace(cfg.Scan.Root)
	if root == "" {
		return fmt.Errorf("scan.root must not be empty")
	}

	// Ensure the data root is absolute
	if !filepath.IsAbs(root) {
		abs, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		root = abs
	}
	cfg.Scan.Root = filepath.Clean(root)

	cfg.Scan.Extensions = normalizeExtensions(cfg.Scan.Extensions)

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}

	if cfg.Chart.Output != "" && !filepath.IsAbs(cfg.Chart.Output) {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg.Chart.Output = filepath.Join(wd, cfg.Chart.Output)
	}

	return nil
}

// normalizeExtensions lower-cases extensions and ensures a leading dot.
// Entries may also arrive comma separated from environment variables.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, raw := range exts {
		for _, ext := range strings.Split(raw, ",") {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			if seen[ext] {
				continue
			}
			seen[ext] = true
			out = append(out, ext)
		}
	}
	return out
}
