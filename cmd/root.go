package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/denysvitali/aperture-graph/pkg/config"
	"github.com/denysvitali/aperture-graph/pkg/telemetry"
)

// version is overridden at build time with -ldflags "-X ...cmd.version=..."
var version = "dev"

var (
	cfgFile string
	logger  = logrus.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aperture-graph",
	Short: "Compare image file size against lens aperture",
	Long: `aperture-graph inventories the image files found in the subdirectories of a
data root, reads the f-number recorded in each file's EXIF metadata and plots
file size against aperture, one series per directory.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.aperture-graph.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	// Scan flags are shared by every command that inventories the data root
	rootCmd.PersistentFlags().StringSlice("ext", nil, "Only include files with these extensions (e.g. jpg,jpeg)")
	rootCmd.PersistentFlags().Bool("strict", true, "Fail on malformed EXIF metadata instead of recording no f-number")
	rootCmd.PersistentFlags().Bool("include-hidden", false, "Include files and directories whose name starts with a dot")
	rootCmd.PersistentFlags().Bool("enable-telemetry", false, "Enable OpenTelemetry tracing")

	// Bind flags to viper
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("log-json"))
	_ = viper.BindPFlag("scan.extensions", rootCmd.PersistentFlags().Lookup("ext"))
	_ = viper.BindPFlag("scan.strict", rootCmd.PersistentFlags().Lookup("strict"))
	_ = viper.BindPFlag("scan.include_hidden", rootCmd.PersistentFlags().Lookup("include-hidden"))
	_ = viper.BindPFlag("telemetry.enabled", rootCmd.PersistentFlags().Lookup("enable-telemetry"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory and the current directory
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".aperture-graph")
	}

	// Replace . with _ in env var names (e.g., scan.root becomes SCAN_ROOT)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Failed to read config file %s: %v\n", cfgFile, err)
		os.Exit(1)
	}

	setupLogging()
}

func setupLogging() {
	logger.SetOutput(os.Stderr)

	// Set log level
	level, err := logrus.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", viper.GetString("log.level"))
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Set log format
	if viper.GetBool("log.json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// GetLogger returns the process-wide logger
func GetLogger() *logrus.Logger {
	return logger
}

// loadConfig loads the configuration, letting an optional positional
// argument override the data root, and starts telemetry when enabled.
// The returned cleanup function is never nil.
func loadConfig(ctx context.Context, args []string) (*config.Config, func(), error) {
	if len(args) > 0 {
		viper.Set("scan.root", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to load configuration: %w", err)
	}

	cleanup := func() {}
	if cfg.Telemetry.Enabled {
		logger.Info("Initializing OpenTelemetry")
		shutdown, err := telemetry.Initialize(ctx, cfg.Telemetry, logger, version)
		if err != nil {
			logger.Warnf("Failed to initialize telemetry: %v", err)
		} else {
			cleanup = shutdown
		}
	}

	return cfg, cleanup, nil
}
