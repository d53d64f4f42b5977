package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/denysvitali/aperture-graph/pkg/chart"
	"github.com/denysvitali/aperture-graph/pkg/config"
	"github.com/denysvitali/aperture-graph/pkg/server"
)

// plotCmd represents the plot command
var plotCmd = &cobra.Command{
	Use:   "plot [root]",
	Short: "Plot file size against f-number",
	Long: `Inventory the data root and render an interactive chart of file size against
f-number with one series per directory. The chart is served on a local HTTP
server and opened in the default browser, or written to an HTML file with
--output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlot,
}

func init() {
	rootCmd.AddCommand(plotCmd)

	plotCmd.Flags().StringP("output", "o", "", "Write the chart to this HTML file instead of serving it")
	plotCmd.Flags().String("title", "File size vs f-number", "Chart title")
	plotCmd.Flags().String("subtitle", "", "Chart subtitle")
	plotCmd.Flags().String("host", "127.0.0.1", "Address to serve the chart on")
	plotCmd.Flags().IntP("port", "p", 0, "Port to serve the chart on (0 picks a free port)")
	plotCmd.Flags().Bool("open", true, "Open the chart in the default browser")

	_ = viper.BindPFlag("chart.output", plotCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("chart.title", plotCmd.Flags().Lookup("title"))
	_ = viper.BindPFlag("chart.subtitle", plotCmd.Flags().Lookup("subtitle"))
	_ = viper.BindPFlag("server.host", plotCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", plotCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.open_browser", plotCmd.Flags().Lookup("open"))
}

func runPlot(cmd *cobra.Command, args []string) error {
	logger := GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, cleanup, err := loadConfig(ctx, args)
	if err != nil {
		return err
	}
	defer cleanup()

	inv, err := runInventory(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Chart.Output != "" {
		return writeChart(ctx, cfg, inv)
	}

	return serveChart(ctx, cfg, inv)
}

func writeChart(ctx context.Context, cfg *config.Config, inv *inventoryResult) error {
	f, err := os.Create(cfg.Chart.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", cfg.Chart.Output, err)
	}

	if err := chart.Render(ctx, f, inv.groups, chart.OptionsFromConfig(cfg.Chart)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.Chart.Output, err)
	}

	logger.Infof("Chart written to %s", cfg.Chart.Output)
	return nil
}

func serveChart(ctx context.Context, cfg *config.Config, inv *inventoryResult) error {
	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr(), err)
	}

	srv := server.New(cfg, logger, inv.groups, inv.summary)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	url := server.URL(ln.Addr())
	if cfg.Server.OpenBrowser {
		browser.Stdout = os.Stderr
		if err := browser.OpenURL(url); err != nil {
			logger.Warnf("Failed to open browser, visit %s manually: %v", url, err)
		}
	}
	logger.Info("Press Ctrl+C to stop")

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown error: %v", err)
			return err
		}

		logger.Info("Server stopped")
		return nil
	}
}
