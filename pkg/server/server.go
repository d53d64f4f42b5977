package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"

	"github.com/denysvitali/aperture-graph/internal/models"
	"github.com/denysvitali/aperture-graph/pkg/chart"
	"github.com/denysvitali/aperture-graph/pkg/config"
	"github.com/denysvitali/aperture-graph/pkg/dataset"
	"github.com/denysvitali/aperture-graph/pkg/telemetry"
)

// Server serves the rendered chart and the data behind it
type Server struct {
	config  *config.Config
	logger  *logrus.Logger
	engine  *gin.Engine
	groups  []dataset.Group
	summary models.InventorySummary
	server  *http.Server

	once sync.Once
	page []byte
	err  error
}

// New creates a new server instance for a completed inventory
func New(cfg *config.Config, logger *logrus.Logger, groups []dataset.Group, summary models.InventorySummary) *Server {
	// Set gin mode based on log level
	if logger.Level == logrus.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(ginLogger(logger))

	// Add OpenTelemetry middleware if telemetry is enabled
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(telemetry.ServiceName))
	}

	server := &Server{
		config:  cfg,
		logger:  logger,
		engine:  engine,
		groups:  groups,
		summary: summary,
		server: &http.Server{
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	server.setupRoutes()

	return server
}

// Serve accepts connections on ln until Shutdown is called.
// Serving after Shutdown returns immediately.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Infof("Chart available at %s", URL(ln.Addr()))
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Engine returns the gin engine for testing purposes
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// URL returns the browsable address of a listener
func URL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String() + "/"
	}
	host := tcp.IP.String()
	if tcp.IP == nil || tcp.IP.IsUnspecified() {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s/", net.JoinHostPort(host, fmt.Sprint(tcp.Port)))
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleChart)
	s.engine.GET("/alive", s.handleAlive)
	s.engine.GET("/records", s.handleRecords)
	s.engine.GET("/summary", s.handleSummary)
}

func (s *Server) handleAlive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleChart renders the chart once and serves the cached page afterwards
func (s *Server) handleChart(c *gin.Context) {
	ctx, span := otel.Tracer(telemetry.ServiceName).Start(c.Request.Context(), "handle_chart")
	defer span.End()

	s.once.Do(func() {
		s.page, s.err = chart.RenderBytes(ctx, s.groups, chart.OptionsFromConfig(s.config.Chart))
	})
	if s.err != nil {
		span.RecordError(s.err)
		s.logger.Errorf("Failed to render chart: %v", s.err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": s.err.Error()})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", s.page)
}

func (s *Server) handleRecords(c *gin.Context) {
	var req models.ListRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records := []models.ImageRecord{}
	for _, g := range s.groups {
		if req.Directory != "" && g.Directory != req.Directory {
			continue
		}
		records = append(records, g.Records...)
	}

	c.JSON(http.StatusOK, records)
}

func (s *Server) handleSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.summary)
}

// ginLogger creates a gin logger middleware using logrus
func ginLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		statusCode := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status":  statusCode,
			"method":  c.Request.Method,
			"path":    path,
			"ip":      c.ClientIP(),
			"latency": time.Since(start),
		})

		if raw != "" {
			entry = entry.WithField("query", raw)
		}

		// Log based on status code
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Debug("Request completed")
		}
	}
}
