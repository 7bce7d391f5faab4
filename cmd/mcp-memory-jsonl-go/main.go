package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/buildinfo"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/database"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/httpapi"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/logger"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/metrics"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/server"
)

var (
	configFile      = flag.String("config", "", "Optional YAML config file")
	filePath        = flag.String("file", "", "Graph file path (default: ./memory.jsonl)")
	projectsDir     = flag.String("projects-dir", "", "Base directory for projects. Enables multi-project mode.")
	strictRelations = flag.Bool("strict-relations", false, "Reject relations whose endpoints are not existing entities")
	transport       = flag.String("transport", "stdio", "Transport to use: stdio or sse")
	addr            = flag.String("addr", ":8080", "Address to listen on when using SSE transport")
	sseEndpoint     = flag.String("sse-endpoint", "/sse", "SSE endpoint path when using SSE transport")
	httpAddr        = flag.String("http-addr", "", "Address for the JSON HTTP API (disabled when empty)")
	logEnv          = flag.String("log-env", "", "Logger mode: production or development")
	showVersion     = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s, %s)\n", server.Name, buildinfo.Version, buildinfo.Revision, buildinfo.BuildDate)
		return
	}

	// Initialize configuration: .env + environment, then YAML, then flags
	config := database.NewConfig()
	if *configFile != "" {
		if err := database.LoadConfigFile(*configFile, config); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *filePath != "" {
		config.FilePath = *filePath
	}
	if *projectsDir != "" {
		config.ProjectsDir = *projectsDir
		config.MultiProjectMode = true
	}
	if *strictRelations {
		config.StrictRelations = true
	}
	if *logEnv != "" {
		config.LogEnv = *logEnv
	}
	if *httpAddr != "" {
		config.HTTPAddr = *httpAddr
	}

	log, err := logger.New(config.LogEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// Initialize metrics (noop if disabled)
	if config.MetricsPrometheus {
		metrics.Init(config.MetricsAddr)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBManager(config, log)
	if err != nil {
		log.Fatal("Failed to create store manager", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing stores", zap.Error(err))
		}
	}()

	mcpServer := server.NewMCPServer(db, log)

	log.Info("Starting MCP memory server",
		zap.String("version", buildinfo.Version),
		zap.String("transport", *transport),
		zap.Bool("multiProject", config.MultiProjectMode),
		zap.Bool("strictRelations", config.StrictRelations))

	var runMCP func(context.Context) error
	switch *transport {
	case "stdio":
		runMCP = mcpServer.Run
	case "sse":
		runMCP = func(ctx context.Context) error { return mcpServer.RunSSE(ctx, *addr, *sseEndpoint) }
	default:
		log.Fatal("Unknown transport (expected: stdio or sse)", zap.String("transport", *transport))
	}
	var runAPI func(context.Context) error
	if config.HTTPAddr != "" {
		runAPI = func(ctx context.Context) error { return serveHTTP(ctx, config, db, log) }
	}

	if err := runServices(ctx, runMCP, runAPI); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Server error", zap.Error(err))
	}
	log.Info("Server stopped")
}

// runServices runs the MCP transport and, when runAPI is non-nil, the HTTP
// API. Whichever stops first, the other is cancelled; a stdio client closing
// its stream therefore also stops the HTTP API.
func runServices(ctx context.Context, runMCP, runAPI func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return runMCP(gctx)
	})
	if runAPI != nil {
		g.Go(func() error {
			defer cancel()
			return runAPI(gctx)
		})
	}
	return g.Wait()
}

func serveHTTP(ctx context.Context, config *database.Config, db *database.DBManager, log *zap.Logger) error {
	if config.LogEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              config.HTTPAddr,
		Handler:           httpapi.NewRouter(db, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP API forced to shutdown", zap.Error(err))
		}
	}()

	log.Info("HTTP API listening", zap.String("addr", config.HTTPAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
