package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/api"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/chunkstore"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/config"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/embedding"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/extract"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/llm"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/retrieval"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatbot-server",
	Short: "Document chat service: upload documents and ask questions over them",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chatbot-server %s (built %s)\n", Version, BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "chatbot-server.config", "path to XML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(versionCmd)
}

func runServer(ctx context.Context) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	rules, err := retrieval.LoadRules(cfg.Retrieval.RulesPath)
	if err != nil {
		return fmt.Errorf("failed to load retrieval rules: %w", err)
	}

	chunks, err := chunkstore.New()
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer chunks.Close()

	// Embeddings come from Ollama when configured; otherwise the hashed
	// local embedder keeps the service usable offline.
	var embedder embedding.Service = embedding.NewLocal()
	if cfg.Services.OllamaURL != "" {
		embedder = embedding.NewOllamaAdapter(cfg.Services.OllamaURL, cfg.Services.EmbeddingModel)
	}

	var generator llm.Generator
	if key := cfg.GeminiAPIKey(); key != "" {
		generator, err = llm.NewGemini(ctx, key, cfg.Services.GeminiModel)
		if err != nil {
			return fmt.Errorf("failed to create answer model client: %w", err)
		}
	} else {
		logger.Warn("no answer model API key configured, answers will echo retrieved context",
			zap.String("env", cfg.Services.GeminiKeyEnv))
		generator = llm.Echo{}
	}

	extractor := extract.NewService(
		extract.NewHTTPSidecar(cfg.Services.ExtractorURL),
		cfg.Retrieval.ChunkSize,
		cfg.Retrieval.ChunkOverlap,
		logger,
	)

	engine := retrieval.NewEngine(chunks, embedder, rules, logger)

	handlers := api.NewHandlers(&api.Dependencies{
		Chunks:    chunks,
		Extractor: extractor,
		Embedder:  embedder,
		Engine:    engine,
		Generator: generator,
		Logger:    logger,
	})

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.RegisterRoutes(e, handlers)

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	logger.Info("starting server",
		zap.String("version", Version),
		zap.String("addr", cfg.GetServerAddr()),
		zap.String("config", configPath))

	return e.StartServer(s)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
