package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"shopchat/backend/internal/api"
	"shopchat/backend/internal/config"
	"shopchat/backend/internal/database"
	"shopchat/backend/internal/llm"
	"shopchat/backend/internal/repository"
	"shopchat/backend/internal/service"
)

// App bundles the wired application: the database handle and the configured
// HTTP server. Tests construct it directly against a temp database.
type App struct {
	DB     *sql.DB
	Server *http.Server
}

// NewApp wires the full dependency graph from configuration.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repo := repository.NewSQLiteRepository(db)
	provider := llm.NewClient(cfg.AIServiceURL, cfg.AIStreamPath, cfg.AIFallbackPath)
	chatService := service.NewChatService(repo, provider, cfg.DefaultModel)

	chatHandler := api.NewChatHandler(chatService, cfg)
	router := api.NewRouter(chatHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for the streaming endpoint
		IdleTimeout:       120 * time.Second,
	}

	return &App{DB: db, Server: server}, nil
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)

	logConfigSource()

	waitForAIService(cfg.AIServiceURL)

	a, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer func() {
		if err := a.DB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()
	slog.Info("Successfully connected to SQLite database.")

	slog.Info("Starting server", "port", cfg.AppPort)
	if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return 1
	}

	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// waitForAIService gives the model service a grace period to come up. Unlike
// a hard dependency, startup continues after the deadline: every send has a
// fallback chain and the health endpoint reports liveness regardless.
func waitForAIService(baseURL string) {
	slog.Info("Waiting for the AI service to be ready...", "url", baseURL)
	client := &http.Client{Timeout: 2 * time.Second}
	for attempt := 0; attempt < 15; attempt++ {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			if bErr := resp.Body.Close(); bErr != nil {
				slog.Warn("Failed to close response body in AI service health check", "error", bErr)
			}
			if resp.StatusCode == http.StatusOK {
				slog.Info("AI service is ready.")
				return
			}
		}
		slog.Debug("AI service not ready yet, retrying in 2 seconds...", "error", err)
		time.Sleep(2 * time.Second)
	}
	slog.Warn("AI service did not become ready in time, starting anyway.")
}
