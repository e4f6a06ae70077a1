package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stwalsh4118/proptax/internal/config"
	"github.com/stwalsh4118/proptax/internal/database"
	"github.com/stwalsh4118/proptax/internal/handlers"
	"github.com/stwalsh4118/proptax/internal/llm"
	"github.com/stwalsh4118/proptax/internal/logger"
	"github.com/stwalsh4118/proptax/internal/repository"
	"github.com/stwalsh4118/proptax/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	// No write timeout: assistant streams stay open as long as the upstream does.
	readHeaderTimeout = 10 * time.Second
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if migrate {
				if err := runMigrate(cmd.Context(), false); err != nil {
					return err
				}
			}
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

// envOrDefault reads ENV the same way config.Load does, for commands that
// only load part of the configuration.
func envOrDefault() string {
	v := viper.New()
	v.SetDefault("ENV", "development")
	v.AutomaticEnv()
	return v.GetString("ENV")
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting property tax API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"ai_enabled":  cfg.LLM.AIEnabled(),
	})

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// A nil client makes the AI endpoints answer with a configuration error.
	var aiClient llm.Client
	if cfg.LLM.AIEnabled() {
		aiClient = llm.NewClient(llm.Config{
			APIKey:          cfg.LLM.APIKey,
			BaseURL:         cfg.LLM.BaseURL,
			Model:           cfg.LLM.Model,
			Timeout:         cfg.LLM.Timeout,
			MaxAttempts:     cfg.LLM.MaxAttempts,
			RetryInitial:    cfg.LLM.RetryInitial,
			RetryMaxBackoff: cfg.LLM.RetryMaxBackoff,
		}, log)
	} else {
		log.Warn("LLM_API_KEY not set; AI endpoints are disabled", nil)
	}

	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	calcRepo := repository.NewTaxCalculationRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	estimator := services.NewTaxEstimator(aiClient, log, nil)
	assistant := services.NewTaxAssistant(aiClient, propertyRepo, calcRepo, log)
	propertyService := services.NewPropertyService(propertyRepo, log)
	calcService := services.NewTaxCalculationService(calcRepo, propertyRepo, estimator, log, nil)
	statsService := services.NewStatsService(statsRepo, log)

	router := newRouter(cfg.CORS.Origins, log, routeHandlers{
		health:       handlers.NewHealthHandler(db, cfg.Server.Env, cfg.LLM.AIEnabled()),
		auth:         handlers.NewAuthHandler(authService),
		properties:   handlers.NewPropertyHandler(propertyService),
		calculations: handlers.NewTaxCalculationHandler(calcService),
		estimate:     handlers.NewEstimateHandler(estimator),
		assistant:    handlers.NewAssistantHandler(assistant),
		stats:        handlers.NewStatsHandler(statsService),
	}, authService)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	// Streams cut off by the shutdown timeout can leave connections acquired.
	if stats := db.Stats(); stats != nil {
		log.Info("Database pool at shutdown", map[string]interface{}{
			"acquired":      stats.AcquiredConns(),
			"idle":          stats.IdleConns(),
			"total":         stats.TotalConns(),
			"acquire_count": stats.AcquireCount(),
		})
	}

	log.Info("Server exited", nil)
	return nil
}
