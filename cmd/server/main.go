package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Konabiii/GBPL/internal/config"
	"github.com/Konabiii/GBPL/internal/gemini"
	"github.com/Konabiii/GBPL/internal/handler"
	"github.com/Konabiii/GBPL/internal/realtime"
	"github.com/Konabiii/GBPL/internal/repository"
	"github.com/Konabiii/GBPL/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Plant Diagnosis Service...")

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Both external credentials are fatal-if-absent: nothing works
	// without the model endpoint and the realtime database.
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize realtime database client
	dbClient, err := realtime.NewClient(ctx, cfg.Firebase.CredentialsFile, cfg.Firebase.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize realtime database", zap.Error(err))
	}

	sensors := realtime.NewSensorReader(dbClient, cfg.Firebase.SensorPath, logger)
	recorder := realtime.NewFeedbackRecorder(dbClient, cfg.Firebase.FeedbackPath, logger)

	// Initialize Gemini client
	geminiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:    cfg.Gemini.APIKey,
		ModelName: cfg.Gemini.ModelName,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}
	defer geminiClient.Close()

	// Initialize local diagnosis history
	repo, err := repository.NewDiagnosisRepository(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	// Initialize services
	diagnoser := service.NewDiagnoser(geminiClient, sensors, recorder, repo, logger)
	sessions := service.NewSessionManager(logger)

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(diagnoser, sessions, cfg.Server.MaxImageSizeMB, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	apiHandler.RegisterRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", serverAddr))

	// Graceful shutdown
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Plant Diagnosis Service is running",
		zap.String("port", cfg.Server.Port),
		zap.String("model", cfg.Gemini.ModelName),
		zap.String("sensor_path", cfg.Firebase.SensorPath))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
