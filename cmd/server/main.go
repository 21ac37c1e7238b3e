package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cpns-tryout/exam-service/internal/cache"
	"github.com/cpns-tryout/exam-service/internal/config"
	"github.com/cpns-tryout/exam-service/internal/handlers"
	"github.com/cpns-tryout/exam-service/internal/repositories/postgres"
	"github.com/cpns-tryout/exam-service/internal/services"
	"github.com/cpns-tryout/exam-service/internal/utils"
	"github.com/cpns-tryout/exam-service/internal/validator"
	"github.com/cpns-tryout/exam-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var slogger *slog.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		slogger = utils.NewDefaultSlog()
	} else {
		slogger = utils.NewDevelopmentSlog()
	}
	logger := utils.NewSlogLogger(slogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		slogger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pkg.AutoMigrate(db); err != nil {
		slogger.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		slogger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		slogger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	handlers.InitCasdoor(cfg.Casdoor)

	repo := postgres.NewRepository(db)
	cacheService := cache.NewRedisCache(redisClient, slogger)
	v := validator.New()

	questionService := services.NewQuestionService(repo, cacheService, slogger, v)
	examService := services.NewExamService(repo, publisher, slogger, v)
	importExport := services.NewImportExportService(repo, slogger, v)

	router := gin.New()
	router.Use(gin.Recovery())

	hm := handlers.NewHandlerManager(questionService, examService, importExport, repo.User(), logger)
	hm.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slogger.Info("Exam service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slogger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slogger.Error("Forced shutdown", "error", err)
	}
}
