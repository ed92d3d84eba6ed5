package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sotakubo/autopost/app/api"
	"github.com/sotakubo/autopost/app/article"
	"github.com/sotakubo/autopost/app/cfg"
	"github.com/sotakubo/autopost/app/database"
	"github.com/sotakubo/autopost/app/imagesearch"
	"github.com/sotakubo/autopost/app/llm"
	"github.com/sotakubo/autopost/app/tasks"
	"github.com/sotakubo/autopost/app/templates"
	"github.com/sotakubo/autopost/app/wordpress"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// help was requested
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("Starting Autopost server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database", "host", appCfg.DBHost, "name", appCfg.DBName)

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	postRepo := database.NewPostRepository(db)
	siteRepo := database.NewSiteRepository(db)
	templateRepo := database.NewTemplateRepository(db)
	controlRepo := database.NewControlRepository(db)
	errorRepo := database.NewPublishErrorRepository(db)

	presets := templates.NewLibrary(appCfg.TemplatesDir)
	if err := presets.Run(); err != nil {
		slog.Error("Failed to load prompt presets", "dir", appCfg.TemplatesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Prompt presets loaded", "count", presets.Count(), "dir", appCfg.TemplatesDir)

	textGenerator := llm.NewClient(appCfg.OpenAIEndpoint, appCfg.OpenAIModel, appCfg.OpenAIAPIKey)
	imageSearcher := imagesearch.NewClient(appCfg.PixabayAPIKey)
	if appCfg.PixabayAPIKey == "" {
		slog.Warn("Pixabay API key not set, articles will be published without images")
	}

	generator := article.NewGenerator(textGenerator, imageSearcher)
	publisher := wordpress.NewClient(errorRepo, appCfg.UserAgent)

	planner := article.NewPlanner(appCfg.ScheduleLocation(), appCfg.ScheduleDays,
		time.Duration(appCfg.ScheduleMinGap)*time.Second)
	intake := article.NewIntake(postRepo, controlRepo, planner)

	scheduler := tasks.NewScheduler(postRepo, controlRepo, generator, publisher)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount,
		"interval", appCfg.SchedulerInterval)

	handler := api.NewHandler(postRepo, siteRepo, templateRepo, controlRepo,
		errorRepo, presets, intake)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
