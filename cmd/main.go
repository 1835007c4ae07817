package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/courtly/club-system/config"
	"github.com/courtly/club-system/db"
	"github.com/courtly/club-system/handlers"
	"github.com/courtly/club-system/live"
	"github.com/courtly/club-system/ratings"
	"github.com/courtly/club-system/repositories"
	api "github.com/courtly/club-system/routes"
	"github.com/courtly/club-system/services"
	"github.com/courtly/club-system/storage"
)

const statusSchedulerInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	hub := live.NewHub()
	go hub.Run()
	logger.Info("live update hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	clubRepo := repositories.NewPostgresClubRepository(dbConn)
	sportRepo := repositories.NewPostgresSportRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	ratingRepo := repositories.NewPostgresRatingRepository(dbConn)
	historyRepo := repositories.NewPostgresRatingHistoryRepository(dbConn)
	waitListRepo := repositories.NewPostgresWaitListRepository(dbConn)
	logger.Info("repositories initialized")

	engine := ratings.NewEngine(ratings.Config{
		MinRating:                 cfg.Rating.MinRating,
		MaxRating:                 cfg.Rating.MaxRating,
		InitialAssessmentCap:      cfg.Rating.InitialAssessmentCap,
		ProvisionalGamesThreshold: cfg.Rating.ProvisionalGamesThreshold,
		KProvisional:              cfg.Rating.KProvisional,
		KStandard:                 cfg.Rating.KStandard,
		KExpert:                   cfg.Rating.KExpert,
		RatingScale:               cfg.Rating.RatingScale,
	})

	// The grouping and schedule services share one locker so their
	// destructive regenerations serialize per event.
	eventLocks := services.NewEventLocker()

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey, logger)
	userService := services.NewUserService(userRepo, uploader)
	clubService := services.NewClubService(clubRepo, courtRepo, uploader, logger)
	sportService := services.NewSportService(sportRepo)
	courtService := services.NewCourtService(courtRepo)
	emailService := services.NewEmailService(cfg)
	eventService := services.NewEventService(eventRepo, teamRepo, groupRepo, matchRepo, uploader, logger)
	ratingService := services.NewRatingService(dbConn, engine, ratingRepo, historyRepo, teamRepo, logger)
	teamService := services.NewTeamService(dbConn, eventRepo, teamRepo, ratingRepo, logger)
	groupingService := services.NewGroupingService(dbConn, eventRepo, teamRepo, groupRepo, matchRepo, hub, eventLocks, logger)
	scheduleService := services.NewScheduleService(dbConn, eventRepo, teamRepo, groupRepo, matchRepo, hub, eventLocks, logger)
	scoreService := services.NewScoreService(eventRepo, teamRepo, groupRepo, matchRepo, ratingService, hub, logger)
	waitListService := services.NewWaitListService(dbConn, eventRepo, userRepo, waitListRepo, emailService, logger)
	logger.Info("services initialized")

	// Periodic lifecycle advancement: draft -> registration -> active
	// -> completed, driven by the event dates.
	go func() {
		ticker := time.NewTicker(statusSchedulerInterval)
		defer ticker.Stop()
		logger.Info("event status scheduler started", slog.Duration("interval", statusSchedulerInterval))

		run := func() {
			advanced, err := eventService.AdvanceStatusesByDates(context.Background(), time.Now())
			if err != nil {
				logger.Error("event status scheduler run failed", slog.Any("error", err))
				return
			}
			if advanced > 0 {
				logger.Info("event statuses advanced", slog.Int("count", advanced))
			}
		}

		run()
		for range ticker.C {
			run()
		}
	}()

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	clubHandler := handlers.NewClubHandler(clubService, courtService)
	sportHandler := handlers.NewSportHandler(sportService)
	eventHandler := handlers.NewEventHandler(eventService, groupingService, scheduleService, scoreService)
	teamHandler := handlers.NewTeamHandler(teamService)
	groupHandler := handlers.NewGroupHandler(groupingService, scheduleService)
	matchHandler := handlers.NewMatchHandler(scoreService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	waitListHandler := handlers.NewWaitListHandler(waitListService)
	liveHandler := handlers.NewLiveHandler(hub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		clubHandler,
		sportHandler,
		eventHandler,
		teamHandler,
		groupHandler,
		matchHandler,
		ratingHandler,
		waitListHandler,
		liveHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
