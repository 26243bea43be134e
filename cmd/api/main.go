package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proofhire-backend/config"
	_ "proofhire-backend/docs" // Important for Swagger
	"proofhire-backend/internal/delivery/http/middleware"
	v1 "proofhire-backend/internal/delivery/http/v1"
	"proofhire-backend/internal/domain"
	"proofhire-backend/internal/repository/postgres"
	"proofhire-backend/internal/usecase"
	"proofhire-backend/pkg/auth"
	"proofhire-backend/pkg/database"
	"proofhire-backend/pkg/email"
	"proofhire-backend/pkg/events"
	"proofhire-backend/pkg/logger"
	"proofhire-backend/pkg/metrics"
	"proofhire-backend/pkg/redis"
	"proofhire-backend/pkg/security"
	"proofhire-backend/pkg/security/antivirus"
	"proofhire-backend/pkg/storage"
	"proofhire-backend/pkg/validation"

	goredis "github.com/redis/go-redis/v9"
)

// @title           ProofHire Verification API
// @version         1.0
// @description     Candidate verification lifecycle: profile, resumes, referee handshake and review.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init(cfg.Environment)
	securityLogger := security.InitSecurityLogger("proofhire-backend", cfg.Environment)
	defer securityLogger.Sync()
	logger.Log.Info("Starting proofhire backend", "port", cfg.Port, "env", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(ctx, dbPool); err != nil {
			logger.Log.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	// 4. Optional infrastructure
	var redisClient *goredis.Client
	redisClient, err = redis.NewClient(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword})
	switch {
	case errors.Is(err, redis.ErrNotConfigured):
		logger.Log.Warn("Redis not configured - rate limiting is per instance")
	case err != nil:
		logger.Log.Warn("Redis unavailable - rate limiting is per instance", "error", err)
		redisClient = nil
	default:
		defer redisClient.Close()
	}

	objectStorage, err := storage.NewS3Storage(ctx, storage.Config{
		Provider:        storage.Provider(cfg.S3Provider),
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logger.Log.Error("Failed to configure object storage", "error", err)
		os.Exit(1)
	}

	emailService := email.NewEmailService(cfg)
	if !emailService.IsConfigured() {
		logger.Log.Warn("Email service not fully configured - referee invitations will not be delivered")
	}

	var scanner antivirus.Scanner = antivirus.NewNoOpScanner()
	healthChecks := []usecase.HealthCheck{
		{Name: "database", Critical: true, Probe: dbPool.Ping},
		{Name: "storage", Probe: objectStorage.Ping},
	}
	if cfg.ClamAVAddress != "" {
		clam := antivirus.NewClamAVScanner(cfg.ClamAVAddress, cfg.ScanTimeout)
		scanner = clam
		healthChecks = append(healthChecks, usecase.HealthCheck{Name: "clamav", Probe: clam.Ping})
	} else {
		logger.Log.Warn("CLAMAV_ADDRESS not set - resumes are only checked for content type")
	}
	if redisClient != nil {
		healthChecks = append(healthChecks, usecase.HealthCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	var publisher domain.EventPublisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Log.Error("Failed to create event publisher", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
	}

	appMetrics := metrics.New()

	// 5. Setup Repositories
	repos := usecase.Repositories{
		Users:      postgres.NewUserRepository(dbPool),
		Candidates: postgres.NewCandidateRepository(dbPool),
		Resumes:    postgres.NewResumeRepository(dbPool),
		Portfolios: postgres.NewPortfolioRepository(dbPool),
		Referees:   postgres.NewRefereeRepository(dbPool),
		Reviews:    postgres.NewReviewRepository(dbPool),
	}

	// 6. Setup UseCases
	validate := validation.New()
	scores := usecase.NewScoreRecomputer(repos.Candidates, appMetrics)
	resumeScanner := usecase.NewResumeScanner(repos.Resumes, objectStorage, scanner, appMetrics, securityLogger, usecase.ScanConfig{
		Timeout:      cfg.ScanTimeout,
		PollAttempts: cfg.ScanPollAttempts,
		PollInterval: cfg.ScanPollInterval,
	})

	authUC := usecase.NewAuthUsecase(repos.Users)
	candidateUC := usecase.NewCandidateUsecase(repos, validate, scores, publisher, appMetrics)
	resumeUC := usecase.NewResumeUsecase(repos, objectStorage, scores, resumeScanner, publisher, appMetrics, cfg.SignedURLTTL)
	refereeUC := usecase.NewRefereeUsecase(repos, validate, emailService, scores, publisher, appMetrics, securityLogger, usecase.RefereeConfig{
		AppBaseURL:     cfg.AppBaseURL,
		TokenTTL:       cfg.RefereeTokenTTL,
		BlockedDomains: cfg.RefereeBlockedDomains,
	})
	reviewUC := usecase.NewReviewUsecase(repos, resumeUC, scores, publisher, appMetrics, securityLogger)
	healthUC := usecase.NewHealthUsecase(healthChecks...)

	// 7. Setup Auth Provider (JWKS)
	jwksProvider := auth.NewProvider(cfg.JWKSURL)

	rateLimiter := middleware.NewRateLimiter(redisClient, securityLogger)
	rateLimiter.StartCleanup(ctx, 5*time.Minute)

	// 8. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:       authUC,
		CandidateUC:  candidateUC,
		ResumeUC:     resumeUC,
		RefereeUC:    refereeUC,
		ReviewUC:     reviewUC,
		HealthUC:     healthUC,
		RateLimiter:  rateLimiter,
		Metrics:      appMetrics,
		JWKSProvider: jwksProvider,
		Config:       cfg,
	})

	// 9. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	// Let in-flight scans record their results before the pool closes.
	scanDone := make(chan struct{})
	go func() {
		resumeScanner.Wait()
		close(scanDone)
	}()
	select {
	case <-scanDone:
	case <-shutdownCtx.Done():
		logger.Log.Warn("Abandoning in-flight resume scans")
	}

	logger.Log.Info("Server exiting")
}
