package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata" // Load timezone data

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/twilio/twilio-go"

	"github.com/yachtly/charter-service/internal/app"
	"github.com/yachtly/charter-service/internal/config"
	"github.com/yachtly/charter-service/internal/constants"
	"github.com/yachtly/charter-service/internal/controllers"
	"github.com/yachtly/charter-service/internal/middleware"
	"github.com/yachtly/charter-service/internal/repositories"
	"github.com/yachtly/charter-service/internal/routes"
	"github.com/yachtly/charter-service/internal/search"
	"github.com/yachtly/charter-service/internal/services"
	"github.com/yachtly/charter-service/internal/utils"
	"github.com/yachtly/charter-service/internal/verifyprovider"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize the application:", err)
	}
	defer application.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(application.DB)
	verificationRepo := repositories.NewPhoneVerificationRepository(application.DB)
	boatRepo := repositories.NewBoatRepository(application.DB)
	rateLimitRepo := repositories.NewRateLimitRepository(application.DB)

	// Verification provider
	twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	provider := verifyprovider.NewRouter(
		verifyprovider.NewTwilioVerify(twClient, cfg.TwilioVerifyServiceSID),
		verifyprovider.NewFake(),
		cfg.LDFlag_AcceptFakePhones,
	)
	validatePhone := func(ctx context.Context, phone string) (bool, error) {
		return utils.ValidatePhoneNumber(ctx, phone, cfg.LDFlag_ValidatePhoneWithTwilio, twClient)
	}

	// Search cache
	cache := search.NewNoopCache()
	if cfg.LDFlag_SearchCacheEnabled && application.Redis != nil {
		cache = search.NewRedisCache(application.Redis, cfg.SearchCacheTTL)
		utils.Logger.Info("Boat search cache backed by redis")
	}

	// Services
	rateLimiter := services.NewRateLimiterService(rateLimitRepo, cfg)
	verificationService := services.NewVerificationService(cfg, verificationRepo, repositories.NewTransactor(application.DB), rateLimiter, provider, validatePhone)
	userService := services.NewUserService(userRepo)
	boatSearchService := services.NewBoatSearchService(cfg, boatRepo, cache)
	verificationCleanup := services.NewVerificationCleanupService(verificationRepo)
	rateLimitCleanup := services.NewRateLimitCleanupService(rateLimitRepo)

	// Controllers
	healthController := controllers.NewHealthController(application.DB)
	verificationController := controllers.NewVerificationController(verificationService)
	userController := controllers.NewUserController(userService)
	boatsController := controllers.NewBoatsController(boatSearchService)

	// Daily sweeps
	c := cron.New()
	for name, job := range map[string]func(context.Context) error{
		"verification expiry": verificationCleanup.CleanupDaily,
		"rate limit cleanup":  rateLimitCleanup.CleanupDaily,
	} {
		name, job := name, job
		if _, err := c.AddFunc(cfg.CleanupCronSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), constants.CleanupJobTimeout)
			defer cancel()
			if err := job(ctx); err != nil {
				utils.Logger.WithError(err).Errorf("Scheduled %s failed", name)
			}
		}); err != nil {
			utils.Logger.WithError(err).Fatalf("Failed to schedule %s job", name)
		}
	}
	c.Start()
	defer c.Stop()

	// Router
	router := mux.NewRouter()

	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	// Public browsing
	router.HandleFunc(routes.Boats, boatsController.ListBoatsHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.BoatByID, boatsController.GetBoatHandler).Methods(http.MethodGet)

	// Protected routes (JWT middleware)
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))

	secured.HandleFunc(routes.VerificationPhoneSend, verificationController.SendPhoneCodeHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.VerificationPhoneCheck, verificationController.CheckPhoneCodeHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.UsersMePhone, userController.GetMyPhoneHandler).Methods(http.MethodGet)

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", constants.ClientIDHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      co.Handler(router),
		ReadTimeout:  constants.ServerReadTimeout,
		WriteTimeout: constants.ServerWriteTimeout,
		IdleTimeout:  constants.ServerIdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	utils.Logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("Graceful shutdown failed")
	}
}
