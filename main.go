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

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"serverpe-gateway/cache"
	"serverpe-gateway/config"
	"serverpe-gateway/database"
	"serverpe-gateway/handlers"
	"serverpe-gateway/logger"
	"serverpe-gateway/middleware"
	"serverpe-gateway/services/auth"
	"serverpe-gateway/services/checkout"
	"serverpe-gateway/services/serverpe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var db *database.Connection
	for retries := 0; retries < 5; retries++ {
		db, err = database.NewConnection(cfg.Database)
		if err == nil {
			break
		}
		retryDelay := time.Duration(retries+1) * time.Second
		logger.Log.Warn("Failed to connect to database, retrying",
			zap.Int("attempt", retries+1),
			zap.Duration("delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	if err != nil {
		logger.Log.Fatal("Failed to connect to database after retries", zap.Error(err))
	}
	defer db.Close()
	logger.Log.Info("Successfully connected to database")

	redisCache, err := cache.NewCache(cfg.Redis.URL)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()
	logger.Log.Info("Successfully connected to Redis")

	client := serverpe.NewClient(cfg.Backend)
	rateLimiter := middleware.NewRateLimiter(redisCache.Client(), cfg.Server.RateLimit)
	flow := auth.NewFlow(client, cfg.Auth, rateLimiter)

	checkoutService, err := checkout.NewService(client, db, cfg.Checkout)
	if err != nil {
		logger.Log.Fatal("Failed to initialize checkout", zap.Error(err))
	}

	sessions := middleware.NewSessionStore(cfg.Session)

	healthHandler := handlers.NewHealthHandler(db, redisCache)
	authHandler := handlers.NewAuthHandler(sessions, flow)
	catalogHandler := handlers.NewCatalogHandler(sessions, flow, client, redisCache, cfg.Redis.StatesCacheTTL)
	accountHandler := handlers.NewAccountHandler(sessions, flow, client)
	checkoutHandler := handlers.NewCheckoutHandler(sessions, flow, checkoutService)
	adminHandler := handlers.NewAdminHandler(sessions, flow, client)

	router := mux.NewRouter()
	router.Use(middleware.Recover)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS(cfg.Server.AllowedOrigin))
	router.Use(middleware.SecurityHeadersMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", healthHandler.Health).Methods("GET")

	// Everything below needs the browser session.
	app := api.NewRoute().Subrouter()
	app.Use(rateLimiter.Middleware())
	app.Use(sessions.WithSession)

	app.HandleFunc("/states", catalogHandler.States).Methods("GET", "OPTIONS")
	app.HandleFunc("/projects", catalogHandler.Projects).Methods("GET", "OPTIONS")
	app.HandleFunc("/projects/{id:[0-9]+}", catalogHandler.Project).Methods("GET", "OPTIONS")
	app.HandleFunc("/contact-categories", catalogHandler.ContactCategories).Methods("GET", "OPTIONS")

	app.HandleFunc("/auth/session", authHandler.Session).Methods("GET", "OPTIONS")
	app.HandleFunc("/auth/login/otp", authHandler.RequestLoginOTP).Methods("POST", "OPTIONS")
	app.HandleFunc("/auth/login/verify", authHandler.VerifyLoginOTP).Methods("POST", "OPTIONS")
	app.HandleFunc("/auth/subscribe/otp", authHandler.RequestSubscriptionOTP).Methods("POST", "OPTIONS")
	app.HandleFunc("/auth/subscribe/verify", authHandler.VerifySubscriptionOTP).Methods("POST", "OPTIONS")
	app.HandleFunc("/auth/back", authHandler.Back).Methods("POST", "OPTIONS")
	app.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	user := app.NewRoute().Subrouter()
	user.Use(middleware.RequireVerified(sessions, flow))

	user.HandleFunc("/user/profile", accountHandler.Profile).Methods("GET", "OPTIONS")
	user.HandleFunc("/user/profile", accountHandler.UpdateProfile).Methods("PATCH", "OPTIONS")
	user.HandleFunc("/user/purchases", accountHandler.Purchases).Methods("GET", "OPTIONS")
	user.HandleFunc("/orders/{orderID}", checkoutHandler.Order).Methods("GET", "OPTIONS")
	user.HandleFunc("/orders/{orderID}/invoice", checkoutHandler.Invoice).Methods("GET", "OPTIONS")

	user.HandleFunc("/checkout/quote", checkoutHandler.Quote).Methods("POST", "OPTIONS")
	user.HandleFunc("/checkout/order", checkoutHandler.CreateOrder).Methods("POST", "OPTIONS")
	user.HandleFunc("/checkout/verify", checkoutHandler.Verify).Methods("POST", "OPTIONS")
	user.HandleFunc("/checkout/status/{orderID}", checkoutHandler.Status).Methods("GET", "OPTIONS")

	admin := user.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin())

	admin.HandleFunc("/analytics/overview", adminHandler.Analytics).Methods("GET", "OPTIONS")
	admin.HandleFunc("/licenses", adminHandler.Licenses).Methods("GET", "OPTIONS")
	admin.HandleFunc("/licenses", adminHandler.CreateLicense).Methods("POST", "OPTIONS")
	admin.HandleFunc("/licenses/{id:[0-9]+}", adminHandler.UpdateLicense).Methods("PUT", "OPTIONS")
	admin.HandleFunc("/licenses/{id:[0-9]+}", adminHandler.DeleteLicense).Methods("DELETE", "OPTIONS")
	admin.HandleFunc("/licenses/{id:[0-9]+}/reset-fingerprint", adminHandler.ResetFingerprint).Methods("POST", "OPTIONS")
	admin.HandleFunc("/licenses/{id:[0-9]+}/activate", adminHandler.ActivateLicense).Methods("POST", "OPTIONS")
	admin.HandleFunc("/licenses/{id:[0-9]+}/deactivate", adminHandler.DeactivateLicense).Methods("POST", "OPTIONS")
	admin.HandleFunc("/users", adminHandler.Users).Methods("GET", "OPTIONS")
	admin.HandleFunc("/users/{id:[0-9]+}/grant-admin", adminHandler.GrantAdmin).Methods("POST", "OPTIONS")
	admin.HandleFunc("/users/{id:[0-9]+}/revoke-admin", adminHandler.RevokeAdmin).Methods("POST", "OPTIONS")
	admin.HandleFunc("/system/health", adminHandler.SystemHealth).Methods("GET", "OPTIONS")

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Log.Info("Shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited properly")
}
