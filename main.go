package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/merkaz770/shluchim/backend/src/config"
	"github.com/merkaz770/shluchim/backend/src/database"
	"github.com/merkaz770/shluchim/backend/src/handlers"
	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/processors"
	"github.com/merkaz770/shluchim/backend/src/security"
	"github.com/merkaz770/shluchim/backend/src/services"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == config.Cfg.FrontendBaseURL {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Merkaz shluchim backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	appCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	authService := security.NewAuthService(config.Cfg.JWTSecret)

	rewardCalculator := processors.NewRewardCalculator()
	balanceCalculator := processors.NewBalanceCalculator()

	transactionStore := services.NewTransactionStore(database.DB)
	directory := services.NewDirectory(database.DB)

	attachmentStore, err := services.NewAttachmentStore(config.Cfg.AttachmentDir)
	if err != nil {
		stdlog.Fatalf("failed to initialize attachment storage: %v", err)
	}

	activityService := services.NewActivityService(database.DB, appCache)
	transactionService := services.NewTransactionService(
		transactionStore,
		directory,
		activityService,
		rewardCalculator,
		balanceCalculator,
		appCache,
	)
	billingService := services.NewBillingService(transactionStore, directory)
	exportService := services.NewExportService(transactionStore, directory, attachmentStore)

	userHandler := handlers.NewUserHandler(authService, transactionService)
	txHandler := handlers.NewTransactionHandler(transactionService, attachmentStore)
	activityTypeHandler := handlers.NewActivityTypeHandler(activityService, rewardCalculator)
	billingHandler := handlers.NewBillingHandler(billingService)
	exportHandler := handlers.NewExportHandler(exportService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Merkaz shluchim backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/login", userHandler.LoginUserHandler)
			r.Post("/auth/refresh", userHandler.RefreshTokenHandler)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(userHandler.AuthMiddleware)

			r.Post("/auth/logout", userHandler.LogoutUserHandler)

			r.Get("/transactions", txHandler.HandleListTransactions)
			r.Get("/transactions/{id}", txHandler.HandleGetTransaction)
			r.Post("/transactions/activity", txHandler.HandleSubmitActivity)
			r.Post("/transactions/expense", txHandler.HandleSubmitExpense)
			r.Post("/transactions/{id}/attachment", txHandler.HandleUploadAttachment)
			r.Get("/attachments/{name}", txHandler.HandleServeAttachment)
			r.Get("/balance", txHandler.HandleGetBalance)
			r.Get("/tallies/monthly", txHandler.HandleGetMonthlyTally)

			r.Get("/activity-types", activityTypeHandler.HandleListActivityTypes)
			r.Get("/activity-types/{id}/reward", activityTypeHandler.HandleGetRewardPreview)

			// Manager routes
			r.Group(func(r chi.Router) {
				r.Use(userHandler.AdminMiddleware)

				r.Get("/admin/summary", userHandler.HandleGetAdminSummary)

				r.Get("/admin/transactions/pending", txHandler.HandleListPendingReview)
				r.Post("/admin/transactions/{id}/review", txHandler.HandleReviewTransaction)
				r.Get("/admin/transactions/{id}/projected-balance", txHandler.HandleGetProjectedBalance)
				r.Post("/admin/transactions/manual", txHandler.HandleManualAdjustment)

				r.Post("/admin/activity-types", activityTypeHandler.HandleCreateActivityType)
				r.Put("/admin/activity-types/{id}", activityTypeHandler.HandleUpdateActivityType)
				r.Delete("/admin/activity-types/{id}", activityTypeHandler.HandleDeleteActivityType)

				r.Get("/admin/subscription-types", billingHandler.HandleListSubscriptionTypes)
				r.Post("/admin/subscription-types", billingHandler.HandleCreateSubscriptionType)
				r.Put("/admin/subscription-types/{id}", billingHandler.HandleUpdateSubscriptionType)
				r.Delete("/admin/subscription-types/{id}", billingHandler.HandleDeleteSubscriptionType)
				r.Post("/admin/billing/run", billingHandler.HandleRunBilling)

				r.Get("/admin/export/pending", exportHandler.HandleListPendingExport)
				r.Post("/admin/export/run", exportHandler.HandleRunExport)
				r.Post("/admin/export/restore", exportHandler.HandleRestoreExport)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // export downloads can be slow
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
