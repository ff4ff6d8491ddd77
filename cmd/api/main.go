package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/innovative-archive/shop-api/internal/config"
	"github.com/innovative-archive/shop-api/internal/domain/admin"
	"github.com/innovative-archive/shop-api/internal/domain/auth"
	"github.com/innovative-archive/shop-api/internal/domain/cart"
	"github.com/innovative-archive/shop-api/internal/domain/catalog"
	"github.com/innovative-archive/shop-api/internal/domain/events"
	"github.com/innovative-archive/shop-api/internal/domain/invoice"
	"github.com/innovative-archive/shop-api/internal/domain/order"
	"github.com/innovative-archive/shop-api/internal/domain/referral"
	"github.com/innovative-archive/shop-api/internal/domain/settings"
	"github.com/innovative-archive/shop-api/internal/domain/user"
	"github.com/innovative-archive/shop-api/internal/domain/wallet"
	"github.com/innovative-archive/shop-api/internal/domain/withdrawal"
	"github.com/innovative-archive/shop-api/internal/middleware"
	"github.com/innovative-archive/shop-api/internal/pkg/database"
	"github.com/innovative-archive/shop-api/internal/pkg/imaging"
	"github.com/innovative-archive/shop-api/internal/pkg/jwt"
	pkgresponse "github.com/innovative-archive/shop-api/internal/pkg/response"
	"github.com/innovative-archive/shop-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting shop API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	r2Storage, err := storage.NewR2Storage(storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		AccessKeySecret: cfg.R2AccessKeySecret,
		BucketName:      cfg.R2BucketName,
		PublicURL:       cfg.R2PublicURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create R2 storage")
	}
	imageProcessor := imaging.NewProcessor(imaging.DefaultConfig())

	// ---------- Event hub ----------
	hub := events.NewHub(redis)
	go hub.Run()
	notifier := events.NewNotifier(hub)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	settingsRepo := settings.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	referralRepo := referral.NewRepository(db)
	withdrawalRepo := withdrawal.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	cartRepo := cart.NewRepository(redis, cfg.CartTTL)
	orderRepo := order.NewRepository(db)

	// ---------- Services ----------
	settingsService := settings.NewService(settingsRepo, redis)
	walletService := wallet.NewService(walletRepo, notifier)
	referralService := referral.NewService(referralRepo, userRepo, walletService, settingsService)
	withdrawalService := withdrawal.NewService(withdrawalRepo, userRepo, walletService, settingsService, notifier)
	catalogService := catalog.NewService(catalogRepo, r2Storage, imageProcessor)
	cartService := cart.NewService(cartRepo, catalogRepo)
	orderService := order.NewService(
		orderRepo,
		cartService,
		catalogRepo,
		walletService,
		settingsService,
		userRepo,
		referralService,
		notifier,
	)
	invoiceService := invoice.NewService(settingsService)
	authService := auth.NewService(userRepo, jwtService, redis, referralService)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	settingsHandler := settings.NewHandler(settingsService)
	walletHandler := wallet.NewHandler(walletService)
	referralHandler := referral.NewHandler(referralService)
	withdrawalHandler := withdrawal.NewHandler(withdrawalService)
	catalogHandler := catalog.NewHandler(catalogService)
	cartHandler := cart.NewHandler(cartService)
	orderHandler := order.NewHandler(orderService)
	invoiceHandler := invoice.NewHandler(invoiceService, orderService)
	eventsHandler := events.NewHandler(hub, cfg.AllowedOrigins)
	adminHandler := admin.NewHandler(orderService, withdrawalService)

	authMiddleware := middleware.Auth(jwtService)
	adminMiddleware := middleware.RequireAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint; browsers can't set headers on upgrade, so the
	// token rides in the query string.
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(eventsHandler.WebSocket)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes(authMiddleware))
		r.Mount("/settings", settingsHandler.Routes())
		r.Mount("/products", catalogHandler.Routes())
		r.Mount("/categories", catalogHandler.CategoryRoutes())
		r.Mount("/cart", cartHandler.Routes(authMiddleware))

		orderRoutes := orderHandler.Routes(authMiddleware)
		invoiceHandler.Register(orderRoutes)
		r.Mount("/orders", orderRoutes)

		r.Mount("/wallet", walletHandler.Routes(authMiddleware))
		r.Mount("/referrals", referralHandler.Routes(authMiddleware))
		r.Mount("/withdrawals", withdrawalHandler.Routes(authMiddleware))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Mount("/dashboard", adminHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/settings", settingsHandler.AdminRoutes(authMiddleware, adminMiddleware))
		r.Mount("/products", catalogHandler.AdminRoutes(authMiddleware, admin.RequirePermission(admin.PermManageProducts)))
		r.Mount("/categories", catalogHandler.AdminCategoryRoutes(authMiddleware, admin.RequirePermission(admin.PermManageProducts)))
		r.Mount("/orders", orderHandler.AdminRoutes(authMiddleware, admin.RequirePermission(admin.PermManageOrders)))
		r.Mount("/withdrawals", withdrawalHandler.AdminRoutes(authMiddleware, admin.RequirePermission(admin.PermProcessWithdrawals)))
		r.Mount("/referrals", referralHandler.AdminRoutes(authMiddleware, admin.RequirePermission(admin.PermManageReferrals)))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
