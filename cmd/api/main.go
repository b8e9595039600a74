package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aetheria-backend/config"
	"aetheria-backend/internal/cart"
	"aetheria-backend/internal/delivery/http/middleware"
	v1 "aetheria-backend/internal/delivery/http/v1"
	"aetheria-backend/internal/domain"
	"aetheria-backend/internal/infrastructure/kvstore"
	"aetheria-backend/internal/promo"
	"aetheria-backend/internal/repository/postgres"
	"aetheria-backend/pkg/kv"
	"aetheria-backend/pkg/logger"
	"aetheria-backend/pkg/storage"
	"aetheria-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	ctx := context.Background()

	// --- Cart storage backend ---
	var (
		cartKV  kv.Store
		pgxPool *pgxpool.Pool
	)
	switch cfg.CartBackend {
	case config.BackendRedis:
		store, err := kvstore.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CartTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		cartKV = store
		log.Info().Str("addr", cfg.RedisAddr).Msg("Cart storage: Redis")
	case config.BackendPostgres:
		pool, err := postgres.NewPgxPool(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		pgxPool = pool
		cartKV = postgres.NewKVStore(pgxPool)
		log.Info().Msg("Cart storage: PostgreSQL via pgx")
	default:
		cartKV = kvstore.NewMemoryStore(cfg.CartTTL, time.Hour)
		log.Info().Msg("Cart storage: in-memory (carts do not survive restarts)")
	}

	// --- Promo registry ---
	// The built-in rule from config always exists; with a Postgres backend
	// the admin-managed rules sit in front of it.
	builtin := promo.NewStaticRegistry(domain.PromoRule{
		Code:     cfg.PromoCode,
		Type:     domain.PromoTypePercentage,
		Value:    cfg.PromoPercent,
		IsActive: true,
	})
	var registry domain.PromoRegistry = builtin
	if pgxPool != nil {
		registry = promo.NewChainRegistry(postgres.NewPromoRegistry(pgxPool), builtin)
	}
	evaluator := promo.NewEvaluator(registry)
	promoSvc := promo.NewService(registry)

	// --- Cart engine ---
	pricing := cart.Pricing{
		TaxRate:      cfg.TaxRate,
		ShippingCost: cfg.ShippingCost,
		MaxQuantity:  cfg.MaxCartQuantity,
	}
	persistence := cart.NewPersistence(cartKV)
	manager := cart.NewManager(ctx, pricing, persistence, evaluator, cfg.SessionTTL, 10*time.Minute)

	// --- Snapshot archive (optional R2) ---
	var archive storage.SnapshotArchive = storage.NoopArchive{}
	if cfg.R2BucketName != "" {
		r2, err := storage.NewR2Archive(ctx,
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2PublicURL,
			cfg.R2UploadTimeout,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 snapshot archive")
		}
		archive = r2
		log.Info().Str("bucket", cfg.R2BucketName).Msg("Snapshot archive: R2")
	}

	// Set up Router
	mux := http.NewServeMux()

	cartHandler := v1.NewCartHandler(manager, archive, cfg.MaxCartQuantity)
	adminPromoHandler := v1.NewAdminPromoHandler(promoSvc)

	// Cart (session-scoped)
	mux.HandleFunc("GET /api/v1/cart", cartHandler.GetCart)
	mux.HandleFunc("POST /api/v1/cart/items", cartHandler.AddItem)
	mux.HandleFunc("PUT /api/v1/cart/items", cartHandler.UpdateQuantity)
	mux.HandleFunc("DELETE /api/v1/cart/items/{productId}", cartHandler.RemoveItem)
	mux.HandleFunc("POST /api/v1/cart/promo", cartHandler.ApplyPromo)
	mux.HandleFunc("DELETE /api/v1/cart", cartHandler.ClearCart)
	mux.HandleFunc("POST /api/v1/cart/snapshot", cartHandler.Snapshot)

	// Admin promo rules (X-Admin-Key protected)
	adminMiddleware := middleware.AdminKeyMiddleware(cfg.AdminAPIKey)
	mux.Handle("GET /api/v1/admin/promos", adminMiddleware(http.HandlerFunc(adminPromoHandler.ListRules)))
	mux.Handle("POST /api/v1/admin/promos", adminMiddleware(http.HandlerFunc(adminPromoHandler.CreateRule)))
	mux.Handle("GET /api/v1/admin/promos/{code}", adminMiddleware(http.HandlerFunc(adminPromoHandler.GetRule)))
	mux.Handle("PUT /api/v1/admin/promos/{code}", adminMiddleware(http.HandlerFunc(adminPromoHandler.UpdateRule)))
	mux.Handle("DELETE /api/v1/admin/promos/{code}", adminMiddleware(http.HandlerFunc(adminPromoHandler.DeleteRule)))

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // Support root health check for Load Balancers

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Initialize Rate Limiter with lifecycle management
	// 50 req/s, burst 100, cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		ctx,
		50,            // requests per second
		100,           // burst
		time.Minute,   // cleanup period
		3*time.Minute, // client TTL
	)

	// Session resolution sits closest to the mux so every cart handler sees
	// a session ID; CORS, Request Logger, Rate Limit, and Gzip wrap it.
	handler := middleware.SessionMiddleware(cfg.SessionTTL)(mux)
	handler = middleware.NewCORSMiddleware(cfg)(handler)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	log.Info().Msgf("Server starting on %s", addr)

	// Wait for interrupt signal via channel
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()
	manager.Shutdown()
	if pgxPool != nil {
		pgxPool.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
