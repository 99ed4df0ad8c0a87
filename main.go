package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"habitta/internal/config"
	"habitta/internal/database"
	"habitta/internal/handlers"
	"habitta/internal/logging"
	"habitta/internal/middleware"
	"habitta/internal/orders"
	"habitta/internal/sequence"
)

func main() {
	config.Load()
	cfg := config.AppEnv
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if missing := cfg.Missing(); len(missing) > 0 {
		log.Fatal().Strs("keys", missing).Msg("required configuration missing")
	}

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	db := client.Database(cfg.DBName)
	log.Info().Str("db", db.Name()).Msg("MongoDB connected")

	ensureIndexes(db)

	sequencer := newSequencer(cfg, db)

	catalog := database.NewCatalogStore(db)
	categories := database.NewCategoryStore(db)
	customers := database.NewCustomerStore(db)
	refreshTokens := database.NewRefreshTokenStore(db)

	orderLog := logging.Component("ORDER")
	orderService, err := orders.NewService(orders.ServiceDeps{
		Catalog:  catalog,
		Orders:   database.NewOrderStore(db),
		Sequence: sequencer,
		Location: cfg.OrderLocation,
		Logger:   &orderLog,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("order service init failed")
	}

	issuer := &handlers.TokenIssuer{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Refresh:    refreshTokens,
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Static("/uploads", filepath.Join(cfg.PublicDir, "uploads"))

	api := r.Group("/api")
	api.GET("/health", handlers.Health(func(ctx context.Context) error { return database.Ping(ctx, db) }))

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register(customers, issuer))
		auth.POST("/login", handlers.Login(customers, issuer))
		auth.POST("/refresh", handlers.Refresh(customers, issuer))
		auth.POST("/logout", handlers.Logout(refreshTokens))

		authed := auth.Group("", middleware.AuthGuard(cfg.JWTSecret))
		authed.GET("/me", handlers.GetMe(customers))
		authed.PUT("/profile", handlers.UpdateProfile(customers))
		authed.PUT("/password", handlers.ChangePassword(customers))
	}

	api.GET("/products", handlers.GetProducts(catalog))
	api.GET("/products/popular", handlers.GetPopularProducts(catalog))
	api.GET("/products/:slug", handlers.GetProduct(catalog))
	api.GET("/categories", handlers.GetCategories(categories))

	ordersAPI := api.Group("/orders")
	{
		ordersAPI.POST("", middleware.OptionalAuth(cfg.JWTSecret), handlers.CreateOrder(orderService))
		ordersAPI.POST("/quote", handlers.QuoteOrder(orderService))

		authed := ordersAPI.Group("", middleware.AuthGuard(cfg.JWTSecret))
		authed.GET("/my-orders", handlers.GetMyOrders(orderService))
		authed.GET("/:id", handlers.GetOrder(orderService))
		authed.PUT("/:id/cancel", handlers.CancelOrder(orderService))
	}

	api.POST("/admin/login", handlers.AdminLogin(customers, issuer))

	admin := api.Group("/admin", middleware.StaffAuth(cfg.JWTSecret))
	{
		admin.GET("/orders", handlers.GetAllOrders(orderService))
		admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus(orderService))

		admin.GET("/products/:id", handlers.GetProductByID(catalog))
		admin.POST("/products", handlers.CreateProduct(catalog))
		admin.PUT("/products/:id", handlers.UpdateProduct(catalog))
		admin.DELETE("/products/:id", handlers.DeleteProduct(catalog))
		admin.POST("/products/:id/images", handlers.UploadProductImage(catalog, cfg.PublicDir))
		admin.DELETE("/products/:id/images", handlers.DeleteProductImage(catalog, cfg.PublicDir))

		admin.GET("/categories", handlers.GetAllCategories(categories))
		admin.POST("/categories", handlers.CreateCategory(categories))
		admin.PUT("/categories/:id", handlers.UpdateCategory(categories))
		admin.DELETE("/categories/:id", handlers.DeleteCategory(categories))
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("habitta api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-shutdown
	log.Info().Msg("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect failed")
	}
}

func ensureIndexes(db *mongo.Database) {
	for name, ensure := range map[string]func(*mongo.Database) error{
		"product":       database.EnsureProductIndexes,
		"customer":      database.EnsureCustomerIndexes,
		"order":         database.EnsureOrderIndexes,
		"category":      database.EnsureCategoryIndexes,
		"refresh_token": database.EnsureRefreshTokenIndexes,
	} {
		if err := ensure(db); err != nil {
			log.Warn().Err(err).Str("collection", name).Msg("index warning")
		}
	}
}

// newSequencer picks the order number counter. Redis is used only when it
// answers at startup; otherwise the counters collection serves.
func newSequencer(cfg config.Config, db *mongo.Database) orders.Sequencer {
	if cfg.SequenceBackend != config.SequenceBackendRedis {
		return database.NewCounterSequencer(db)
	}

	redisSeq := sequence.NewRedisSequencer(sequence.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisSeq.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using mongo counters")
		return database.NewCounterSequencer(db)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("order numbers from redis")
	return redisSeq
}
