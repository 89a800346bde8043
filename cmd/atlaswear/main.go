package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atlaswear/atlaswear/internal/admin"
	"github.com/atlaswear/atlaswear/internal/admin/categories"
	"github.com/atlaswear/atlaswear/internal/admin/products"
	"github.com/atlaswear/atlaswear/internal/app"
	"github.com/atlaswear/atlaswear/internal/auth"
	"github.com/atlaswear/atlaswear/internal/cart"
	"github.com/atlaswear/atlaswear/internal/catalog"
	"github.com/atlaswear/atlaswear/internal/checkout"
	"github.com/atlaswear/atlaswear/internal/i18n"
	"github.com/atlaswear/atlaswear/internal/platform/cache"
	"github.com/atlaswear/atlaswear/internal/platform/db"
	"github.com/atlaswear/atlaswear/internal/shared"
	"github.com/atlaswear/atlaswear/internal/view"
	"github.com/atlaswear/atlaswear/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "atlaswear_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	translator, err := i18n.NewTranslator()
	if err != nil {
		logger.Error("load locales", slog.Any("error", err))
		os.Exit(1)
	}
	templates, err := view.NewEngine(translator)
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbpool)
	cartCache := cart.NewCache(redisClient, cartRepo, 15*time.Minute)
	cartService := cart.NewService(cartRepo, cartCache, logger)
	cartHandler := cart.NewHandler(logger, cartService, cartCache, templates, csrfManager)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, cartService, templates, sessionManager, csrfManager)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, cartCache, templates, csrfManager)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	checkoutRepo := checkout.NewRepository(dbpool)
	checkoutService := checkout.NewService(checkoutRepo, jobClient, logger)
	checkoutHandler := checkout.NewHandler(logger, checkoutService, cartService, templates, csrfManager)

	productsHandler := products.NewHandler(logger, products.NewService(products.NewRepository(dbpool)), templates, csrfManager)
	categoriesHandler := categories.NewHandler(logger, categories.NewService(categories.NewRepository(dbpool)), templates, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		CatalogHandler:    catalogHandler,
		CartHandler:       cartHandler,
		CheckoutHandler:   checkoutHandler,
		AdminMiddleware:   admin.Middleware{Users: authService, Logger: logger},
		ProductsHandler:   productsHandler,
		CategoriesHandler: categoriesHandler,
		JobHandler:        jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
