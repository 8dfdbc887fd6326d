// Package runtime wires configuration, storage, services and the HTTP
// server into a runnable application.
package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/uzmarket/delivery/internal/auth"
	"github.com/uzmarket/delivery/internal/config"
	"github.com/uzmarket/delivery/internal/httpapi"
	"github.com/uzmarket/delivery/internal/httpserver"
	"github.com/uzmarket/delivery/internal/middleware"
	"github.com/uzmarket/delivery/internal/platform/migrations"
	authsvc "github.com/uzmarket/delivery/internal/services/auth"
	catalogsvc "github.com/uzmarket/delivery/internal/services/catalog"
	orderssvc "github.com/uzmarket/delivery/internal/services/orders"
	"github.com/uzmarket/delivery/internal/storage"
	"github.com/uzmarket/delivery/internal/storage/memory"
	"github.com/uzmarket/delivery/internal/storage/postgres"
	"github.com/uzmarket/delivery/pkg/logger"
)

// Stores groups the per-aggregate store interfaces the services consume.
type Stores struct {
	Users    storage.UserStore
	Products storage.ProductStore
	Orders   storage.OrderStore
}

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *httpserver.Server
	db         *sql.DB
}

// NewApplication constructs a new application instance with default wiring.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	stores, db, err := buildStores(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	issuer := auth.NewIssuer(
		cfg.Auth.Secret,
		time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.Auth.RefreshTTLHours)*time.Hour,
	)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	authService := authsvc.New(stores.Users, issuer, hasher, log.WithField("service", "auth"))
	catalogService := catalogsvc.New(stores.Products, log.WithField("service", "catalog"))
	ordersService := orderssvc.New(stores.Orders, stores.Products, stores.Users, log.WithField("service", "orders"))

	router := httpapi.NewRouter(authService, catalogService, ordersService, log)
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.MetricsMiddleware())

	var handler http.Handler = router
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
		limiter.StartCleanup(10 * time.Minute)
		handler = limiter.Handler(handler)
	}
	authMW := middleware.NewAuthMiddleware(issuer, authService.Resolve, log, httpapi.PublicPaths)
	handler = authMW.Handler(handler)
	handler = middleware.NewCORSMiddleware(cfg.CORS.Origins()).Handler(handler)

	return &Application{
		cfg:        cfg,
		log:        log,
		httpServer: httpserver.New(cfg.Server, log, handler),
		db:         db,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Infof("HTTP server listening on %s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
		if err := a.httpServer.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the HTTP server and closes the database.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}

func buildStores(cfg *config.Config, log *logger.Logger) (Stores, *sql.DB, error) {
	// The memory driver keeps local development free of a database
	// dependency; everything else goes through database/sql.
	if cfg.Database.Driver == "memory" {
		store := memory.New()
		return Stores{Users: store, Products: store, Orders: store}, nil, nil
	}

	if cfg.Database.DSN == "" {
		return Stores{}, nil, fmt.Errorf("database configuration is required (driver and dsn)")
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return Stores{}, nil, err
	}

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := migrations.Apply(ctx, db); err != nil {
			db.Close()
			return Stores{}, nil, fmt.Errorf("apply migrations: %w", err)
		}
		log.Info("database migrations applied")
	}

	store := postgres.New(db)
	return Stores{Users: store, Products: store, Orders: store}, db, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("database driver not configured")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn not configured")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
