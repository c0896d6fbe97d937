// Package server assembles the notes backend: storage, services, the HTTP
// API with its websocket feed, and the gRPC health endpoint. It also
// handles signals and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/cache"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/events"
	"github.com/dmitrijs2005/gophnotes/internal/server/images"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophnotes/internal/server/rest"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
	"github.com/dmitrijs2005/gophnotes/internal/server/tasks"

	gs "github.com/dmitrijs2005/gophnotes/internal/server/grpc"
)

const (
	taskWorkers     = 4
	taskQueueSize   = 256
	taskTimeout     = 30 * time.Second
	releaseRetries  = 3
	releaseBackoff  = 200 * time.Millisecond
	healthProbeRate = 5 * time.Second
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	hub    *events.Hub
	pool   *tasks.Pool
	http   *rest.Server
	grpc   *gs.GRPCServer
}

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.Env, c.LogFormat, os.Stdout)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	store, err := images.NewS3Store(ctx, images.S3Options{
		Region:       c.S3Region,
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("image store init error: %w", err)
	}

	listing := cache.NewListingCache(c.ListingCacheTTL)
	hub := events.NewHub(common.NotesChannel, logger.With("module", "events"))
	pool := tasks.NewPool(taskWorkers, taskQueueSize, taskTimeout, logger.With("module", "tasks"))
	releaser := images.NewReleaser(store, releaseRetries, releaseBackoff)

	notes := services.NewNoteService(db, rm, listing, hub, releaser, pool, logger.With("module", "notes"))
	query := services.NewQueryService(db, rm, listing)
	accounts := services.NewUserService(db, rm, c)

	h := rest.NewHandler(notes, query, accounts, store, logger, c.MaxImageSize)
	router := rest.NewRouter(h, []byte(c.SecretKey), hub)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		hub:    hub,
		pool:   pool,
		http:   rest.NewServer(c.EndpointAddrHTTP, router, logger, c.ShutdownTimeout),
		grpc:   gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db, healthProbeRate),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", logging.Err(err))
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", logging.Err(err))
		cancelFunc()
	}
}

// Run serves until a signal arrives, ctx is cancelled or a server fails,
// then drains background tasks and closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.shutdown()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := app.pool.Shutdown(ctx); err != nil {
		app.logger.Warn(ctx, "background tasks abandoned", logging.Err(err))
	}

	app.hub.Close()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", logging.Err(err))
	}

	app.logger.Info(ctx, "App stopped")
}
