// Package server initializes and runs the control-surface application:
// database, migrations, workflow service and the HTTP API, with graceful
// shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/moviecp/internal/api"
	"github.com/dmitrijs2005/moviecp/internal/config"
	"github.com/dmitrijs2005/moviecp/internal/core/renamer"
	"github.com/dmitrijs2005/moviecp/internal/core/transfer"
	"github.com/dmitrijs2005/moviecp/internal/core/versions"
	"github.com/dmitrijs2005/moviecp/internal/core/workflow"
	"github.com/dmitrijs2005/moviecp/internal/logging"
	"github.com/dmitrijs2005/moviecp/internal/repositories/repomanager"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *api.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	wf := workflow.NewService(db, rm,
		renamer.NewRenamer(cfg, logger),
		versions.NewResolver(cfg, logger),
		transfer.NewCopier(cfg, logger),
		cfg, logger)

	handler := api.NewHandler(wf, logger)
	routes := handler.Routes(api.RequestLogger(logger), api.MetricsMiddleware())
	httpServer := api.NewServer(cfg.EndpointAddr, routes, logger)

	return &App{config: cfg, logger: logger, db: db, httpServer: httpServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server stopped", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing db", "error", err)
	}

	app.logger.Info(ctx, "app stopped")
}
