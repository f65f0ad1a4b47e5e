// Package server wires storage, the peer client, services and the HTTP
// endpoint together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/archive"
	"github.com/dmitrijs2005/peermail/internal/server/config"
	"github.com/dmitrijs2005/peermail/internal/server/peer"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/memory"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/peermail/internal/server/rest"
	"github.com/dmitrijs2005/peermail/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	janitor *services.Janitor
	server  *rest.Server
}

// openRepositories is a test seam.
var openRepositories = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
	if dsn == config.MemoryDSN {
		return repomanager.NewMemoryRepositoryManager(memory.NewStore()), nil
	}
	return repomanager.OpenPostgres(ctx, dsn)
}

func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(logOut, c.LogLevel)

	repos, err := openRepositories(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var archiver archive.Archiver = archive.Nop{}
	if c.ArchiveEnabled() {
		s3a, err := archive.NewS3Archiver(ctx, c)
		if err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		archiver = s3a
	}

	pc := peer.NewClient(peer.StaticResolver(c.PeerScheme, c.BasePath), logger)

	svc := rest.Services{
		Accounts:   services.NewAccountService(repos, c.Domain, logger),
		PassCodes:  services.NewPassCodeService(repos, logger),
		Handshakes: services.NewHandshakeService(repos, pc, c.Domain, logger),
		Messages:   services.NewMessageService(repos, pc, archiver, c.Domain, logger),
	}

	return &App{
		config:  c,
		logger:  logger,
		repos:   repos,
		janitor: services.NewJanitor(repos, c.OutboxRetention, logger),
		server:  rest.NewServer(c, svc, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until ctx is cancelled, a signal arrives or the HTTP server
// fails, then closes the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "domain", app.config.Domain)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.janitor.Run(ctx, app.config.SweepInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(context.Background(), "close store", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
