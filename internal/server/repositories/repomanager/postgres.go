// Package repomanager provides RepositoryManager implementations for
// PostgreSQL and for the in-process memory store, wiring together repository
// constructors, transactions and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/peermail/internal/dbx"
	"github.com/dmitrijs2005/peermail/internal/server/migrations"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/connections"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/handshakes"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/messages"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/passcodes"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// postgresRepositories vends PostgreSQL-backed repositories bound to db.
type postgresRepositories struct {
	db dbx.DBTX
}

func (r postgresRepositories) Users() users.Repository {
	return users.NewPostgresRepository(r.db)
}

func (r postgresRepositories) PassCodes() passcodes.Repository {
	return passcodes.NewPostgresRepository(r.db)
}

func (r postgresRepositories) Handshakes() handshakes.Repository {
	return handshakes.NewPostgresRepository(r.db)
}

func (r postgresRepositories) Connections() connections.Repository {
	return connections.NewPostgresRepository(r.db)
}

func (r postgresRepositories) Messages() messages.Repository {
	return messages.NewPostgresRepository(r.db)
}

// PostgresRepositoryManager binds repositories to a *sql.DB and exposes
// transactions and the schema migration hook.
type PostgresRepositoryManager struct {
	postgresRepositories
	db *sql.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the managed connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

// WithTx runs fn with repositories bound to a single transaction.
func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresRepositories{db: tx})
	})
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// NewPostgresRepositoryManager wraps an open database handle.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{postgresRepositories: postgresRepositories{db: db}, db: db}
}

// OpenPostgres opens a pgx-backed database for dsn and verifies it is
// reachable.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}
