package connections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/dbx"
	"github.com/dmitrijs2005/peermail/internal/server/models"
)

const selectColumns = `self_address, other_address, other_display_name, other_accepts_messages,
	auth_code, ident_code, message_key, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Connection) error {
	query := `
		INSERT INTO connections (self_address, other_address, other_display_name, other_accepts_messages,
			auth_code, ident_code, message_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.SelfAddress, c.OtherAddress, c.OtherDisplayName, c.OtherAcceptsMessages,
		c.AuthCode, c.IdentCode, c.MessageKey, c.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, selfAddress, otherAddress string) error {
	query := `DELETE FROM connections WHERE self_address = $1 AND other_address = $2`
	if _, err := r.db.ExecContext(ctx, query, selfAddress, otherAddress); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByAddresses(ctx context.Context, selfAddress, otherAddress string) (*models.Connection, error) {
	query := `SELECT ` + selectColumns + ` FROM connections WHERE self_address = $1 AND other_address = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, selfAddress, otherAddress))
}

func (r *PostgresRepository) GetByIdentCode(ctx context.Context, selfAddress, identCode string) (*models.Connection, error) {
	query := `SELECT ` + selectColumns + ` FROM connections WHERE self_address = $1 AND ident_code = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, selfAddress, identCode))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Connection, error) {
	c := &models.Connection{}
	err := row.Scan(&c.SelfAddress, &c.OtherAddress, &c.OtherDisplayName, &c.OtherAcceptsMessages,
		&c.AuthCode, &c.IdentCode, &c.MessageKey, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}
