package handshakes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/dbx"
	"github.com/dmitrijs2005/peermail/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.HandshakeRecord) error {
	query := `
		INSERT INTO handshakes (id, other_address, pass_code, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, rec.ID, rec.OtherAddress, rec.PassCode, rec.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, otherAddress, passCode string) (*models.HandshakeRecord, error) {
	query := `
		SELECT id, other_address, pass_code, created_at
		FROM handshakes
		WHERE other_address = $1 AND pass_code = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	rec := &models.HandshakeRecord{}
	err := r.db.QueryRowContext(ctx, query, otherAddress, passCode).Scan(&rec.ID, &rec.OtherAddress, &rec.PassCode, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return dbx.ExecOne(ctx, r.db, `DELETE FROM handshakes WHERE id = $1`, id)
}

func (r *PostgresRepository) DeleteCreatedBefore(ctx context.Context, t time.Time) (int64, error) {
	return dbx.ExecCount(ctx, r.db, `DELETE FROM handshakes WHERE created_at < $1`, t)
}
