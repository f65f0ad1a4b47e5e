package passcodes

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

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, code *models.PassCode) error {
	query := `
		INSERT INTO pass_codes (id, owner_address, code, issued_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, code.ID, code.OwnerAddress, code.Code, code.IssuedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, owner, code string) (*models.PassCode, error) {
	query := `
		SELECT id, owner_address, code, issued_at
		FROM pass_codes
		WHERE owner_address = $1 AND code = $2
		ORDER BY issued_at DESC
		LIMIT 1
	`
	pc := &models.PassCode{}
	err := r.db.QueryRowContext(ctx, query, owner, code).Scan(&pc.ID, &pc.OwnerAddress, &pc.Code, &pc.IssuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return pc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return dbx.ExecOne(ctx, r.db, `DELETE FROM pass_codes WHERE id = $1`, id)
}

func (r *PostgresRepository) DeleteIssuedBefore(ctx context.Context, t time.Time) (int64, error) {
	return dbx.ExecCount(ctx, r.db, `DELETE FROM pass_codes WHERE issued_at < $1`, t)
}
