package messages

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

func (r *PostgresRepository) CreateOutbox(ctx context.Context, e *models.OutboxEntry) error {
	query := `
		INSERT INTO outbox (id, self_address, ident_code, message_hash, message_nonce, plaintext, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, e.ID, e.SelfAddress, e.IdentCode, e.MessageHash, e.MessageNonce, e.Plaintext, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindOutbox(ctx context.Context, hash, nonce string) (*models.OutboxEntry, error) {
	query := `
		SELECT id, self_address, ident_code, message_hash, message_nonce, plaintext, created_at
		FROM outbox
		WHERE message_hash = $1 AND message_nonce = $2
		LIMIT 1
	`
	e := &models.OutboxEntry{}
	err := r.db.QueryRowContext(ctx, query, hash, nonce).
		Scan(&e.ID, &e.SelfAddress, &e.IdentCode, &e.MessageHash, &e.MessageNonce, &e.Plaintext, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) DeleteOutbox(ctx context.Context, id string) error {
	return dbx.ExecOne(ctx, r.db, `DELETE FROM outbox WHERE id = $1`, id)
}

func (r *PostgresRepository) DeleteOutboxCreatedBefore(ctx context.Context, t time.Time) (int64, error) {
	return dbx.ExecCount(ctx, r.db, `DELETE FROM outbox WHERE created_at < $1`, t)
}

func (r *PostgresRepository) CreateSent(ctx context.Context, e *models.SentEntry) error {
	query := `
		INSERT INTO sent (id, self_address, other_address, message_hash, plaintext, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.SelfAddress, e.OtherAddress, e.MessageHash, e.Plaintext, e.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateInbox(ctx context.Context, e *models.InboxEntry) error {
	query := `
		INSERT INTO inbox (id, self_address, other_address, message_hash, plaintext, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.SelfAddress, e.OtherAddress, e.MessageHash, e.Plaintext, e.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListInbox(ctx context.Context, selfAddress string, limit int) ([]models.InboxEntry, error) {
	query := `
		SELECT id, self_address, other_address, message_hash, plaintext, created_at
		FROM inbox
		WHERE self_address = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, selfAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.InboxEntry, 0)
	for rows.Next() {
		var e models.InboxEntry
		if err := rows.Scan(&e.ID, &e.SelfAddress, &e.OtherAddress, &e.MessageHash, &e.Plaintext, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}
