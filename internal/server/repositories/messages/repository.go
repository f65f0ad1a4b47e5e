// Package messages stores the three message ledgers: outbox (awaiting the
// receiver's confirm callback), sent and inbox.
package messages

import (
	"context"
	"time"

	"github.com/dmitrijs2005/peermail/internal/server/models"
)

type Repository interface {
	CreateOutbox(ctx context.Context, e *models.OutboxEntry) error
	FindOutbox(ctx context.Context, hash, nonce string) (*models.OutboxEntry, error)
	// DeleteOutbox removes the entry; common.ErrorNotFound if it is already gone.
	DeleteOutbox(ctx context.Context, id string) error
	DeleteOutboxCreatedBefore(ctx context.Context, t time.Time) (int64, error)

	CreateSent(ctx context.Context, e *models.SentEntry) error

	// CreateInbox returns common.ErrorAlreadyExists when the same message
	// hash was already accepted for the address.
	CreateInbox(ctx context.Context, e *models.InboxEntry) error
	ListInbox(ctx context.Context, selfAddress string, limit int) ([]models.InboxEntry, error)
}
