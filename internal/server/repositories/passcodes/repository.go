// Package passcodes stores one-time pass codes issued to local accounts.
package passcodes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/peermail/internal/server/models"
)

// Repository defines issuing, looking up and consuming pass codes.
type Repository interface {
	Create(ctx context.Context, code *models.PassCode) error

	// Find returns the newest pass code matching (owner, code), or
	// common.ErrorNotFound.
	Find(ctx context.Context, owner, code string) (*models.PassCode, error)

	// Delete consumes the pass code with the given id. It succeeds for
	// exactly one caller; everyone else gets common.ErrorNotFound.
	Delete(ctx context.Context, id string) error

	// DeleteIssuedBefore purges codes issued before t and returns how many
	// were removed.
	DeleteIssuedBefore(ctx context.Context, t time.Time) (int64, error)
}
