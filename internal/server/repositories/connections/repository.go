// Package connections stores established peer connections. Each server keeps
// its own row per (self, other) pair; both sides hold the same secrets.
package connections

import (
	"context"

	"github.com/dmitrijs2005/peermail/internal/server/models"
)

type Repository interface {
	// Create returns common.ErrorAlreadyExists if a row for the pair or the
	// ident code already exists.
	Create(ctx context.Context, c *models.Connection) error
	// Delete removes the pair if present. A missing row is not an error.
	Delete(ctx context.Context, selfAddress, otherAddress string) error
	GetByAddresses(ctx context.Context, selfAddress, otherAddress string) (*models.Connection, error)
	GetByIdentCode(ctx context.Context, selfAddress, identCode string) (*models.Connection, error)
}
