// Package handshakes stores the short-lived records a server keeps while it
// waits for the remote side of a handshake to call back and confirm it.
package handshakes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/peermail/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, rec *models.HandshakeRecord) error
	Find(ctx context.Context, otherAddress, passCode string) (*models.HandshakeRecord, error)
	// Delete consumes the record; only one caller can succeed.
	Delete(ctx context.Context, id string) error
	DeleteCreatedBefore(ctx context.Context, t time.Time) (int64, error)
}
