// Package users declares and implements storage of local accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/peermail/internal/server/models"
)

type Repository interface {
	// Create inserts a new account. A duplicate address yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, account *models.Account) error
	GetByAddress(ctx context.Context, address string) (*models.Account, error)
}
