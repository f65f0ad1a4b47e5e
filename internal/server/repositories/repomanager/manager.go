package repomanager

import (
	"context"

	"github.com/dmitrijs2005/peermail/internal/server/repositories/connections"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/handshakes"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/messages"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/passcodes"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/users"
)

// Repositories is the set of repositories bound to one connection or
// transaction.
type Repositories interface {
	Users() users.Repository
	PassCodes() passcodes.Repository
	Handshakes() handshakes.Repository
	Connections() connections.Repository
	Messages() messages.Repository
}

// RepositoryManager owns the store lifecycle. Repositories returned directly
// run outside any transaction; WithTx hands fn a set bound to one
// transaction which is committed when fn returns nil.
type RepositoryManager interface {
	Repositories
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
	RunMigrations(ctx context.Context) error
	Close() error
}
