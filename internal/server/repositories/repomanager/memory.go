package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/peermail/internal/server/repositories/connections"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/handshakes"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/memory"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/messages"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/passcodes"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/users"
)

// MemoryRepositoryManager serves repositories from a memory.Store.
// Transactions are serialized; a failed one undoes its own writes only.
type MemoryRepositoryManager struct {
	store *memory.Store
	txMu  sync.Mutex
}

func NewMemoryRepositoryManager(store *memory.Store) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: store}
}

func (m *MemoryRepositoryManager) Store() *memory.Store { return m.store }

func (m *MemoryRepositoryManager) Users() users.Repository             { return m.store.Users() }
func (m *MemoryRepositoryManager) PassCodes() passcodes.Repository     { return m.store.PassCodes() }
func (m *MemoryRepositoryManager) Handshakes() handshakes.Repository   { return m.store.Handshakes() }
func (m *MemoryRepositoryManager) Connections() connections.Repository { return m.store.Connections() }
func (m *MemoryRepositoryManager) Messages() messages.Repository       { return m.store.Messages() }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := m.store.Begin()
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	return fn(ctx, memoryTxRepositories{tx: tx})
}

type memoryTxRepositories struct{ tx *memory.Tx }

func (r memoryTxRepositories) Users() users.Repository             { return r.tx.Users() }
func (r memoryTxRepositories) PassCodes() passcodes.Repository     { return r.tx.PassCodes() }
func (r memoryTxRepositories) Handshakes() handshakes.Repository   { return r.tx.Handshakes() }
func (r memoryTxRepositories) Connections() connections.Repository { return r.tx.Connections() }
func (r memoryTxRepositories) Messages() messages.Repository       { return r.tx.Messages() }

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
