package repomanager

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/server/models"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWithTx_Commit(t *testing.T) {
	ctx := context.Background()
	var m RepositoryManager = NewMemoryRepositoryManager(memory.NewStore())

	err := m.WithTx(ctx, func(ctx context.Context, r Repositories) error {
		return r.Users().Create(ctx, &models.Account{Address: "0*example.com"})
	})
	require.NoError(t, err)

	_, err = m.Users().GetByAddress(ctx, "0*example.com")
	assert.NoError(t, err)
}

func TestMemoryWithTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepositoryManager(memory.NewStore())
	require.NoError(t, m.Connections().Create(ctx, &models.Connection{SelfAddress: "0*example.com", OtherAddress: "1*example.com", IdentCode: "old"}))

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(ctx context.Context, r Repositories) error {
		if err := r.Connections().Delete(ctx, "0*example.com", "1*example.com"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	c, err := m.Connections().GetByAddresses(ctx, "0*example.com", "1*example.com")
	require.NoError(t, err)
	assert.Equal(t, "old", c.IdentCode)
}

func TestMemoryWithTx_RollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepositoryManager(memory.NewStore())

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(ctx context.Context, r Repositories) error {
		if err := r.Users().Create(ctx, &models.Account{Address: "0*example.com"}); err != nil {
			return err
		}

		done := make(chan error)
		go func() {
			done <- m.Messages().CreateInbox(ctx, &models.InboxEntry{ID: "i1", SelfAddress: "1*example.com", MessageHash: "h"})
		}()
		if err := <-done; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = m.Users().GetByAddress(ctx, "0*example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	inbox, err := m.Messages().ListInbox(ctx, "1*example.com", 10)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}

func TestMemoryWithTx_RollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepositoryManager(memory.NewStore())

	assert.Panics(t, func() {
		_ = m.WithTx(ctx, func(ctx context.Context, r Repositories) error {
			_ = r.Users().Create(ctx, &models.Account{Address: "0*example.com"})
			panic("boom")
		})
	})

	_, err := m.Users().GetByAddress(ctx, "0*example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NoError(t, m.RunMigrations(ctx))
	assert.NoError(t, m.Close())
}
