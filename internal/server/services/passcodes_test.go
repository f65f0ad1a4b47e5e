package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/peermail/internal/address"
	"github.com/dmitrijs2005/peermail/internal/server/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassCodeService_Issue(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	n := newNetwork(clk, "a.example")["a.example"]
	mustAccount(t, n, "0*a.example", "Alice")

	first, err := n.passCodes.Issue(ctx, "0*a.example")
	require.NoError(t, err)
	assert.Len(t, first, 6)
	assert.True(t, address.IsNumeric(first))

	second, err := n.passCodes.Issue(ctx, "0*a.example")
	require.NoError(t, err)

	// several live codes may coexist
	for _, code := range []string{first, second} {
		pc, err := n.repos.PassCodes().Find(ctx, "0*a.example", code)
		require.NoError(t, err)
		assert.Equal(t, clk.now(), pc.IssuedAt)
	}
}

func TestPassCodeService_IssueErrors(t *testing.T) {
	ctx := context.Background()
	n := newNetwork(newClock(), "a.example")["a.example"]

	_, err := n.passCodes.Issue(ctx, "not-an-address")
	assert.ErrorIs(t, err, protocol.ErrInvalidRequest)

	_, err = n.passCodes.Issue(ctx, "5*a.example")
	assert.ErrorIs(t, err, protocol.ErrUserNotFound)
}
