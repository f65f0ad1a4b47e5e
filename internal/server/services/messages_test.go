package services

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/cryptox"
	"github.com/dmitrijs2005/peermail/internal/server/models"
	"github.com/dmitrijs2005/peermail/internal/server/protocol"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair returns two connected nodes: 0*a.example (owner) and 1*b.example.
func pair(t *testing.T, clk *clock) (a, b *node) {
	t.Helper()
	net := newNetwork(clk, "a.example", "b.example")
	a, b = net["a.example"], net["b.example"]
	mustAccount(t, a, "0*a.example", "Alice")
	mustAccount(t, b, "1*b.example", "Bob")
	connect(t, b, "1*b.example", a, "0*a.example")
	return a, b
}

// craft builds a receive request from 1*b.example to 0*a.example the way
// Send would, storing the matching outbox entry on the sender unless
// skipOutbox is set.
func craft(t *testing.T, b *node, plaintext string, ts int64, skipOutbox bool) *protocol.ReceiveRequest {
	t.Helper()
	ctx := context.Background()
	conn, err := b.repos.Connections().GetByAddresses(ctx, "1*b.example", "0*a.example")
	require.NoError(t, err)

	key, err := cryptox.DecodeKey(conn.MessageKey)
	require.NoError(t, err)
	pkg, nonce, err := cryptox.Encrypt([]byte(plaintext), key)
	require.NoError(t, err)
	salt, err := common.MakeRandHexString(cryptox.SaltSize)
	require.NoError(t, err)
	hash := cryptox.MessageHash(pkg, conn.AuthCode, salt, ts)

	if !skipOutbox {
		require.NoError(t, b.repos.Messages().CreateOutbox(ctx, &models.OutboxEntry{
			ID: uuid.NewString(), SelfAddress: "1*b.example", IdentCode: conn.IdentCode,
			MessageHash: hash, MessageNonce: hex.EncodeToString(nonce), Plaintext: plaintext,
			CreatedAt: time.Unix(ts, 0),
		}))
	}

	return &protocol.ReceiveRequest{
		ReceivingAddressID: "0",
		IdentCode:          conn.IdentCode,
		Package:            pkg,
		Hash:               hash,
		Salt:               salt,
		Timestamp:          ts,
	}
}

func TestSend_EndToEnd(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	a, b := pair(t, clk)

	code, err := b.messages.Send(ctx, "hello", "1*b.example", "0*a.example")
	require.NoError(t, err)
	assert.Equal(t, protocol.CodeSuccess, code)

	inbox, err := a.messages.Inbox(ctx, "0*a.example", 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "hello", inbox[0].Plaintext)
	assert.Equal(t, "1*b.example", inbox[0].OtherAddress)

	sent := b.repos.Store().SentEntries("1*b.example")
	require.Len(t, sent, 1)
	assert.Equal(t, "hello", sent[0].Plaintext)
	assert.Equal(t, inbox[0].MessageHash, sent[0].MessageHash)
	assert.Empty(t, b.repos.Store().OutboxEntries())

	assert.Len(t, a.archive.inbox, 1)
	assert.Len(t, b.archive.sent, 1)

	// the reverse direction uses the same connection secrets
	code, err = a.messages.Send(ctx, "hi back", "0*a.example", "1*b.example")
	require.NoError(t, err)
	assert.Equal(t, protocol.CodeSuccess, code)
}

func TestSend_NoConnection(t *testing.T) {
	clk := newClock()
	a, _ := pair(t, clk)

	_, err := a.messages.Send(context.Background(), "hello", "0*a.example", "5*b.example")
	assert.ErrorIs(t, err, protocol.ErrNoConnection)
}

func TestSend_RepliesNotAllowed(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	net := newNetwork(clk, "a.example", "b.example")
	a, b := net["a.example"], net["b.example"]
	mustAccount(t, a, "0*a.example", "Alice")
	mustAccount(t, b, "1*b.example", "Bob")

	pc, err := a.passCodes.Issue(ctx, "0*a.example")
	require.NoError(t, err)
	require.NoError(t, b.handshakes.Initiate(ctx, "0*a.example", pc, "1*b.example", "Bob", false))

	_, err = a.messages.Send(ctx, "hello", "0*a.example", "1*b.example")
	assert.ErrorIs(t, err, protocol.ErrRepliesNotAllowed)
}

func TestReceive_AccountRefusesMessages(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	net := newNetwork(clk, "a.example", "b.example")
	a, b := net["a.example"], net["b.example"]
	_, err := a.accounts.Create(ctx, "0*a.example", "Alice", false)
	require.NoError(t, err)
	mustAccount(t, b, "1*b.example", "Bob")
	connect(t, b, "1*b.example", a, "0*a.example")

	confirmed := false
	a.messages.peer = &stubPeer{confirmMessage: func(context.Context, string, *protocol.MessageConfirmRequest) error {
		confirmed = true
		return nil
	}}

	_, err = a.messages.Receive(ctx, craft(t, b, "hello", clk.now().Unix(), true))
	assert.ErrorIs(t, err, protocol.ErrRepliesNotAllowed)
	assert.False(t, confirmed)

	// through the sender as well
	_, err = b.messages.Send(ctx, "hello", "1*b.example", "0*a.example")
	f, ok := protocol.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, protocol.CodeNotAuthorized, f.Code)

	inbox, err := a.messages.Inbox(ctx, "0*a.example", 10)
	require.NoError(t, err)
	assert.Empty(t, inbox)
	assert.Len(t, b.repos.Store().OutboxEntries(), 1)
}

func TestSend_FailureLeavesOutbox(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	_, b := pair(t, clk)

	peer := &stubPeer{receive: func(ctx context.Context, domain string, req *protocol.ReceiveRequest) (protocol.ResponseCode, error) {
		assert.Equal(t, "a.example", domain)
		assert.Equal(t, "0", req.ReceivingAddressID)
		return "", protocol.ErrHashMismatch
	}}
	svc := NewMessageService(b.repos, peer, nil, "b.example", b.messages.logger)
	svc.now = clk.now

	_, err := svc.Send(ctx, "hello", "1*b.example", "0*a.example")
	f, ok := protocol.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, protocol.CodeHashMismatch, f.Code)

	out := b.repos.Store().OutboxEntries()
	require.Len(t, out, 1)
	assert.Equal(t, "hello", out[0].Plaintext)
	assert.Empty(t, b.repos.Store().SentEntries("1*b.example"))
}

func TestReceive_FreshnessWindow(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	a, b := pair(t, clk)
	now := clk.now().Unix()

	ok := craft(t, b, "fresh", now-59, false)
	code, err := a.messages.Receive(ctx, ok)
	require.NoError(t, err)
	assert.Equal(t, protocol.CodeSuccess, code)

	stale := craft(t, b, "stale", now-61, false)
	_, err = a.messages.Receive(ctx, stale)
	assert.ErrorIs(t, err, protocol.ErrExpired)

	staleAndForged := craft(t, b, "stale", now-61, false)
	staleAndForged.Hash = cryptox.Hash([]byte("forged"))
	_, err = a.messages.Receive(ctx, staleAndForged)
	f, isFailure := protocol.AsFailure(err)
	require.True(t, isFailure)
	assert.Equal(t, protocol.CodeExpired, f.Code)
}

func TestReceive_Rejections(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	a, b := pair(t, clk)
	now := clk.now().Unix()

	tests := []struct {
		name     string
		mutate   func(r *protocol.ReceiveRequest)
		noOutbox bool
		wantErr  error
		wantCode protocol.ResponseCode
	}{
		{
			name:     "unknown user",
			mutate:   func(r *protocol.ReceiveRequest) { r.ReceivingAddressID = "9" },
			wantErr:  protocol.ErrUserNotFound,
			wantCode: protocol.CodeNotFound,
		},
		{
			name:     "unknown ident code",
			mutate:   func(r *protocol.ReceiveRequest) { r.IdentCode = "00" },
			wantErr:  protocol.ErrSenderNotAuthorized,
			wantCode: protocol.CodeNotAuthorized,
		},
		{
			name:     "hash mismatch",
			mutate:   func(r *protocol.ReceiveRequest) { r.Salt = r.Salt + "0" },
			wantErr:  protocol.ErrHashMismatch,
			wantCode: protocol.CodeHashMismatch,
		},
		{
			name:     "not outstanding at sender",
			mutate:   func(r *protocol.ReceiveRequest) {},
			noOutbox: true,
			wantCode: protocol.CodeWrongOrigin,
		},
		{
			name:     "missing fields",
			mutate:   func(r *protocol.ReceiveRequest) { r.Package = "" },
			wantErr:  protocol.ErrInvalidRequest,
			wantCode: protocol.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := craft(t, b, "hello", now, tt.noOutbox)
			tt.mutate(req)

			_, err := a.messages.Receive(ctx, req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			f, ok := protocol.AsFailure(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, f.Code)
		})
	}

	inbox, err := a.messages.Inbox(ctx, "0*a.example", 10)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestReceive_DecryptFailed(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	a, b := pair(t, clk)

	conn, err := b.repos.Connections().GetByAddresses(ctx, "1*b.example", "0*a.example")
	require.NoError(t, err)

	// correctly bound hash over a package sealed with some other key
	otherKey := common.GenerateRandByteArray(cryptox.KeySize)
	pkg, nonce, err := cryptox.Encrypt([]byte("hello"), otherKey)
	require.NoError(t, err)
	ts := clk.now().Unix()
	hash := cryptox.MessageHash(pkg, conn.AuthCode, "aa", ts)
	require.NoError(t, b.repos.Messages().CreateOutbox(ctx, &models.OutboxEntry{
		ID: "o-1", MessageHash: hash, MessageNonce: hex.EncodeToString(nonce), CreatedAt: clk.now(),
	}))

	_, err = a.messages.Receive(ctx, &protocol.ReceiveRequest{
		ReceivingAddressID: "0", IdentCode: conn.IdentCode, Package: pkg, Hash: hash, Salt: "aa", Timestamp: ts,
	})
	assert.ErrorIs(t, err, protocol.ErrDecryptFailed)
}

func TestReceive_ReplayIsRejected(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	a, b := pair(t, clk)

	req := craft(t, b, "once", clk.now().Unix(), false)
	_, err := a.messages.Receive(ctx, req)
	require.NoError(t, err)

	_, err = a.messages.Receive(ctx, req)
	assert.ErrorIs(t, err, protocol.ErrAlreadyReceived)

	inbox, err := a.messages.Inbox(ctx, "0*a.example", 0)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}

func TestReceive_ArchiveFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	a, b := pair(t, clk)
	a.archive.err = errors.New("bucket gone")

	code, err := a.messages.Receive(ctx, craft(t, b, "hello", clk.now().Unix(), false))
	require.NoError(t, err)
	assert.Equal(t, protocol.CodeSuccess, code)
}

func TestConfirm_ReadOnlyUntilSenderPromotes(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	_, b := pair(t, clk)

	req := craft(t, b, "hello", clk.now().Unix(), false)
	nonce, err := cryptox.PackageNonce(req.Package)
	require.NoError(t, err)
	confirm := &protocol.MessageConfirmRequest{Hash: req.Hash, Nonce: hex.EncodeToString(nonce)}

	assert.NoError(t, b.messages.Confirm(ctx, confirm))
	assert.NoError(t, b.messages.Confirm(ctx, confirm))

	out := b.repos.Store().OutboxEntries()
	require.Len(t, out, 1)
	require.NoError(t, b.repos.Messages().DeleteOutbox(ctx, out[0].ID))
	assert.ErrorIs(t, b.messages.Confirm(ctx, confirm), protocol.ErrNotFound)
}

func TestInbox_Limit(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	a, b := pair(t, clk)

	for i := 0; i < 3; i++ {
		_, err := b.messages.Send(ctx, "m", "1*b.example", "0*a.example")
		require.NoError(t, err)
		clk.advance(time.Second)
	}

	got, err := a.messages.Inbox(ctx, "0*a.example", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = a.messages.Inbox(ctx, "0*a.example", MaxInboxLimit+1)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
