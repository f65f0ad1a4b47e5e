package services

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dmitrijs2005/peermail/internal/address"
	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/cryptox"
	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/archive"
	"github.com/dmitrijs2005/peermail/internal/server/models"
	"github.com/dmitrijs2005/peermail/internal/server/protocol"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	DefaultInboxLimit = 50
	MaxInboxLimit     = 500
)

// MessageService sends, receives and confirms messages over established
// connections.
type MessageService struct {
	repos    repomanager.RepositoryManager
	peer     Peer
	archiver archive.Archiver
	domain   string
	logger   logging.Logger
	now      func() time.Time
}

func NewMessageService(repos repomanager.RepositoryManager, peer Peer, archiver archive.Archiver, domain string, logger logging.Logger) *MessageService {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	return &MessageService{
		repos:    repos,
		peer:     peer,
		archiver: archiver,
		domain:   domain,
		logger:   logger.With("module", "messages"),
		now:      time.Now,
	}
}

// Send encrypts plaintext for recipientAddress and delivers it. The outbox
// entry is only promoted to the sent ledger after the receiver answers
// with success; on any failure it stays in the outbox.
func (s *MessageService) Send(ctx context.Context, plaintext, selfAddress, recipientAddress string) (protocol.ResponseCode, error) {
	if selfAddress == "" || recipientAddress == "" {
		return "", protocol.ErrInvalidRequest
	}

	conn, err := s.repos.Connections().GetByAddresses(ctx, selfAddress, recipientAddress)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", protocol.ErrNoConnection
		}
		return "", internalError(ctx, s.logger, "lookup connection", err)
	}
	if !conn.OtherAcceptsMessages {
		return "", protocol.ErrRepliesNotAllowed
	}

	recipient, err := address.Parse(recipientAddress)
	if err != nil {
		return "", protocol.ErrInvalidRequest
	}

	key, err := cryptox.DecodeKey(conn.MessageKey)
	if err != nil {
		return "", internalError(ctx, s.logger, "decode message key", err)
	}
	defer common.WipeByteArray(key)
	pkg, nonce, err := cryptox.Encrypt([]byte(plaintext), key)
	if err != nil {
		return "", internalError(ctx, s.logger, "encrypt", err)
	}
	salt, err := common.MakeRandHexString(cryptox.SaltSize)
	if err != nil {
		return "", internalError(ctx, s.logger, "generate salt", err)
	}

	now := s.now()
	ts := now.Unix()
	hash := cryptox.MessageHash(pkg, conn.AuthCode, salt, ts)

	outbox := &models.OutboxEntry{
		ID:           uuid.NewString(),
		SelfAddress:  selfAddress,
		IdentCode:    conn.IdentCode,
		MessageHash:  hash,
		MessageNonce: hex.EncodeToString(nonce),
		Plaintext:    plaintext,
		CreatedAt:    now,
	}
	if err := s.repos.Messages().CreateOutbox(ctx, outbox); err != nil {
		return "", internalError(ctx, s.logger, "store outbox", err)
	}

	code, err := s.peer.Receive(ctx, recipient.Domain, &protocol.ReceiveRequest{
		ReceivingAddressID: recipient.ID,
		IdentCode:          conn.IdentCode,
		Package:            pkg,
		Hash:               hash,
		Salt:               salt,
		Timestamp:          ts,
	})
	if err != nil {
		return "", remoteError(ctx, s.logger, "deliver", err)
	}

	sent := &models.SentEntry{
		ID:           uuid.NewString(),
		SelfAddress:  selfAddress,
		OtherAddress: conn.OtherAddress,
		MessageHash:  hash,
		Plaintext:    plaintext,
		CreatedAt:    s.now(),
	}
	err = s.repos.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if err := r.Messages().DeleteOutbox(ctx, outbox.ID); err != nil {
			return err
		}
		return r.Messages().CreateSent(ctx, sent)
	})
	if err != nil {
		return "", internalError(ctx, s.logger, "promote outbox", err)
	}

	if err := s.archiver.ArchiveSent(ctx, sent); err != nil {
		s.logger.Warn(ctx, "archive sent failed", "error", err)
	}

	s.logger.Info(ctx, "message delivered", "self", selfAddress, "other", conn.OtherAddress)
	return code, nil
}

// Receive accepts a message from a connected peer. The sender's domain is
// asked to confirm the message is genuinely outstanding before it is
// decrypted and stored.
func (s *MessageService) Receive(ctx context.Context, req *protocol.ReceiveRequest) (protocol.ResponseCode, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	self, err := address.New(req.ReceivingAddressID, s.domain)
	if err != nil {
		return "", protocol.ErrUserNotFound
	}
	account, err := s.repos.Users().GetByAddress(ctx, self.String())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", protocol.ErrUserNotFound
		}
		return "", internalError(ctx, s.logger, "lookup account", err)
	}

	conn, err := s.repos.Connections().GetByIdentCode(ctx, self.String(), req.IdentCode)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", protocol.ErrSenderNotAuthorized
		}
		return "", internalError(ctx, s.logger, "lookup connection", err)
	}
	sender, err := address.Parse(conn.OtherAddress)
	if err != nil {
		return "", protocol.ErrSenderNotAuthorized
	}

	// A stale message is rejected whether or not its hash is correct.
	if req.Timestamp+int64(MessageWindow/time.Second) < s.now().Unix() {
		return "", protocol.ErrExpired
	}

	expected := cryptox.MessageHash(req.Package, conn.AuthCode, req.Salt, req.Timestamp)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(req.Hash)) != 1 {
		return "", protocol.ErrHashMismatch
	}

	// Checked on the receiving side too: the initiator of a handshake never
	// learns whether the responder accepts messages.
	if !account.AllowsReplies {
		return "", protocol.ErrRepliesNotAllowed
	}

	nonce, err := cryptox.PackageNonce(req.Package)
	if err != nil {
		return "", protocol.ErrDecryptFailed
	}

	err = s.peer.ConfirmMessage(ctx, sender.Domain, &protocol.MessageConfirmRequest{
		Hash:  req.Hash,
		Nonce: hex.EncodeToString(nonce),
	})
	if err != nil {
		if f, ok := protocol.AsFailure(err); ok {
			s.logger.Info(ctx, "message confirm rejected", "sender", conn.OtherAddress, "reason", f.Message)
			return "", protocol.NewFailure(protocol.CodeWrongOrigin, f.Message)
		}
		return "", internalError(ctx, s.logger, "message confirm", err)
	}

	key, err := cryptox.DecodeKey(conn.MessageKey)
	if err != nil {
		return "", internalError(ctx, s.logger, "decode message key", err)
	}
	defer common.WipeByteArray(key)
	plaintext, ok := cryptox.Decrypt(req.Package, key)
	if !ok {
		return "", protocol.ErrDecryptFailed
	}

	entry := &models.InboxEntry{
		ID:           uuid.NewString(),
		SelfAddress:  self.String(),
		OtherAddress: conn.OtherAddress,
		MessageHash:  req.Hash,
		Plaintext:    string(plaintext),
		CreatedAt:    s.now(),
	}
	if err := s.repos.Messages().CreateInbox(ctx, entry); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return "", protocol.ErrAlreadyReceived
		}
		return "", internalError(ctx, s.logger, "store inbox", err)
	}

	if err := s.archiver.ArchiveInbox(ctx, entry); err != nil {
		s.logger.Warn(ctx, "archive inbox failed", "error", err)
	}

	s.logger.Info(ctx, "message received", "self", entry.SelfAddress, "other", entry.OtherAddress)
	return protocol.CodeSuccess, nil
}

// Confirm is the message/confirm responder. It only reads the outbox; the
// sender removes the entry once delivery succeeded, after which further
// confirms fail with NOT_FOUND.
func (s *MessageService) Confirm(ctx context.Context, req *protocol.MessageConfirmRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := s.repos.Messages().FindOutbox(ctx, req.Hash, req.Nonce); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return protocol.ErrNotFound
		}
		return internalError(ctx, s.logger, "lookup outbox", err)
	}
	return nil
}

// Inbox lists received messages for selfAddress, newest first.
func (s *MessageService) Inbox(ctx context.Context, selfAddress string, limit int) ([]models.InboxEntry, error) {
	if limit <= 0 {
		limit = DefaultInboxLimit
	}
	if limit > MaxInboxLimit {
		limit = MaxInboxLimit
	}
	entries, err := s.repos.Messages().ListInbox(ctx, selfAddress, limit)
	if err != nil {
		return nil, internalError(ctx, s.logger, "list inbox", err)
	}
	return entries, nil
}
