package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/peermail/internal/address"
	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/cryptox"
	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/models"
	"github.com/dmitrijs2005/peermail/internal/server/protocol"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// HandshakeService runs both halves of connection setup: the initiator
// that redeems a pass code on a remote domain, and the responders for the
// auth and auth/confirm endpoints.
type HandshakeService struct {
	repos  repomanager.RepositoryManager
	peer   Peer
	domain string
	logger logging.Logger
	now    func() time.Time
}

func NewHandshakeService(repos repomanager.RepositoryManager, peer Peer, domain string, logger logging.Logger) *HandshakeService {
	return &HandshakeService{
		repos:  repos,
		peer:   peer,
		domain: domain,
		logger: logger.With("module", "handshake"),
		now:    time.Now,
	}
}

// Initiate asks otherAddress's server to open a connection using passCode.
// On success both sides hold a Connection with the secrets minted by the
// remote side.
func (s *HandshakeService) Initiate(ctx context.Context, otherAddress, passCode, selfAddress, selfDisplayName string, selfAllowsReplies bool) error {
	if otherAddress == "" || passCode == "" || selfAddress == "" || selfDisplayName == "" {
		return protocol.ErrInvalidRequest
	}
	if !address.IsNumeric(passCode) {
		return protocol.ErrInvalidRequest
	}
	other, err := address.Parse(otherAddress)
	if err != nil {
		return protocol.ErrInvalidRequest
	}
	if _, err := address.Parse(selfAddress); err != nil {
		return protocol.ErrInvalidRequest
	}

	rec := &models.HandshakeRecord{
		ID:           uuid.NewString(),
		OtherAddress: other.String(),
		PassCode:     passCode,
		CreatedAt:    s.now(),
	}
	if err := s.repos.Handshakes().Create(ctx, rec); err != nil {
		return internalError(ctx, s.logger, "store handshake", err)
	}

	resp, err := s.peer.Auth(ctx, other.Domain, &protocol.AuthRequest{
		ReceivingAddressID:   other.ID,
		PassCode:             passCode,
		SendingAddress:       selfAddress,
		SendingDisplayName:   selfDisplayName,
		SendingAllowsReplies: selfAllowsReplies,
	})
	if err != nil {
		return remoteError(ctx, s.logger, "auth", err)
	}
	if !address.IsHex(resp.AuthCode, cryptox.KeySize) ||
		!address.IsHex(resp.IdentCode, cryptox.KeySize) ||
		!address.IsHex(resp.MessageKey, cryptox.KeySize) ||
		resp.ReceivingDisplayName == "" {
		s.logger.Warn(ctx, "incomplete auth response", "other", other.String())
		return protocol.ErrIncompleteResponse
	}

	conn := &models.Connection{
		SelfAddress:          selfAddress,
		OtherAddress:         other.String(),
		OtherDisplayName:     resp.ReceivingDisplayName,
		OtherAcceptsMessages: true,
		AuthCode:             resp.AuthCode,
		IdentCode:            resp.IdentCode,
		MessageKey:           resp.MessageKey,
		CreatedAt:            s.now(),
	}
	if err := s.replaceConnection(ctx, conn); err != nil {
		return internalError(ctx, s.logger, "store connection", err)
	}

	s.logger.Info(ctx, "connection established", "self", selfAddress, "other", conn.OtherAddress)
	return nil
}

// Respond handles an inbound auth request: it redeems the pass code,
// checks with the requester's domain that the handshake is genuine and
// mints the shared secrets.
func (s *HandshakeService) Respond(ctx context.Context, req *protocol.AuthRequest) (*protocol.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	self, err := address.New(req.ReceivingAddressID, s.domain)
	if err != nil {
		return nil, protocol.ErrUserNotFound
	}
	account, err := s.repos.Users().GetByAddress(ctx, self.String())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, protocol.ErrUserNotFound
		}
		return nil, internalError(ctx, s.logger, "lookup account", err)
	}

	pc, err := s.repos.PassCodes().Find(ctx, self.String(), req.PassCode)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, protocol.ErrInvalidPassCode
		}
		return nil, internalError(ctx, s.logger, "lookup pass code", err)
	}
	if s.now().Sub(pc.IssuedAt) > PassCodeLifetime {
		return nil, protocol.ErrExpiredPassCode
	}
	if err := s.repos.PassCodes().Delete(ctx, pc.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, protocol.ErrInvalidPassCode
		}
		return nil, internalError(ctx, s.logger, "consume pass code", err)
	}

	other, err := address.Parse(req.SendingAddress)
	if err != nil {
		return nil, protocol.ErrInvalidRequest
	}

	err = s.peer.ConfirmAuth(ctx, other.Domain, &protocol.AuthConfirmRequest{
		OtherAddress: self.String(),
		PassCode:     req.PassCode,
	})
	if err != nil {
		return nil, remoteError(ctx, s.logger, "auth confirm", err)
	}

	conn := &models.Connection{
		SelfAddress:          self.String(),
		OtherAddress:         other.String(),
		OtherDisplayName:     req.SendingDisplayName,
		OtherAcceptsMessages: req.SendingAllowsReplies,
		CreatedAt:            s.now(),
	}
	for _, dst := range []*string{&conn.AuthCode, &conn.IdentCode, &conn.MessageKey} {
		if *dst, err = common.MakeRandHexString(cryptox.KeySize); err != nil {
			return nil, internalError(ctx, s.logger, "generate secret", err)
		}
	}

	if err := s.replaceConnection(ctx, conn); err != nil {
		return nil, internalError(ctx, s.logger, "store connection", err)
	}

	s.logger.Info(ctx, "connection accepted", "self", conn.SelfAddress, "other", conn.OtherAddress)
	return &protocol.AuthResponse{
		Success:              true,
		AuthCode:             conn.AuthCode,
		IdentCode:            conn.IdentCode,
		MessageKey:           conn.MessageKey,
		ReceivingDisplayName: account.DisplayName,
	}, nil
}

// Confirm is the auth/confirm responder. A handshake record satisfies
// exactly one call.
func (s *HandshakeService) Confirm(ctx context.Context, req *protocol.AuthConfirmRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	rec, err := s.repos.Handshakes().Find(ctx, req.OtherAddress, req.PassCode)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return protocol.ErrNotFound
		}
		return internalError(ctx, s.logger, "lookup handshake", err)
	}
	if s.now().Sub(rec.CreatedAt) > HandshakeLifetime {
		return protocol.ErrExpired
	}
	if err := s.repos.Handshakes().Delete(ctx, rec.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return protocol.ErrNotFound
		}
		return internalError(ctx, s.logger, "consume handshake", err)
	}
	return nil
}

// replaceConnection drops any previous connection for the pair and stores
// conn in one transaction.
func (s *HandshakeService) replaceConnection(ctx context.Context, conn *models.Connection) error {
	return s.repos.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if err := r.Connections().Delete(ctx, conn.SelfAddress, conn.OtherAddress); err != nil {
			return err
		}
		return r.Connections().Create(ctx, conn)
	})
}
