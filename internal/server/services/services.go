// Package services implements the peermail protocol operations on top of
// the repositories and the peer client. Every operation returns either a
// result or an error; protocol outcomes are *protocol.Failure, anything
// else is common.ErrorInternal and has already been logged.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/protocol"
)

const (
	PassCodeLifetime  = time.Hour
	HandshakeLifetime = 60 * time.Second
	MessageWindow     = 60 * time.Second
)

// Peer is the outbound side of the protocol, implemented by peer.Client.
type Peer interface {
	Auth(ctx context.Context, domain string, req *protocol.AuthRequest) (*protocol.AuthResponse, error)
	ConfirmAuth(ctx context.Context, domain string, req *protocol.AuthConfirmRequest) error
	Receive(ctx context.Context, domain string, req *protocol.ReceiveRequest) (protocol.ResponseCode, error)
	ConfirmMessage(ctx context.Context, domain string, req *protocol.MessageConfirmRequest) error
}

// internalError logs the full cause and returns the generic error that
// is safe to show to a remote caller.
func internalError(ctx context.Context, logger logging.Logger, op string, err error) error {
	logger.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%s: %w", op, common.ErrorInternal)
}

// remoteError passes peer failures through unchanged and hides anything
// else behind common.ErrorInternal.
func remoteError(ctx context.Context, logger logging.Logger, op string, err error) error {
	if f, ok := protocol.AsFailure(err); ok {
		logger.Info(ctx, op+" rejected by peer", "reason", f.Message, "code", f.Code)
		return f
	}
	return internalError(ctx, logger, op, err)
}
