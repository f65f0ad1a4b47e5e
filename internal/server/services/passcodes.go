package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/peermail/internal/address"
	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/models"
	"github.com/dmitrijs2005/peermail/internal/server/protocol"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type PassCodeService struct {
	repos  repomanager.RepositoryManager
	logger logging.Logger
	now    func() time.Time
}

func NewPassCodeService(repos repomanager.RepositoryManager, logger logging.Logger) *PassCodeService {
	return &PassCodeService{repos: repos, logger: logger.With("module", "passcodes"), now: time.Now}
}

// Issue creates a fresh 6-digit pass code for owner. Several live codes per
// owner are allowed.
func (s *PassCodeService) Issue(ctx context.Context, owner string) (string, error) {
	if _, err := address.Parse(owner); err != nil {
		return "", protocol.ErrInvalidRequest
	}

	if _, err := s.repos.Users().GetByAddress(ctx, owner); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", protocol.ErrUserNotFound
		}
		return "", internalError(ctx, s.logger, "issue pass code", err)
	}

	code, err := common.MakePassCode()
	if err != nil {
		return "", internalError(ctx, s.logger, "generate pass code", err)
	}

	pc := &models.PassCode{
		ID:           uuid.NewString(),
		OwnerAddress: owner,
		Code:         code,
		IssuedAt:     s.now(),
	}
	if err := s.repos.PassCodes().Create(ctx, pc); err != nil {
		return "", internalError(ctx, s.logger, "store pass code", err)
	}

	s.logger.Info(ctx, "pass code issued", "owner", owner)
	return code, nil
}
