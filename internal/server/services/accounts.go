package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/peermail/internal/address"
	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/models"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
)

// AccountService manages the local mailboxes served by this domain.
type AccountService struct {
	repos  repomanager.RepositoryManager
	domain string
	logger logging.Logger
	now    func() time.Time
}

func NewAccountService(repos repomanager.RepositoryManager, domain string, logger logging.Logger) *AccountService {
	return &AccountService{repos: repos, domain: domain, logger: logger.With("module", "accounts"), now: time.Now}
}

// Create registers a local account. The address must belong to the
// configured domain.
func (s *AccountService) Create(ctx context.Context, addr, displayName string, allowsReplies bool) (*models.Account, error) {
	a, err := address.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if a.Domain != s.domain {
		return nil, fmt.Errorf("%w: address domain %q is not served here", common.ErrorValidation, a.Domain)
	}
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", common.ErrorValidation)
	}

	account := &models.Account{
		Address:       a.String(),
		DisplayName:   displayName,
		AllowsReplies: allowsReplies,
		CreatedAt:     s.now(),
	}
	if err := s.repos.Users().Create(ctx, account); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, internalError(ctx, s.logger, "create account", err)
	}

	s.logger.Info(ctx, "account created", "address", account.Address)
	return account, nil
}

// Get returns the account or common.ErrorNotFound.
func (s *AccountService) Get(ctx context.Context, addr string) (*models.Account, error) {
	account, err := s.repos.Users().GetByAddress(ctx, addr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, internalError(ctx, s.logger, "get account", err)
	}
	return account, nil
}
