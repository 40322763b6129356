package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ledgerdesk/internal/config"
	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/domain/models/ledger"
	"ledgerdesk/internal/domain/repositories"
	ledgerRepo "ledgerdesk/internal/domain/repositories/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type accountService struct {
	groupingRepo   ledgerRepo.GroupingRepository
	definitionRepo ledgerRepo.DefinitionRepository
	accountRepo    ledgerRepo.AccountRepository
	txManager      repositories.TransactionManager
	authorizer     ledgerSvc.ResourceAuthorizer
	logger         *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	groupingRepo ledgerRepo.GroupingRepository,
	definitionRepo ledgerRepo.DefinitionRepository,
	accountRepo ledgerRepo.AccountRepository,
	txManager repositories.TransactionManager,
	authorizer ledgerSvc.ResourceAuthorizer,
	logger *slog.Logger,
) ledgerSvc.AccountService {
	return &accountService{
		groupingRepo:   groupingRepo,
		definitionRepo: definitionRepo,
		accountRepo:    accountRepo,
		txManager:      txManager,
		authorizer:     authorizer,
		logger:         logger,
	}
}

// CreateAccount registers an unattached account in a grouping
func (s *accountService) CreateAccount(ctx context.Context, req *ledgerSvc.CreateAccountRequest) (*ledger.Account, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.GroupingID, validation.Required),
		validation.Field(&req.Code,
			validation.Required,
			validation.Length(1, config.MaxAccountCodeLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxAccountNameLength),
			validation.By(notBlank),
		),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.CanAccessGrouping(ctx, req.UserID, req.GroupingID); err != nil {
		return nil, err
	}

	now := time.Now()
	account := &ledger.Account{
		GroupingID: req.GroupingID,
		Code:       strings.TrimSpace(req.Code),
		Name:       strings.TrimSpace(req.Name),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		"id", account.ID,
		"code", account.Code,
		"grouping_id", account.GroupingID,
	)
	return account, nil
}

// ListAccounts returns one page of a grouping's accounts
func (s *accountService) ListAccounts(ctx context.Context, userID string, filter ledger.AccountFilter) (*ledger.AccountPage, error) {
	if err := s.authorizer.CanAccessGrouping(ctx, userID, filter.GroupingID); err != nil {
		return nil, err
	}

	filter.ApplyDefaults()
	accounts, total, err := s.accountRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ledger.AccountPage{
		Accounts: accounts,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

// AttachAccount appends an account to a definition's accounts. An account
// already attached elsewhere is moved. Returns the definition with its
// updated accounts.
func (s *accountService) AttachAccount(ctx context.Context, userID, definitionID, accountID string) (*ledger.Node, error) {
	if err := s.authorizer.CanAccessDefinition(ctx, userID, definitionID); err != nil {
		return nil, err
	}

	var def *ledger.Node
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		def, err = s.definitionRepo.GetByIDOnly(txCtx, definitionID)
		if err != nil {
			return err
		}
		if !def.IsDefinition() {
			return fmt.Errorf("%w: %s cannot hold accounts", domain.ErrValidation, def.Name)
		}

		account, err := s.accountRepo.GetByIDOnly(txCtx, accountID)
		if err != nil {
			return err
		}
		if account.GroupingID != def.GroupingID {
			return fmt.Errorf("%w: account %s belongs to another grouping", domain.ErrValidation, accountID)
		}
		if account.DefinitionID != nil && *account.DefinitionID == definitionID {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("account %s is already attached to %s", account.Code, def.Name),
				ResourceType: "account",
				ResourceID:   accountID,
			}
		}

		next, err := s.accountRepo.NextIndex(txCtx, definitionID)
		if err != nil {
			return err
		}
		if err := s.accountRepo.SetDefinition(txCtx, accountID, &definitionID, next); err != nil {
			return err
		}
		if account.DefinitionID != nil {
			if err := s.compactAccounts(txCtx, *account.DefinitionID); err != nil {
				return err
			}
		}

		def.Accounts, err = s.accountRepo.ListByDefinition(txCtx, definitionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	def.Children = []*ledger.Node{}

	s.logger.Info("account attached",
		"account_id", accountID,
		"definition_id", definitionID,
	)
	return def, nil
}

// RemoveAccount detaches an account from its definition. mode must match
// the kind of the account's grouping.
func (s *accountService) RemoveAccount(ctx context.Context, userID, accountID string, mode ledger.GroupingKind) (*ledger.Account, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrValidation, mode)
	}
	if err := s.authorizer.CanAccessAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}

	var account *ledger.Account
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		account, err = s.accountRepo.GetByIDOnly(txCtx, accountID)
		if err != nil {
			return err
		}
		grouping, err := s.groupingRepo.GetByIDOnly(txCtx, account.GroupingID)
		if err != nil {
			return err
		}
		if grouping.Kind != mode {
			return fmt.Errorf("%w: account belongs to a %s grouping, not %s", domain.ErrValidation, grouping.Kind, mode)
		}
		if !account.Attached() {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("account %s is not attached", account.Code),
				ResourceType: "account",
				ResourceID:   accountID,
			}
		}
		if err := s.accountRepo.SetDefinition(txCtx, accountID, nil, 0); err != nil {
			return err
		}
		if err := s.compactAccounts(txCtx, *account.DefinitionID); err != nil {
			return err
		}
		account.DefinitionID = nil
		account.Index = 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account removed", "account_id", accountID, "mode", mode)
	return account, nil
}

// compactAccounts renumbers a definition's accounts to 0..n-1 keeping their order
func (s *accountService) compactAccounts(ctx context.Context, definitionID string) error {
	accounts, err := s.accountRepo.ListByDefinition(ctx, definitionID)
	if err != nil {
		return err
	}
	for i, a := range accounts {
		if a.Index == i {
			continue
		}
		if err := s.accountRepo.SetDefinition(ctx, a.ID, &definitionID, i); err != nil {
			return err
		}
	}
	return nil
}
