package auth

import (
	"context"
	"errors"
	"fmt"

	"ledgerdesk/internal/domain"
	ledgerRepo "ledgerdesk/internal/domain/repositories/ledger"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access a definition or account if they own its grouping.
type OwnerBasedAuthorizer struct {
	groupingRepo   ledgerRepo.GroupingRepository
	definitionRepo ledgerRepo.DefinitionRepository
	accountRepo    ledgerRepo.AccountRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(
	groupingRepo ledgerRepo.GroupingRepository,
	definitionRepo ledgerRepo.DefinitionRepository,
	accountRepo ledgerRepo.AccountRepository,
) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{
		groupingRepo:   groupingRepo,
		definitionRepo: definitionRepo,
		accountRepo:    accountRepo,
	}
}

// CanAccessGrouping checks if user owns the grouping
func (a *OwnerBasedAuthorizer) CanAccessGrouping(ctx context.Context, userID, groupingID string) error {
	// GetByID filters by owner; not found means not theirs
	_, err := a.groupingRepo.GetByID(ctx, groupingID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("access denied to grouping %s: %w", groupingID, domain.ErrForbidden)
		}
		return fmt.Errorf("check grouping access: %w", err)
	}
	return nil
}

// CanAccessDefinition checks if user can access a definition (via its grouping)
func (a *OwnerBasedAuthorizer) CanAccessDefinition(ctx context.Context, userID, definitionID string) error {
	def, err := a.definitionRepo.GetByIDOnly(ctx, definitionID)
	if err != nil {
		return fmt.Errorf("get definition for auth: %w", err)
	}
	return a.CanAccessGrouping(ctx, userID, def.GroupingID)
}

// CanAccessAccount checks if user can access an account (via its grouping)
func (a *OwnerBasedAuthorizer) CanAccessAccount(ctx context.Context, userID, accountID string) error {
	acct, err := a.accountRepo.GetByIDOnly(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account for auth: %w", err)
	}
	return a.CanAccessGrouping(ctx, userID, acct.GroupingID)
}
