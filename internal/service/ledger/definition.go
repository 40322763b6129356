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

type definitionService struct {
	definitionRepo ledgerRepo.DefinitionRepository
	accountRepo    ledgerRepo.AccountRepository
	txManager      repositories.TransactionManager
	authorizer     ledgerSvc.ResourceAuthorizer
	logger         *slog.Logger
}

// NewDefinitionService creates a new definition service
func NewDefinitionService(
	definitionRepo ledgerRepo.DefinitionRepository,
	accountRepo ledgerRepo.AccountRepository,
	txManager repositories.TransactionManager,
	authorizer ledgerSvc.ResourceAuthorizer,
	logger *slog.Logger,
) ledgerSvc.DefinitionService {
	return &definitionService{
		definitionRepo: definitionRepo,
		accountRepo:    accountRepo,
		txManager:      txManager,
		authorizer:     authorizer,
		logger:         logger,
	}
}

// CreateDefinition creates a definition as the last child of its parent
func (s *definitionService) CreateDefinition(ctx context.Context, req *ledgerSvc.CreateDefinitionRequest) (*ledger.Node, error) {
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}
	if req.Type == "" {
		req.Type = ledger.NodeTypeDefinition
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.CanAccessGrouping(ctx, req.UserID, req.GroupingID); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.definitionRepo.GetByIDOnly(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent definition: %w", err)
		}
		if parent.GroupingID != req.GroupingID {
			return nil, fmt.Errorf("%w: parent %s belongs to another grouping", domain.ErrValidation, parent.ID)
		}
		if !parent.IsDefinition() {
			return nil, fmt.Errorf("%w: %s is an account node and cannot hold children", domain.ErrValidation, parent.Name)
		}
	}

	now := time.Now()
	node := &ledger.Node{
		GroupingID:         req.GroupingID,
		ParentID:           req.ParentID,
		Name:               strings.TrimSpace(req.Name),
		Description:        strings.TrimSpace(req.Description),
		Type:               req.Type,
		ExcludeFromReports: req.ExcludeFromReports,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		next, err := s.definitionRepo.NextIndex(txCtx, req.GroupingID, req.ParentID)
		if err != nil {
			return err
		}
		node.Index = next
		return s.definitionRepo.Create(txCtx, node)
	})
	if err != nil {
		return nil, err
	}
	node.Children = []*ledger.Node{}
	node.Accounts = []ledger.Account{}

	s.logger.Info("definition created",
		"id", node.ID,
		"name", node.Name,
		"grouping_id", node.GroupingID,
		"parent_id", node.ParentID,
		"index", node.Index,
	)
	return node, nil
}

// GetDefinition retrieves a definition with its attached accounts
func (s *definitionService) GetDefinition(ctx context.Context, userID, id string) (*ledger.Node, error) {
	if err := s.authorizer.CanAccessDefinition(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.loadWithAccounts(ctx, id)
}

func (s *definitionService) loadWithAccounts(ctx context.Context, id string) (*ledger.Node, error) {
	node, err := s.definitionRepo.GetByIDOnly(ctx, id)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.ListByDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	node.Accounts = accounts
	node.Children = []*ledger.Node{}
	return node, nil
}

// UpdateDefinition changes name, description and flags. Position and parent
// only change through the index endpoints.
func (s *definitionService) UpdateDefinition(ctx context.Context, userID, id string, req *ledgerSvc.UpdateDefinitionRequest) (*ledger.Node, error) {
	if err := s.authorizer.CanAccessDefinition(ctx, userID, id); err != nil {
		return nil, err
	}

	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	node, err := s.loadWithAccounts(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		node.Name = strings.TrimSpace(*req.Name)
	}
	// Tri-state: absent keeps, null clears, value sets
	if req.Description.Present {
		node.Description = strings.TrimSpace(req.Description.Or(""))
	}
	if req.ExcludeFromReports != nil {
		node.ExcludeFromReports = *req.ExcludeFromReports
	}
	node.UpdatedAt = time.Now()

	if err := s.definitionRepo.Update(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("definition updated", "id", id, "name", node.Name)
	return node, nil
}

// DeleteDefinition deletes a definition with its whole subtree. Accounts
// attached anywhere in the subtree are detached, and the remaining siblings
// are renumbered so indices stay contiguous.
func (s *definitionService) DeleteDefinition(ctx context.Context, userID, id string) error {
	if err := s.authorizer.CanAccessDefinition(ctx, userID, id); err != nil {
		return err
	}

	var removed int
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		target, err := s.definitionRepo.GetByIDOnly(txCtx, id)
		if err != nil {
			return err
		}
		all, err := s.definitionRepo.GetAllByGrouping(txCtx, target.GroupingID)
		if err != nil {
			return err
		}

		ids := subtreeIDs(all, id)
		removed = len(ids)
		if err := s.accountRepo.DetachByDefinitions(txCtx, ids); err != nil {
			return err
		}
		if err := s.definitionRepo.DeleteByIDs(txCtx, ids); err != nil {
			return err
		}

		for i, sib := range siblingsOf(all, target.ParentID, id) {
			if sib.Index == i {
				continue
			}
			if err := s.definitionRepo.UpdatePosition(txCtx, sib.ID, sib.ParentID, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("definition deleted", "id", id, "removed", removed)
	return nil
}

func (s *definitionService) validateCreateRequest(req *ledgerSvc.CreateDefinitionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.GroupingID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxDefinitionNameLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&req.Type, validation.In(ledger.NodeTypeDefinition, ledger.NodeTypeAccount)),
	)
}

func (s *definitionService) validateUpdateRequest(req *ledgerSvc.UpdateDefinitionRequest) error {
	if req.Name == nil && !req.Description.Present && req.ExcludeFromReports == nil {
		return fmt.Errorf("nothing to update")
	}
	if len(req.Description.Or("")) > config.MaxDescriptionLength {
		return fmt.Errorf("description: the length must be no more than %d", config.MaxDescriptionLength)
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxDefinitionNameLength),
			validation.By(notBlank),
		),
	)
}

// subtreeIDs returns rootID and every definition below it
func subtreeIDs(all []ledger.Node, rootID string) []string {
	children := make(map[string][]string)
	for _, n := range all {
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n.ID)
		}
	}

	ids := []string{rootID}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}

// siblingsOf returns the definitions under parentID, excluding skipID,
// in index order
func siblingsOf(all []ledger.Node, parentID *string, skipID string) []ledger.Node {
	var out []ledger.Node
	for _, n := range all {
		if n.ID == skipID || !sameParent(n.ParentID, parentID) {
			continue
		}
		out = append(out, n)
	}
	sortByIndex(out)
	return out
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
