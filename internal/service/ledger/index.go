package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"ledgerdesk/internal/config"
	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/domain/models/ledger"
	"ledgerdesk/internal/domain/repositories"
	ledgerRepo "ledgerdesk/internal/domain/repositories/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
)

type indexService struct {
	definitionRepo ledgerRepo.DefinitionRepository
	accountRepo    ledgerRepo.AccountRepository
	txManager      repositories.TransactionManager
	authorizer     ledgerSvc.ResourceAuthorizer
	logger         *slog.Logger
}

// NewIndexService creates the batch reorder service
func NewIndexService(
	definitionRepo ledgerRepo.DefinitionRepository,
	accountRepo ledgerRepo.AccountRepository,
	txManager repositories.TransactionManager,
	authorizer ledgerSvc.ResourceAuthorizer,
	logger *slog.Logger,
) ledgerSvc.IndexService {
	return &indexService{
		definitionRepo: definitionRepo,
		accountRepo:    accountRepo,
		txManager:      txManager,
		authorizer:     authorizer,
		logger:         logger,
	}
}

// UpdateDefinitionIndex applies a batch of {id, index, parent_id} patches to
// the definitions of one grouping. The whole batch is validated against the
// resulting tree before anything is written, and written in one transaction.
func (s *indexService) UpdateDefinitionIndex(ctx context.Context, userID string, entries []ledger.IndexEntry) error {
	if err := checkBatchShape(entries); err != nil {
		return err
	}

	first, err := s.definitionRepo.GetByIDOnly(ctx, entries[0].ID)
	if err != nil {
		return err
	}
	if err := s.authorizer.CanAccessGrouping(ctx, userID, first.GroupingID); err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		all, err := s.definitionRepo.GetAllByGrouping(txCtx, first.GroupingID)
		if err != nil {
			return err
		}
		if err := ValidateDefinitionBatch(all, entries); err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.definitionRepo.UpdatePosition(txCtx, e.ID, e.ParentID, e.Index); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("definition order updated",
		"grouping_id", first.GroupingID,
		"entries", len(entries),
	)
	return nil
}

// UpdateAccountIndex applies a batch of patches to attached accounts. ParentID
// names the owning definition and is required.
func (s *indexService) UpdateAccountIndex(ctx context.Context, userID string, entries []ledger.IndexEntry) error {
	if err := checkBatchShape(entries); err != nil {
		return err
	}

	first, err := s.accountRepo.GetByIDOnly(ctx, entries[0].ID)
	if err != nil {
		return err
	}
	if err := s.authorizer.CanAccessGrouping(ctx, userID, first.GroupingID); err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		definitions, err := s.definitionRepo.GetAllByGrouping(txCtx, first.GroupingID)
		if err != nil {
			return err
		}
		accounts := make([]ledger.Account, 0, len(entries))
		for _, e := range entries {
			acct, err := s.accountRepo.GetByIDOnly(txCtx, e.ID)
			if err != nil {
				return fmt.Errorf("%w: account %s", domain.ErrValidation, e.ID)
			}
			accounts = append(accounts, *acct)
		}
		attached, err := s.accountRepo.GetAttachedByGrouping(txCtx, first.GroupingID)
		if err != nil {
			return err
		}
		if err := ValidateAccountBatch(first.GroupingID, definitions, accounts, attached, entries); err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.accountRepo.SetDefinition(txCtx, e.ID, e.ParentID, e.Index); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("account order updated",
		"grouping_id", first.GroupingID,
		"entries", len(entries),
	)
	return nil
}

func checkBatchShape(entries []ledger.IndexEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: empty index batch", domain.ErrValidation)
	}
	if len(entries) > config.MaxIndexBatchSize {
		return fmt.Errorf("%w: index batch of %d exceeds %d", domain.ErrValidation, len(entries), config.MaxIndexBatchSize)
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: index entry without id", domain.ErrValidation)
		}
		if e.Index < 0 {
			return fmt.Errorf("%w: negative index for %s", domain.ErrValidation, e.ID)
		}
		if seen[e.ID] {
			return fmt.Errorf("%w: %s appears twice in one batch", domain.ErrValidation, e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

// ValidateDefinitionBatch checks that applying entries to all (the
// grouping's definitions) leaves a valid forest: every id and parent belongs
// to the grouping, parents are DEFINITION nodes, no node becomes its own
// ancestor, and no two siblings share an index.
func ValidateDefinitionBatch(all []ledger.Node, entries []ledger.IndexEntry) error {
	byID := make(map[string]ledger.Node, len(all))
	for _, n := range all {
		byID[n.ID] = n
	}

	for _, e := range entries {
		if _, ok := byID[e.ID]; !ok {
			return fmt.Errorf("%w: definition %s is not in this grouping", domain.ErrValidation, e.ID)
		}
		if e.ParentID == nil {
			continue
		}
		parent, ok := byID[*e.ParentID]
		if !ok {
			return fmt.Errorf("%w: parent %s is not in this grouping", domain.ErrValidation, *e.ParentID)
		}
		if !parent.IsDefinition() {
			return fmt.Errorf("%w: %s is an account node and cannot hold children", domain.ErrValidation, parent.Name)
		}
	}

	// Apply the patches to a copy, remembering every container they touch
	touched := make(map[string]bool)
	for _, e := range entries {
		n := byID[e.ID]
		touched[parentKey(n.ParentID)] = true
		touched[parentKey(e.ParentID)] = true
		n.ParentID = e.ParentID
		n.Index = e.Index
		byID[e.ID] = n
	}

	// Cycle check: walking up from any node must reach a root within len(all) steps
	for id := range byID {
		cur := byID[id]
		for steps := 0; cur.ParentID != nil; steps++ {
			if steps > len(byID) || *cur.ParentID == id {
				return fmt.Errorf("%w: moving definitions would create a cycle at %s", domain.ErrValidation, id)
			}
			cur = byID[*cur.ParentID]
		}
	}

	taken := make(map[string]map[int]string)
	for _, n := range byID {
		key := parentKey(n.ParentID)
		if !touched[key] {
			continue
		}
		if taken[key] == nil {
			taken[key] = make(map[int]string)
		}
		if other, dup := taken[key][n.Index]; dup {
			return fmt.Errorf("%w: %s and %s would share index %d", domain.ErrValidation, other, n.ID, n.Index)
		}
		taken[key][n.Index] = n.ID
	}
	return nil
}

// ValidateAccountBatch checks an account reorder: every account belongs to
// groupingID, every entry names a DEFINITION of the grouping as parent, and
// no two accounts of a definition share an index once applied. attached is
// the grouping's current attached accounts.
func ValidateAccountBatch(groupingID string, definitions []ledger.Node, accounts, attached []ledger.Account, entries []ledger.IndexEntry) error {
	defs := make(map[string]ledger.Node, len(definitions))
	for _, n := range definitions {
		defs[n.ID] = n
	}
	for _, a := range accounts {
		if a.GroupingID != groupingID {
			return fmt.Errorf("%w: account %s is not in this grouping", domain.ErrValidation, a.ID)
		}
	}

	touched := make(map[string]bool)
	placed := make(map[string]ledger.Account, len(attached))
	for _, a := range attached {
		placed[a.ID] = a
	}
	for _, e := range entries {
		if e.ParentID == nil {
			return fmt.Errorf("%w: account %s needs a definition", domain.ErrValidation, e.ID)
		}
		owner, ok := defs[*e.ParentID]
		if !ok {
			return fmt.Errorf("%w: definition %s is not in this grouping", domain.ErrValidation, *e.ParentID)
		}
		if !owner.IsDefinition() {
			return fmt.Errorf("%w: %s cannot hold accounts", domain.ErrValidation, owner.Name)
		}
		a := placed[e.ID]
		touched[parentKey(a.DefinitionID)] = true
		touched[*e.ParentID] = true
		a.ID = e.ID
		a.DefinitionID = e.ParentID
		a.Index = e.Index
		placed[e.ID] = a
	}

	taken := make(map[string]map[int]string)
	for _, a := range placed {
		if a.DefinitionID == nil || !touched[*a.DefinitionID] {
			continue
		}
		key := *a.DefinitionID
		if taken[key] == nil {
			taken[key] = make(map[int]string)
		}
		if other, dup := taken[key][a.Index]; dup {
			return fmt.Errorf("%w: accounts %s and %s would share index %d", domain.ErrValidation, other, a.ID, a.Index)
		}
		taken[key][a.Index] = a.ID
	}
	return nil
}

func parentKey(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func sortByIndex(nodes []ledger.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Index != nodes[j].Index {
			return nodes[i].Index < nodes[j].Index
		}
		return nodes[i].ID < nodes[j].ID
	})
}
