package ledger

import (
	"context"
	"log/slog"
	"sort"

	"ledgerdesk/internal/domain/models/ledger"
	ledgerRepo "ledgerdesk/internal/domain/repositories/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
)

// treeService implements the TreeService interface
type treeService struct {
	groupingRepo   ledgerRepo.GroupingRepository
	definitionRepo ledgerRepo.DefinitionRepository
	accountRepo    ledgerRepo.AccountRepository
	authorizer     ledgerSvc.ResourceAuthorizer
	logger         *slog.Logger
}

// NewTreeService creates a new tree service
func NewTreeService(
	groupingRepo ledgerRepo.GroupingRepository,
	definitionRepo ledgerRepo.DefinitionRepository,
	accountRepo ledgerRepo.AccountRepository,
	authorizer ledgerSvc.ResourceAuthorizer,
	logger *slog.Logger,
) ledgerSvc.TreeService {
	return &treeService{
		groupingRepo:   groupingRepo,
		definitionRepo: definitionRepo,
		accountRepo:    accountRepo,
		authorizer:     authorizer,
		logger:         logger,
	}
}

// GetTree builds the nested definition forest of a grouping
func (s *treeService) GetTree(ctx context.Context, userID, groupingID string) (*ledger.Tree, error) {
	if err := s.authorizer.CanAccessGrouping(ctx, userID, groupingID); err != nil {
		return nil, err
	}

	grouping, err := s.groupingRepo.GetByIDOnly(ctx, groupingID)
	if err != nil {
		return nil, err
	}

	definitions, err := s.definitionRepo.GetAllByGrouping(ctx, groupingID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.GetAttachedByGrouping(ctx, groupingID)
	if err != nil {
		return nil, err
	}

	forest, orphans := BuildForest(definitions, accounts)
	if orphans > 0 {
		s.logger.Warn("definitions with missing parent skipped",
			"grouping_id", groupingID,
			"count", orphans,
		)
	}

	s.logger.Info("ledger tree built",
		"grouping_id", groupingID,
		"definition_count", len(definitions),
		"account_count", len(accounts),
	)

	return &ledger.Tree{Grouping: grouping, Nodes: forest}, nil
}

// BuildForest nests flat definitions and attached accounts. Siblings are
// ordered by index, ties broken by id. Definitions whose parent is missing
// are dropped and counted.
func BuildForest(definitions []ledger.Node, accounts []ledger.Account) ([]*ledger.Node, int) {
	nodeMap := make(map[string]*ledger.Node, len(definitions))

	// First pass: create all nodes
	for i := range definitions {
		n := definitions[i]
		n.Children = []*ledger.Node{}
		n.Accounts = []ledger.Account{}
		nodeMap[n.ID] = &n
	}

	// Second pass: connect children to parents
	roots := []*ledger.Node{}
	orphans := 0
	for i := range definitions {
		node := nodeMap[definitions[i].ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodeMap[*node.ParentID]
		if !ok {
			orphans++
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	// Third pass: hang accounts off their definitions
	for _, acct := range accounts {
		if acct.DefinitionID == nil {
			continue
		}
		if owner, ok := nodeMap[*acct.DefinitionID]; ok {
			owner.Accounts = append(owner.Accounts, acct)
		}
	}

	sortNodes(roots)
	for _, n := range nodeMap {
		sortNodes(n.Children)
		sort.SliceStable(n.Accounts, func(i, j int) bool {
			a, b := n.Accounts[i], n.Accounts[j]
			if a.Index != b.Index {
				return a.Index < b.Index
			}
			return a.ID < b.ID
		})
	}

	return roots, orphans
}

func sortNodes(nodes []*ledger.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Index != nodes[j].Index {
			return nodes[i].Index < nodes[j].Index
		}
		return nodes[i].ID < nodes[j].ID
	})
}
