package ledger

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/domain/models/ledger"
	"ledgerdesk/internal/domain/repositories"
	"ledgerdesk/internal/service/auth"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the postgres repositories. One
// mutex guards all three tables.
type memStore struct {
	mu          sync.Mutex
	groupings   map[string]ledger.Grouping
	definitions map[string]ledger.Node
	accounts    map[string]ledger.Account
	txCount     int
}

func newMemStore() *memStore {
	return &memStore{
		groupings:   make(map[string]ledger.Grouping),
		definitions: make(map[string]ledger.Node),
		accounts:    make(map[string]ledger.Account),
	}
}

type memGroupings struct{ s *memStore }
type memDefinitions struct{ s *memStore }
type memAccounts struct{ s *memStore }

// memTx runs fn directly; rollback is not simulated
type memTx struct{ s *memStore }

func (t memTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	t.s.mu.Lock()
	t.s.txCount++
	t.s.mu.Unlock()
	return fn(ctx)
}

func (r memGroupings) Create(_ context.Context, g *ledger.Grouping) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.groupings {
		if existing.UserID == g.UserID && existing.Name == g.Name {
			return &domain.ConflictError{Message: "grouping exists", ResourceType: "grouping", ResourceID: existing.ID}
		}
	}
	g.ID = uuid.NewString()
	r.s.groupings[g.ID] = *g
	return nil
}

func (r memGroupings) GetByID(ctx context.Context, id, userID string) (*ledger.Grouping, error) {
	g, err := r.GetByIDOnly(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return g, nil
}

func (r memGroupings) GetByIDOnly(_ context.Context, id string) (*ledger.Grouping, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groupings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (r memGroupings) List(_ context.Context, userID string) ([]ledger.Grouping, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []ledger.Grouping{}
	for _, g := range r.s.groupings {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memDefinitions) Create(_ context.Context, n *ledger.Node) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	stored := *n
	stored.Children = nil
	stored.Accounts = nil
	r.s.definitions[n.ID] = stored
	return nil
}

func (r memDefinitions) GetByIDOnly(_ context.Context, id string) (*ledger.Node, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.definitions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

func (r memDefinitions) GetAllByGrouping(_ context.Context, groupingID string) ([]ledger.Node, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []ledger.Node{}
	for _, n := range r.s.definitions {
		if n.GroupingID == groupingID {
			out = append(out, n)
		}
	}
	sortByIndex(out)
	return out, nil
}

func (r memDefinitions) NextIndex(_ context.Context, groupingID string, parentID *string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	next := 0
	for _, n := range r.s.definitions {
		if n.GroupingID == groupingID && sameParent(n.ParentID, parentID) && n.Index >= next {
			next = n.Index + 1
		}
	}
	return next, nil
}

func (r memDefinitions) Update(_ context.Context, n *ledger.Node) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.definitions[n.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Name = n.Name
	stored.Description = n.Description
	stored.ExcludeFromReports = n.ExcludeFromReports
	r.s.definitions[n.ID] = stored
	return nil
}

func (r memDefinitions) UpdatePosition(_ context.Context, id string, parentID *string, index int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.definitions[id]
	if !ok {
		return domain.ErrNotFound
	}
	stored.ParentID = parentID
	stored.Index = index
	r.s.definitions[id] = stored
	return nil
}

func (r memDefinitions) DeleteByIDs(_ context.Context, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		delete(r.s.definitions, id)
	}
	return nil
}

func (r memAccounts) Create(_ context.Context, a *ledger.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.accounts {
		if existing.GroupingID == a.GroupingID && existing.Code == a.Code {
			return &domain.ConflictError{Message: "account code exists", ResourceType: "account", ResourceID: existing.ID}
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.s.accounts[a.ID] = *a
	return nil
}

func (r memAccounts) GetByIDOnly(_ context.Context, id string) (*ledger.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r memAccounts) List(_ context.Context, f ledger.AccountFilter) ([]ledger.Account, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []ledger.Account
	q := strings.ToLower(f.Search)
	for _, a := range r.s.accounts {
		if a.GroupingID != f.GroupingID {
			continue
		}
		if f.Unattached && a.Attached() {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Code), q) && !strings.Contains(strings.ToLower(a.Name), q) {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })
	total := len(matched)
	if f.Offset >= total {
		return []ledger.Account{}, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return matched[f.Offset:end], total, nil
}

func (r memAccounts) ListByDefinition(_ context.Context, definitionID string) ([]ledger.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []ledger.Account{}
	for _, a := range r.s.accounts {
		if a.DefinitionID != nil && *a.DefinitionID == definitionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (r memAccounts) GetAttachedByGrouping(_ context.Context, groupingID string) ([]ledger.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []ledger.Account{}
	for _, a := range r.s.accounts {
		if a.GroupingID == groupingID && a.Attached() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAccounts) NextIndex(_ context.Context, definitionID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	next := 0
	for _, a := range r.s.accounts {
		if a.DefinitionID != nil && *a.DefinitionID == definitionID && a.Index >= next {
			next = a.Index + 1
		}
	}
	return next, nil
}

func (r memAccounts) SetDefinition(_ context.Context, id string, definitionID *string, index int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.DefinitionID = definitionID
	a.Index = index
	r.s.accounts[id] = a
	return nil
}

func (r memAccounts) DetachByDefinitions(_ context.Context, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	for id, a := range r.s.accounts {
		if a.DefinitionID != nil && drop[*a.DefinitionID] {
			a.DefinitionID = nil
			a.Index = 0
			r.s.accounts[id] = a
		}
	}
	return nil
}

// seedDefinition stores a definition with a fixed id
func (s *memStore) seedDefinition(id, groupingID string, parentID *string, name string, typ ledger.NodeType, index int) {
	s.definitions[id] = ledger.Node{
		ID:         id,
		GroupingID: groupingID,
		ParentID:   parentID,
		Name:       name,
		Type:       typ,
		Index:      index,
	}
}

func (s *memStore) seedAccount(id, groupingID string, definitionID *string, code string, index int) {
	s.accounts[id] = ledger.Account{
		ID:           id,
		GroupingID:   groupingID,
		DefinitionID: definitionID,
		Code:         code,
		Name:         "Account " + code,
		Index:        index,
	}
}

// services bundles every ledger service over one memStore
type services struct {
	store       *memStore
	groupings   *groupingService
	tree        *treeService
	definitions *definitionService
	accounts    *accountService
	index       *indexService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServices() *services {
	s := newMemStore()
	g, d, a := memGroupings{s}, memDefinitions{s}, memAccounts{s}
	tx := memTx{s}
	authz := auth.NewOwnerBasedAuthorizer(g, d, a)
	log := discardLogger()
	return &services{
		store:       s,
		groupings:   NewGroupingService(g, log).(*groupingService),
		tree:        NewTreeService(g, d, a, authz, log).(*treeService),
		definitions: NewDefinitionService(d, a, tx, authz, log).(*definitionService),
		accounts:    NewAccountService(g, d, a, tx, authz, log).(*accountService),
		index:       NewIndexService(d, a, tx, authz, log).(*indexService),
	}
}

// seedBalanceSheet builds grouping g1 owned by user u1:
//
//	A (0)
//	  A1 (0) [cash:0, bank:1]
//	    A1a (0)
//	  A2 (1)
//	  A3 (2, ACCOUNT)
//	L (1)
//	  L1 (0) [ap:0]
//
// plus an unattached account "loose" and a second user's grouping g2.
func (sv *services) seedBalanceSheet() {
	s := sv.store
	s.groupings["g1"] = ledger.Grouping{ID: "g1", UserID: "u1", Name: "Balance sheet", Kind: ledger.GroupingGeneralLedger}
	s.groupings["g2"] = ledger.Grouping{ID: "g2", UserID: "u2", Name: "Other", Kind: ledger.GroupingFinancialStatement}

	a, a1, l, l1 := "A", "A1", "L", "L1"
	s.seedDefinition("A", "g1", nil, "Assets", ledger.NodeTypeDefinition, 0)
	s.seedDefinition("A1", "g1", &a, "Current Assets", ledger.NodeTypeDefinition, 0)
	s.seedDefinition("A1a", "g1", &a1, "Petty Cash Funds", ledger.NodeTypeDefinition, 0)
	s.seedDefinition("A2", "g1", &a, "Fixed Assets", ledger.NodeTypeDefinition, 1)
	s.seedDefinition("A3", "g1", &a, "Deferred Charges", ledger.NodeTypeAccount, 2)
	s.seedDefinition("L", "g1", nil, "Liabilities", ledger.NodeTypeDefinition, 1)
	s.seedDefinition("L1", "g1", &l, "Payables", ledger.NodeTypeDefinition, 0)
	s.seedDefinition("X", "g2", nil, "Elsewhere", ledger.NodeTypeDefinition, 0)

	s.seedAccount("cash", "g1", &a1, "1010", 0)
	s.seedAccount("bank", "g1", &a1, "1020", 1)
	s.seedAccount("ap", "g1", &l1, "2010", 0)
	s.seedAccount("loose", "g1", nil, "3000", 0)
	s.seedAccount("foreign", "g2", nil, "9000", 0)
}
