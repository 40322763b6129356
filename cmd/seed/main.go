package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"ledgerdesk/internal/config"
	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/domain/models/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
	"ledgerdesk/internal/repository/postgres"
	postgresLedger "ledgerdesk/internal/repository/postgres/ledger"
	serviceAuth "ledgerdesk/internal/service/auth"
	serviceLedger "ledgerdesk/internal/service/ledger"

	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed a grouping")
	owner := flag.String("owner", os.Getenv("SEED_USER_ID"), "User id that owns the seeded grouping")
	name := flag.String("name", "Demo Balance Sheet", "Name of the seeded grouping")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: --drop-tables is not allowed in production")
	}
	if !*schemaOnly && *owner == "" {
		log.Fatalf("--owner (or SEED_USER_ID) is required to seed a grouping")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		logger.Info("dropping tables", "table_prefix", cfg.TablePrefix)
		if err := postgres.DropTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if err := postgres.EnsureSchema(ctx, pool, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	logger.Info("schema ready", "table_prefix", cfg.TablePrefix)
	if *schemaOnly {
		return
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	groupingRepo := postgresLedger.NewGroupingRepository(repoConfig)
	definitionRepo := postgresLedger.NewDefinitionRepository(repoConfig)
	accountRepo := postgresLedger.NewAccountRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)
	authorizer := serviceAuth.NewOwnerBasedAuthorizer(groupingRepo, definitionRepo, accountRepo)

	s := &seeder{
		userID:      *owner,
		groupings:   serviceLedger.NewGroupingService(groupingRepo, logger),
		tree:        serviceLedger.NewTreeService(groupingRepo, definitionRepo, accountRepo, authorizer, logger),
		definitions: serviceLedger.NewDefinitionService(definitionRepo, accountRepo, txManager, authorizer, logger),
		accounts:    serviceLedger.NewAccountService(groupingRepo, definitionRepo, accountRepo, txManager, authorizer, logger),
		logger:      logger,
	}

	grouping, err := s.grouping(ctx, *name)
	if err != nil {
		log.Fatalf("Failed to create grouping: %v", err)
	}
	if err := s.clear(ctx, grouping.ID); err != nil {
		log.Fatalf("Failed to clear grouping: %v", err)
	}
	if err := s.seed(ctx, grouping.ID, nil, balanceSheet); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}
	logger.Info("seeding complete", "grouping_id", grouping.ID, "name", grouping.Name)
}

type seeder struct {
	userID      string
	groupings   ledgerSvc.GroupingService
	tree        ledgerSvc.TreeService
	definitions ledgerSvc.DefinitionService
	accounts    ledgerSvc.AccountService
	logger      *slog.Logger
}

// grouping returns the user's grouping with this name, creating it if needed
func (s *seeder) grouping(ctx context.Context, name string) (*ledger.Grouping, error) {
	existing, err := s.groupings.ListGroupings(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].Name == name {
			return &existing[i], nil
		}
	}
	return s.groupings.CreateGrouping(ctx, &ledgerSvc.CreateGroupingRequest{
		UserID: s.userID,
		Name:   name,
		Kind:   ledger.GroupingGeneralLedger,
	})
}

// clear deletes every root definition; accounts under them are released
func (s *seeder) clear(ctx context.Context, groupingID string) error {
	tree, err := s.tree.GetTree(ctx, s.userID, groupingID)
	if err != nil {
		return err
	}
	for _, root := range tree.Nodes {
		if err := s.definitions.DeleteDefinition(ctx, s.userID, root.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seed(ctx context.Context, groupingID string, parentID *string, nodes []seedNode) error {
	for _, n := range nodes {
		nodeType := ledger.NodeTypeDefinition
		if n.leaf {
			nodeType = ledger.NodeTypeAccount
		}
		node, err := s.definitions.CreateDefinition(ctx, &ledgerSvc.CreateDefinitionRequest{
			UserID:     s.userID,
			GroupingID: groupingID,
			ParentID:   parentID,
			Name:       n.name,
			Type:       nodeType,
		})
		if err != nil {
			return err
		}
		s.logger.Info("definition created", "id", node.ID, "name", node.Name, "index", node.Index)

		for _, a := range n.accounts {
			acct, err := s.account(ctx, groupingID, a)
			if err != nil {
				return err
			}
			if _, err := s.accounts.AttachAccount(ctx, s.userID, node.ID, acct.ID); err != nil {
				return err
			}
		}

		if err := s.seed(ctx, groupingID, &node.ID, n.children); err != nil {
			return err
		}
	}
	return nil
}

// account creates an account, or finds it by code when a previous run left it behind
func (s *seeder) account(ctx context.Context, groupingID string, a seedAccount) (*ledger.Account, error) {
	acct, err := s.accounts.CreateAccount(ctx, &ledgerSvc.CreateAccountRequest{
		UserID:     s.userID,
		GroupingID: groupingID,
		Code:       a.code,
		Name:       a.name,
	})
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}

	page, listErr := s.accounts.ListAccounts(ctx, s.userID, ledger.AccountFilter{GroupingID: groupingID, Search: a.code})
	if listErr != nil {
		return nil, listErr
	}
	for i := range page.Accounts {
		if page.Accounts[i].Code == a.code {
			return &page.Accounts[i], nil
		}
	}
	return nil, err
}

type seedAccount struct {
	code string
	name string
}

type seedNode struct {
	name     string
	leaf     bool
	accounts []seedAccount
	children []seedNode
}

var balanceSheet = []seedNode{
	{name: "Assets", children: []seedNode{
		{name: "Current Assets",
			accounts: []seedAccount{{"1010", "Cash on Hand"}, {"1020", "Bank"}, {"1100", "Accounts Receivable"}},
			children: []seedNode{
				{name: "Petty Cash Funds", accounts: []seedAccount{{"1015", "Petty Cash"}}},
				{name: "Inventories", accounts: []seedAccount{{"1200", "Merchandise Inventory"}}},
			},
		},
		{name: "Fixed Assets",
			accounts: []seedAccount{{"1500", "Equipment"}, {"1510", "Accumulated Depreciation"}},
		},
		{name: "Deferred Charges", leaf: true},
	}},
	{name: "Liabilities", children: []seedNode{
		{name: "Payables", accounts: []seedAccount{{"2010", "Accounts Payable"}, {"2100", "Accrued Expenses"}}},
		{name: "Long-term Debt", accounts: []seedAccount{{"2500", "Bank Loan"}}},
	}},
	{name: "Equity",
		accounts: []seedAccount{{"3000", "Owner's Capital"}, {"3100", "Retained Earnings"}},
	},
}
