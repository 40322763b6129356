package ledger

import (
	"context"
	"fmt"
	"strings"

	"ledgerdesk/internal/domain"
	models "ledgerdesk/internal/domain/models/ledger"
	ledgerRepo "ledgerdesk/internal/domain/repositories/ledger"

	"ledgerdesk/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAccountRepository implements the AccountRepository interface
type PostgresAccountRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(config *postgres.RepositoryConfig) ledgerRepo.AccountRepository {
	return &PostgresAccountRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const accountColumns = `id, grouping_id, definition_id, code, name, sort_index, created_at, updated_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.GroupingID,
		&a.DefinitionID,
		&a.Code,
		&a.Name,
		&a.Index,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// Create inserts an unattached account
func (r *PostgresAccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (grouping_id, definition_id, code, name, sort_index, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, r.tables.Accounts)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		account.GroupingID,
		account.DefinitionID,
		account.Code,
		account.Name,
		account.Index,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("account code '%s': %w", account.Code, domain.ErrConflict)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("grouping %s: %w", account.GroupingID, domain.ErrNotFound)
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

// GetByIDOnly retrieves an account by ID
func (r *PostgresAccountRepository) GetByIDOnly(ctx context.Context, id string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, accountColumns, r.tables.Accounts)

	executor := postgres.GetExecutor(ctx, r.pool)
	account, err := scanAccount(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}

// List returns one page of accounts and the total number of matches
func (r *PostgresAccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.Account, int, error) {
	filter.ApplyDefaults()

	where := []string{"grouping_id = $1"}
	args := []interface{}{filter.GroupingID}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where = append(where, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	if filter.Unattached {
		where = append(where, "definition_id IS NULL")
	}
	whereSQL := strings.Join(where, " AND ")

	executor := postgres.GetExecutor(ctx, r.pool)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.tables.Accounts, whereSQL)
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY code ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, accountColumns, r.tables.Accounts, whereSQL, len(args)-1, len(args))

	accounts, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// ListByDefinition lists the accounts attached to a definition in order
func (r *PostgresAccountRepository) ListByDefinition(ctx context.Context, definitionID string) ([]models.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE definition_id = $1
		ORDER BY sort_index ASC, code ASC
	`, accountColumns, r.tables.Accounts)

	return r.query(ctx, query, definitionID)
}

// GetAttachedByGrouping lists every attached account of a grouping
func (r *PostgresAccountRepository) GetAttachedByGrouping(ctx context.Context, groupingID string) ([]models.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE grouping_id = $1 AND definition_id IS NOT NULL
		ORDER BY sort_index ASC, code ASC
	`, accountColumns, r.tables.Accounts)

	return r.query(ctx, query, groupingID)
}

// NextIndex returns the index after the last account of a definition
func (r *PostgresAccountRepository) NextIndex(ctx context.Context, definitionID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(sort_index) + 1, 0)
		FROM %s
		WHERE definition_id = $1
	`, r.tables.Accounts)

	var next int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, definitionID).Scan(&next); err != nil {
		return 0, fmt.Errorf("next account index: %w", err)
	}
	return next, nil
}

// SetDefinition attaches or detaches an account
func (r *PostgresAccountRepository) SetDefinition(ctx context.Context, id string, definitionID *string, index int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET definition_id = $1, sort_index = $2, updated_at = now()
		WHERE id = $3
	`, r.tables.Accounts)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, definitionID, index, id)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("definition for account %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("set account definition: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DetachByDefinitions detaches every account attached to the given definitions
func (r *PostgresAccountRepository) DetachByDefinitions(ctx context.Context, definitionIDs []string) error {
	if len(definitionIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET definition_id = NULL, sort_index = 0, updated_at = now()
		WHERE definition_id = ANY($1)
	`, r.tables.Accounts)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, definitionIDs); err != nil {
		return fmt.Errorf("detach accounts: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Account, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
