package ledger

import (
	"context"
	"fmt"

	"ledgerdesk/internal/domain"
	models "ledgerdesk/internal/domain/models/ledger"
	ledgerRepo "ledgerdesk/internal/domain/repositories/ledger"

	"ledgerdesk/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDefinitionRepository implements the DefinitionRepository interface
type PostgresDefinitionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewDefinitionRepository creates a new definition repository
func NewDefinitionRepository(config *postgres.RepositoryConfig) ledgerRepo.DefinitionRepository {
	return &PostgresDefinitionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const definitionColumns = `id, grouping_id, parent_id, name, description, type, sort_index,
	exclude_from_reports, created_at, updated_at`

func scanDefinition(row pgx.Row) (*models.Node, error) {
	var n models.Node
	err := row.Scan(
		&n.ID,
		&n.GroupingID,
		&n.ParentID,
		&n.Name,
		&n.Description,
		&n.Type,
		&n.Index,
		&n.ExcludeFromReports,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a definition
func (r *PostgresDefinitionRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (grouping_id, parent_id, name, description, type, sort_index,
			exclude_from_reports, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, r.tables.Definitions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		node.GroupingID,
		node.ParentID,
		node.Name,
		node.Description,
		node.Type,
		node.Index,
		node.ExcludeFromReports,
		node.CreatedAt,
		node.UpdatedAt,
	).Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent or grouping of '%s' does not exist: %w", node.Name, domain.ErrNotFound)
		}
		if postgres.IsPgCheckError(err) {
			return fmt.Errorf("definition '%s': %w", node.Name, domain.ErrValidation)
		}
		return fmt.Errorf("create definition: %w", err)
	}

	return nil
}

// GetByIDOnly retrieves a definition by ID
func (r *PostgresDefinitionRepository) GetByIDOnly(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, definitionColumns, r.tables.Definitions)

	executor := postgres.GetExecutor(ctx, r.pool)
	node, err := scanDefinition(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("definition %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get definition: %w", err)
	}
	return node, nil
}

// GetAllByGrouping retrieves every definition of a grouping (flat list)
func (r *PostgresDefinitionRepository) GetAllByGrouping(ctx context.Context, groupingID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE grouping_id = $1
		ORDER BY sort_index ASC, created_at ASC
	`, definitionColumns, r.tables.Definitions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, groupingID)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		node, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		nodes = append(nodes, *node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate definitions: %w", err)
	}

	return nodes, nil
}

// NextIndex returns the index after the last sibling under parentID
func (r *PostgresDefinitionRepository) NextIndex(ctx context.Context, groupingID string, parentID *string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(sort_index) + 1, 0)
		FROM %s
		WHERE grouping_id = $1 AND parent_id IS NOT DISTINCT FROM $2
	`, r.tables.Definitions)

	var next int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, groupingID, parentID).Scan(&next); err != nil {
		return 0, fmt.Errorf("next definition index: %w", err)
	}
	return next, nil
}

// Update writes name, description and flags
func (r *PostgresDefinitionRepository) Update(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, exclude_from_reports = $3, updated_at = $4
		WHERE id = $5
	`, r.tables.Definitions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		node.Name,
		node.Description,
		node.ExcludeFromReports,
		node.UpdatedAt,
		node.ID,
	)
	if err != nil {
		return fmt.Errorf("update definition: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("definition %s: %w", node.ID, domain.ErrNotFound)
	}

	return nil
}

// UpdatePosition writes parent and sort index
func (r *PostgresDefinitionRepository) UpdatePosition(ctx context.Context, id string, parentID *string, index int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, sort_index = $2, updated_at = now()
		WHERE id = $3
	`, r.tables.Definitions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, parentID, index, id)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent of definition %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("update definition position: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("definition %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteByIDs deletes the given definitions in one statement. The parent
// foreign key is checked at statement end, so a whole subtree can go at once.
func (r *PostgresDefinitionRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Definitions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, ids)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("definitions still referenced: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete definitions: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("definitions %v: %w", ids, domain.ErrNotFound)
	}

	return nil
}
