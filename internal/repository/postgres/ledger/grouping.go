package ledger

import (
	"context"
	"fmt"

	"ledgerdesk/internal/domain"
	models "ledgerdesk/internal/domain/models/ledger"
	ledgerRepo "ledgerdesk/internal/domain/repositories/ledger"

	"ledgerdesk/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresGroupingRepository implements the GroupingRepository interface
type PostgresGroupingRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewGroupingRepository creates a new grouping repository
func NewGroupingRepository(config *postgres.RepositoryConfig) ledgerRepo.GroupingRepository {
	return &PostgresGroupingRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const groupingColumns = `id, user_id, name, kind, created_at, updated_at`

// Create creates a new grouping
func (r *PostgresGroupingRepository) Create(ctx context.Context, grouping *models.Grouping) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, name, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, r.tables.Groupings)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		grouping.UserID,
		grouping.Name,
		grouping.Kind,
		grouping.CreatedAt,
		grouping.UpdatedAt,
	).Scan(&grouping.ID, &grouping.CreatedAt, &grouping.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			existingID, queryErr := r.getExistingID(ctx, grouping.UserID, grouping.Name)
			if queryErr != nil {
				return fmt.Errorf("grouping '%s' already exists: %w", grouping.Name, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("grouping '%s' already exists", grouping.Name),
				ResourceType: "grouping",
				ResourceID:   existingID,
			}
		}
		if postgres.IsPgCheckError(err) {
			return fmt.Errorf("grouping kind %q: %w", grouping.Kind, domain.ErrValidation)
		}
		return fmt.Errorf("create grouping: %w", err)
	}

	return nil
}

// GetByID retrieves a grouping owned by userID
func (r *PostgresGroupingRepository) GetByID(ctx context.Context, id, userID string) (*models.Grouping, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, groupingColumns, r.tables.Groupings)

	return r.getOne(ctx, id, query, id, userID)
}

// GetByIDOnly retrieves a grouping by ID without owner scoping
func (r *PostgresGroupingRepository) GetByIDOnly(ctx context.Context, id string) (*models.Grouping, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, groupingColumns, r.tables.Groupings)

	return r.getOne(ctx, id, query, id)
}

func (r *PostgresGroupingRepository) getOne(ctx context.Context, id, query string, args ...interface{}) (*models.Grouping, error) {
	var g models.Grouping
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, args...).Scan(
		&g.ID,
		&g.UserID,
		&g.Name,
		&g.Kind,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("grouping %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get grouping: %w", err)
	}
	return &g, nil
}

// List retrieves a user's groupings, most recently updated first
func (r *PostgresGroupingRepository) List(ctx context.Context, userID string) ([]models.Grouping, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, groupingColumns, r.tables.Groupings)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list groupings: %w", err)
	}
	defer rows.Close()

	groupings := []models.Grouping{}
	for rows.Next() {
		var g models.Grouping
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Kind, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan grouping: %w", err)
		}
		groupings = append(groupings, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groupings: %w", err)
	}

	return groupings, nil
}

func (r *PostgresGroupingRepository) getExistingID(ctx context.Context, userID, name string) (string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE user_id = $1 AND name = $2`, r.tables.Groupings)

	var id string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, userID, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
