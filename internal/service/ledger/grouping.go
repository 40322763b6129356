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
	ledgerRepo "ledgerdesk/internal/domain/repositories/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type groupingService struct {
	groupingRepo ledgerRepo.GroupingRepository
	logger       *slog.Logger
}

// NewGroupingService creates a new grouping service
func NewGroupingService(groupingRepo ledgerRepo.GroupingRepository, logger *slog.Logger) ledgerSvc.GroupingService {
	return &groupingService{
		groupingRepo: groupingRepo,
		logger:       logger,
	}
}

// CreateGrouping creates a new grouping owned by req.UserID
func (s *groupingService) CreateGrouping(ctx context.Context, req *ledgerSvc.CreateGroupingRequest) (*ledger.Grouping, error) {
	if req.Kind == "" {
		req.Kind = ledger.GroupingGeneralLedger
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxGroupingNameLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Kind, validation.In(ledger.GroupingGeneralLedger, ledger.GroupingFinancialStatement)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	grouping := &ledger.Grouping{
		UserID:    req.UserID,
		Name:      strings.TrimSpace(req.Name),
		Kind:      req.Kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.groupingRepo.Create(ctx, grouping); err != nil {
		return nil, err
	}

	s.logger.Info("grouping created",
		"id", grouping.ID,
		"name", grouping.Name,
		"kind", grouping.Kind,
		"user_id", req.UserID,
	)
	return grouping, nil
}

// GetGrouping retrieves a grouping the user owns
func (s *groupingService) GetGrouping(ctx context.Context, userID, id string) (*ledger.Grouping, error) {
	return s.groupingRepo.GetByID(ctx, id, userID)
}

// ListGroupings lists a user's groupings
func (s *groupingService) ListGroupings(ctx context.Context, userID string) ([]ledger.Grouping, error) {
	return s.groupingRepo.List(ctx, userID)
}

// notBlank rejects names made only of whitespace
func notBlank(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return fmt.Errorf("must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be blank")
	}
	return nil
}
