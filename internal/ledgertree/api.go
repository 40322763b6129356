package ledgertree

import (
	"context"

	"ledgerdesk/internal/domain/models/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
)

// API is the remote resource API the editor persists through.
type API interface {
	GetTree(ctx context.Context, groupingID string) ([]*ledger.Node, error)
	CreateDefinition(ctx context.Context, req *ledgerSvc.CreateDefinitionRequest) (*ledger.Node, error)
	UpdateDefinition(ctx context.Context, id string, req *ledgerSvc.UpdateDefinitionRequest) (*ledger.Node, error)
	DeleteDefinition(ctx context.Context, id string) error
	AttachAccount(ctx context.Context, definitionID, accountID string) (*ledger.Node, error)
	RemoveAccount(ctx context.Context, accountID string, mode ledger.GroupingKind) (*ledger.Account, error)
	UpdateIndex(ctx context.Context, kind ledger.MoveKind, entries []ledger.IndexEntry) error
}

// Level grades a user-visible notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a toast for the presentation shell.
type Notice struct {
	Level   Level
	Message string
	Err     error
}

// Notifier receives notices.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}
