package ledger

import (
	"context"
	"testing"

	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/domain/models/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()

	acct, err := sv.accounts.CreateAccount(ctx, &ledgerSvc.CreateAccountRequest{
		UserID:     "u1",
		GroupingID: "g1",
		Code:       " 1030 ",
		Name:       "Savings",
	})
	require.NoError(t, err)
	assert.Equal(t, "1030", acct.Code)
	assert.False(t, acct.Attached())

	_, err = sv.accounts.CreateAccount(ctx, &ledgerSvc.CreateAccountRequest{
		UserID: "u1", GroupingID: "g1", Code: "1030", Name: "Again",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = sv.accounts.CreateAccount(ctx, &ledgerSvc.CreateAccountRequest{
		UserID: "u1", GroupingID: "g1", Code: "", Name: "No code",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = sv.accounts.CreateAccount(ctx, &ledgerSvc.CreateAccountRequest{
		UserID: "u2", GroupingID: "g1", Code: "4000", Name: "Intruder",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListAccounts(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()

	tests := []struct {
		name      string
		filter    ledger.AccountFilter
		wantIDs   []string
		wantTotal int
	}{
		{
			name:      "all",
			filter:    ledger.AccountFilter{GroupingID: "g1"},
			wantIDs:   []string{"cash", "bank", "ap", "loose"},
			wantTotal: 4,
		},
		{
			name:      "unattached",
			filter:    ledger.AccountFilter{GroupingID: "g1", Unattached: true},
			wantIDs:   []string{"loose"},
			wantTotal: 1,
		},
		{
			name:      "search by code",
			filter:    ledger.AccountFilter{GroupingID: "g1", Search: "10"},
			wantIDs:   []string{"cash", "bank", "ap"},
			wantTotal: 3,
		},
		{
			name:      "paged",
			filter:    ledger.AccountFilter{GroupingID: "g1", Limit: 2, Offset: 1},
			wantIDs:   []string{"bank", "ap"},
			wantTotal: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := sv.accounts.ListAccounts(ctx, "u1", tt.filter)
			require.NoError(t, err)
			got := make([]string, 0, len(page.Accounts))
			for _, a := range page.Accounts {
				got = append(got, a.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}

	page, err := sv.accounts.ListAccounts(ctx, "u1", ledger.AccountFilter{GroupingID: "g1", Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 50, page.Limit)

	_, err = sv.accounts.ListAccounts(ctx, "u1", ledger.AccountFilter{GroupingID: "g2"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAttachAccount(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()

	def, err := sv.accounts.AttachAccount(ctx, "u1", "A1", "loose")
	require.NoError(t, err)
	require.Len(t, def.Accounts, 3)
	assert.Equal(t, "loose", def.Accounts[2].ID)
	assert.Equal(t, 2, def.Accounts[2].Index)

	// Moving an attached account appends it to the new owner
	def, err = sv.accounts.AttachAccount(ctx, "u1", "L1", "cash")
	require.NoError(t, err)
	require.Len(t, def.Accounts, 2)
	assert.Equal(t, "cash", def.Accounts[1].ID)
	assert.Equal(t, 0, sv.store.accounts["bank"].Index, "the old owner is renumbered")

	_, err = sv.accounts.AttachAccount(ctx, "u1", "L1", "cash")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAttachAccountRejects(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		defID     string
		accountID string
		wantErr   error
	}{
		{"account node", "u1", "A3", "loose", domain.ErrValidation},
		{"other grouping account", "u1", "A2", "foreign", domain.ErrValidation},
		{"missing account", "u1", "A2", "gone", domain.ErrNotFound},
		{"not the owner", "u2", "A2", "loose", domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sv := newServices()
			sv.seedBalanceSheet()
			_, err := sv.accounts.AttachAccount(context.Background(), tt.userID, tt.defID, tt.accountID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRemoveAccount(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()

	_, err := sv.accounts.RemoveAccount(ctx, "u1", "cash", ledger.GroupingFinancialStatement)
	assert.ErrorIs(t, err, domain.ErrValidation, "mode must match the grouping kind")
	assert.NotNil(t, sv.store.accounts["cash"].DefinitionID)

	_, err = sv.accounts.RemoveAccount(ctx, "u1", "cash", "ledger")
	assert.ErrorIs(t, err, domain.ErrValidation)

	acct, err := sv.accounts.RemoveAccount(ctx, "u1", "cash", ledger.GroupingGeneralLedger)
	require.NoError(t, err)
	assert.False(t, acct.Attached())
	assert.Nil(t, sv.store.accounts["cash"].DefinitionID)

	_, err = sv.accounts.RemoveAccount(ctx, "u1", "cash", ledger.GroupingGeneralLedger)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = sv.accounts.RemoveAccount(ctx, "u2", "bank", ledger.GroupingGeneralLedger)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRemoveAccountRenumbersSiblings(t *testing.T) {
	sv := newServices()
	sv.seedBalanceSheet()
	ctx := context.Background()

	_, err := sv.accounts.AttachAccount(ctx, "u1", "A1", "loose")
	require.NoError(t, err)

	_, err = sv.accounts.RemoveAccount(ctx, "u1", "bank", ledger.GroupingGeneralLedger)
	require.NoError(t, err)

	remaining, err := memAccounts{sv.store}.ListByDefinition(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "cash", remaining[0].ID)
	assert.Equal(t, 0, remaining[0].Index)
	assert.Equal(t, "loose", remaining[1].ID)
	assert.Equal(t, 1, remaining[1].Index)

	def, err := sv.accounts.AttachAccount(ctx, "u1", "A1", "bank")
	require.NoError(t, err)
	assert.Equal(t, 2, def.Accounts[2].Index, "no gap left by the detach")
}

func TestGroupingService(t *testing.T) {
	sv := newServices()
	ctx := context.Background()

	g, err := sv.groupings.CreateGrouping(ctx, &ledgerSvc.CreateGroupingRequest{UserID: "u1", Name: "Chart"})
	require.NoError(t, err)
	assert.Equal(t, ledger.GroupingGeneralLedger, g.Kind)

	_, err = sv.groupings.CreateGrouping(ctx, &ledgerSvc.CreateGroupingRequest{UserID: "u1", Name: "Chart"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = sv.groupings.CreateGrouping(ctx, &ledgerSvc.CreateGroupingRequest{UserID: "u1", Name: "Bad", Kind: "cash_flow"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = sv.groupings.CreateGrouping(ctx, &ledgerSvc.CreateGroupingRequest{UserID: "u1", Name: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	fs, err := sv.groupings.CreateGrouping(ctx, &ledgerSvc.CreateGroupingRequest{
		UserID: "u1", Name: "Statement", Kind: ledger.GroupingFinancialStatement,
	})
	require.NoError(t, err)

	list, err := sv.groupings.ListGroupings(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Chart", list[0].Name)

	got, err := sv.groupings.GetGrouping(ctx, "u1", fs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Statement", got.Name)

	_, err = sv.groupings.GetGrouping(ctx, "u2", fs.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
