package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/repository"
	"github.com/structura-group/pipeline-api/internal/service"
	"github.com/structura-group/pipeline-api/internal/testutil"
)

func TestFinancialService_Create(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	ctx := testutil.ContextFor(admin)
	user := testutil.UserCtx(admin)
	deal := testutil.CreateTestDeal(t, db, admin.ID)

	t.Run("payment entries add to actuals", func(t *testing.T) {
		entry, err := svc.financials.Create(ctx, user, deal.ID, &domain.CreateFinancialEntryRequest{
			EntryType: domain.FinancialEntryPayment,
			Amount:    15000,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.FinancialEntryStatusPending, entry.Status)

		stored, err := svc.dealRepo.FindByID(ctx, deal.ID)
		require.NoError(t, err)
		assert.Equal(t, 15000.0, stored.Actuals)
	})

	t.Run("invoice entries leave actuals alone", func(t *testing.T) {
		_, err := svc.financials.Create(ctx, user, deal.ID, &domain.CreateFinancialEntryRequest{
			EntryType: domain.FinancialEntryInvoice,
			Amount:    99999,
		})
		require.NoError(t, err)

		stored, err := svc.dealRepo.FindByID(ctx, deal.ID)
		require.NoError(t, err)
		assert.Equal(t, 15000.0, stored.Actuals)
	})

	t.Run("unknown entry type rejected", func(t *testing.T) {
		_, err := svc.financials.Create(ctx, user, deal.ID, &domain.CreateFinancialEntryRequest{
			EntryType: domain.FinancialEntryType("tip"),
			Amount:    10,
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestFinancialService_ClientVisibility(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	client := testutil.CreateTestUser(t, db, domain.RoleClientResidential)
	ctx := testutil.ContextFor(admin)
	user := testutil.UserCtx(admin)

	deal := testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
		d.ClientEmail = client.Email
		d.ClientCategory = domain.ClientCategoryResidential
	})

	invoice, err := svc.financials.Create(ctx, user, deal.ID, &domain.CreateFinancialEntryRequest{
		EntryType: domain.FinancialEntryInvoice,
		Amount:    5000,
	})
	require.NoError(t, err)
	budgetLine, err := svc.financials.Create(ctx, user, deal.ID, &domain.CreateFinancialEntryRequest{
		EntryType: domain.FinancialEntryBudgetLine,
		Amount:    300,
	})
	require.NoError(t, err)

	t.Run("clients list only invoices", func(t *testing.T) {
		entries, err := svc.financials.List(testutil.ContextFor(client), testutil.UserCtx(client), repository.FinancialEntryFilters{DealID: &deal.ID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.FinancialEntryInvoice, entries[0].EntryType)
	})

	t.Run("clients read invoices but not internals", func(t *testing.T) {
		_, err := svc.financials.GetByID(testutil.ContextFor(client), testutil.UserCtx(client), invoice.ID)
		assert.NoError(t, err)

		_, err = svc.financials.GetByID(testutil.ContextFor(client), testutil.UserCtx(client), budgetLine.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("status transitions", func(t *testing.T) {
		updated, err := svc.financials.SetStatus(ctx, user, invoice.ID, domain.FinancialEntryStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, domain.FinancialEntryStatusPaid, updated.Status)

		_, err = svc.financials.SetStatus(ctx, user, invoice.ID, domain.FinancialEntryStatus("settled"))
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}
