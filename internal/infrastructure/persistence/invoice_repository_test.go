package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInvoiceRepository_CreateAndFind(t *testing.T) {
	repo := NewGormInvoiceRepository(setupTestDB(t))
	ctx := context.Background()
	inv := newTestInvoice(t, commission.DeliveryEArchive, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Create(ctx, inv))

	t.Run("by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, inv.InvoiceNumber, found.InvoiceNumber)
		assert.True(t, inv.TotalAmount.Equal(found.TotalAmount))
		assert.True(t, inv.VATAmount.Equal(found.VATAmount))
		assert.Equal(t, commission.AccountingPending, found.AccountingStatus)
		assert.Nil(t, found.ExternalAccountingID)
	})

	t.Run("by order id", func(t *testing.T) {
		found, err := repo.FindByOrderID(ctx, inv.OrderID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, inv.ID, found.ID)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormInvoiceRepository_CreateDuplicateOrder(t *testing.T) {
	repo := NewGormInvoiceRepository(setupTestDB(t))
	ctx := context.Background()
	first := newTestInvoice(t, commission.DeliveryPDFOnly, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, first))

	second := newTestInvoice(t, commission.DeliveryPDFOnly, time.Now().UTC())
	second.OrderID = first.OrderID

	err := repo.Create(ctx, second)
	assert.True(t, errors.Is(err, commission.ErrDuplicateInvoice), "got %v", err)
}

func TestGormInvoiceRepository_UpdateMutableFieldsLeavesAmounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	inv := newTestInvoice(t, commission.DeliveryEArchive, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, inv))

	originalTotal := inv.TotalAmount
	require.NoError(t, inv.MarkSubmitted("EXT-1"))
	require.NoError(t, inv.AttachPDF("https://cdn/p/INV.pdf"))
	inv.TotalAmount = originalTotal.Add(originalTotal)

	require.NoError(t, repo.UpdateMutableFields(ctx, inv))

	found, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, found.ExternalAccountingID)
	assert.Equal(t, "EXT-1", *found.ExternalAccountingID)
	require.NotNil(t, found.PDFURL)
	assert.Equal(t, commission.AccountingSubmitted, found.AccountingStatus)
	assert.Nil(t, found.NextAttemptAt)
	assert.Equal(t, inv.Version, found.Version)
	assert.True(t, originalTotal.Equal(found.TotalAmount), "amounts are immutable")

	missing := newTestInvoice(t, commission.DeliveryPDFOnly, time.Now().UTC())
	assert.ErrorIs(t, repo.UpdateMutableFields(ctx, missing), shared.ErrNotFound)
}

func TestGormInvoiceRepository_FindAll(t *testing.T) {
	repo := NewGormInvoiceRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	partner := uuid.New()
	var ids []uuid.UUID
	for i := range 3 {
		inv := newTestInvoice(t, commission.DeliveryPDFOnly, base.Add(time.Duration(i)*time.Hour))
		inv.PartnerID = partner
		require.NoError(t, repo.Create(ctx, inv))
		ids = append(ids, inv.ID)
	}
	other := newTestInvoice(t, commission.DeliveryEArchive, base.Add(10*time.Hour))
	require.NoError(t, repo.Create(ctx, other))

	tests := []struct {
		name      string
		filter    commission.InvoiceFilter
		wantTotal int64
		wantFirst uuid.UUID
		wantLen   int
	}{
		{"all newest first", commission.InvoiceFilter{}, 4, other.ID, 4},
		{"by partner", commission.InvoiceFilter{PartnerID: &partner}, 3, ids[2], 3},
		{"paged", commission.InvoiceFilter{PartnerID: &partner, Page: 2, PageSize: 2}, 3, ids[0], 1},
		{"by status", commission.InvoiceFilter{AccountingStatus: ptr(commission.AccountingPending)}, 1, other.ID, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			require.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantFirst, got[0].ID)
		})
	}
}

func TestGormInvoiceRepository_FindDueForAccounting(t *testing.T) {
	repo := NewGormInvoiceRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	due := newTestInvoice(t, commission.DeliveryEArchive, now.Add(-time.Hour))
	later := newTestInvoice(t, commission.DeliveryEArchive, now.Add(time.Hour))
	pdfOnly := newTestInvoice(t, commission.DeliveryPDFOnly, now.Add(-time.Hour))
	submitted := newTestInvoice(t, commission.DeliveryEArchive, now.Add(-2*time.Hour))
	require.NoError(t, submitted.MarkSubmitted("EXT-9"))
	for _, inv := range []*commission.Invoice{due, later, pdfOnly, submitted} {
		require.NoError(t, repo.Create(ctx, inv))
	}

	got, err := repo.FindDueForAccounting(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)
}

func ptr[T any](v T) *T { return &v }
