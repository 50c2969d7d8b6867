package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormReviewCaseRepository(t *testing.T) {
	repo := NewGormReviewCaseRepository(setupTestDB(t))
	ctx := context.Background()
	orderID := uuid.New()

	rc, err := commission.NewReviewCase(orderID, uuid.New(), nil, commission.ReviewDataIntegrity, "referral cycle", `{"order_id":"x"}`)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, rc))

	open, err := repo.HasOpenCase(ctx, orderID, commission.ReviewDataIntegrity)
	require.NoError(t, err)
	assert.True(t, open)
	open, err = repo.HasOpenCase(ctx, orderID, commission.ReviewExternalIntegration)
	require.NoError(t, err)
	assert.False(t, open)

	require.NoError(t, rc.Resolve(uuid.New(), "fixed the referral link"))
	require.NoError(t, repo.Save(ctx, rc))

	found, err := repo.FindByID(ctx, rc.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, commission.ReviewResolved, found.Status)
	assert.Equal(t, "fixed the referral link", found.ResolutionNote)
	assert.Equal(t, `{"order_id":"x"}`, found.Payload)

	open, err = repo.HasOpenCase(ctx, orderID, commission.ReviewDataIntegrity)
	require.NoError(t, err)
	assert.False(t, open)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormReviewCaseRepository_FindAll(t *testing.T) {
	repo := NewGormReviewCaseRepository(setupTestDB(t))
	ctx := context.Background()

	for i := range 3 {
		category := commission.ReviewDataIntegrity
		if i == 2 {
			category = commission.ReviewExternalIntegration
		}
		rc, err := commission.NewReviewCase(uuid.New(), uuid.New(), nil, category, "reason", "")
		require.NoError(t, err)
		if i == 0 {
			require.NoError(t, rc.Resolve(uuid.New(), ""))
		}
		require.NoError(t, repo.Save(ctx, rc))
	}

	pending := commission.ReviewPending
	cases, total, err := repo.FindAll(ctx, commission.ReviewCaseFilter{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, cases, 2)

	external := commission.ReviewExternalIntegration
	cases, total, err = repo.FindAll(ctx, commission.ReviewCaseFilter{Category: &external, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, cases, 1)
	assert.Equal(t, commission.ReviewExternalIntegration, cases[0].Category)
}
