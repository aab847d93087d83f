package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
)

func TestUpdateReviewItemStampsReviewerOnStatusChange(t *testing.T) {
	db, engine := setupEngine(t)
	ctx := context.Background()

	item, _ := seedUserRoleItem(t, db, engine)

	approved := models.ReviewItemStatusApproved
	updated, err := engine.UpdateReviewItem(ctx, item.ID, ItemPatch{Status: &approved}, 42)
	require.NoError(t, err)

	assert.Equal(t, models.ReviewItemStatusApproved, updated.Status)
	require.NotNil(t, updated.ReviewedBy)
	assert.Equal(t, uint64(42), *updated.ReviewedBy)
	require.NotNil(t, updated.ReviewedAt)
}

func TestUpdateReviewItemWithoutStatusChangeLeavesReviewer(t *testing.T) {
	db, engine := setupEngine(t)
	ctx := context.Background()

	item, _ := seedUserRoleItem(t, db, engine)

	risky := true
	reason := "shared account"
	updated, err := engine.UpdateReviewItem(ctx, item.ID, ItemPatch{IsRisky: &risky, RiskReason: &reason}, 42)
	require.NoError(t, err)

	assert.True(t, updated.IsRisky)
	assert.Equal(t, "shared account", updated.RiskReason)
	assert.Nil(t, updated.ReviewedBy, "risk flags alone are not a review decision")
	assert.Nil(t, updated.ReviewedAt)

	// patching the current status back in is not a change either
	pending := models.ReviewItemStatusPending
	updated, err = engine.UpdateReviewItem(ctx, item.ID, ItemPatch{Status: &pending}, 42)
	require.NoError(t, err)
	assert.Nil(t, updated.ReviewedBy)
}

func TestListReviewItemsFilters(t *testing.T) {
	db, engine := setupEngine(t)
	ctx := context.Background()

	review, org := orgReview(t, db, engine)

	seedAccount(t, db, 1, "alice", nil)
	seedAccount(t, db, 2, "dormant", nil)
	editor := seedRole(t, db, "editor")
	grantRole(t, db, 1, editor.ID, &org.ID, nil)

	_, err := engine.GenerateReviewItems(ctx, review.ID, GenerateOptions{
		IncludeResourcePermissions: boolPtr(false),
		IncludeDormantAccounts:     true,
	}, 1)
	require.NoError(t, err)

	risky := true
	flagged, err := engine.ListReviewItems(ctx, ItemFilter{ReviewID: &review.ID, IsRisky: &risky})
	require.NoError(t, err)
	require.Len(t, flagged, 2, "both never-logged-in accounts are dormant")

	userID := uint64(1)
	mine, err := engine.ListReviewItems(ctx, ItemFilter{ReviewID: &review.ID, UserID: &userID})
	require.NoError(t, err)
	assert.Len(t, mine, 2, "one role assignment plus one dormancy flag")
}

func TestGetReviewItemNotFound(t *testing.T) {
	_, engine := setupEngine(t)

	_, err := engine.GetReviewItem(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}
