package service

import (
	"context"
	"testing"

	"kidcoins/internal/events"
	"kidcoins/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFamilyEconomyScenario drives accounts created through sign-up from
// linking to a spent reward.
func TestFamilyEconomyScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parentRes, err := f.svc.Auth.SignUp(ctx, "parent@example.com", "long-enough", "Pat", models.RoleParent)
	require.NoError(t, err)
	childRes, err := f.svc.Auth.SignUp(ctx, "child@example.com", "long-enough", "Kim", models.RoleChild)
	require.NoError(t, err)

	parent, _, err := f.svc.Auth.Authenticate(ctx, parentRes.Session.Token)
	require.NoError(t, err)
	child, _, err := f.svc.Auth.Authenticate(ctx, childRes.Session.Token)
	require.NoError(t, err)

	code, err := f.svc.Family.IssueCode(ctx, parent)
	require.NoError(t, err)
	_, err = f.svc.Family.Consume(ctx, child, code.Code)
	require.NoError(t, err)

	mission, err := f.svc.Missions.Create(ctx, parent, models.NewMission{ChildID: child.ID, Title: "Tidy room", RewardCoins: 50})
	require.NoError(t, err)
	_, err = f.svc.Missions.MarkCompleted(ctx, child, mission.ID)
	require.NoError(t, err)
	_, err = f.svc.Missions.Approve(ctx, parent, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), f.balance(t, child.ID))

	reward, err := f.svc.Rewards.Create(ctx, parent, models.Reward{Title: "Extra screen time", CostCoins: 50})
	require.NoError(t, err)
	redemption, err := f.svc.Redemptions.Redeem(ctx, child, reward.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionPending, redemption.Status)
	assert.Equal(t, int64(50), f.balance(t, child.ID), "pending redemptions do not touch the ledger")

	redemption, err = f.svc.Redemptions.Approve(ctx, parent, redemption.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionApproved, redemption.Status)
	assert.Equal(t, int64(0), f.balance(t, child.ID))

	children, err := f.svc.Family.GetChildren(ctx, parent)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, int64(0), children[0].CoinBalance)
	assert.Equal(t, 1, children[0].CurrentStreak)

	assert.Equal(t, []string{
		events.FamilyLinked,
		events.MissionCompleted,
		events.MissionApproved,
		events.RedemptionRequested,
		events.RedemptionApproved,
	}, f.events.Types())
}
