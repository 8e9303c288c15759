package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"kidcoins/internal/apperr"
	"kidcoins/internal/events"
	"kidcoins/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMission(t *testing.T, f *fixture, parent, child Actor, coins int64) *models.Mission {
	t.Helper()
	m, err := f.svc.Missions.Create(context.Background(), parent, models.NewMission{
		ChildID:     child.ID,
		Title:       "Feed the cat",
		RewardCoins: coins,
	})
	require.NoError(t, err)
	return m
}

func TestMissionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)

	m := createMission(t, f, parent, child, 50)
	assert.Equal(t, models.MissionPending, m.Status)
	assert.Equal(t, "general", m.Category)
	assert.Equal(t, parent.ID, m.ParentID)

	m, err := f.svc.Missions.MarkCompleted(ctx, child, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionCompleted, m.Status)
	require.NotNil(t, m.CompletedAt)
	assert.Equal(t, int64(0), f.balance(t, child.ID), "completion pays nothing")

	m, err = f.svc.Missions.Approve(ctx, parent, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionApproved, m.Status)
	require.NotNil(t, m.ApprovedAt)
	assert.Equal(t, int64(50), f.balance(t, child.ID))

	txs, err := f.svc.Ledger.Transactions(ctx, child, child.ID, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TxMissionEarned, txs[0].Type)
	require.NotNil(t, txs[0].RelatedID)
	assert.Equal(t, m.ID, *txs[0].RelatedID)
	assert.Equal(t, "Completed: Feed the cat", txs[0].Description)

	assert.Equal(t, []string{events.MissionCompleted, events.MissionApproved}, f.events.Types())
}

func TestMissionCompletionTouchesStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)

	m := createMission(t, f, parent, child, 5)
	_, err := f.svc.Missions.MarkCompleted(ctx, child, m.ID)
	require.NoError(t, err)

	user, err := f.svc.Auth.Me(ctx, child)
	require.NoError(t, err)
	assert.Equal(t, 1, user.CurrentStreak)
}

func TestConcurrentCompletionsCountOneDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)

	first := createMission(t, f, parent, child, 5)
	_, err := f.svc.Missions.MarkCompleted(ctx, child, first.ID)
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)

	const workers = 4
	missions := make([]*models.Mission, workers)
	for i := range missions {
		missions[i] = createMission(t, f, parent, child, 5)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Missions.MarkCompleted(ctx, child, missions[i].ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	user, err := f.svc.Auth.Me(ctx, child)
	require.NoError(t, err)
	assert.Equal(t, 2, user.CurrentStreak)
}

func TestApproveTwicePaysOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)

	m := createMission(t, f, parent, child, 40)
	_, err := f.svc.Missions.MarkCompleted(ctx, child, m.ID)
	require.NoError(t, err)

	_, err = f.svc.Missions.Approve(ctx, parent, m.ID)
	require.NoError(t, err)
	_, err = f.svc.Missions.Approve(ctx, parent, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))

	assert.Equal(t, int64(40), f.balance(t, child.ID))
}

func TestConcurrentApprovePaysOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)

	m := createMission(t, f, parent, child, 30)
	_, err := f.svc.Missions.MarkCompleted(ctx, child, m.ID)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Missions.Approve(ctx, parent, m.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(30), f.balance(t, child.ID))
}

func TestMissionAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)
	otherParent := f.user(t, "other-parent@example.com", models.RoleParent)
	otherChild := f.user(t, "other-child@example.com", models.RoleChild)

	m := createMission(t, f, parent, child, 10)

	_, err := f.svc.Missions.MarkCompleted(ctx, otherChild, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.svc.Missions.MarkCompleted(ctx, parent, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.svc.Missions.MarkCompleted(ctx, child, m.ID)
	require.NoError(t, err)

	_, err = f.svc.Missions.Approve(ctx, otherParent, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.svc.Missions.Approve(ctx, child, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.svc.Missions.Reject(ctx, otherParent, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.svc.Missions.GetByID(ctx, otherParent, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	assert.Equal(t, int64(0), f.balance(t, child.ID))
}

func TestMissionInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)

	pending := createMission(t, f, parent, child, 10)
	_, err := f.svc.Missions.Approve(ctx, parent, pending.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "approve from pending")

	rejected, err := f.svc.Missions.Reject(ctx, parent, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionRejected, rejected.Status)

	_, err = f.svc.Missions.MarkCompleted(ctx, child, pending.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "complete after reject")
	_, err = f.svc.Missions.Reject(ctx, parent, pending.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "reject twice")

	completed := createMission(t, f, parent, child, 10)
	_, err = f.svc.Missions.MarkCompleted(ctx, child, completed.ID)
	require.NoError(t, err)
	_, err = f.svc.Missions.MarkCompleted(ctx, child, completed.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "complete twice")

	_, err = f.svc.Missions.Reject(ctx, parent, completed.ID)
	require.NoError(t, err, "completed missions can be rejected")

	_, err = f.svc.Missions.Approve(ctx, parent, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.Equal(t, int64(0), f.balance(t, child.ID))
}

func TestMissionCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)
	unlinked := f.user(t, "unlinked@example.com", models.RoleChild)

	tests := []struct {
		name  string
		actor Actor
		input models.NewMission
		kind  apperr.Kind
	}{
		{"empty title", parent, models.NewMission{ChildID: child.ID, Title: "  ", RewardCoins: 5}, apperr.KindValidation},
		{"zero reward", parent, models.NewMission{ChildID: child.ID, Title: "Dishes", RewardCoins: 0}, apperr.KindValidation},
		{"negative reward", parent, models.NewMission{ChildID: child.ID, Title: "Dishes", RewardCoins: -3}, apperr.KindValidation},
		{"unlinked child", parent, models.NewMission{ChildID: unlinked.ID, Title: "Dishes", RewardCoins: 5}, apperr.KindUnauthorized},
		{"unknown child", parent, models.NewMission{ChildID: 9999, Title: "Dishes", RewardCoins: 5}, apperr.KindNotFound},
		{"child creating", child, models.NewMission{ChildID: child.ID, Title: "Dishes", RewardCoins: 5}, apperr.KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Missions.Create(ctx, tt.actor, tt.input)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestMissionDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)

	pending := createMission(t, f, parent, child, 10)
	require.NoError(t, f.svc.Missions.Delete(ctx, parent, pending.ID))
	_, err := f.svc.Missions.GetByID(ctx, parent, pending.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	completed := createMission(t, f, parent, child, 10)
	_, err = f.svc.Missions.MarkCompleted(ctx, child, completed.ID)
	require.NoError(t, err)
	err = f.svc.Missions.Delete(ctx, parent, completed.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))

	err = f.svc.Missions.Delete(ctx, child, completed.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.svc.Missions.Reject(ctx, parent, completed.ID)
	require.NoError(t, err)
	assert.NoError(t, f.svc.Missions.Delete(ctx, parent, completed.ID))
}

func TestMissionLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)
	stranger := f.user(t, "stranger@example.com", models.RoleParent)

	createMission(t, f, parent, child, 1)
	createMission(t, f, parent, child, 2)

	byParent, err := f.svc.Missions.ListByParent(ctx, parent)
	require.NoError(t, err)
	assert.Len(t, byParent, 2)

	forChild, err := f.svc.Missions.ListForChild(ctx, child, child.ID)
	require.NoError(t, err)
	assert.Len(t, forChild, 2)

	_, err = f.svc.Missions.ListForChild(ctx, stranger, child.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.svc.Missions.ListByParent(ctx, child)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
