package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"kidcoins/internal/apperr"
	"kidcoins/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	child := f.user(t, "kid@example.com", models.RoleChild)
	other := f.user(t, "other@example.com", models.RoleChild)

	rng := rand.New(rand.NewSource(7))
	var sum int64
	for i := 0; i < 60; i++ {
		amount := int64(rng.Intn(200) - 100)
		if amount == 0 {
			amount = 1
		}
		userID := child.ID
		if rng.Intn(4) == 0 {
			userID = other.ID
		} else {
			sum += amount
		}
		_, err := f.svc.Ledger.Append(ctx, userID, amount, models.TxManualAdjustment, nil, "random")
		require.NoError(t, err)

		assert.Equal(t, sum, f.balance(t, child.ID), "after append %d", i)
	}

	txs, err := f.svc.Ledger.Transactions(ctx, child, child.ID, 0)
	require.NoError(t, err)
	var fromLog int64
	for _, tx := range txs {
		fromLog += tx.Amount
	}
	assert.Equal(t, sum, fromLog)
}

func TestAppendRejectsZero(t *testing.T) {
	f := newFixture(t)
	child := f.user(t, "kid@example.com", models.RoleChild)

	_, err := f.svc.Ledger.Append(context.Background(), child.ID, 0, models.TxManualAdjustment, nil, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestBalanceUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Ledger.Balance(context.Background(), 4242)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAdjust(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)
	stranger := f.user(t, "stranger@example.com", models.RoleParent)
	admin := f.user(t, "admin@example.com", models.RoleAdmin)

	entry, err := f.svc.Ledger.Adjust(ctx, parent, child.ID, 25, "birthday bonus")
	require.NoError(t, err)
	assert.Equal(t, models.TxManualAdjustment, entry.Type)
	assert.Equal(t, int64(25), f.balance(t, child.ID))

	_, err = f.svc.Ledger.Adjust(ctx, admin, child.ID, -5, "")
	require.NoError(t, err)
	assert.Equal(t, int64(20), f.balance(t, child.ID))

	_, err = f.svc.Ledger.Adjust(ctx, stranger, child.ID, 10, "")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.svc.Ledger.Adjust(ctx, child, child.ID, 10, "")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.svc.Ledger.Adjust(ctx, parent, child.ID, -21, "")
	assert.True(t, apperr.Is(err, apperr.KindInsufficientFunds))

	_, err = f.svc.Ledger.Adjust(ctx, parent, child.ID, 0, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.Equal(t, int64(20), f.balance(t, child.ID))
}

func TestAdjustTargetMustBeChild(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, _ := f.family(t)
	admin := f.user(t, "admin@example.com", models.RoleAdmin)

	_, err := f.svc.Ledger.Adjust(ctx, admin, 9999, 10, "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "missing user: %v", err)

	_, err = f.svc.Ledger.Adjust(ctx, admin, parent.ID, 10, "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "parent account: %v", err)
}

func TestAdjustRacingRedeem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)
	f.fund(t, parent, child, 100)
	reward := createReward(t, f, parent, "Bike ride", 60)

	const rounds = 5
	for i := 0; i < rounds; i++ {
		var (
			wg        sync.WaitGroup
			redeemErr error
			adjustErr error
			adjusted  bool
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			var r *models.RedeemedReward
			r, redeemErr = f.svc.Redemptions.Redeem(ctx, child, reward.ID)
			if redeemErr == nil {
				_, redeemErr = f.svc.Redemptions.Reject(ctx, parent, r.ID)
			}
		}()
		go func() {
			defer wg.Done()
			_, adjustErr = f.svc.Ledger.Adjust(ctx, parent, child.ID, -60, "correction")
			adjusted = adjustErr == nil
		}()
		wg.Wait()

		for _, err := range []error{redeemErr, adjustErr} {
			if err != nil {
				assert.True(t, apperr.Is(err, apperr.KindInsufficientFunds), "unexpected error: %v", err)
			}
		}

		summary, err := f.svc.Ledger.Summary(ctx, parent, child.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, summary.Available, int64(0))

		if adjusted {
			// Top the balance back up for the next round.
			_, err := f.svc.Ledger.Adjust(ctx, parent, child.ID, 60, "refill")
			require.NoError(t, err)
		}
	}
}

func TestTransactionsVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.family(t)
	stranger := f.user(t, "stranger@example.com", models.RoleParent)
	f.fund(t, parent, child, 10)

	txs, err := f.svc.Ledger.Transactions(ctx, parent, child.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Completed: Chores", txs[0].Description)

	_, err = f.svc.Ledger.Transactions(ctx, stranger, child.ID, 10)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
