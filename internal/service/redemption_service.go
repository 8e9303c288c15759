package service

import (
	"context"

	"kidcoins/internal/apperr"
	"kidcoins/internal/events"
	"kidcoins/internal/models"
	"kidcoins/internal/repository"

	"github.com/sirupsen/logrus"
)

// RedemptionService drives reward redemptions: pending -> approved | rejected.
// Coins leave the ledger only on approval; until then the cost is reserved
// against the child's available balance.
type RedemptionService struct {
	core
}

// NewRedemptionService creates a new redemption service
func NewRedemptionService(opts Options) *RedemptionService {
	return &RedemptionService{core: newCore(opts)}
}

// Redeem requests a reward for the acting child. The child's row lock
// makes the balance check and the insert one unit against concurrent
// redemptions by the same child.
func (s *RedemptionService) Redeem(ctx context.Context, actor Actor, rewardID int64) (*models.RedeemedReward, error) {
	if err := requireRole(actor, models.RoleChild); err != nil {
		return nil, s.refused("redeem", err)
	}

	now := s.now()
	var redemption *models.RedeemedReward
	err := s.inTx(ctx, func(st *repository.Store) error {
		if err := lockUser(ctx, st, actor.ID); err != nil {
			return err
		}

		reward, err := st.Rewards.GetRewardByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if reward == nil || !reward.IsActive {
			return apperr.NotFound("reward %d not found", rewardID)
		}
		linked, err := st.Families.IsLinked(ctx, reward.ParentID, actor.ID)
		if err != nil {
			return err
		}
		if !linked {
			return apperr.Unauthorized("reward %d belongs to another family", rewardID)
		}

		summary, err := balanceSummary(ctx, st, actor.ID)
		if err != nil {
			return err
		}
		if summary.Available < reward.CostCoins {
			return apperr.New(apperr.KindInsufficientFunds,
				"reward costs %d coins but only %d are available", reward.CostCoins, summary.Available)
		}

		redemption, err = st.Redemptions.CreateRedemption(ctx, actor.ID, reward.ID, reward.CostCoins, now)
		return err
	})
	if err != nil {
		return nil, s.refused("redeem", err)
	}

	s.metrics.Transition("redemption", string(models.RedemptionPending))
	s.log.WithFields(logrus.Fields{
		"redemption_id": redemption.ID,
		"child_id":      actor.ID,
		"reward_id":     rewardID,
		"cost":          redemption.CostCoins,
	}).Info("reward redeemed")
	s.publish(ctx, events.Event{Type: events.RedemptionRequested, UserID: actor.ID, SubjectID: redemption.ID, Amount: redemption.CostCoins})
	return redemption, nil
}

// Approve debits the snapshotted cost exactly once
func (s *RedemptionService) Approve(ctx context.Context, actor Actor, redemptionID int64) (*models.RedeemedReward, error) {
	now := s.now()
	var redemption *models.RedeemedReward
	err := s.inTx(ctx, func(st *repository.Store) error {
		var reward *models.Reward
		var err error
		redemption, reward, err = s.loadOwned(ctx, st, actor, redemptionID)
		if err != nil {
			return err
		}
		if err := lockUser(ctx, st, redemption.ChildID); err != nil {
			return err
		}

		ok, err := st.Redemptions.MarkProcessed(ctx, redemptionID, models.RedemptionApproved, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidTransition("redemption is already %s", redemption.Status)
		}

		related := reward.ID
		entry := repository.NewTransaction(redemption.ChildID, -redemption.CostCoins, models.TxRewardRedeemed,
			&related, "Redeemed: "+reward.Title, now)
		if _, err := s.appendEntry(ctx, st, entry); err != nil {
			return err
		}

		redemption, err = st.Redemptions.GetRedemptionByID(ctx, redemptionID)
		return err
	})
	if err != nil {
		return nil, s.refused("redemption.approve", err)
	}

	s.metrics.Transition("redemption", string(models.RedemptionApproved))
	s.log.WithFields(logrus.Fields{
		"redemption_id": redemptionID,
		"child_id":      redemption.ChildID,
		"amount":        -redemption.CostCoins,
	}).Info("redemption approved")
	s.publish(ctx, events.Event{Type: events.RedemptionApproved, UserID: redemption.ChildID, SubjectID: redemptionID, Amount: -redemption.CostCoins})
	return redemption, nil
}

// Reject closes a pending redemption without touching the ledger
func (s *RedemptionService) Reject(ctx context.Context, actor Actor, redemptionID int64) (*models.RedeemedReward, error) {
	now := s.now()
	var redemption *models.RedeemedReward
	err := s.inTx(ctx, func(st *repository.Store) error {
		var err error
		redemption, _, err = s.loadOwned(ctx, st, actor, redemptionID)
		if err != nil {
			return err
		}

		ok, err := st.Redemptions.MarkProcessed(ctx, redemptionID, models.RedemptionRejected, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidTransition("redemption is already %s", redemption.Status)
		}

		redemption, err = st.Redemptions.GetRedemptionByID(ctx, redemptionID)
		return err
	})
	if err != nil {
		return nil, s.refused("redemption.reject", err)
	}

	s.metrics.Transition("redemption", string(models.RedemptionRejected))
	s.log.WithFields(logrus.Fields{"redemption_id": redemptionID, "child_id": redemption.ChildID}).Info("redemption rejected")
	s.publish(ctx, events.Event{Type: events.RedemptionRejected, UserID: redemption.ChildID, SubjectID: redemptionID})
	return redemption, nil
}

// ListByChild returns a child's redemptions
func (s *RedemptionService) ListByChild(ctx context.Context, actor Actor, childID int64) ([]models.RedeemedReward, error) {
	var redemptions []models.RedeemedReward
	err := s.read(ctx, func(st *repository.Store) error {
		if err := requireChildAccess(ctx, st, actor, childID); err != nil {
			return err
		}
		var err error
		redemptions, err = st.Redemptions.ListByChild(ctx, childID)
		return err
	})
	return redemptions, err
}

// ListPendingForParent returns redemptions awaiting the actor's decision
func (s *RedemptionService) ListPendingForParent(ctx context.Context, actor Actor) ([]models.PendingRedemption, error) {
	if err := requireRole(actor, models.RoleParent); err != nil {
		return nil, err
	}
	var pending []models.PendingRedemption
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		pending, err = st.Redemptions.ListPendingByParent(ctx, actor.ID)
		return err
	})
	return pending, err
}

// loadOwned loads a redemption and its reward and checks the actor owns the reward
func (s *RedemptionService) loadOwned(ctx context.Context, st *repository.Store, actor Actor, redemptionID int64) (*models.RedeemedReward, *models.Reward, error) {
	redemption, err := st.Redemptions.GetRedemptionByID(ctx, redemptionID)
	if err != nil {
		return nil, nil, err
	}
	if redemption == nil {
		return nil, nil, apperr.NotFound("redemption %d not found", redemptionID)
	}
	reward, err := st.Rewards.GetRewardByID(ctx, redemption.RewardID)
	if err != nil {
		return nil, nil, err
	}
	if reward == nil {
		return nil, nil, apperr.NotFound("reward %d not found", redemption.RewardID)
	}
	if reward.ParentID != actor.ID {
		return nil, nil, apperr.Unauthorized("only the reward's owner can process this redemption")
	}
	return redemption, reward, nil
}
