package service

import (
	"context"
	"strings"

	"kidcoins/internal/apperr"
	"kidcoins/internal/models"
	"kidcoins/internal/repository"
	"kidcoins/internal/validation"
)

// RewardService manages the parent-defined reward catalog
type RewardService struct {
	core
}

// NewRewardService creates a new reward service
func NewRewardService(opts Options) *RewardService {
	return &RewardService{core: newCore(opts)}
}

// Create adds a reward to the acting parent's catalog
func (s *RewardService) Create(ctx context.Context, actor Actor, input models.Reward) (*models.Reward, error) {
	if err := requireRole(actor, models.RoleParent); err != nil {
		return nil, err
	}
	input.ParentID = actor.ID
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := validation.ValidateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveCoins("costCoins", input.CostCoins); err != nil {
		return nil, err
	}

	var reward *models.Reward
	err := s.inTx(ctx, func(st *repository.Store) error {
		var err error
		reward, err = st.Rewards.CreateReward(ctx, input, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("reward_id", reward.ID).Info("reward created")
	return reward, nil
}

// Update edits a reward the actor owns. Existing redemptions keep the cost
// they were made at.
func (s *RewardService) Update(ctx context.Context, actor Actor, rewardID int64, update models.RewardUpdate) (*models.Reward, error) {
	var reward *models.Reward
	err := s.inTx(ctx, func(st *repository.Store) error {
		var err error
		reward, err = s.loadOwned(ctx, st, actor, rewardID)
		if err != nil {
			return err
		}

		if update.Title != nil {
			title := strings.TrimSpace(*update.Title)
			if err := validation.ValidateTitle(title); err != nil {
				return err
			}
			reward.Title = title
		}
		if update.Description != nil {
			reward.Description = strings.TrimSpace(*update.Description)
		}
		if update.CostCoins != nil {
			if err := validation.ValidatePositiveCoins("costCoins", *update.CostCoins); err != nil {
				return err
			}
			reward.CostCoins = *update.CostCoins
		}
		if update.Icon != nil {
			reward.Icon = *update.Icon
		}
		if update.IsActive != nil {
			reward.IsActive = *update.IsActive
		}

		return st.Rewards.UpdateReward(ctx, reward, s.now())
	})
	if err != nil {
		return nil, err
	}
	return reward, nil
}

// Delete deactivates a reward. The row stays so pending redemptions can
// still be approved or rejected.
func (s *RewardService) Delete(ctx context.Context, actor Actor, rewardID int64) error {
	inactive := false
	_, err := s.Update(ctx, actor, rewardID, models.RewardUpdate{IsActive: &inactive})
	return err
}

// GetByID returns a reward owned by the actor or offered to the acting child
func (s *RewardService) GetByID(ctx context.Context, actor Actor, rewardID int64) (*models.Reward, error) {
	var reward *models.Reward
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		reward, err = st.Rewards.GetRewardByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if reward == nil {
			return apperr.NotFound("reward %d not found", rewardID)
		}
		if reward.ParentID == actor.ID || actor.IsAdmin() {
			return nil
		}
		if actor.IsChild() {
			linked, err := st.Families.IsLinked(ctx, reward.ParentID, actor.ID)
			if err != nil {
				return err
			}
			if linked && reward.IsActive {
				return nil
			}
		}
		return apperr.NotFound("reward %d not found", rewardID)
	})
	return reward, err
}

// ListByParent returns the actor's active rewards
func (s *RewardService) ListByParent(ctx context.Context, actor Actor) ([]models.Reward, error) {
	if err := requireRole(actor, models.RoleParent); err != nil {
		return nil, err
	}
	var rewards []models.Reward
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		rewards, err = st.Rewards.ListActiveByParent(ctx, actor.ID)
		return err
	})
	return rewards, err
}

// ListForChild returns the active rewards of every parent linked to the acting child
func (s *RewardService) ListForChild(ctx context.Context, actor Actor) ([]models.Reward, error) {
	if err := requireRole(actor, models.RoleChild); err != nil {
		return nil, err
	}
	var rewards []models.Reward
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		rewards, err = st.Rewards.ListActiveForChild(ctx, actor.ID)
		return err
	})
	return rewards, err
}

func (s *RewardService) loadOwned(ctx context.Context, st *repository.Store, actor Actor, rewardID int64) (*models.Reward, error) {
	reward, err := st.Rewards.GetRewardByID(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, apperr.NotFound("reward %d not found", rewardID)
	}
	if reward.ParentID != actor.ID {
		return nil, apperr.Unauthorized("only the reward's owner can change it")
	}
	return reward, nil
}
