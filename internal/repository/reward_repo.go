package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kidcoins/internal/database"
	"kidcoins/internal/models"
)

const rewardColumns = `id, parent_id, title, description, cost_coins, icon, is_active, created_at, updated_at`

// RewardRepository handles the reward catalog
type RewardRepository struct {
	db database.DBTX
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db database.DBTX) *RewardRepository {
	return &RewardRepository{db: db}
}

// CreateReward inserts an active reward
func (r *RewardRepository) CreateReward(ctx context.Context, reward models.Reward, now time.Time) (*models.Reward, error) {
	now = now.UTC()
	query := `
		INSERT INTO rewards (parent_id, title, description, cost_coins, icon, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		reward.ParentID, reward.Title, reward.Description, reward.CostCoins, reward.Icon, true, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}

	reward.ID = id
	reward.IsActive = true
	reward.CreatedAt = now
	reward.UpdatedAt = now
	return &reward, nil
}

// GetRewardByID retrieves a reward, or nil if none exists
func (r *RewardRepository) GetRewardByID(ctx context.Context, id int64) (*models.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE id = ?`
	reward, err := scanReward(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return reward, nil
}

// ListActiveByParent returns a parent's active rewards
func (r *RewardRepository) ListActiveByParent(ctx context.Context, parentID int64) ([]models.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards
		WHERE parent_id = ? AND is_active = ` + r.db.GetDialect().BoolValue(true) + `
		ORDER BY cost_coins, id`
	return r.list(ctx, query, parentID)
}

// ListActiveForChild returns the active rewards of every parent linked to the child
func (r *RewardRepository) ListActiveForChild(ctx context.Context, childID int64) ([]models.Reward, error) {
	query := `SELECT r.id, r.parent_id, r.title, r.description, r.cost_coins, r.icon, r.is_active, r.created_at, r.updated_at
		FROM rewards r
		JOIN family_relations fr ON fr.parent_id = r.parent_id
		WHERE fr.child_id = ? AND r.is_active = ` + r.db.GetDialect().BoolValue(true) + `
		ORDER BY r.cost_coins, r.id`
	return r.list(ctx, query, childID)
}

// UpdateReward writes every mutable field of reward
func (r *RewardRepository) UpdateReward(ctx context.Context, reward *models.Reward, now time.Time) error {
	now = now.UTC()
	query := `
		UPDATE rewards SET title = ?, description = ?, cost_coins = ?, icon = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		reward.Title, reward.Description, reward.CostCoins, reward.Icon, reward.IsActive, now, reward.ID)
	if err != nil {
		return fmt.Errorf("failed to update reward: %w", err)
	}
	reward.UpdatedAt = now
	return nil
}

func (r *RewardRepository) list(ctx context.Context, query string, args ...any) ([]models.Reward, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	rewards := []models.Reward{}
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, *reward)
	}
	return rewards, rows.Err()
}

func scanReward(row scanner) (*models.Reward, error) {
	reward := &models.Reward{}
	err := row.Scan(
		&reward.ID, &reward.ParentID, &reward.Title, &reward.Description, &reward.CostCoins,
		&reward.Icon, &reward.IsActive, &reward.CreatedAt, &reward.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return reward, nil
}
