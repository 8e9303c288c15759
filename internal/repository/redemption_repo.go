package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kidcoins/internal/database"
	"kidcoins/internal/models"
)

const redemptionColumns = `id, child_id, reward_id, cost_coins, status, redeemed_at, processed_at`

// RedemptionRepository handles redeemed_rewards rows
type RedemptionRepository struct {
	db database.DBTX
}

// NewRedemptionRepository creates a new redemption repository
func NewRedemptionRepository(db database.DBTX) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

// CreateRedemption inserts a pending redemption with the given cost snapshot
func (r *RedemptionRepository) CreateRedemption(ctx context.Context, childID, rewardID, cost int64, now time.Time) (*models.RedeemedReward, error) {
	now = now.UTC()
	query := `
		INSERT INTO redeemed_rewards (child_id, reward_id, cost_coins, status, redeemed_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, childID, rewardID, cost, string(models.RedemptionPending), now)
	if err != nil {
		return nil, fmt.Errorf("failed to create redemption: %w", err)
	}

	return &models.RedeemedReward{
		ID:         id,
		ChildID:    childID,
		RewardID:   rewardID,
		CostCoins:  cost,
		Status:     models.RedemptionPending,
		RedeemedAt: now,
	}, nil
}

// GetRedemptionByID retrieves a redemption, or nil if none exists
func (r *RedemptionRepository) GetRedemptionByID(ctx context.Context, id int64) (*models.RedeemedReward, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redeemed_rewards WHERE id = ?`
	rr, err := scanRedemption(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}
	return rr, nil
}

// PendingTotal sums the cost of a child's pending redemptions
func (r *RedemptionRepository) PendingTotal(ctx context.Context, childID int64) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(cost_coins), 0) FROM redeemed_rewards WHERE child_id = ? AND status = ?`
	if err := r.db.QueryRowContext(ctx, query, childID, string(models.RedemptionPending)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum pending redemptions: %w", err)
	}
	return total, nil
}

// ListByChild returns a child's redemptions, newest first
func (r *RedemptionRepository) ListByChild(ctx context.Context, childID int64) ([]models.RedeemedReward, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redeemed_rewards WHERE child_id = ? ORDER BY redeemed_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	defer rows.Close()

	redemptions := []models.RedeemedReward{}
	for rows.Next() {
		rr, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		redemptions = append(redemptions, *rr)
	}
	return redemptions, rows.Err()
}

// ListPendingByParent returns pending redemptions of rewards the parent owns
func (r *RedemptionRepository) ListPendingByParent(ctx context.Context, parentID int64) ([]models.PendingRedemption, error) {
	query := `
		SELECT rr.id, rr.child_id, rr.reward_id, rr.cost_coins, rr.status, rr.redeemed_at, rr.processed_at,
			u.name, rw.title, rw.icon
		FROM redeemed_rewards rr
		JOIN rewards rw ON rw.id = rr.reward_id
		JOIN users u ON u.id = rr.child_id
		WHERE rw.parent_id = ? AND rr.status = ?
		ORDER BY rr.redeemed_at, rr.id
	`
	rows, err := r.db.QueryContext(ctx, query, parentID, string(models.RedemptionPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending redemptions: %w", err)
	}
	defer rows.Close()

	pending := []models.PendingRedemption{}
	for rows.Next() {
		var p models.PendingRedemption
		var status string
		var processedAt sql.NullTime
		err := rows.Scan(
			&p.ID, &p.ChildID, &p.RewardID, &p.CostCoins, &status, &p.RedeemedAt, &processedAt,
			&p.ChildName, &p.RewardTitle, &p.RewardIcon,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending redemption: %w", err)
		}
		p.Status = models.RedemptionStatus(status)
		p.ProcessedAt = timePtr(processedAt)
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkProcessed moves a pending redemption to a terminal status. Returns
// false when the redemption was no longer pending.
func (r *RedemptionRepository) MarkProcessed(ctx context.Context, id int64, status models.RedemptionStatus, now time.Time) (bool, error) {
	query := `UPDATE redeemed_rewards SET status = ?, processed_at = ? WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, query, string(status), now.UTC(), id, string(models.RedemptionPending))
	if err != nil {
		return false, fmt.Errorf("failed to update redemption: %w", err)
	}
	return affected(result)
}

func scanRedemption(row scanner) (*models.RedeemedReward, error) {
	rr := &models.RedeemedReward{}
	var status string
	var processedAt sql.NullTime
	err := row.Scan(&rr.ID, &rr.ChildID, &rr.RewardID, &rr.CostCoins, &status, &rr.RedeemedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	rr.Status = models.RedemptionStatus(status)
	rr.ProcessedAt = timePtr(processedAt)
	return rr, nil
}
