package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kidcoins/internal/database"
	"kidcoins/internal/models"
)

const missionColumns = `id, parent_id, child_id, title, description, category, reward_coins, status, due_date, completed_at, approved_at, created_at, updated_at`

// MissionRepository handles mission rows. MarkCompleted, MarkApproved and
// MarkRejected only update a row still in the expected status, so a stale
// status never overwrites a newer one.
type MissionRepository struct {
	db database.DBTX
}

// NewMissionRepository creates a new mission repository
func NewMissionRepository(db database.DBTX) *MissionRepository {
	return &MissionRepository{db: db}
}

// CreateMission inserts a mission in pending status
func (r *MissionRepository) CreateMission(ctx context.Context, m models.NewMission, now time.Time) (*models.Mission, error) {
	now = now.UTC()
	query := `
		INSERT INTO missions (parent_id, child_id, title, description, category, reward_coins, status, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		m.ParentID, m.ChildID, m.Title, m.Description, m.Category, m.RewardCoins,
		string(models.MissionPending), nullTime(m.DueDate), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}

	return &models.Mission{
		ID:          id,
		ParentID:    m.ParentID,
		ChildID:     m.ChildID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		RewardCoins: m.RewardCoins,
		Status:      models.MissionPending,
		DueDate:     timePtr(nullTime(m.DueDate)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetMissionByID retrieves a mission, or nil if none exists
func (r *MissionRepository) GetMissionByID(ctx context.Context, id int64) (*models.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE id = ?`
	m, err := scanMission(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}
	return m, nil
}

// ListByChild returns a child's missions, newest first
func (r *MissionRepository) ListByChild(ctx context.Context, childID int64) ([]models.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE child_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, childID)
}

// ListByParent returns the missions a parent created, newest first
func (r *MissionRepository) ListByParent(ctx context.Context, parentID int64) ([]models.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE parent_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, parentID)
}

// MarkCompleted moves a pending mission to completed
func (r *MissionRepository) MarkCompleted(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `UPDATE missions SET status = ?, completed_at = ?, updated_at = ? WHERE id = ? AND status = ?`
	return r.transition(ctx, query, string(models.MissionCompleted), now.UTC(), now.UTC(), id, string(models.MissionPending))
}

// MarkApproved moves a completed mission to approved
func (r *MissionRepository) MarkApproved(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `UPDATE missions SET status = ?, approved_at = ?, updated_at = ? WHERE id = ? AND status = ?`
	return r.transition(ctx, query, string(models.MissionApproved), now.UTC(), now.UTC(), id, string(models.MissionCompleted))
}

// MarkRejected moves a pending or completed mission to rejected
func (r *MissionRepository) MarkRejected(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `UPDATE missions SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`
	return r.transition(ctx, query, string(models.MissionRejected), now.UTC(), id,
		string(models.MissionPending), string(models.MissionCompleted))
}

// DeleteMission removes a mission that is pending or rejected
func (r *MissionRepository) DeleteMission(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM missions WHERE id = ? AND status IN (?, ?)`
	return r.transition(ctx, query, id, string(models.MissionPending), string(models.MissionRejected))
}

func (r *MissionRepository) transition(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update mission: %w", err)
	}
	return affected(result)
}

func (r *MissionRepository) list(ctx context.Context, query string, args ...any) ([]models.Mission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer rows.Close()

	missions := []models.Mission{}
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		missions = append(missions, *m)
	}
	return missions, rows.Err()
}

func scanMission(row scanner) (*models.Mission, error) {
	m := &models.Mission{}
	var status string
	var dueDate, completedAt, approvedAt sql.NullTime
	err := row.Scan(
		&m.ID, &m.ParentID, &m.ChildID, &m.Title, &m.Description, &m.Category,
		&m.RewardCoins, &status, &dueDate, &completedAt, &approvedAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Status = models.MissionStatus(status)
	m.DueDate = timePtr(dueDate)
	m.CompletedAt = timePtr(completedAt)
	m.ApprovedAt = timePtr(approvedAt)
	return m, nil
}
