package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kidcoins/internal/database"
	"kidcoins/internal/models"
)

const invitationColumns = `id, parent_id, code, used_by, used_at, expires_at, created_at`

// InvitationRepository handles invitation codes
type InvitationRepository struct {
	db database.DBTX
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db database.DBTX) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// CreateCode stores a new code. Returns ErrDuplicate on a code collision.
func (r *InvitationRepository) CreateCode(ctx context.Context, parentID int64, code string, expiresAt *time.Time, now time.Time) (*models.InvitationCode, error) {
	now = now.UTC()
	query := `INSERT INTO invitation_codes (parent_id, code, expires_at, created_at) VALUES (?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(ctx, query, parentID, code, nullTime(expiresAt), now)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create invitation code: %w", err)
	}

	return &models.InvitationCode{
		ID:        id,
		ParentID:  parentID,
		Code:      code,
		ExpiresAt: timePtr(nullTime(expiresAt)),
		CreatedAt: now,
	}, nil
}

// GetByCode retrieves an invitation by code, or nil if none exists
func (r *InvitationRepository) GetByCode(ctx context.Context, code string) (*models.InvitationCode, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitation_codes WHERE code = ?`
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation code: %w", err)
	}
	return inv, nil
}

// ListUnusedByParent returns a parent's unused codes, newest first.
// Expiry is left to the caller so that time comparison happens in one place.
func (r *InvitationRepository) ListUnusedByParent(ctx context.Context, parentID int64) ([]models.InvitationCode, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitation_codes
		WHERE parent_id = ? AND used_by IS NULL
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, parentID)
}

// ListUnusedWithExpiry returns every unused code that has an expiry
func (r *InvitationRepository) ListUnusedWithExpiry(ctx context.Context) ([]models.InvitationCode, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitation_codes
		WHERE used_by IS NULL AND expires_at IS NOT NULL
		ORDER BY id`
	return r.list(ctx, query)
}

// MarkUsed sets used_by if and only if the code is still unused. Returns
// false when another consumer got there first.
func (r *InvitationRepository) MarkUsed(ctx context.Context, id, userID int64, now time.Time) (bool, error) {
	query := `UPDATE invitation_codes SET used_by = ?, used_at = ? WHERE id = ? AND used_by IS NULL`
	result, err := r.db.ExecContext(ctx, query, userID, now.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark invitation code used: %w", err)
	}
	return affected(result)
}

// DeleteUnused removes an unused code. Used codes are kept as the link record.
func (r *InvitationRepository) DeleteUnused(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitation_codes WHERE id = ? AND used_by IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete invitation code: %w", err)
	}
	return affected(result)
}

func (r *InvitationRepository) list(ctx context.Context, query string, args ...any) ([]models.InvitationCode, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitation codes: %w", err)
	}
	defer rows.Close()

	codes := []models.InvitationCode{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation code: %w", err)
		}
		codes = append(codes, *inv)
	}
	return codes, rows.Err()
}

func scanInvitation(row scanner) (*models.InvitationCode, error) {
	inv := &models.InvitationCode{}
	var usedBy sql.NullInt64
	var usedAt, expiresAt sql.NullTime
	err := row.Scan(&inv.ID, &inv.ParentID, &inv.Code, &usedBy, &usedAt, &expiresAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.UsedBy = int64Ptr(usedBy)
	inv.UsedAt = timePtr(usedAt)
	inv.ExpiresAt = timePtr(expiresAt)
	return inv, nil
}
