package repository

import (
	"context"
	"fmt"
	"time"

	"kidcoins/internal/database"
	"kidcoins/internal/models"
)

// FamilyRepository handles parent/child links
type FamilyRepository struct {
	db database.DBTX
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db database.DBTX) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// CreateRelation links a parent to a child. Returns ErrDuplicate when the
// pair is already linked.
func (r *FamilyRepository) CreateRelation(ctx context.Context, parentID, childID int64, now time.Time) (*models.FamilyRelation, error) {
	now = now.UTC()
	query := `INSERT INTO family_relations (parent_id, child_id, created_at) VALUES (?, ?, ?)`
	id, err := r.db.ExecReturningID(ctx, query, parentID, childID, now)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create family relation: %w", err)
	}

	return &models.FamilyRelation{
		ID:        id,
		ParentID:  parentID,
		ChildID:   childID,
		CreatedAt: now,
	}, nil
}

// IsLinked reports whether the parent and child are linked
func (r *FamilyRepository) IsLinked(ctx context.Context, parentID, childID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM family_relations WHERE parent_id = ? AND child_id = ?`
	if err := r.db.QueryRowContext(ctx, query, parentID, childID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check family relation: %w", err)
	}
	return count > 0, nil
}

// GetChildren returns the children linked to a parent
func (r *FamilyRepository) GetChildren(ctx context.Context, parentID int64) ([]models.User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.name, u.role, u.current_streak, u.last_streak_update, u.created_at, u.updated_at
		FROM users u
		JOIN family_relations fr ON fr.child_id = u.id
		WHERE fr.parent_id = ?
		ORDER BY u.name, u.id
	`
	return r.listUsers(ctx, query, parentID)
}

// GetParents returns the parents linked to a child
func (r *FamilyRepository) GetParents(ctx context.Context, childID int64) ([]models.User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.name, u.role, u.current_streak, u.last_streak_update, u.created_at, u.updated_at
		FROM users u
		JOIN family_relations fr ON fr.parent_id = u.id
		WHERE fr.child_id = ?
		ORDER BY u.name, u.id
	`
	return r.listUsers(ctx, query, childID)
}

// CountRelations returns how many children a parent has linked
func (r *FamilyRepository) CountRelations(ctx context.Context, parentID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM family_relations WHERE parent_id = ?`
	if err := r.db.QueryRowContext(ctx, query, parentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count family relations: %w", err)
	}
	return count, nil
}

func (r *FamilyRepository) listUsers(ctx context.Context, query string, id int64) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
