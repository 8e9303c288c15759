package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kidcoins/internal/database"
)

// ErrDuplicate is returned when an insert hits a unique constraint
var ErrDuplicate = errors.New("duplicate record")

// Store groups the typed repositories over a single connection or
// transaction. Build one inside database.DB.WithTx to make several
// repository calls atomic.
type Store struct {
	Users       *UserRepository
	Families    *FamilyRepository
	Invitations *InvitationRepository
	Missions    *MissionRepository
	Rewards     *RewardRepository
	Ledger      *LedgerRepository
	Redemptions *RedemptionRepository

	db database.DBTX
}

// NewStore creates all repositories over q
func NewStore(q database.DBTX) *Store {
	return &Store{
		Users:       NewUserRepository(q),
		Families:    NewFamilyRepository(q),
		Invitations: NewInvitationRepository(q),
		Missions:    NewMissionRepository(q),
		Rewards:     NewRewardRepository(q),
		Ledger:      NewLedgerRepository(q),
		Redemptions: NewRedemptionRepository(q),
		db:          q,
	}
}

// TableCounts holds row counts for the admin overview
type TableCounts struct {
	Users        int64 `json:"users"`
	Relations    int64 `json:"familyRelations"`
	Missions     int64 `json:"missions"`
	Rewards      int64 `json:"rewards"`
	Transactions int64 `json:"coinTransactions"`
	Redemptions  int64 `json:"redemptions"`
}

// CountRows counts the rows of every domain table
func (s *Store) CountRows(ctx context.Context) (*TableCounts, error) {
	counts := &TableCounts{}
	targets := []struct {
		table string
		dest  *int64
	}{
		{"users", &counts.Users},
		{"family_relations", &counts.Relations},
		{"missions", &counts.Missions},
		{"rewards", &counts.Rewards},
		{"coin_transactions", &counts.Transactions},
		{"redeemed_rewards", &counts.Redemptions},
	}
	for _, target := range targets {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+target.table).Scan(target.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", target.table, err)
		}
	}
	return counts, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
