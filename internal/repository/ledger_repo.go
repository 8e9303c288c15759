package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kidcoins/internal/database"
	"kidcoins/internal/models"
)

// LedgerRepository reads and appends coin transactions. There is no
// update or delete: corrections are offsetting entries.
type LedgerRepository struct {
	db database.DBTX
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db database.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append posts a transaction and returns its ID
func (r *LedgerRepository) Append(ctx context.Context, tx models.CoinTransaction) (int64, error) {
	query := `
		INSERT INTO coin_transactions (user_id, amount, type, related_id, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		tx.UserID, tx.Amount, string(tx.Type), nullInt64(tx.RelatedID), tx.Description, tx.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to append coin transaction: %w", err)
	}
	return id, nil
}

// Balance sums every transaction of a user
func (r *LedgerRepository) Balance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	query := `SELECT COALESCE(SUM(amount), 0) FROM coin_transactions WHERE user_id = ?`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}
	return balance, nil
}

// ListByUser returns a user's transactions, newest first. A limit of 0
// returns all of them.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.CoinTransaction, error) {
	query := `
		SELECT id, user_id, amount, type, related_id, description, created_at
		FROM coin_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list coin transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.CoinTransaction{}
	for rows.Next() {
		var tx models.CoinTransaction
		var txType string
		var relatedID sql.NullInt64
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &txType, &relatedID, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan coin transaction: %w", err)
		}
		tx.Type = models.TransactionType(txType)
		tx.RelatedID = int64Ptr(relatedID)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// CountByRelated counts entries of a type pointing at a related row
func (r *LedgerRepository) CountByRelated(ctx context.Context, txType models.TransactionType, relatedID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM coin_transactions WHERE type = ? AND related_id = ?`
	if err := r.db.QueryRowContext(ctx, query, string(txType), relatedID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count coin transactions: %w", err)
	}
	return count, nil
}

// ListUserIDs returns every user that has at least one transaction
func (r *LedgerRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM coin_transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger users: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ledger user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// NewTransaction builds an entry stamped with now
func NewTransaction(userID, amount int64, txType models.TransactionType, relatedID *int64, description string, now time.Time) models.CoinTransaction {
	return models.CoinTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		RelatedID:   relatedID,
		Description: description,
		CreatedAt:   now.UTC(),
	}
}
