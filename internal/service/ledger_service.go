package service

import (
	"context"
	"strings"

	"kidcoins/internal/apperr"
	"kidcoins/internal/events"
	"kidcoins/internal/models"
	"kidcoins/internal/repository"

	"github.com/sirupsen/logrus"
)

// LedgerService exposes the append-only coin ledger. Balances are always
// summed from the log.
type LedgerService struct {
	core
}

// NewLedgerService creates a new ledger service
func NewLedgerService(opts Options) *LedgerService {
	return &LedgerService{core: newCore(opts)}
}

// BalanceSummary is a child's ledger balance next to coins reserved by
// pending redemptions
type BalanceSummary struct {
	Balance   int64 `json:"balance"`
	Pending   int64 `json:"pending"`
	Available int64 `json:"available"`
}

// Append posts one entry and returns its ID. The caller is responsible for
// business validation; only a zero amount is refused.
func (s *LedgerService) Append(ctx context.Context, userID, amount int64, txType models.TransactionType, relatedID *int64, description string) (int64, error) {
	if amount == 0 {
		return 0, apperr.Validation("amount must not be zero")
	}

	var id int64
	err := s.inTx(ctx, func(st *repository.Store) error {
		var err error
		id, err = s.appendEntry(ctx, st, repository.NewTransaction(userID, amount, txType, relatedID, description, s.now()))
		return err
	})
	return id, err
}

// Balance returns the sum of every transaction of userID
func (s *LedgerService) Balance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := s.read(ctx, func(st *repository.Store) error {
		user, err := st.Users.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperr.NotFound("user %d not found", userID)
		}
		balance, err = st.Ledger.Balance(ctx, userID)
		return err
	})
	return balance, err
}

// Summary returns the balance view of a child the actor may see
func (s *LedgerService) Summary(ctx context.Context, actor Actor, childID int64) (*BalanceSummary, error) {
	var summary *BalanceSummary
	err := s.read(ctx, func(st *repository.Store) error {
		if _, err := getChild(ctx, st, childID); err != nil {
			return err
		}
		if err := requireChildAccess(ctx, st, actor, childID); err != nil {
			return err
		}
		var err error
		summary, err = balanceSummary(ctx, st, childID)
		return err
	})
	return summary, err
}

func balanceSummary(ctx context.Context, st *repository.Store, childID int64) (*BalanceSummary, error) {
	balance, err := st.Ledger.Balance(ctx, childID)
	if err != nil {
		return nil, err
	}
	pending, err := st.Redemptions.PendingTotal(ctx, childID)
	if err != nil {
		return nil, err
	}
	return &BalanceSummary{Balance: balance, Pending: pending, Available: balance - pending}, nil
}

// Transactions lists a user's ledger entries, newest first
func (s *LedgerService) Transactions(ctx context.Context, actor Actor, userID int64, limit int) ([]models.CoinTransaction, error) {
	var txs []models.CoinTransaction
	err := s.read(ctx, func(st *repository.Store) error {
		if err := requireChildAccess(ctx, st, actor, userID); err != nil {
			return err
		}
		var err error
		txs, err = st.Ledger.ListByUser(ctx, userID, limit)
		return err
	})
	return txs, err
}

// Adjust posts a manual correction for a child. Only an admin or a linked
// parent may adjust, and a debit may not take the available balance below
// zero.
func (s *LedgerService) Adjust(ctx context.Context, actor Actor, childID, amount int64, description string) (*models.CoinTransaction, error) {
	if amount == 0 {
		return nil, s.refused("adjust", apperr.Validation("amount must not be zero"))
	}
	if err := requireRole(actor, models.RoleAdmin, models.RoleParent); err != nil {
		return nil, s.refused("adjust", err)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = "Manual adjustment"
	}

	now := s.now()
	var entry models.CoinTransaction
	err := s.inTx(ctx, func(st *repository.Store) error {
		// Lock before any read so the balance check sees committed redemptions.
		if err := lockUser(ctx, st, childID); err != nil {
			return err
		}
		if _, err := getChild(ctx, st, childID); err != nil {
			return err
		}
		if err := requireChildAccess(ctx, st, actor, childID); err != nil {
			return err
		}

		if amount < 0 {
			summary, err := balanceSummary(ctx, st, childID)
			if err != nil {
				return err
			}
			if summary.Available+amount < 0 {
				return apperr.New(apperr.KindInsufficientFunds,
					"adjustment of %d exceeds available balance of %d", amount, summary.Available)
			}
		}

		actorID := actor.ID
		entry = repository.NewTransaction(childID, amount, models.TxManualAdjustment, &actorID, description, now)
		id, err := s.appendEntry(ctx, st, entry)
		if err != nil {
			return err
		}
		entry.ID = id
		return nil
	})
	if err != nil {
		return nil, s.refused("adjust", err)
	}

	s.log.WithFields(logrus.Fields{
		"child_id": childID,
		"actor_id": actor.ID,
		"amount":   amount,
	}).Info("coins adjusted")
	s.publish(ctx, events.Event{Type: events.CoinsAdjusted, UserID: childID, SubjectID: entry.ID, Amount: amount})
	return &entry, nil
}
