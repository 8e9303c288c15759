package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"kidcoins/internal/models"
	"kidcoins/internal/repository"
)

// LedgerExport is a point-in-time dump of every account with ledger activity
type LedgerExport struct {
	Version      string          `json:"version"`
	ExportedAt   time.Time       `json:"exported_at"`
	DatabaseType string          `json:"database_type"`
	Accounts     []AccountExport `json:"accounts"`
}

// AccountExport is one user's ledger
type AccountExport struct {
	UserID       int64                    `json:"user_id"`
	Email        string                   `json:"email"`
	Name         string                   `json:"name"`
	Role         models.Role              `json:"role"`
	Balance      int64                    `json:"balance"`
	Transactions []models.CoinTransaction `json:"transactions"`
}

// ExportService writes ledger exports for auditing
type ExportService struct {
	core
}

// NewExportService creates a new export service
func NewExportService(opts Options) *ExportService {
	return &ExportService{core: newCore(opts)}
}

// Export writes the ledger export to a file
func (s *ExportService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	return file.Close()
}

// ExportToWriter builds the export in one transaction so balances and
// entries agree, then encodes it to w
func (s *ExportService) ExportToWriter(ctx context.Context, w io.Writer) error {
	export := &LedgerExport{
		Version:      "1.0",
		ExportedAt:   s.now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
		Accounts:     []AccountExport{},
	}

	err := s.inTx(ctx, func(st *repository.Store) error {
		ids, err := st.Ledger.ListUserIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			user, err := st.Users.GetUserByID(ctx, id)
			if err != nil {
				return err
			}
			if user == nil {
				continue
			}
			balance, err := st.Ledger.Balance(ctx, id)
			if err != nil {
				return err
			}
			txs, err := st.Ledger.ListByUser(ctx, id, 0)
			if err != nil {
				return err
			}
			export.Accounts = append(export.Accounts, AccountExport{
				UserID:       user.ID,
				Email:        user.Email,
				Name:         user.Name,
				Role:         user.Role,
				Balance:      balance,
				Transactions: txs,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to export ledger: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// Stats returns row counts for the admin overview
func (s *ExportService) Stats(ctx context.Context) (*repository.TableCounts, error) {
	var counts *repository.TableCounts
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		counts, err = st.CountRows(ctx)
		return err
	})
	return counts, err
}
