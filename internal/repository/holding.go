package repository

import (
	"time"

	"wealthlink/internal/database"
	"wealthlink/internal/models"
)

// HoldingRepository handles cached holding database operations.
type HoldingRepository struct {
	db *database.DB
}

// NewHoldingRepository creates a new HoldingRepository.
func NewHoldingRepository(db *database.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// ReplaceForAccount replaces all holdings of one account with a fresh
// snapshot in a single transaction.
func (r *HoldingRepository) ReplaceForAccount(accountID string, holdings []*models.Holding) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM holdings WHERE account_id = ?`, accountID); err != nil {
		return err
	}

	now := time.Now()
	for _, h := range holdings {
		_, err := tx.Exec(`
			INSERT INTO holdings (account_id, symbol, name, security_type, quantity,
				currency, price_amount, price_currency, value_amount, value_currency, synced_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, accountID, h.Symbol, h.Name, h.SecurityType, h.Quantity,
			h.Currency, h.PriceAmount, h.PriceCurrency, h.ValueAmount, h.ValueCurrency, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByAccountID retrieves all holdings for an account ordered by symbol.
func (r *HoldingRepository) GetByAccountID(accountID string) ([]*models.Holding, error) {
	rows, err := r.db.Query(`
		SELECT id, account_id, symbol, name, security_type, quantity,
			currency, price_amount, price_currency, value_amount, value_currency, synced_at
		FROM holdings
		WHERE account_id = ?
		ORDER BY symbol
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings := make([]*models.Holding, 0)
	for rows.Next() {
		h := &models.Holding{}
		if err := rows.Scan(&h.ID, &h.AccountID, &h.Symbol, &h.Name, &h.SecurityType,
			&h.Quantity, &h.Currency, &h.PriceAmount, &h.PriceCurrency,
			&h.ValueAmount, &h.ValueCurrency, &h.SyncedAt); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// CountByAccountID returns the number of holdings for an account.
func (r *HoldingRepository) CountByAccountID(accountID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM holdings WHERE account_id = ?`, accountID).Scan(&count)
	return count, err
}
