package repository

import (
	"database/sql"
	"time"

	"wealthlink/internal/database"
	"wealthlink/internal/models"
)

// TransactionRepository handles cached transaction database operations.
type TransactionRepository struct {
	db *database.DB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, account_id, type, description, symbol, quantity,
	market_price_amount, market_price_currency, market_value_amount, market_value_currency,
	net_cash_amount, net_cash_currency, fx_rate, effective_date, process_date, synced_at`

// Upsert inserts or updates a cached transaction keyed by its broker ID.
func (r *TransactionRepository) Upsert(t *models.CachedTransaction) error {
	_, err := r.db.Exec(`
		INSERT INTO transactions (id, account_id, type, description, symbol, quantity,
			market_price_amount, market_price_currency, market_value_amount, market_value_currency,
			net_cash_amount, net_cash_currency, fx_rate, effective_date, process_date, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			type = excluded.type,
			description = excluded.description,
			symbol = excluded.symbol,
			quantity = excluded.quantity,
			market_price_amount = excluded.market_price_amount,
			market_price_currency = excluded.market_price_currency,
			market_value_amount = excluded.market_value_amount,
			market_value_currency = excluded.market_value_currency,
			net_cash_amount = excluded.net_cash_amount,
			net_cash_currency = excluded.net_cash_currency,
			fx_rate = excluded.fx_rate,
			effective_date = excluded.effective_date,
			process_date = excluded.process_date,
			synced_at = excluded.synced_at
	`, t.ID, t.AccountID, t.Type, t.Description, t.Symbol, t.Quantity,
		t.MarketPriceAmount, t.MarketPriceCurrency, t.MarketValueAmount, t.MarketValueCurrency,
		t.NetCashAmount, t.NetCashCurrency, t.FXRate, t.EffectiveDate, t.ProcessDate, time.Now())
	return err
}

// GetByID retrieves a cached transaction by ID. Returns nil when not found.
func (r *TransactionRepository) GetByID(id string) (*models.CachedTransaction, error) {
	row := r.db.QueryRow(`
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ?
	`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByAccountID retrieves transactions for an account, newest first.
// A zero limit returns all rows.
func (r *TransactionRepository) GetByAccountID(accountID string, limit int) ([]*models.CachedTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = ?
		ORDER BY effective_date DESC, id`
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*models.CachedTransaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// CountByAccountID returns the number of cached transactions for an account.
func (r *TransactionRepository) CountByAccountID(accountID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = ?`, accountID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.CachedTransaction, error) {
	t := &models.CachedTransaction{}
	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Type,
		&t.Description,
		&t.Symbol,
		&t.Quantity,
		&t.MarketPriceAmount,
		&t.MarketPriceCurrency,
		&t.MarketValueAmount,
		&t.MarketValueCurrency,
		&t.NetCashAmount,
		&t.NetCashCurrency,
		&t.FXRate,
		&t.EffectiveDate,
		&t.ProcessDate,
		&t.SyncedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
