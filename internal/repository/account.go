package repository

import (
	"database/sql"
	"time"

	"wealthlink/internal/database"
	"wealthlink/internal/models"
)

// AccountRepository handles cached account database operations.
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Upsert inserts or updates a cached account.
func (r *AccountRepository) Upsert(account *models.CachedAccount) error {
	_, err := r.db.Exec(`
		INSERT INTO accounts (id, account_type, currency, display_number, synced_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_type = excluded.account_type,
			currency = excluded.currency,
			display_number = excluded.display_number,
			synced_at = excluded.synced_at
	`, account.ID, account.AccountType, account.Currency, account.DisplayNumber, time.Now())
	return err
}

// GetByID retrieves a cached account by ID. Returns nil when not found.
func (r *AccountRepository) GetByID(id string) (*models.CachedAccount, error) {
	row := r.db.QueryRow(`
		SELECT id, account_type, currency, display_number, synced_at
		FROM accounts
		WHERE id = ?
	`, id)

	account := &models.CachedAccount{}
	err := row.Scan(&account.ID, &account.AccountType, &account.Currency,
		&account.DisplayNumber, &account.SyncedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetAll retrieves all cached accounts ordered by type then ID.
func (r *AccountRepository) GetAll() ([]*models.CachedAccount, error) {
	rows, err := r.db.Query(`
		SELECT id, account_type, currency, display_number, synced_at
		FROM accounts
		ORDER BY account_type, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*models.CachedAccount, 0)
	for rows.Next() {
		account := &models.CachedAccount{}
		if err := rows.Scan(&account.ID, &account.AccountType, &account.Currency,
			&account.DisplayNumber, &account.SyncedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// Delete removes a cached account and, via cascade, its holdings and
// transactions.
func (r *AccountRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM accounts WHERE id = ?`, id)
	return err
}

// Count returns the number of cached accounts.
func (r *AccountRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count)
	return count, err
}
