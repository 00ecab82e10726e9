package repository

import (
	"database/sql"
	"time"

	"wealthlink/internal/database"
	"wealthlink/internal/models"
)

// SyncHistoryRepository handles sync run database operations.
type SyncHistoryRepository struct {
	db *database.DB
}

// NewSyncHistoryRepository creates a new SyncHistoryRepository.
func NewSyncHistoryRepository(db *database.DB) *SyncHistoryRepository {
	return &SyncHistoryRepository{db: db}
}

// Start records a new running sync.
func (r *SyncHistoryRepository) Start(id string, startedAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO sync_history (id, started_at, status)
		VALUES (?, ?, ?)
	`, id, startedAt, models.SyncStatusRunning)
	return err
}

// Complete marks a sync as successful with its counters.
func (r *SyncHistoryRepository) Complete(id string, accounts, holdings, transactions int) error {
	_, err := r.db.Exec(`
		UPDATE sync_history
		SET status = ?, accounts_synced = ?, holdings_synced = ?, transactions_synced = ?, finished_at = ?
		WHERE id = ?
	`, models.SyncStatusSuccess, accounts, holdings, transactions, time.Now(), id)
	return err
}

// Fail marks a sync as failed with an error message.
func (r *SyncHistoryRepository) Fail(id string, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE sync_history
		SET status = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, models.SyncStatusFailed, errorMsg, time.Now(), id)
	return err
}

// GetRecent retrieves the most recent sync runs, newest first.
func (r *SyncHistoryRepository) GetRecent(limit int) ([]*models.SyncRun, error) {
	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, status, accounts_synced, holdings_synced, transactions_synced, error
		FROM sync_history
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*models.SyncRun, 0)
	for rows.Next() {
		run := &models.SyncRun{}
		var finishedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.StartedAt, &finishedAt, &run.Status,
			&run.AccountsSynced, &run.HoldingsSynced, &run.TransactionsSynced, &run.Error); err != nil {
			return nil, err
		}
		if finishedAt.Valid {
			run.FinishedAt = &finishedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetLatest retrieves the most recent sync run, or nil when none exists.
func (r *SyncHistoryRepository) GetLatest() (*models.SyncRun, error) {
	run := &models.SyncRun{}
	var finishedAt sql.NullTime
	err := r.db.QueryRow(`
		SELECT id, started_at, finished_at, status, accounts_synced, holdings_synced, transactions_synced, error
		FROM sync_history
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &finishedAt, &run.Status,
		&run.AccountsSynced, &run.HoldingsSynced, &run.TransactionsSynced, &run.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return run, nil
}

// DeleteOlderThan removes sync runs that started before the given time.
func (r *SyncHistoryRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sync_history WHERE started_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
