// Package models contains the persistence models for cached broker data.
package models

import "time"

// CachedAccount is a locally cached snapshot of a brokerage account.
type CachedAccount struct {
	ID            string    `json:"id"`
	AccountType   string    `json:"account_type"`
	Currency      string    `json:"currency"`
	DisplayNumber string    `json:"display_number,omitempty"`
	SyncedAt      time.Time `json:"synced_at"`
}

// Holding is a cached position snapshot. All numeric fields are
// decimal-preserving text.
type Holding struct {
	ID            int64     `json:"id"`
	AccountID     string    `json:"account_id"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name,omitempty"`
	SecurityType  string    `json:"security_type,omitempty"`
	Quantity      string    `json:"quantity"`
	Currency      string    `json:"currency,omitempty"`
	PriceAmount   string    `json:"price_amount,omitempty"`
	PriceCurrency string    `json:"price_currency,omitempty"`
	ValueAmount   string    `json:"value_amount,omitempty"`
	ValueCurrency string    `json:"value_currency,omitempty"`
	SyncedAt      time.Time `json:"synced_at"`
}

// CachedTransaction is a cached transaction record.
type CachedTransaction struct {
	ID                  string    `json:"id"`
	AccountID           string    `json:"account_id"`
	Type                string    `json:"type"`
	Description         string    `json:"description,omitempty"`
	Symbol              string    `json:"symbol,omitempty"`
	Quantity            string    `json:"quantity,omitempty"`
	MarketPriceAmount   string    `json:"market_price_amount,omitempty"`
	MarketPriceCurrency string    `json:"market_price_currency,omitempty"`
	MarketValueAmount   string    `json:"market_value_amount,omitempty"`
	MarketValueCurrency string    `json:"market_value_currency,omitempty"`
	NetCashAmount       string    `json:"net_cash_amount"`
	NetCashCurrency     string    `json:"net_cash_currency"`
	FXRate              string    `json:"fx_rate"`
	EffectiveDate       time.Time `json:"effective_date"`
	ProcessDate         time.Time `json:"process_date"`
	SyncedAt            time.Time `json:"synced_at"`
}

// SyncRun records one synchronization attempt.
type SyncRun struct {
	ID                 string     `json:"id"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	Status             string     `json:"status"`
	AccountsSynced     int        `json:"accounts_synced"`
	HoldingsSynced     int        `json:"holdings_synced"`
	TransactionsSynced int        `json:"transactions_synced"`
	Error              string     `json:"error,omitempty"`
}

// Sync run statuses.
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)
