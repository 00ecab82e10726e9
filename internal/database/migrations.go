package database

// Schema migrations. All statements are idempotent (CREATE ... IF NOT
// EXISTS) so they can run on every startup.

const migrationCredentials = `
CREATE TABLE IF NOT EXISTS credentials (
	key        TEXT PRIMARY KEY,
	ciphertext TEXT NOT NULL,
	nonce      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationAccounts = `
CREATE TABLE IF NOT EXISTS accounts (
	id             TEXT PRIMARY KEY,
	account_type   TEXT NOT NULL,
	currency       TEXT NOT NULL,
	display_number TEXT NOT NULL DEFAULT '',
	synced_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationHoldings = `
CREATE TABLE IF NOT EXISTS holdings (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id     TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	symbol         TEXT NOT NULL,
	name           TEXT NOT NULL DEFAULT '',
	security_type  TEXT NOT NULL DEFAULT '',
	quantity       TEXT NOT NULL,
	currency       TEXT NOT NULL DEFAULT '',
	price_amount   TEXT NOT NULL DEFAULT '',
	price_currency TEXT NOT NULL DEFAULT '',
	value_amount   TEXT NOT NULL DEFAULT '',
	value_currency TEXT NOT NULL DEFAULT '',
	synced_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
	id                    TEXT PRIMARY KEY,
	account_id            TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	type                  TEXT NOT NULL,
	description           TEXT NOT NULL DEFAULT '',
	symbol                TEXT NOT NULL DEFAULT '',
	quantity              TEXT NOT NULL DEFAULT '',
	market_price_amount   TEXT NOT NULL DEFAULT '',
	market_price_currency TEXT NOT NULL DEFAULT '',
	market_value_amount   TEXT NOT NULL DEFAULT '',
	market_value_currency TEXT NOT NULL DEFAULT '',
	net_cash_amount       TEXT NOT NULL,
	net_cash_currency     TEXT NOT NULL,
	fx_rate               TEXT NOT NULL DEFAULT '1.0',
	effective_date        DATETIME NOT NULL,
	process_date          DATETIME NOT NULL,
	synced_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationSyncHistory = `
CREATE TABLE IF NOT EXISTS sync_history (
	id                  TEXT PRIMARY KEY,
	started_at          DATETIME NOT NULL,
	finished_at         DATETIME,
	status              TEXT NOT NULL DEFAULT 'running',
	accounts_synced     INTEGER NOT NULL DEFAULT 0,
	holdings_synced     INTEGER NOT NULL DEFAULT 0,
	transactions_synced INTEGER NOT NULL DEFAULT 0,
	error               TEXT NOT NULL DEFAULT ''
);
`

const migrationIndexes = `
CREATE INDEX IF NOT EXISTS idx_holdings_account ON holdings(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_effective ON transactions(effective_date);
CREATE INDEX IF NOT EXISTS idx_sync_history_started ON sync_history(started_at);
`
