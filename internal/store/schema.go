package store

func schema(d Dialect) []string {
	if d == DialectPostgres {
		return postgresSchema
	}
	return sqliteSchema
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		age           INTEGER NOT NULL,
		balance       INTEGER NOT NULL,
		deleted_at    DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id   INTEGER REFERENCES accounts(id),
		receiver_id INTEGER NOT NULL REFERENCES accounts(id),
		amount      INTEGER NOT NULL CHECK (amount >= 1),
		created_at  DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_name ON accounts (name)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions (sender_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_receiver ON transactions (receiver_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            SERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		age           INTEGER NOT NULL,
		balance       BIGINT NOT NULL,
		deleted_at    TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id          SERIAL PRIMARY KEY,
		sender_id   INTEGER REFERENCES accounts(id),
		receiver_id INTEGER NOT NULL REFERENCES accounts(id),
		amount      BIGINT NOT NULL CHECK (amount >= 1),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_name ON accounts (name)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions (sender_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_receiver ON transactions (receiver_id)`,
}
