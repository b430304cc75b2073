package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riteshkumar/terminal-bank/internal/errors"
	"github.com/riteshkumar/terminal-bank/internal/models"
	"github.com/riteshkumar/terminal-bank/internal/store"
)

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	SoftDeleteAccount(ctx context.Context, id int) error
	UpdateName(ctx context.Context, id int, name string) error
	UpdateAge(ctx context.Context, id int, age int) error
	UpdateBalance(ctx context.Context, id int, balance int) error
	UpdatePasswordHash(ctx context.Context, id int, hash string) error
	GetAccountByID(ctx context.Context, id int) (*models.Account, error)
	GetAccountByName(ctx context.Context, name string) (*models.Account, error)
	GetAccountByIDForUpdate(ctx context.Context, tx *store.Tx, id int) (*models.Account, error)
	AdjustAccountBalance(ctx context.Context, tx *store.Tx, id int, delta int) error
	SelectAccounts(ctx context.Context, field models.Field, op models.Operator, value int) ([]models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	AccountExists(ctx context.Context, id int) (bool, error)
}

const accountColumns = `id, name, password_hash, age, balance, deleted_at`

type SQLAccountRepository struct {
	db *store.DB
}

func NewAccountRepository(db *store.DB) *SQLAccountRepository {
	return &SQLAccountRepository{db: db}
}

func (r *SQLAccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (name, password_hash, age, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		account.Name,
		account.PasswordHash,
		account.Age,
		account.Balance,
	).Scan(&account.ID)
	if err != nil {
		account.ID = models.InvalidID
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// SoftDeleteAccount hides the account from every lookup while keeping the
// row, so historical transactions still reference an existing account.
func (r *SQLAccountRepository) SoftDeleteAccount(ctx context.Context, id int) error {
	query := `UPDATE accounts SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after deleting account: %w", err)
	}
	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}
	return nil
}

func (r *SQLAccountRepository) UpdateName(ctx context.Context, id int, name string) error {
	return r.update(ctx, "name", name, id)
}

func (r *SQLAccountRepository) UpdateAge(ctx context.Context, id int, age int) error {
	return r.update(ctx, "age", age, id)
}

func (r *SQLAccountRepository) UpdateBalance(ctx context.Context, id int, balance int) error {
	return r.update(ctx, "balance", balance, id)
}

func (r *SQLAccountRepository) UpdatePasswordHash(ctx context.Context, id int, hash string) error {
	return r.update(ctx, "password_hash", hash, id)
}

// update sets a single column by id. Callers pass the column as a constant;
// an unknown id is a silent no-op.
func (r *SQLAccountRepository) update(ctx context.Context, column string, value any, id int) error {
	query := `UPDATE accounts SET ` + column + ` = $1 WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, value, id); err != nil {
		return fmt.Errorf("failed to update account %s: %w", column, err)
	}
	return nil
}

func (r *SQLAccountRepository) GetAccountByID(ctx context.Context, id int) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND deleted_at IS NULL`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}
	return account, nil
}

func (r *SQLAccountRepository) GetAccountByName(ctx context.Context, name string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE name = $1 AND deleted_at IS NULL
		ORDER BY id LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by name: %w", err)
	}
	return account, nil
}

func (r *SQLAccountRepository) GetAccountByIDForUpdate(ctx context.Context, tx *store.Tx, id int) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND deleted_at IS NULL`
	if tx.Dialect() == store.DialectPostgres {
		query += ` FOR UPDATE`
	}

	account, err := scanAccount(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID for update: %w", err)
	}
	return account, nil
}

// AdjustAccountBalance adds delta to the stored balance in one statement.
func (r *SQLAccountRepository) AdjustAccountBalance(ctx context.Context, tx *store.Tx, id int, delta int) error {
	query := `UPDATE accounts SET balance = balance + $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := tx.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating account balance: %w", err)
	}
	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}
	return nil
}

// SelectAccounts filters on field using op. Both are checked against their
// allow-lists before being written into the statement.
func (r *SQLAccountRepository) SelectAccounts(ctx context.Context, field models.Field, op models.Operator, value int) ([]models.Account, error) {
	if !field.Valid() {
		return nil, errors.ErrInvalidField
	}
	if !op.Valid() {
		return nil, errors.ErrInvalidOperator
	}

	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE ` + string(field) + ` ` + string(op) + ` $1 AND deleted_at IS NULL
		ORDER BY id`

	return r.queryAccounts(ctx, query, value)
}

func (r *SQLAccountRepository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE deleted_at IS NULL ORDER BY id`
	return r.queryAccounts(ctx, query)
}

func (r *SQLAccountRepository) AccountExists(ctx context.Context, id int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check if account exists: %w", err)
	}
	return exists, nil
}

func (r *SQLAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(row store.Row) (*models.Account, error) {
	account := &models.Account{}
	var deletedAt sql.NullTime

	err := row.Scan(&account.ID, &account.Name, &account.PasswordHash, &account.Age, &account.Balance, &deletedAt)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		account.DeletedAt = &deletedAt.Time
	}
	return account, nil
}
