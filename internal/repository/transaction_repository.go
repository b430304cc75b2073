package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riteshkumar/terminal-bank/internal/errors"
	"github.com/riteshkumar/terminal-bank/internal/models"
	"github.com/riteshkumar/terminal-bank/internal/store"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *store.Tx, transaction *models.Transaction) error
	GetLatestByAccountID(ctx context.Context, accountID int) (*models.Transaction, error)
	GetByAccountID(ctx context.Context, accountID int) ([]models.Transaction, error)
}

// Display names are joined in on every read, so a renamed account shows its
// current name across its whole history.
const transactionSelect = `SELECT t.id, t.sender_id, t.receiver_id, t.amount, t.created_at,
		CASE WHEN s.id IS NULL THEN ''
			WHEN s.deleted_at IS NOT NULL THEN '` + models.DeletedAccountName + `'
			ELSE s.name END,
		CASE WHEN r.deleted_at IS NOT NULL THEN '` + models.DeletedAccountName + `'
			ELSE r.name END
	FROM transactions t
	LEFT JOIN accounts s ON s.id = t.sender_id
	JOIN accounts r ON r.id = t.receiver_id
	WHERE t.receiver_id = $1 OR t.sender_id = $1`

type SQLTransactionRepository struct {
	db *store.DB
}

func NewTransactionRepository(db *store.DB) *SQLTransactionRepository {
	return &SQLTransactionRepository{db: db}
}

func (r *SQLTransactionRepository) Create(ctx context.Context, tx *store.Tx, transaction *models.Transaction) error {
	query := `INSERT INTO transactions (sender_id, receiver_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := tx.QueryRowContext(ctx, query,
		transaction.FromID,
		transaction.ToID,
		transaction.Amount,
	).Scan(&transaction.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	// Read the timestamp back through the column so the driver types it.
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM transactions WHERE id = $1`, transaction.ID).
		Scan(&transaction.Date)
	if err != nil {
		return fmt.Errorf("failed to read transaction timestamp: %w", err)
	}
	return nil
}

func (r *SQLTransactionRepository) GetLatestByAccountID(ctx context.Context, accountID int) (*models.Transaction, error) {
	query := transactionSelect + `
	ORDER BY t.created_at DESC, t.id DESC
	LIMIT 1`

	transaction, err := scanTransaction(r.db.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get latest transaction: %w", err)
	}
	return transaction, nil
}

// GetByAccountID returns the account's transactions oldest first.
func (r *SQLTransactionRepository) GetByAccountID(ctx context.Context, accountID int) ([]models.Transaction, error) {
	query := transactionSelect + `
	ORDER BY t.created_at ASC, t.id ASC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by account ID: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *transaction)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}
	return transactions, nil
}

func scanTransaction(row store.Row) (*models.Transaction, error) {
	transaction := &models.Transaction{}
	var senderID sql.NullInt64

	err := row.Scan(
		&transaction.ID,
		&senderID,
		&transaction.ToID,
		&transaction.Amount,
		&transaction.Date,
		&transaction.From,
		&transaction.To,
	)
	if err != nil {
		return nil, err
	}

	transaction.FromID = models.InvalidID
	if senderID.Valid {
		transaction.FromID = int(senderID.Int64)
	}
	return transaction, nil
}
