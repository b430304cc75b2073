package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/riteshkumar/terminal-bank/internal/errors"
	"github.com/riteshkumar/terminal-bank/internal/models"
	"github.com/riteshkumar/terminal-bank/internal/repository"
	"github.com/riteshkumar/terminal-bank/internal/store"
)

type TransactionService interface {
	CreateTransaction(ctx context.Context, amount, fromID, toID int) (*models.Transaction, error)
	GetLatestTransaction(ctx context.Context, userID int) (models.Transaction, error)
	GetTransactions(ctx context.Context, userID int) ([]models.Transaction, error)

	Deposit(ctx context.Context, reserveID, accountID, amount int) (*models.Transaction, error)
	Withdraw(ctx context.Context, reserveID, accountID, amount int) (*models.Transaction, error)
	Transfer(ctx context.Context, fromID int, toName string, amount int) (*models.Transaction, error)
}

type TransactionServiceImpl struct {
	db              *store.DB
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	logger          *slog.Logger
}

func NewTransactionService(db *store.DB, accountRepo repository.AccountRepository, transactionRepo repository.TransactionRepository, logger *slog.Logger) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// CreateTransaction moves amount from one account to another and records it.
// Both balance changes and the log row are written in one database
// transaction; nothing is kept if any step fails. The ledger itself does not
// check the sender's balance since the reserve account may go negative.
func (s *TransactionServiceImpl) CreateTransaction(ctx context.Context, amount, fromID, toID int) (*models.Transaction, error) {
	if amount < models.MinAmount {
		s.logger.Warn("invalid transaction amount",
			"from_account_id", fromID,
			"to_account_id", toID,
			"amount", amount,
		)
		return nil, errors.ErrInvalidAmount
	}

	transaction := &models.Transaction{
		FromID: fromID,
		ToID:   toID,
		Amount: amount,
	}

	err := s.db.WithTx(ctx, func(tx *store.Tx) error {
		sender, err := s.accountRepo.GetAccountByIDForUpdate(ctx, tx, fromID)
		if err != nil {
			if errors.IsNotFound(err) {
				return fmt.Errorf("sender account: %w", err)
			}
			return errors.NewTransactionError("get sender account", err)
		}

		receiver, err := s.accountRepo.GetAccountByIDForUpdate(ctx, tx, toID)
		if err != nil {
			if errors.IsNotFound(err) {
				return fmt.Errorf("receiver account: %w", err)
			}
			return errors.NewTransactionError("get receiver account", err)
		}

		// SQLite stores an overflowing integer sum as REAL, leaving the row unreadable.
		if sender.Balance < math.MinInt+amount || receiver.Balance > math.MaxInt-amount {
			return errors.ErrBalanceOverflow
		}

		if err := s.accountRepo.AdjustAccountBalance(ctx, tx, sender.ID, -amount); err != nil {
			return errors.NewTransactionError("update sender balance", err)
		}
		if err := s.accountRepo.AdjustAccountBalance(ctx, tx, receiver.ID, amount); err != nil {
			return errors.NewTransactionError("update receiver balance", err)
		}

		if err := s.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return errors.NewTransactionError("create transaction record", err)
		}

		transaction.From = sender.Name
		transaction.To = receiver.Name
		return nil
	})
	if err != nil {
		switch {
		case errors.IsNotFound(err):
			s.logger.Warn("one or both of the accounts does not exist",
				"from_account_id", fromID,
				"to_account_id", toID,
			)
		case errors.Is(err, errors.ErrBalanceOverflow):
			s.logger.Warn("transaction would overflow a balance",
				"from_account_id", fromID,
				"to_account_id", toID,
				"amount", amount,
			)
		default:
			s.logger.Error("failed to create transaction",
				"from_account_id", fromID,
				"to_account_id", toID,
				"amount", amount,
				"error", err.Error(),
			)
		}
		return nil, err
	}

	s.logger.Info("transaction created",
		"transaction_id", transaction.ID,
		"from_account_id", fromID,
		"to_account_id", toID,
		"amount", amount,
	)
	return transaction, nil
}

// GetLatestTransaction returns the sentinel transaction when the account has
// none. A missing account is only logged.
func (s *TransactionServiceImpl) GetLatestTransaction(ctx context.Context, userID int) (models.Transaction, error) {
	s.warnIfMissing(ctx, userID)

	transaction, err := s.transactionRepo.GetLatestByAccountID(ctx, userID)
	if err != nil {
		if errors.Is(err, errors.ErrTransactionNotFound) {
			return models.NotFoundTransaction(), nil
		}
		s.logger.Error("failed to get latest transaction", "account_id", userID, "error", err.Error())
		return models.NotFoundTransaction(), err
	}
	return *transaction, nil
}

// GetTransactions returns every transaction involving the account, oldest first.
func (s *TransactionServiceImpl) GetTransactions(ctx context.Context, userID int) ([]models.Transaction, error) {
	s.warnIfMissing(ctx, userID)

	transactions, err := s.transactionRepo.GetByAccountID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get transactions", "account_id", userID, "error", err.Error())
		return nil, err
	}
	return transactions, nil
}

func (s *TransactionServiceImpl) Deposit(ctx context.Context, reserveID, accountID, amount int) (*models.Transaction, error) {
	if accountID == reserveID {
		return nil, errors.ErrReserveAccount
	}
	return s.CreateTransaction(ctx, amount, reserveID, accountID)
}

// Withdraw rejects amounts above the current balance before touching the ledger.
func (s *TransactionServiceImpl) Withdraw(ctx context.Context, reserveID, accountID, amount int) (*models.Transaction, error) {
	if accountID == reserveID {
		return nil, errors.ErrReserveAccount
	}

	account, err := s.accountRepo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if amount > account.Balance {
		s.logger.Warn("insufficient balance for withdrawal",
			"account_id", accountID,
			"available_balance", account.Balance,
			"requested_amount", amount,
		)
		return nil, errors.ErrInsufficentBalance
	}
	return s.CreateTransaction(ctx, amount, accountID, reserveID)
}

// Transfer sends amount to the account named toName.
func (s *TransactionServiceImpl) Transfer(ctx context.Context, fromID int, toName string, amount int) (*models.Transaction, error) {
	receiver, err := s.accountRepo.GetAccountByName(ctx, toName)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Warn("transfer to unknown account", "from_account_id", fromID, "to_name", toName)
		}
		return nil, err
	}
	if receiver.ID == fromID {
		return nil, errors.ErrSameAccount
	}

	sender, err := s.accountRepo.GetAccountByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	if amount > sender.Balance {
		s.logger.Warn("insufficient balance in source account",
			"from_account_id", fromID,
			"available_balance", sender.Balance,
			"requested_amount", amount,
		)
		return nil, errors.ErrInsufficentBalance
	}

	return s.CreateTransaction(ctx, amount, fromID, receiver.ID)
}

func (s *TransactionServiceImpl) warnIfMissing(ctx context.Context, id int) {
	exists, err := s.accountRepo.AccountExists(ctx, id)
	if err == nil && !exists {
		s.logger.Warn("account does not exist", "account_id", id)
	}
}
