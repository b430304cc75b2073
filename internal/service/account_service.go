package service

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/riteshkumar/terminal-bank/internal/auth"
	"github.com/riteshkumar/terminal-bank/internal/errors"
	"github.com/riteshkumar/terminal-bank/internal/models"
	"github.com/riteshkumar/terminal-bank/internal/repository"
)

type AccountService interface {
	CreateAccount(ctx context.Context, name, passwordHash string, age, balance int) (*models.Account, error)
	DeleteAccount(ctx context.Context, id int) error
	UpdateName(ctx context.Context, name string, id int) error
	UpdateAge(ctx context.Context, age int, id int) error
	UpdateBalance(ctx context.Context, balance int, id int) error
	SelectByName(ctx context.Context, name string) (models.Account, error)
	SelectByID(ctx context.Context, id int, op models.Operator) ([]models.Account, error)
	SelectByAge(ctx context.Context, age int, op models.Operator) ([]models.Account, error)
	SelectByBalance(ctx context.Context, balance int, op models.Operator) ([]models.Account, error)
	SelectAll(ctx context.Context) ([]models.Account, error)

	Signup(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error)
	Authenticate(ctx context.Context, name, password string) (*models.Account, error)
	Rename(ctx context.Context, id int, name string) error
	ChangeAge(ctx context.Context, id int, age int) error
	ChangePassword(ctx context.Context, id int, oldPassword, newPassword string) error
	EnsureReserve(ctx context.Context) (int, error)
}

type AccountServiceImpl struct {
	accountRepo repository.AccountRepository
	logger      *slog.Logger
}

func NewAccountService(accountRepo repository.AccountRepository, logger *slog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// CreateAccount validates the name and age, checks the name is free and
// inserts the account. passwordHash must already be a digest.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, name, passwordHash string, age, balance int) (*models.Account, error) {
	if err := validateName(name); err != nil {
		s.logger.Warn("invalid create account request", "name", name, "error", err.Error())
		return nil, err
	}
	if err := validateAge(age); err != nil {
		s.logger.Warn("invalid create account request", "name", name, "error", err.Error())
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, models.InvalidID); err != nil {
		return nil, err
	}

	account := &models.Account{
		Name:         name,
		PasswordHash: passwordHash,
		Age:          age,
		Balance:      balance,
	}
	if err := s.accountRepo.CreateAccount(ctx, account); err != nil {
		s.logger.Error("failed to create account", "name", name, "error", err.Error())
		return nil, err
	}

	s.logger.Info("account created successfully", "account_id", account.ID, "name", name)
	return account, nil
}

func (s *AccountServiceImpl) DeleteAccount(ctx context.Context, id int) error {
	if err := s.accountRepo.SoftDeleteAccount(ctx, id); err != nil {
		if errors.IsNotFound(err) {
			s.logger.Warn("cannot delete missing account", "account_id", id)
			return err
		}
		s.logger.Error("failed to delete account", "account_id", id, "error", err.Error())
		return err
	}

	s.logger.Info("account deleted", "account_id", id)
	return nil
}

func (s *AccountServiceImpl) UpdateName(ctx context.Context, name string, id int) error {
	return s.logUpdate("name", id, s.accountRepo.UpdateName(ctx, id, name))
}

func (s *AccountServiceImpl) UpdateAge(ctx context.Context, age int, id int) error {
	return s.logUpdate("age", id, s.accountRepo.UpdateAge(ctx, id, age))
}

func (s *AccountServiceImpl) UpdateBalance(ctx context.Context, balance int, id int) error {
	return s.logUpdate("balance", id, s.accountRepo.UpdateBalance(ctx, id, balance))
}

func (s *AccountServiceImpl) logUpdate(field string, id int, err error) error {
	if err != nil {
		s.logger.Error("failed to update account", "account_id", id, "field", field, "error", err.Error())
		return err
	}
	s.logger.Info("account updated", "account_id", id, "field", field)
	return nil
}

// SelectByName returns the sentinel account when no account has that name.
func (s *AccountServiceImpl) SelectByName(ctx context.Context, name string) (models.Account, error) {
	account, err := s.accountRepo.GetAccountByName(ctx, name)
	if err != nil {
		if errors.IsNotFound(err) {
			return models.NotFoundAccount(), nil
		}
		s.logger.Error("failed to select account by name", "name", name, "error", err.Error())
		return models.NotFoundAccount(), err
	}
	return *account, nil
}

func (s *AccountServiceImpl) SelectByID(ctx context.Context, id int, op models.Operator) ([]models.Account, error) {
	return s.selectBy(ctx, models.FieldID, op, id)
}

func (s *AccountServiceImpl) SelectByAge(ctx context.Context, age int, op models.Operator) ([]models.Account, error) {
	return s.selectBy(ctx, models.FieldAge, op, age)
}

func (s *AccountServiceImpl) SelectByBalance(ctx context.Context, balance int, op models.Operator) ([]models.Account, error) {
	return s.selectBy(ctx, models.FieldBalance, op, balance)
}

func (s *AccountServiceImpl) selectBy(ctx context.Context, field models.Field, op models.Operator, value int) ([]models.Account, error) {
	if op == "" {
		op = models.OpEqual
	}
	accounts, err := s.accountRepo.SelectAccounts(ctx, field, op, value)
	if err != nil {
		s.logger.Warn("failed to select accounts",
			"field", string(field),
			"op", string(op),
			"error", err.Error(),
		)
		return nil, err
	}
	return accounts, nil
}

func (s *AccountServiceImpl) SelectAll(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		s.logger.Error("failed to list accounts", "error", err.Error())
		return nil, err
	}
	return accounts, nil
}

// Signup checks the password policy, hashes the password and creates the
// account with a zero balance.
func (s *AccountServiceImpl) Signup(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		s.logger.Warn("invalid signup request", "name", req.Name, "error", err.Error())
		return nil, err
	}
	return s.CreateAccount(ctx, req.Name, auth.HashPassword(req.Password), req.Age, 0)
}

func (s *AccountServiceImpl) Authenticate(ctx context.Context, name, password string) (*models.Account, error) {
	account, err := s.accountRepo.GetAccountByName(ctx, name)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Warn("login for unknown account", "name", name)
		}
		return nil, err
	}

	if err := auth.VerifyPassword(account.PasswordHash, password); err != nil {
		s.logger.Warn("incorrect password", "account_id", account.ID)
		return nil, err
	}

	s.logger.Info("account authenticated", "account_id", account.ID)
	return account, nil
}

func (s *AccountServiceImpl) Rename(ctx context.Context, id int, name string) error {
	if err := validateName(name); err != nil {
		s.logger.Warn("invalid rename request", "account_id", id, "error", err.Error())
		return err
	}
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return err
	}
	return s.UpdateName(ctx, name, id)
}

func (s *AccountServiceImpl) ChangeAge(ctx context.Context, id int, age int) error {
	if err := validateAge(age); err != nil {
		s.logger.Warn("invalid age change", "account_id", id, "error", err.Error())
		return err
	}
	return s.UpdateAge(ctx, age, id)
}

// ChangePassword requires the current password before storing the new digest.
func (s *AccountServiceImpl) ChangePassword(ctx context.Context, id int, oldPassword, newPassword string) error {
	account, err := s.accountRepo.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(account.PasswordHash, oldPassword); err != nil {
		s.logger.Warn("incorrect password on password change", "account_id", id)
		return err
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	return s.logUpdate("password", id, s.accountRepo.UpdatePasswordHash(ctx, id, auth.HashPassword(newPassword)))
}

// EnsureReserve returns the id of the reserve account, creating it on first
// run. The reserve bypasses signup validation and cannot be logged into.
func (s *AccountServiceImpl) EnsureReserve(ctx context.Context) (int, error) {
	account, err := s.accountRepo.GetAccountByName(ctx, models.ReserveAccountName)
	if err == nil {
		return account.ID, nil
	}
	if !errors.IsNotFound(err) {
		s.logger.Error("failed to look up reserve account", "error", err.Error())
		return models.InvalidID, err
	}

	reserve := &models.Account{
		Name:         models.ReserveAccountName,
		PasswordHash: models.ReserveAccountHash,
	}
	if err := s.accountRepo.CreateAccount(ctx, reserve); err != nil {
		s.logger.Error("failed to create reserve account", "error", err.Error())
		return models.InvalidID, err
	}

	s.logger.Info("reserve account created", "account_id", reserve.ID)
	return reserve.ID, nil
}

// ensureNameFree fails when a live account other than ownerID holds name.
func (s *AccountServiceImpl) ensureNameFree(ctx context.Context, name string, ownerID int) error {
	account, err := s.accountRepo.GetAccountByName(ctx, name)
	switch {
	case err == nil && account.ID == ownerID:
		return nil
	case err == nil:
		s.logger.Warn("account already exists", "name", name)
		return errors.ErrAccountAlreadyExists
	case errors.IsNotFound(err):
		return nil
	default:
		s.logger.Error("failed to check account name", "name", name, "error", err.Error())
		return err
	}
}

func validateName(name string) error {
	if n := utf8.RuneCountInString(name); n < models.MinNameLength || n > models.MaxNameLength {
		return errors.NewValidationError("name", "username must be between 3 and 24 characters")
	}
	return nil
}

func validateAge(age int) error {
	if age < models.MinAge || age > models.MaxAge {
		return errors.NewValidationError("age", "age must be between 18 and 99")
	}
	return nil
}
