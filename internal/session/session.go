// Package session runs the interactive banking session: the login/signup
// state machine and the single-key command loop.
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"

	"github.com/riteshkumar/terminal-bank/internal/errors"
	"github.com/riteshkumar/terminal-bank/internal/models"
	"github.com/riteshkumar/terminal-bank/internal/service"
)

// Outcome tells the caller why a command loop ended.
type Outcome int

const (
	OutcomeQuit Outcome = iota
	OutcomeLogout
)

type Session struct {
	accounts     service.AccountService
	transactions service.TransactionService
	console      Console
	logger       *slog.Logger
	reserveID    int

	backoff *backoff.Backoff
	sleep   func(time.Duration)
}

type Option func(*Session)

// WithLoginBackoff delays repeated failed logins between min and max.
func WithLoginBackoff(min, max time.Duration) Option {
	return func(s *Session) {
		s.backoff = &backoff.Backoff{Min: min, Max: max, Factor: 2}
	}
}

// WithSleep replaces time.Sleep for the failed-login delay.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Session) {
		s.sleep = sleep
	}
}

func New(accounts service.AccountService, transactions service.TransactionService, console Console, logger *slog.Logger, reserveID int, opts ...Option) *Session {
	s := &Session{
		accounts:     accounts,
		transactions: transactions,
		console:      console,
		logger:       logger,
		reserveID:    reserveID,
		backoff:      &backoff.Backoff{Min: 500 * time.Millisecond, Max: 8 * time.Second, Factor: 2},
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run authenticates and serves commands until the user quits. Logging out
// or deleting the account starts over at authentication. Closed input ends
// the session without an error.
func (s *Session) Run(ctx context.Context) error {
	for {
		account, err := s.Authenticate(ctx)
		if err != nil {
			return ignoreEOF(err)
		}

		outcome, err := s.Serve(ctx, account)
		if err != nil {
			return ignoreEOF(err)
		}
		if outcome == OutcomeQuit {
			return nil
		}
	}
}

func ignoreEOF(err error) error {
	if stderrors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type authMode int

const (
	modeLogin authMode = iota
	modeSignup
)

// Authenticate asks whether to log in or sign up and loops until one of the
// two succeeds. Each flow can switch to the other.
func (s *Session) Authenticate(ctx context.Context) (models.Account, error) {
	mode := modeSignup
	ok, err := s.consent("Would you like to log in [y] or sign up [n]? > ")
	if err != nil {
		return models.NotFoundAccount(), err
	}
	if ok {
		mode = modeLogin
	}

	for {
		var (
			account models.Account
			switchTo bool
		)
		if mode == modeLogin {
			account, switchTo, err = s.login(ctx)
		} else {
			account, switchTo, err = s.signup(ctx)
		}
		if err != nil {
			return models.NotFoundAccount(), err
		}

		switch {
		case switchTo && mode == modeLogin:
			mode = modeSignup
		case switchTo:
			mode = modeLogin
		case account.Exists():
			return account, nil
		}
	}
}

func (s *Session) login(ctx context.Context) (models.Account, bool, error) {
	username, err := s.console.ReadLine("Input your username (s to sign up instead) > ")
	if err != nil {
		return models.NotFoundAccount(), false, err
	}
	if strings.EqualFold(username, "s") {
		return models.NotFoundAccount(), true, nil
	}

	password, err := s.console.ReadHidden("Input your password > ")
	if err != nil {
		return models.NotFoundAccount(), false, err
	}

	account, err := s.accounts.Authenticate(ctx, username, password)
	switch {
	case err == nil:
		s.backoff.Reset()
		s.console.Println(ToneSuccess, fmt.Sprintf("Logged into '%s'.", account))
		return *account, false, nil
	case errors.IsNotFound(err):
		s.console.Println(ToneError, "Account with the given username does not exist.")
	case errors.IsIncorrectPassword(err):
		s.console.Println(ToneError, "Incorrect password.")
		s.sleep(s.backoff.Duration())
	default:
		s.reportError(err)
	}
	return models.NotFoundAccount(), false, nil
}

func (s *Session) signup(ctx context.Context) (models.Account, bool, error) {
	username, err := s.console.ReadLine("Input a new username (l to login instead) > ")
	if err != nil {
		return models.NotFoundAccount(), false, err
	}
	if strings.EqualFold(username, "l") {
		return models.NotFoundAccount(), true, nil
	}

	password, err := s.console.ReadHidden("Input a password > ")
	if err != nil {
		return models.NotFoundAccount(), false, err
	}
	age, err := s.console.ReadNumber("Input your age > ")
	if err != nil {
		return models.NotFoundAccount(), false, err
	}

	account, err := s.accounts.Signup(ctx, &models.CreateAccountRequest{
		Name:     username,
		Password: password,
		Age:      age,
	})
	if err != nil {
		s.reportError(err)
		return models.NotFoundAccount(), false, nil
	}

	s.console.Println(ToneSuccess, fmt.Sprintf("Signed up as '%s'.", account))
	return *account, false, nil
}

// Serve runs the command loop for an authenticated account.
func (s *Session) Serve(ctx context.Context, account models.Account) (Outcome, error) {
	logger := s.logger.With("session_id", uuid.NewString(), "account_id", account.ID)
	logger.Info("session started")

	s.console.Println(ToneInfo, fmt.Sprintf("\nWelcome, %s!", account.Name))
	s.console.Println(ToneInfo, "What would you like to do today?")

	c := &commandContext{Session: s, logger: logger, account: account}
	for {
		key, err := s.console.ReadKey("Command (h for help) > ")
		if err != nil {
			return OutcomeQuit, err
		}

		done, outcome, err := c.dispatch(ctx, key)
		if err != nil {
			return OutcomeQuit, err
		}
		if done {
			logger.Info("session ended", "outcome", outcome.String())
			return outcome, nil
		}
	}
}

func (o Outcome) String() string {
	if o == OutcomeLogout {
		return "logout"
	}
	return "quit"
}

func (s *Session) consent(prompt string) (bool, error) {
	key, err := s.console.ReadKey(prompt)
	if err != nil {
		return false, err
	}
	return key == 'y', nil
}

// reportError turns a ledger error into the message shown to the user.
func (s *Session) reportError(err error) {
	var validationErr *errors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		s.console.Println(ToneError, validationMessage(validationErr))
	case errors.IsAlreadyExists(err):
		s.console.Println(ToneError, "An account with that name already exists, try a different name!")
	case errors.IsNotFound(err):
		s.console.Println(ToneError, "One or both of the users does not exist.")
	case errors.IsInsufficientBalance(err):
		s.console.Println(ToneError, "You don't have enough money for that.")
	case errors.IsIncorrectPassword(err):
		s.console.Println(ToneError, "Incorrect password.")
	case errors.Is(err, errors.ErrInvalidAmount):
		s.console.Println(ToneError, "Cannot send less than "+FormatAmount(models.MinAmount)+".")
	case errors.Is(err, errors.ErrBalanceOverflow):
		s.console.Println(ToneError, "That amount is too large for the ledger.")
	case errors.Is(err, errors.ErrSameAccount):
		s.console.Println(ToneError, "You cannot send money to yourself.")
	default:
		s.logger.Error("unexpected ledger error", "error", err.Error())
		s.console.Println(ToneError, "Something went wrong, please try again.")
	}
}

func validationMessage(err *errors.ValidationError) string {
	switch err.Field {
	case "name":
		return fmt.Sprintf("Username is either too long or too short. Lower limit is %d and upper limit is %d.",
			models.MinNameLength, models.MaxNameLength)
	case "age":
		return fmt.Sprintf("Age is either too low or too high. You must be at least %d to use our program. "+
			"If you're above %d years old, please input '%d' as it is the upper limit.",
			models.MinAge, models.MaxAge, models.MaxAge)
	case "password":
		return "Password is either too short or too long."
	}
	return err.Message
}
