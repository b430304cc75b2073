package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riteshkumar/terminal-bank/internal/errors"
	"github.com/riteshkumar/terminal-bank/internal/models"
)

const helpText = "> Q - quit\n> T - new transaction\n> R - last transaction\n" +
	"> L - list all transactions\n> B - check balance\n" +
	"> O - log out of your account\n> D - deposit money\n" +
	"> W - withdraw money\n> E - edit account\n"

// commandContext holds the logged in account snapshot. It is reloaded from
// the store after every command that can change it.
type commandContext struct {
	*Session
	logger  *slog.Logger
	account models.Account
}

func (c *commandContext) dispatch(ctx context.Context, key rune) (bool, Outcome, error) {
	var err error
	switch key {
	case 'h':
		c.console.Println(ToneInfo, helpText)
	case 'q':
		c.console.Println(ToneInfo, "Quitting.")
		return true, OutcomeQuit, nil
	case 'd':
		err = c.deposit(ctx)
	case 'w':
		err = c.withdraw(ctx)
	case 't':
		err = c.transfer(ctx)
	case 'r':
		c.latestTransaction(ctx)
	case 'l':
		c.allTransactions(ctx)
	case 'b':
		c.balance()
	case 'o':
		loggedOut, err := c.logout()
		if err != nil || loggedOut {
			return loggedOut, OutcomeLogout, err
		}
	case 'e':
		deleted, err := c.edit(ctx)
		if err != nil || deleted {
			return deleted, OutcomeLogout, err
		}
	default:
		c.console.Println(ToneError, "Unknown command, try typing 'h' for commands!")
	}
	return false, OutcomeQuit, err
}

func (c *commandContext) reload(ctx context.Context) {
	accounts, err := c.accounts.SelectByID(ctx, c.account.ID, models.OpEqual)
	if err != nil {
		c.logger.Error("failed to reload account", "error", err.Error())
		return
	}
	if len(accounts) == 0 {
		c.logger.Warn("account vanished during session")
		return
	}
	c.account = accounts[0]
}

func (c *commandContext) deposit(ctx context.Context) error {
	amount, err := c.console.ReadNumber("Amount to deposit > ")
	if err != nil {
		return err
	}

	if _, err := c.transactions.Deposit(ctx, c.reserveID, c.account.ID, amount); err != nil {
		c.reportError(err)
	} else {
		c.console.Println(ToneSuccess, "Successfully deposited "+FormatAmount(amount)+".")
	}
	c.reload(ctx)
	return nil
}

func (c *commandContext) withdraw(ctx context.Context) error {
	amount, err := c.console.ReadNumber("Amount to withdraw > ")
	if err != nil {
		return err
	}

	if c.account.Balance < amount {
		c.console.Println(ToneError, fmt.Sprintf("You don't have enough money to withdraw %s. You only have %s.",
			FormatAmount(amount), FormatAmount(c.account.Balance)))
		return nil
	}

	if _, err := c.transactions.Withdraw(ctx, c.reserveID, c.account.ID, amount); err != nil {
		c.reportError(err)
	} else {
		c.console.Println(ToneSuccess, "Successfully withdrew "+FormatAmount(amount)+".")
	}
	c.reload(ctx)
	return nil
}

func (c *commandContext) transfer(ctx context.Context) error {
	username, err := c.console.ReadLine("Username to send the money to > ")
	if err != nil {
		return err
	}

	receiver, err := c.accounts.SelectByName(ctx, username)
	if err != nil {
		c.reportError(err)
		return nil
	}
	if !receiver.Exists() {
		c.console.Println(ToneError, fmt.Sprintf("Could not find user '%s'.", username))
		return nil
	}
	if receiver.ID == c.account.ID {
		c.reportError(errors.ErrSameAccount)
		return nil
	}

	amount, err := c.console.ReadNumber(fmt.Sprintf("Amount to send (you have %s) > ", FormatAmount(c.account.Balance)))
	if err != nil {
		return err
	}
	if amount > c.account.Balance {
		c.console.Println(ToneError, fmt.Sprintf("You don't have enough money to send %s. You only have %s.",
			FormatAmount(amount), FormatAmount(c.account.Balance)))
		return nil
	}

	ok, err := c.consent(fmt.Sprintf("Are you sure you want to send %s to '%s'? [y/n] > ", FormatAmount(amount), receiver.Name))
	if err != nil {
		return err
	}
	if !ok {
		c.console.Println(ToneError, "Cancelled transaction.")
		return nil
	}

	if _, err := c.transactions.Transfer(ctx, c.account.ID, receiver.Name, amount); err != nil {
		c.reportError(err)
	} else {
		c.console.Println(ToneSuccess, fmt.Sprintf("Successfully sent %s to '%s'.", FormatAmount(amount), receiver.Name))
	}
	c.reload(ctx)
	return nil
}

func (c *commandContext) latestTransaction(ctx context.Context) {
	tr, err := c.transactions.GetLatestTransaction(ctx, c.account.ID)
	if err != nil {
		c.reportError(err)
		return
	}
	if !tr.Exists() {
		c.console.Println(ToneWarning, "No transactions yet.")
		return
	}
	c.printTransaction(tr)
}

func (c *commandContext) allTransactions(ctx context.Context) {
	transactions, err := c.transactions.GetTransactions(ctx, c.account.ID)
	if err != nil {
		c.reportError(err)
		return
	}
	if len(transactions) == 0 {
		c.console.Println(ToneWarning, "No transactions yet.")
		return
	}
	for _, tr := range transactions {
		c.printTransaction(tr)
	}
}

// printTransaction shows money sent in red and money received in green.
func (c *commandContext) printTransaction(tr models.Transaction) {
	tone := ToneSuccess
	if tr.FromID == c.account.ID {
		tone = ToneError
	}
	c.console.Println(tone, FormatTransaction(tr))
}

// FormatTransaction renders one ledger entry on a single line.
func FormatTransaction(tr models.Transaction) string {
	return fmt.Sprintf("%s From '%s' To '%s' at %s",
		FormatAmount(tr.Amount), tr.From, tr.To, tr.Date.Format("2006-01-02 15:04:05"))
}

func (c *commandContext) balance() {
	tone := ToneSuccess
	if c.account.Balance < 1 {
		tone = ToneError
	}
	c.console.Println(tone, "Balance: "+FormatAmount(c.account.Balance))
}

func (c *commandContext) logout() (bool, error) {
	ok, err := c.consent("Are you sure you want to log out? [y/n] > ")
	if err != nil {
		return false, err
	}
	if !ok {
		c.console.Println(ToneError, "Cancelled.")
		return false, nil
	}

	c.console.Println(ToneSuccess, fmt.Sprintf("Logged out of '%s'.\n", c.account))
	return true, nil
}

// edit runs the account submenu. It reports whether the account was deleted.
func (c *commandContext) edit(ctx context.Context) (bool, error) {
	key, err := c.console.ReadKey("Choose (A - age, N - name, P - password, D - delete) > ")
	if err != nil {
		return false, err
	}

	switch key {
	case 'a':
		return false, c.editAge(ctx)
	case 'n':
		return false, c.editName(ctx)
	case 'p':
		return false, c.editPassword(ctx)
	case 'd':
		return c.deleteAccount(ctx)
	default:
		c.console.Println(ToneError, "Unknown option.")
		return false, nil
	}
}

func (c *commandContext) editAge(ctx context.Context) error {
	age, err := c.console.ReadNumber("Input your new age > ")
	if err != nil {
		return err
	}

	if err := c.accounts.ChangeAge(ctx, c.account.ID, age); err != nil {
		c.reportError(err)
	} else {
		c.console.Println(ToneSuccess, "Successfully updated age.")
	}
	c.reload(ctx)
	return nil
}

func (c *commandContext) editName(ctx context.Context) error {
	name, err := c.console.ReadLine("Input your new username > ")
	if err != nil {
		return err
	}

	if err := c.accounts.Rename(ctx, c.account.ID, name); err != nil {
		c.reportError(err)
	} else {
		c.console.Println(ToneSuccess, "Successfully updated username.")
	}
	c.reload(ctx)
	return nil
}

func (c *commandContext) editPassword(ctx context.Context) error {
	oldPassword, err := c.console.ReadHidden("Input your old password > ")
	if err != nil {
		return err
	}
	newPassword, err := c.console.ReadHidden("Input your new password > ")
	if err != nil {
		return err
	}

	if err := c.accounts.ChangePassword(ctx, c.account.ID, oldPassword, newPassword); err != nil {
		c.reportError(err)
	} else {
		c.console.Println(ToneSuccess, "Successfully updated password.")
	}
	c.reload(ctx)
	return nil
}

func (c *commandContext) deleteAccount(ctx context.Context) (bool, error) {
	ok, err := c.consent("Are you sure that you want to delete your account? This cannot be undone. [y/n] > ")
	if err != nil {
		return false, err
	}
	if !ok {
		c.console.Println(ToneError, "Cancelled.")
		return false, nil
	}

	if err := c.accounts.DeleteAccount(ctx, c.account.ID); err != nil {
		c.reportError(err)
		return false, nil
	}
	c.console.Println(ToneSuccess, "Successfully deleted account.")
	return true, nil
}
