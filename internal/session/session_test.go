package session

import (
	"context"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/google/go-cmp/cmp"

	"github.com/riteshkumar/terminal-bank/internal/models"
	"github.com/riteshkumar/terminal-bank/internal/repository"
	"github.com/riteshkumar/terminal-bank/internal/service"
	"github.com/riteshkumar/terminal-bank/internal/store/storetest"
)

type line struct {
	tone Tone
	msg  string
}

// scriptedConsole replays canned input and records everything printed.
type scriptedConsole struct {
	input  []string
	output []line
}

func (c *scriptedConsole) next() (string, error) {
	if len(c.input) == 0 {
		return "", io.EOF
	}
	in := c.input[0]
	c.input = c.input[1:]
	return in, nil
}

func (c *scriptedConsole) ReadLine(string) (string, error)   { return c.next() }
func (c *scriptedConsole) ReadHidden(string) (string, error) { return c.next() }

func (c *scriptedConsole) ReadNumber(string) (int, error) {
	for {
		in, err := c.next()
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(in); err == nil {
			return n, nil
		}
	}
}

func (c *scriptedConsole) ReadKey(string) (rune, error) {
	in, err := c.next()
	if err != nil {
		return 0, err
	}
	if in == "" {
		return '\n', nil
	}
	return unicode.ToLower([]rune(in)[0]), nil
}

func (c *scriptedConsole) Println(tone Tone, msg string) {
	c.output = append(c.output, line{tone: tone, msg: msg})
}

func (c *scriptedConsole) printed(msg string) bool {
	for _, l := range c.output {
		if strings.Contains(l.msg, msg) {
			return true
		}
	}
	return false
}

type fixture struct {
	accounts     *service.AccountServiceImpl
	transactions *service.TransactionServiceImpl
	reserveID    int
	sleeps       []time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := storetest.Open(t)
	logger := storetest.Logger()
	accountRepo := repository.NewAccountRepository(db)

	f := &fixture{
		accounts:     service.NewAccountService(accountRepo, logger),
		transactions: service.NewTransactionService(db, accountRepo, repository.NewTransactionRepository(db), logger),
	}
	reserveID, err := f.accounts.EnsureReserve(context.Background())
	if err != nil {
		t.Fatalf("EnsureReserve() failed: %v", err)
	}
	f.reserveID = reserveID
	return f
}

func (f *fixture) run(t *testing.T, input ...string) *scriptedConsole {
	t.Helper()

	console := &scriptedConsole{input: input}
	s := New(f.accounts, f.transactions, console, storetest.Logger(), f.reserveID,
		WithLoginBackoff(time.Second, 4*time.Second),
		WithSleep(func(d time.Duration) { f.sleeps = append(f.sleeps, d) }),
	)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(console.input) != 0 {
		t.Fatalf("unconsumed input: %q", console.input)
	}
	return console
}

func (f *fixture) signup(t *testing.T, name string) models.Account {
	t.Helper()
	account, err := f.accounts.Signup(context.Background(), &models.CreateAccountRequest{
		Name:     name,
		Password: name + "-password",
		Age:      30,
	})
	if err != nil {
		t.Fatalf("Signup(%q) failed: %v", name, err)
	}
	return *account
}

func (f *fixture) balances(t *testing.T) map[string]int {
	t.Helper()
	accounts, err := f.accounts.SelectAll(context.Background())
	if err != nil {
		t.Fatalf("SelectAll() failed: %v", err)
	}
	got := make(map[string]int, len(accounts))
	for _, a := range accounts {
		got[a.Name] = a.Balance
	}
	return got
}

func TestSessionSignupDepositTransfer(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "bob")

	console := f.run(t,
		"n", "alice", "alice-password", "30",
		"d", "500",
		"t", "bob", "200", "y",
		"b",
		"q",
	)

	want := map[string]int{"BANK": -500, "alice": 300, "bob": 200}
	if diff := cmp.Diff(want, f.balances(t)); diff != "" {
		t.Errorf("balances mismatch (-want +got):\n%s", diff)
	}

	for _, msg := range []string{
		"Signed up as 'alice",
		"Successfully deposited " + FormatAmount(500) + ".",
		"Successfully sent " + FormatAmount(200) + " to 'bob'.",
		"Balance: " + FormatAmount(300),
		"Quitting.",
	} {
		if !console.printed(msg) {
			t.Errorf("output missing %q", msg)
		}
	}
}

func TestSessionHistoryColors(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	ctx := context.Background()
	if _, err := f.transactions.Deposit(ctx, f.reserveID, alice.ID, 100); err != nil {
		t.Fatalf("Deposit() failed: %v", err)
	}
	if _, err := f.transactions.Withdraw(ctx, f.reserveID, alice.ID, 40); err != nil {
		t.Fatalf("Withdraw() failed: %v", err)
	}

	console := f.run(t, "y", "alice", "alice-password", "l", "r", "q")

	var history []line
	for _, l := range console.output {
		if strings.Contains(l.msg, " From '") {
			history = append(history, l)
		}
	}
	if len(history) != 3 {
		t.Fatalf("got %d history lines, want 3: %v", len(history), history)
	}
	if history[0].tone != ToneSuccess || !strings.HasPrefix(history[0].msg, FormatAmount(100)+" From 'BANK' To 'alice'") {
		t.Errorf("deposit line = %+v", history[0])
	}
	if history[1].tone != ToneError || !strings.HasPrefix(history[1].msg, FormatAmount(40)+" From 'alice' To 'BANK'") {
		t.Errorf("withdrawal line = %+v", history[1])
	}
	if history[2] != history[1] {
		t.Errorf("latest = %+v, want %+v", history[2], history[1])
	}
}

func TestSessionNoTransactions(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")

	console := f.run(t, "y", "alice", "alice-password", "r", "l", "q")

	n := 0
	for _, l := range console.output {
		if l.msg == "No transactions yet." {
			n++
		}
	}
	if n != 2 {
		t.Errorf("printed %q %d times, want 2", "No transactions yet.", n)
	}
}

func TestSessionUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")

	console := f.run(t, "y", "alice", "alice-password", "x", "h", "q")

	if !console.printed("Unknown command, try typing 'h' for commands!") {
		t.Error("unknown command was not reported")
	}
	if !console.printed("W - withdraw money") {
		t.Error("help text was not printed")
	}
}

func TestSessionWrongPasswordBacksOff(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")

	console := f.run(t,
		"y",
		"alice", "wrong-password",
		"alice", "still-wrong",
		"nobody", "whatever1",
		"alice", "alice-password",
		"q",
	)

	if diff := cmp.Diff([]time.Duration{time.Second, 2 * time.Second}, f.sleeps); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
	if !console.printed("Incorrect password.") {
		t.Error("incorrect password was not reported")
	}
	if !console.printed("Account with the given username does not exist.") {
		t.Error("unknown user was not reported")
	}
	if !console.printed("Logged into 'alice") {
		t.Error("login did not succeed")
	}
}

func TestSessionSwitchesBetweenLoginAndSignup(t *testing.T) {
	f := newFixture(t)

	console := f.run(t,
		"y", "s",
		"ab", "short-name-pass", "30",
		"l", "s",
		"carol", "carol-password", "25",
		"q",
	)

	if !console.printed("Username is either too long or too short.") {
		t.Error("short name was not rejected")
	}
	carol, err := f.accounts.SelectByName(context.Background(), "carol")
	if err != nil || !carol.Exists() {
		t.Fatalf("SelectByName(carol) = %v, %v", carol, err)
	}
	if carol.Age != 25 || carol.Balance != 0 {
		t.Errorf("carol = %+v, want age 25 and balance 0", carol)
	}
}

func TestSessionRejectsOverdraft(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.signup(t, "bob")

	console := f.run(t,
		"y", "alice", "alice-password",
		"w", "10",
		"t", "bob", "10",
		"t", "ghost",
		"t", "alice",
		"q",
	)

	if !console.printed("You don't have enough money to withdraw " + FormatAmount(10) + ". You only have " + FormatAmount(0) + ".") {
		t.Error("withdrawal overdraft was not reported")
	}
	if !console.printed("You don't have enough money to send " + FormatAmount(10) + ".") {
		t.Error("transfer overdraft was not reported")
	}
	if !console.printed("Could not find user 'ghost'.") {
		t.Error("unknown receiver was not reported")
	}
	if !console.printed("You cannot send money to yourself.") {
		t.Error("self transfer was not reported")
	}
	want := map[string]int{"BANK": 0, "alice": 0, "bob": 0}
	if diff := cmp.Diff(want, f.balances(t)); diff != "" {
		t.Errorf("balances mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionCancelledTransfer(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	f.signup(t, "bob")
	if _, err := f.transactions.Deposit(context.Background(), f.reserveID, alice.ID, 50); err != nil {
		t.Fatalf("Deposit() failed: %v", err)
	}

	console := f.run(t, "y", "alice", "alice-password", "t", "bob", "20", "n", "q")

	if !console.printed("Cancelled transaction.") {
		t.Error("cancellation was not reported")
	}
	if got := f.balances(t)["alice"]; got != 50 {
		t.Errorf("alice balance = %d, want 50", got)
	}
}

func TestSessionEditAccount(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")

	f.run(t,
		"y", "alice", "alice-password",
		"e", "a", "45",
		"e", "n", "alicia",
		"e", "p", "alice-password", "new-password",
		"e", "z",
		"q",
	)

	ctx := context.Background()
	if _, err := f.accounts.Authenticate(ctx, "alicia", "new-password"); err != nil {
		t.Fatalf("Authenticate(alicia) failed: %v", err)
	}
	alicia, err := f.accounts.SelectByName(ctx, "alicia")
	if err != nil {
		t.Fatalf("SelectByName(alicia) failed: %v", err)
	}
	if alicia.Age != 45 {
		t.Errorf("age = %d, want 45", alicia.Age)
	}
}

func TestSessionLogoutAndDelete(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.signup(t, "bob")

	console := f.run(t,
		"y", "alice", "alice-password",
		"o", "n",
		"o", "y",
		"y", "bob", "bob-password",
		"e", "d", "y",
	)

	if !console.printed("Logged out of 'alice") {
		t.Error("logout was not reported")
	}
	if !console.printed("Successfully deleted account.") {
		t.Error("deletion was not reported")
	}
	bob, err := f.accounts.SelectByName(context.Background(), "bob")
	if err != nil {
		t.Fatalf("SelectByName(bob) failed: %v", err)
	}
	if bob.Exists() {
		t.Errorf("bob still visible after delete: %+v", bob)
	}
}

func TestFormatTransaction(t *testing.T) {
	tr := models.Transaction{
		Amount: 1200,
		From:   "BANK",
		To:     "alice",
		Date:   time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}
	want := FormatAmount(1200) + " From 'BANK' To 'alice' at 2024-03-01 12:30:00"
	if got := FormatTransaction(tr); got != want {
		t.Errorf("FormatTransaction() = %q, want %q", got, want)
	}
}
