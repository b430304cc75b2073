package session

import (
	"strconv"

	"github.com/Rhymond/go-money"
)

// Tone selects the color a line is rendered in.
type Tone int

const (
	ToneInfo Tone = iota
	ToneSuccess
	ToneWarning
	ToneError
)

// Console is the terminal the session talks to. Reads block until the user
// submits; they only fail when input is closed.
type Console interface {
	ReadLine(prompt string) (string, error)
	// ReadHidden reads a line without echoing it.
	ReadHidden(prompt string) (string, error)
	// ReadNumber re-prompts until an integer is entered.
	ReadNumber(prompt string) (int, error)
	// ReadKey reads one key without waiting for enter, lowercased.
	ReadKey(prompt string) (rune, error)
	Println(tone Tone, msg string)
}

const currencyCode = "BNK"

// Balances are whole units, so the display currency has no fraction digits.
var displayCurrency = money.AddCurrency(currencyCode, "$", "$1", ".", ",", 0)

// FormatAmount renders a whole-unit amount, e.g. $1,200.
func FormatAmount(amount int) string {
	if displayCurrency == nil {
		return strconv.Itoa(amount) + "$"
	}
	return money.New(int64(amount), currencyCode).Display()
}
