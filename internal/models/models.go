package models

import (
	"fmt"
	"time"
)

// InvalidID marks an account or transaction that was not found or not yet persisted.
const InvalidID = -1

const (
	ReserveAccountName = "BANK"
	// ReserveAccountHash is not a hex digest, so no password can ever match it.
	ReserveAccountHash = "BANK"
	DeletedAccountName = "DELETED"
)

const (
	MinNameLength     = 3
	MaxNameLength     = 24
	MinAge            = 18
	MaxAge            = 99
	MinPasswordLength = 8
	MaxPasswordLength = 64
	MinAmount         = 1
)

type Account struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Age          int        `json:"age"`
	Balance      int        `json:"balance"`
	DeletedAt    *time.Time `json:"-"`
}

// NotFoundAccount is the sentinel returned by lookups that match nothing.
func NotFoundAccount() Account {
	return Account{ID: InvalidID}
}

func (a Account) Exists() bool {
	return a.ID != InvalidID
}

func (a Account) String() string {
	return fmt.Sprintf("%s Id: %d", a.Name, a.ID)
}

type Transaction struct {
	ID     int       `json:"id"`
	FromID int       `json:"from_id"`
	ToID   int       `json:"to_id"`
	Amount int       `json:"amount"`
	Date   time.Time `json:"date"`
	// From and To are resolved from the accounts table on every read.
	From string `json:"from"`
	To   string `json:"to"`
}

func NotFoundTransaction() Transaction {
	return Transaction{ID: InvalidID, FromID: InvalidID, ToID: InvalidID}
}

func (t Transaction) Exists() bool {
	return t.ID != InvalidID
}

// Field is a filterable account column.
type Field string

const (
	FieldID      Field = "id"
	FieldAge     Field = "age"
	FieldBalance Field = "balance"
)

func (f Field) Valid() bool {
	switch f {
	case FieldID, FieldAge, FieldBalance:
		return true
	}
	return false
}

// Operator is a comparison used by range queries on account fields.
type Operator string

const (
	OpEqual          Operator = "="
	OpLess           Operator = "<"
	OpGreater        Operator = ">"
	OpLessOrEqual    Operator = "<="
	OpGreaterOrEqual Operator = ">="
)

func (o Operator) Valid() bool {
	switch o {
	case OpEqual, OpLess, OpGreater, OpLessOrEqual, OpGreaterOrEqual:
		return true
	}
	return false
}

type CreateAccountRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Age      int    `json:"age"`
}

type AccountResponse struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Balance int    `json:"balance"`
}

func NewAccountResponse(a Account) AccountResponse {
	return AccountResponse{
		ID:      a.ID,
		Name:    a.Name,
		Age:     a.Age,
		Balance: a.Balance,
	}
}

type CreateTransactionRequest struct {
	FromID int `json:"from_id"`
	ToID   int `json:"to_id"`
	Amount int `json:"amount"`
}

type TransactionResponse struct {
	ID     int       `json:"id"`
	FromID int       `json:"from_id"`
	ToID   int       `json:"to_id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Amount int       `json:"amount"`
	Date   time.Time `json:"date"`
}

func NewTransactionResponse(t Transaction) TransactionResponse {
	return TransactionResponse{
		ID:     t.ID,
		FromID: t.FromID,
		ToID:   t.ToID,
		From:   t.From,
		To:     t.To,
		Amount: t.Amount,
		Date:   t.Date,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
