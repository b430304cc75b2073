package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/riteshkumar/terminal-bank/internal/session"
)

type historyCmd struct {
	name string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display an account's transactions" }
func (*historyCmd) Usage() string {
	return `history -name <username>

  Prints every transaction of the account, oldest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "account username")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "-name must be provided")
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bank: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	account, err := a.accounts.SelectByName(ctx, c.name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding account: %v\n", err)
		return subcommands.ExitFailure
	}
	if !account.Exists() {
		fmt.Fprintf(os.Stderr, "Could not find user '%s'.\n", c.name)
		return subcommands.ExitFailure
	}

	transactions, err := a.transactions.GetTransactions(ctx, account.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing transactions: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, tr := range transactions {
		fmt.Println(session.FormatTransaction(tr))
	}
	return subcommands.ExitSuccess
}
