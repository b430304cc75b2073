package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/riteshkumar/terminal-bank/internal/models"
	"github.com/riteshkumar/terminal-bank/internal/session"
)

type accountsCmd struct {
	field string
	op    string
	value int
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts" }
func (*accountsCmd) Usage() string {
	return `accounts [-field id|age|balance -op =|<|>|<=|>= -value n]

  Lists live accounts, optionally filtered on one field.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.field, "field", "", "field to filter on: id, age or balance")
	f.StringVar(&c.op, "op", "=", "comparison operator")
	f.IntVar(&c.value, "value", 0, "value to compare against")
}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	field, op := models.Field(c.field), models.Operator(c.op)
	if c.field != "" && (!field.Valid() || !op.Valid()) {
		fmt.Fprintf(os.Stderr, "invalid filter %s %s\n", c.field, c.op)
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bank: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var accounts []models.Account
	switch field {
	case "":
		accounts, err = a.accounts.SelectAll(ctx)
	case models.FieldID:
		accounts, err = a.accounts.SelectByID(ctx, c.value, op)
	case models.FieldAge:
		accounts, err = a.accounts.SelectByAge(ctx, c.value, op)
	case models.FieldBalance:
		accounts, err = a.accounts.SelectByBalance(ctx, c.value, op)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing accounts: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAGE\tBALANCE")
	for _, acc := range accounts {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", acc.ID, acc.Name, acc.Age, session.FormatAmount(acc.Balance))
	}
	w.Flush()
	return subcommands.ExitSuccess
}
