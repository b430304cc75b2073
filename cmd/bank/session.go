package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/riteshkumar/terminal-bank/internal/console"
	"github.com/riteshkumar/terminal-bank/internal/session"
)

type sessionCmd struct{}

func (*sessionCmd) Name() string     { return "session" }
func (*sessionCmd) Synopsis() string { return "log in and manage your account interactively" }
func (*sessionCmd) Usage() string {
	return `session

  Starts the interactive banking session. This is the default command.
`
}

func (*sessionCmd) SetFlags(*flag.FlagSet) {}

func (*sessionCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bank: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	s := session.New(a.accounts, a.transactions, console.New(), a.logger, a.reserveID,
		session.WithLoginBackoff(a.cfg.LoginBackoffMin, a.cfg.LoginBackoffMax),
	)
	if err := s.Run(ctx); err != nil {
		a.logger.Error("session failed", "error", err.Error())
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
