package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

var envFile = flag.String("env", ".env", "optional dotenv file with BANK_ settings")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&sessionCmd{}, "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&accountsCmd{}, "admin")
	commander.Register(&historyCmd{}, "admin")

	flag.Parse()
	if flag.NArg() == 0 {
		flag.CommandLine.Parse([]string{"session"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
