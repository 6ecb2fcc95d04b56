package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/dist/cmd/dist/commands"
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli := &commands.CLI{}
	global := &commands.Global{Ctx: ctx, In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
	if err := commands.Execute(cli, global, os.Args[1:]); err != nil {
		cancel()
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
