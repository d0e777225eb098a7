package main

import (
	"context"
	"os"
	"os/signal"

	"earnedpay/cmd/earnedpay/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := commands.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
