package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"employee-portal/internal/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := console.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
