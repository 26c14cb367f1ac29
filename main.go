package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ovl-network/ido-engine/cmd"
	"github.com/ovl-network/ido-engine/pkg/logger"
	"github.com/ovl-network/ido-engine/pkg/logger/slogx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		logger.Fatal("Failed to execute command", slogx.Error(err))
	}
}
