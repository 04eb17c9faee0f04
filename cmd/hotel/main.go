package main

import (
	"context"
	"os"

	"github.com/diagnosis/hotel-bookings/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "hotel",
		Short:         "Hotel room booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), completeStaysCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
