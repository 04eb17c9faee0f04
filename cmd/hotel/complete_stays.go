package main

import (
	"github.com/diagnosis/hotel-bookings/pkg/config"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
	"github.com/spf13/cobra"
)

func completeStaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete-stays",
		Short: "Mark confirmed bookings whose check-out day has arrived as completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), config.Load())
			if err != nil {
				return err
			}
			defer a.Close()

			done, err := a.bookSvc.CompleteElapsed(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]int64, 0, len(done))
			for _, b := range done {
				ids = append(ids, b.ID)
			}
			logger.Info("Stays completed", "count", len(done), "booking_ids", ids)
			return nil
		},
	}
}
