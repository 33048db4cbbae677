package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var progressSince uint64

var progressCmd = &cobra.Command{
	Use:   "progress <job-id>",
	Short: "Stream a bulk import job's progress",
	Long: `Subscribes to a running or recently finished import job and
prints each progress event as it arrives. Reconnecting with --since lets
you resume from the last sequence number you saw instead of missing or
re-seeing events.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		for ev := range app.Progress.Subscribe(ctx, uid, args[0], progressSince) {
			fmt.Printf("seq=%d status=%s %d/%d processed (%d failed) %s\n",
				ev.Seq, ev.Status, ev.Processed, ev.Total, ev.Failed, ev.Message)
		}
		return nil
	},
}

func init() {
	progressCmd.Flags().Uint64Var(&progressSince, "since", 0, "Resume after this sequence number")
}
