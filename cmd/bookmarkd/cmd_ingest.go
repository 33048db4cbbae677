package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codenerd-labs/bookmarkd/internal/ingestion"
)

var (
	ingestNotes    string
	ingestCategory string
	ingestTags     []string
	ingestForce    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <url>",
	Short: "Save and scrape a single bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		outcome, err := app.Ingestion.Ingest(ctx, uid, ingestion.Request{
			URL:       args[0],
			UserNotes: ingestNotes,
			Category:  ingestCategory,
			Tags:      ingestTags,
			Force:     ingestForce,
		})
		if err != nil {
			return err
		}

		switch {
		case outcome.Skipped:
			fmt.Printf("already saved (id=%d): %s\n", outcome.BookmarkID, outcome.Reason)
		case outcome.Created:
			fmt.Printf("saved new bookmark (id=%d)\n", outcome.BookmarkID)
		default:
			fmt.Printf("updated bookmark (id=%d)\n", outcome.BookmarkID)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestNotes, "notes", "", "Personal notes for this bookmark")
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "", "Category label")
	ingestCmd.Flags().StringSliceVar(&ingestTags, "tags", nil, "Comma-separated tags")
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "Re-scrape even if already saved")
}
