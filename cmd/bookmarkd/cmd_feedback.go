package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codenerd-labs/bookmarkd/internal/store"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <bookmark-id> <clicked|saved|dismissed|not_relevant|helpful|completed>",
	Short: "Record feedback on a recommended bookmark",
	Long: `Feedback shapes future recommendations: positive signals
(clicked, saved, helpful, completed) raise the weight of matching
technologies, content types, and difficulty levels; negative signals
(dismissed, not_relevant) lower it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}

		var contentID int64
		if _, err := fmt.Sscanf(args[0], "%d", &contentID); err != nil {
			return fmt.Errorf("invalid bookmark id %q: %w", args[0], err)
		}

		ft := store.FeedbackType(args[1])
		switch ft {
		case store.FeedbackClicked, store.FeedbackSaved, store.FeedbackDismissed,
			store.FeedbackNotRelevant, store.FeedbackHelpful, store.FeedbackCompleted:
		default:
			return fmt.Errorf("unknown feedback type %q", args[1])
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := app.Feedback.RecordFeedback(ctx, uid, store.UserFeedback{ContentID: contentID, FeedbackType: ft}); err != nil {
			return err
		}
		fmt.Println("feedback recorded")
		return nil
	},
}
