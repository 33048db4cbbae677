package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codenerd-labs/bookmarkd/internal/orchestrator"
)

var (
	recommendTechs    []string
	recommendMax      int
	recommendMinScore float64
	recommendEngine   string
	recommendProject  int64
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <text describing what you're working on>",
	Short: "Recommend saved bookmarks for a task or learning goal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := app.Orchestrator.GetRecommendations(ctx, orchestrator.Request{
			UserID:             uid,
			ProjectID:          recommendProject,
			Text:               strings.Join(args, " "),
			Technologies:       recommendTechs,
			MaxRecommendations: recommendMax,
			MinScore:           recommendMinScore,
			EnginePreference:   recommendEngine,
		})
		if err != nil {
			return err
		}

		if len(result.Items) == 0 {
			fmt.Println("no recommendations matched; try saving more bookmarks or lowering --min-score")
			return nil
		}

		fmt.Printf("engine=%s candidates=%d cache_hit=%v\n\n", result.Metrics.EngineUsed, result.Metrics.CandidateCount, result.Metrics.CacheHit)
		for i, item := range result.Items {
			fmt.Printf("%d. [%.0f] %s\n   %s\n   %s\n", i+1, item.Score, item.Bookmark.Title, item.Bookmark.URL, item.Reason)
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringSliceVar(&recommendTechs, "tech", nil, "Technologies relevant to this request")
	recommendCmd.Flags().IntVar(&recommendMax, "max", 10, "Maximum recommendations to return")
	recommendCmd.Flags().Float64Var(&recommendMinScore, "min-score", 25, "Minimum score (0-100) to include")
	recommendCmd.Flags().StringVar(&recommendEngine, "engine", "", "Engine preference: 'fast' forces the fast engine; otherwise the engine is chosen by candidate count")
	recommendCmd.Flags().Int64Var(&recommendProject, "project", 0, "Project id to scope intent analysis to")
}
