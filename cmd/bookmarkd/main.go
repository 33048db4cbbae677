// Package main implements the bookmarkd CLI - a personal knowledge
// recommendation service. It saves bookmarks, scrapes and embeds them,
// analyzes them in the background with an LLM, and recommends what to
// read next based on technology overlap, semantic similarity, and
// learned feedback.
//
// File Index:
//   - main.go          - entry point, rootCmd, global flags
//   - app.go           - app wiring (buildApp, config hot-reload)
//   - cmd_ingest.go     - ingestCmd: save and scrape one URL
//   - cmd_import.go     - importCmd: bulk-import URLs from a file
//   - cmd_recommend.go  - recommendCmd: run the recommendation pipeline
//   - cmd_worker.go     - workerCmd: run the background analyzer loop
//   - cmd_progress.go   - progressCmd: stream a bulk import job's progress
//   - cmd_keys.go       - keysCmd: manage per-user LLM API keys
//   - cmd_feedback.go   - feedbackCmd: record recommendation feedback
//   - cmd_user.go       - userCmd: create and look up users
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

var (
	verbose    bool
	configPath string
	workspace  string
	username   string
	timeout    time.Duration

	logger *zap.Logger
	app    *App
)

var rootCmd = &cobra.Command{
	Use:   "bookmarkd",
	Short: "bookmarkd - a personal bookmark recommendation service",
	Long: `bookmarkd saves your bookmarks, scrapes and embeds their content,
analyzes them with an LLM in the background, and recommends what to read
next based on your technologies, stated intent, and past feedback.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}

		built, err := buildApp(configPath, workspace)
		if err != nil {
			return fmt.Errorf("initialize bookmarkd: %w", err)
		}
		app = built
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		if app != nil {
			app.Close()
		}
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", "", "Username to operate as (required for most commands)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(
		ingestCmd,
		importCmd,
		recommendCmd,
		workerCmd,
		progressCmd,
		keysCmd,
		feedbackCmd,
		userCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// currentUserID resolves the --user flag to a user id, creating a
// friendly error if the flag is missing or the user doesn't exist yet.
func currentUserID() (int64, error) {
	if username == "" {
		return 0, fmt.Errorf("--user is required")
	}
	u, err := app.Store.GetUserByUsername(username)
	if err != nil {
		return 0, fmt.Errorf("user %q not found, create one with 'bookmarkd user create': %w", username, err)
	}
	return u.ID, nil
}
