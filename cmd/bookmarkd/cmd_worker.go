package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background content analyzer until interrupted",
	Long: `Runs the analyzer loop that turns scraped bookmarks into
structured content analysis (technologies, difficulty, relevance). This
never blocks ingestion: it is meant to run as a long-lived sidecar
process alongside CLI or API usage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app.Analyzer.Start()
		fmt.Println("background analyzer running, press Ctrl+C to stop")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		fmt.Println("stopping...")
		app.Analyzer.Stop()
		return nil
	},
}
