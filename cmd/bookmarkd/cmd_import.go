package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/codenerd-labs/bookmarkd/internal/ingestion"
)

var importCategory string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk-import a newline-delimited list of URLs",
	Long: `Reads one URL per line from file (blank lines and lines starting
with # are skipped), runs the ingestion pipeline for each, and reports
a job id that 'bookmarkd progress' can follow in real time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}

		urls, err := readURLList(args[0])
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return fmt.Errorf("no URLs found in %s", args[0])
		}

		requests := make([]ingestion.Request, len(urls))
		for i, u := range urls {
			requests[i] = ingestion.Request{URL: u, Category: importCategory}
		}

		jobID := uuid.NewString()
		fmt.Printf("starting bulk import job %s (%d URLs)\n", jobID, len(requests))
		fmt.Printf("follow along with: bookmarkd progress --user %s %s\n", username, jobID)

		go func() {
			result, err := app.Ingestion.BulkIngest(context.Background(), uid, jobID, requests, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "job %s failed: %v\n", jobID, err)
				return
			}
			fmt.Printf("job %s finished: %d created, %d updated, %d failed, %d total\n", jobID, result.Created, result.Updated, result.Failed, result.Total)
		}()

		// block the CLI invocation on the same stream a 'progress'
		// command would subscribe to, so a single-terminal run still
		// sees live updates without needing a second process.
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		for ev := range app.Progress.Subscribe(ctx, uid, jobID, 0) {
			fmt.Printf("[%s] %d/%d processed (%d failed)\n", ev.Status, ev.Processed, ev.Total, ev.Failed)
		}
		return nil
	},
}

func readURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func init() {
	importCmd.Flags().StringVar(&importCategory, "category", "", "Category label applied to every imported bookmark")
}
