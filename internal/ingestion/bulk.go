package ingestion

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codenerd-labs/bookmarkd/internal/logging"
	"github.com/codenerd-labs/bookmarkd/internal/progress"
)

// publishEvery controls how often progress is published during an
// import, counted in items; 1 publishes an event after every item.
const publishEvery = 1

// Canceller reports whether an in-flight job has been asked to stop.
// Bulk imports check it before dispatching each item.
type Canceller func(jobID string) bool

// BulkResult summarizes a finished or cancelled bulk import. Created and
// Updated partition Succeeded: Created counts URLs scraped and saved for
// the first time, Updated counts URLs that were already saved (either
// re-scraped via Force or left alone with only metadata touched).
type BulkResult struct {
	JobID     string
	Total     int
	Succeeded int
	Created   int
	Updated   int
	Failed    int
	Cancelled bool
}

// BulkIngest ingests every URL in requests, running up to p.concurrency
// scrapes at once, and publishes progress through the Pipeline's
// progress stream as items complete. One URL failing never aborts the
// job; failures are counted and the rest still run. Checking the
// canceller happens on the dispatch loop, not inside workers, so a
// cancelled job stops handing out new work but lets whatever is already
// in flight finish.
func (p *Pipeline) BulkIngest(ctx context.Context, userID int64, jobID string, requests []Request, cancelled Canceller) (BulkResult, error) {
	timer := logging.StartTimer(logging.CategoryIngestion, "BulkIngest")
	defer timer.Stop()

	result := BulkResult{JobID: jobID, Total: len(requests)}
	p.publish(ctx, userID, jobID, result, progress.StatusRunning, "")

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, req := range requests {
		i, req := i, req

		if cancelled != nil && cancelled(jobID) {
			mu.Lock()
			result.Cancelled = true
			mu.Unlock()
			break
		}

		g.Go(func() error {
			outcome, err := p.Ingest(ctx, userID, req)

			mu.Lock()
			if err != nil {
				result.Failed++
				logging.Get(logging.CategoryIngestion).Warn("bulk import item %d (%s) failed: %v", i, req.URL, err)
			} else {
				result.Succeeded++
				if outcome.Created {
					result.Created++
				} else {
					result.Updated++
				}
			}
			processed := result.Succeeded + result.Failed
			snapshot := result
			mu.Unlock()

			if processed%publishEvery == 0 {
				p.publish(ctx, userID, jobID, snapshot, progress.StatusRunning, fmt.Sprintf("%d/%d processed", processed, snapshot.Total))
			}
			return nil
		})
	}
	g.Wait()

	finalStatus := progress.StatusDone
	if result.Cancelled {
		finalStatus = progress.StatusCancelled
	}
	p.publish(ctx, userID, jobID, result, finalStatus, "")
	return result, nil
}

func (p *Pipeline) publish(ctx context.Context, userID int64, jobID string, result BulkResult, status progress.Status, message string) {
	if p.progress == nil {
		return
	}
	p.progress.Publish(ctx, userID, jobID, progress.Event{
		Status:    status,
		Processed: result.Succeeded + result.Failed,
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Message:   message,
	})
}
