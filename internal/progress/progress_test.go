package progress

import (
	"context"
	"testing"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d/%d", i+1, n)
		}
	}
	return out
}

func TestPublishAssignsMonotonicSequence(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	s.Publish(ctx, 1, "job-a", Event{Status: StatusRunning, Processed: 1, Total: 3})
	s.Publish(ctx, 1, "job-a", Event{Status: StatusRunning, Processed: 2, Total: 3})
	s.Publish(ctx, 1, "job-a", Event{Status: StatusDone, Processed: 3, Total: 3})

	ch := s.Subscribe(ctx, 1, "job-a", 0)
	events := drain(t, ch, 3)
	require.Equal(t, []uint64{1, 2, 3}, []uint64{events[0].Seq, events[1].Seq, events[2].Seq})
	require.Equal(t, StatusDone, events[2].Status)
}

func TestSubscribeResumesFromLastSeen(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	s.Publish(ctx, 1, "job-a", Event{Status: StatusRunning, Processed: 1})
	s.Publish(ctx, 1, "job-a", Event{Status: StatusRunning, Processed: 2})
	s.Publish(ctx, 1, "job-a", Event{Status: StatusDone, Processed: 3})

	ch := s.Subscribe(ctx, 1, "job-a", 1)
	events := drain(t, ch, 2)
	require.Equal(t, uint64(2), events[0].Seq)
	require.Equal(t, uint64(3), events[1].Seq)
}

func TestSubscribeClosesAfterTerminalEvent(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	s.Publish(ctx, 1, "job-a", Event{Status: StatusDone})

	ch := s.Subscribe(ctx, 1, "job-a", 0)
	_, ok := <-ch
	require.True(t, ok)
	_, ok = <-ch
	require.False(t, ok, "channel should close once a terminal event has been delivered")
}

func TestJobsForDifferentUsersAreIsolated(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	s.Publish(ctx, 1, "job-a", Event{Status: StatusDone, Processed: 1})
	s.Publish(ctx, 2, "job-a", Event{Status: StatusDone, Processed: 99})

	aliceCh := s.Subscribe(ctx, 1, "job-a", 0)
	bobCh := s.Subscribe(ctx, 2, "job-a", 0)

	aliceEvents := drain(t, aliceCh, 1)
	bobEvents := drain(t, bobCh, 1)
	require.Equal(t, 1, aliceEvents[0].Processed)
	require.Equal(t, 99, bobEvents[0].Processed)
}

func TestSubscribeLiveDeliversFutureEvents(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	ch := s.Subscribe(ctx, 1, "job-a", 0)
	go func() {
		s.Publish(ctx, 1, "job-a", Event{Status: StatusRunning, Processed: 1})
		s.Publish(ctx, 1, "job-a", Event{Status: StatusDone, Processed: 2})
	}()

	events := drain(t, ch, 2)
	require.Equal(t, uint64(1), events[0].Seq)
	require.Equal(t, uint64(2), events[1].Seq)
}

func TestReplayFallsBackToCacheAfterHistoryEviction(t *testing.T) {
	ch := cache.New("", true)
	s := New(ch)
	bgCtx := context.Background()

	total := replayBuffer + 5
	for i := 0; i < total; i++ {
		s.Publish(bgCtx, 1, "job-a", Event{Status: StatusRunning, Processed: i})
	}

	// None of these events are terminal, so the subscriber goroutine
	// stays parked waiting for more; cancel once the backlog is drained
	// so it unsubscribes and exits instead of leaking.
	ctx, cancel := context.WithCancel(bgCtx)
	// the ring only retains the most recent replayBuffer events; a
	// subscriber asking for everything gets the retained tail, served
	// from the cached snapshot since js.history[0].Seq > lastSeen+1.
	events := drain(t, s.Subscribe(ctx, 1, "job-a", 0), replayBuffer)
	cancel()
	require.Equal(t, uint64(total-replayBuffer+1), events[0].Seq)
	require.Equal(t, uint64(total), events[len(events)-1].Seq)
}
