// Package progress publishes and replays job progress events for bulk
// imports. Each (user, job) pair gets its own monotonically increasing
// sequence of events so a client that disconnects mid-import can
// reconnect and resume from the last sequence number it saw instead of
// missing updates or seeing them twice.
package progress

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/cache"
	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

// Status is the terminal or in-flight state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Event is one update in a job's progress sequence.
type Event struct {
	Seq       uint64    `json:"seq"`
	JobID     string    `json:"job_id"`
	Status    Status    `json:"status"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e Event) terminal() bool {
	return e.Status == StatusDone || e.Status == StatusCancelled || e.Status == StatusFailed
}

// jobKey identifies a job's event stream; jobs belong to exactly one
// user and two users can never collide on the same key.
type jobKey struct {
	userID int64
	jobID  string
}

const replayBuffer = 500
const replayTTL = 30 * time.Minute

type subscriber struct {
	ch     chan Event
	lastAt time.Time
}

type jobState struct {
	mu       sync.Mutex
	seq      uint64
	history  []Event // capped ring, oldest dropped past replayBuffer
	subs     map[int]*subscriber
	nextSub  int
	terminal bool
}

// Stream publishes job progress events and lets subscribers replay
// everything they missed since a given sequence number, either from
// the in-process ring buffer or, after a restart, from the cache.
type Stream struct {
	mu    sync.Mutex
	jobs  map[jobKey]*jobState
	cache cache.Cache
}

// New builds a Stream. cache may be nil, in which case reconnect replay
// only works within this process's lifetime.
func New(c cache.Cache) *Stream {
	return &Stream{jobs: make(map[jobKey]*jobState), cache: c}
}

func (s *Stream) stateFor(userID int64, jobID string) *jobState {
	key := jobKey{userID, jobID}
	s.mu.Lock()
	defer s.mu.Unlock()
	js, ok := s.jobs[key]
	if !ok {
		js = &jobState{subs: make(map[int]*subscriber)}
		s.jobs[key] = js
	}
	return js
}

// Publish appends an event to (userID, jobID)'s stream, assigning it
// the next sequence number, and delivers it to every live subscriber.
// It never blocks: a subscriber too slow to keep up just misses events
// and must resume via replay.
func (s *Stream) Publish(ctx context.Context, userID int64, jobID string, ev Event) {
	js := s.stateFor(userID, jobID)

	js.mu.Lock()
	js.seq++
	ev.Seq = js.seq
	ev.JobID = jobID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	js.history = append(js.history, ev)
	if len(js.history) > replayBuffer {
		js.history = js.history[len(js.history)-replayBuffer:]
	}
	if ev.terminal() {
		js.terminal = true
	}
	for _, sub := range js.subs {
		select {
		case sub.ch <- ev:
		default:
			logging.Get(logging.CategoryProgress).Warn("subscriber for job %s fell behind, dropping event seq=%d", jobID, ev.Seq)
		}
	}
	js.mu.Unlock()

	if s.cache != nil {
		s.persist(ctx, userID, jobID, js)
	}
}

func (s *Stream) persist(ctx context.Context, userID int64, jobID string, js *jobState) {
	js.mu.Lock()
	snapshot := append([]Event{}, js.history...)
	js.mu.Unlock()

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	s.cache.Set(ctx, snapshotKey(userID, jobID), raw, replayTTL)
}

// Subscribe returns a channel delivering every event for (userID,
// jobID) with seq greater than lastSeen, including a best-effort replay
// from the cache if the in-process history doesn't reach back that far
// (the process restarted since lastSeen was recorded). The channel is
// closed once a terminal event has been delivered or ctx is done.
func (s *Stream) Subscribe(ctx context.Context, userID int64, jobID string, lastSeen uint64) <-chan Event {
	js := s.stateFor(userID, jobID)
	out := make(chan Event, replayBuffer)

	js.mu.Lock()
	backlog := s.replayLocked(ctx, userID, jobID, js, lastSeen)
	id := js.nextSub
	js.nextSub++
	sub := &subscriber{ch: make(chan Event, 64), lastAt: time.Now()}
	js.subs[id] = sub
	alreadyTerminal := js.terminal
	js.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			js.mu.Lock()
			delete(js.subs, id)
			close(sub.ch)
			js.mu.Unlock()
		}()

		for _, ev := range backlog {
			select {
			case out <- ev:
				if ev.terminal() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
		if alreadyTerminal {
			return
		}

		for {
			select {
			case ev, ok := <-sub.ch:
				if !ok {
					return
				}
				if ev.Seq <= lastSeen {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
				if ev.terminal() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// replayLocked returns events with seq > lastSeen, preferring the live
// in-process history and falling back to the cached snapshot when the
// history doesn't cover lastSeen (js.mu must be held by the caller).
func (s *Stream) replayLocked(ctx context.Context, userID int64, jobID string, js *jobState, lastSeen uint64) []Event {
	if len(js.history) > 0 && js.history[0].Seq <= lastSeen+1 {
		return filterAfter(js.history, lastSeen)
	}
	if s.cache == nil {
		return filterAfter(js.history, lastSeen)
	}
	raw, ok := s.cache.Get(ctx, snapshotKey(userID, jobID))
	if !ok {
		return filterAfter(js.history, lastSeen)
	}
	var snapshot []Event
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return filterAfter(js.history, lastSeen)
	}
	return filterAfter(snapshot, lastSeen)
}

func filterAfter(events []Event, lastSeen uint64) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Seq > lastSeen {
			out = append(out, e)
		}
	}
	return out
}

func snapshotKey(userID int64, jobID string) string {
	return cache.Key(cache.NamespaceProgress, strconv.FormatInt(userID, 10), jobID)
}
