package ratelimit

import (
	"time"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
)

// CheckAndReserve atomically checks userID's minute/day/month counters
// against the configured limits and, if all three have headroom,
// increments them and returns nil. Otherwise it returns a
// KindRateLimited error carrying how long the caller must wait for the
// tightest exhausted window to reset.
func (r *Registry) CheckAndReserve(userID int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.windowLocked(userID, now)

	if r.limits.PerMinute > 0 && w.minuteCount >= r.limits.PerMinute {
		return apperr.RateLimited(w.minuteReset.Sub(now), "per-minute request limit reached")
	}
	if r.limits.PerDay > 0 && w.dayCount >= r.limits.PerDay {
		return apperr.RateLimited(w.dayReset.Sub(now), "per-day request limit reached")
	}
	if r.limits.PerMonth > 0 && w.monthCount >= r.limits.PerMonth {
		return apperr.RateLimited(w.monthReset.Sub(now), "per-month request limit reached")
	}

	w.minuteCount++
	w.dayCount++
	w.monthCount++
	return nil
}

// Reserve is CheckAndReserve bound to the current time, so call sites
// that dispatch an LLM request don't need their own clock.
func (r *Registry) Reserve(userID int64) error {
	return r.CheckAndReserve(userID, time.Now())
}

// GetUsage returns userID's current counters without reserving a slot.
func (r *Registry) GetUsage(userID int64, now time.Time) Usage {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.windowLocked(userID, now)
	return Usage{
		Minute:        w.minuteCount,
		Day:           w.dayCount,
		Month:         w.monthCount,
		MinuteResetAt: w.minuteReset,
		DayResetAt:    w.dayReset,
		MonthResetAt:  w.monthReset,
	}
}

// windowLocked returns userID's window, resetting any counter whose
// boundary has passed. Callers must hold r.mu.
func (r *Registry) windowLocked(userID int64, now time.Time) *userWindow {
	w, ok := r.windows[userID]
	if !ok {
		w = &userWindow{}
		r.windows[userID] = w
	}

	if now.After(w.minuteReset) {
		w.minuteCount = 0
		w.minuteReset = now.Truncate(time.Minute).Add(time.Minute)
	}
	if now.After(w.dayReset) {
		w.dayCount = 0
		w.dayReset = startOfDay(now).AddDate(0, 0, 1)
	}
	if now.After(w.monthReset) {
		w.monthCount = 0
		w.monthReset = startOfMonth(now).AddDate(0, 1, 0)
	}

	return w
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
