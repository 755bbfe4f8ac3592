package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"
)

const (
	maxEntries      = 10000
	entryTTL        = 5 * time.Minute
	cleanupInterval = time.Minute
	windowDuration  = time.Minute
)

type rateLimitEntry struct {
	timestamps []time.Time
	lastAccess time.Time
}

// RateLimiter is a process-local sliding-window limiter, used when no Redis
// is configured.
type RateLimiter struct {
	mu          sync.Mutex
	store       map[string]*rateLimitEntry
	lastCleanup time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		store:       make(map[string]*rateLimitEntry),
		lastCleanup: time.Now(),
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < cleanupInterval && len(rl.store) < maxEntries {
		return
	}
	for key, entry := range rl.store {
		if now.Sub(entry.lastAccess) > entryTTL {
			delete(rl.store, key)
		}
	}
	rl.lastCleanup = now
}

// Check reports whether another request under key fits within limit per
// window, and when the window resets.
func (rl *RateLimiter) Check(ctx context.Context, key string, limit int) (allowed bool, remaining int, resetAt int64) {
	now := time.Now()
	windowStart := now.Add(-windowDuration)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanup(now)

	entry, ok := rl.store[key]
	if !ok {
		entry = &rateLimitEntry{}
		rl.store[key] = entry
	}
	entry.lastAccess = now

	kept := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	entry.timestamps = kept

	if len(entry.timestamps) >= limit {
		oldest := entry.timestamps[0]
		return false, 0, oldest.Add(windowDuration).Unix()
	}

	entry.timestamps = append(entry.timestamps, now)
	return true, limit - len(entry.timestamps), now.Add(windowDuration).Unix()
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
