package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	rateLimitKeyPrefix = "ratelimit:"
	rateLimitWindow    = 60 * time.Second
)

var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

local remaining = limit - count - 1
local resetAt = now + window

return {1, remaining, resetAt}
`)

// RedisRateLimiter shares the sliding window across instances.
type RedisRateLimiter struct {
	client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

func (rl *RedisRateLimiter) Check(ctx context.Context, key string, limit int) (allowed bool, remaining int, resetAt int64) {
	now := time.Now().Unix()

	result, err := rateLimitScript.Run(ctx, rl.client, []string{rateLimitKeyPrefix + key},
		now, int64(rateLimitWindow.Seconds()), limit).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis rate limit check failed, allowing request")
		return true, limit - 1, now + int64(rateLimitWindow.Seconds())
	}

	if len(result) != 3 {
		log.Warn().Str("key", key).Msg("unexpected redis rate limit result")
		return true, limit - 1, now + int64(rateLimitWindow.Seconds())
	}

	return result[0] == 1, int(result[1]), result[2]
}

// Limiter is the shared contract between the memory and Redis backends.
type Limiter interface {
	Check(ctx context.Context, key string, limit int) (allowed bool, remaining int, resetAt int64)
}

// RateLimitMiddleware throttles the game actions per player.
type RateLimitMiddleware struct {
	limiter Limiter
	limit   int
}

func NewRateLimitMiddleware(limiter Limiter, limit int) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, limit: limit}
}

// maxPeekBytes bounds how much of the body the limiter reads to find the
// player address; action payloads are a few hundred bytes.
const maxPeekBytes = 64 << 10

// requestKey identifies the caller for throttling: the player address from
// the request body when present, otherwise the remote host. Never the raw
// socket address, whose ephemeral port changes on every reconnect.
func requestKey(r *http.Request) string {
	if player := playerFromBody(r); player != "" {
		return "player:" + player
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

// playerFromBody peeks the player address out of the JSON body and restores
// the body for the handler. The handler re-validates the full payload, so a
// parse failure here only means falling back to the host key.
func playerFromBody(r *http.Request) string {
	if r.Body == nil {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	if err != nil {
		return ""
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}

	var payload struct {
		SessionKey json.RawMessage `json:"sessionKey"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.SessionKey) == 0 {
		return ""
	}

	var addr string
	if err := json.Unmarshal(payload.SessionKey, &addr); err == nil {
		return addr
	}
	var key struct {
		PlayerAddress string `json:"playerAddress"`
	}
	if err := json.Unmarshal(payload.SessionKey, &key); err == nil {
		return key.PlayerAddress
	}
	return ""
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := requestKey(r)
		allowed, remaining, resetAt := m.limiter.Check(r.Context(), key, m.limit)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", formatInt(resetAt))

		if !allowed {
			log.Warn().Str("key", key).Msg("rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
