// Package ratelimit limits requests per client within a fixed one-minute window.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"spendwise/internal/cache"
)

const (
	window     = time.Minute
	maxClients = 10000
)

type counter struct {
	requests int
}

// Limiter tracks request counts per client key in a TTL-bounded LRU, so
// idle clients age out without a dedicated sweep.
type Limiter struct {
	requestsPerMinute int
	clients           *cache.LRUCache[counter]
}

type Config struct {
	RequestsPerMinute int
	MaxClients        int
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, MaxClients: maxClients}
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.MaxClients <= 0 {
		config.MaxClients = def.MaxClients
	}
	return &Limiter{
		requestsPerMinute: config.RequestsPerMinute,
		clients:           cache.NewLRUCache[counter](config.MaxClients, window),
	}
}

// Cache exposes the backing store so a cache.Manager can sweep it.
func (rl *Limiter) Cache() cache.Cleaner {
	return rl.clients
}

// Allow counts a request from clientIP and reports whether it is within the limit.
func (rl *Limiter) Allow(clientIP string) bool {
	c := rl.clients.Update(clientIP, func(c counter, _ bool) counter {
		c.requests++
		return c
	})
	return c.requests <= rl.requestsPerMinute
}

// ActiveClients returns the number of clients with a live window.
func (rl *Limiter) ActiveClients() int {
	return rl.clients.Size()
}

// Middleware rejects requests over the limit with 429, or calls onLimit when given.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
