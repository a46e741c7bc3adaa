package server

import (
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/rezonia/ubl-invoice-engine/internal/auth"
)

const (
	headerAPIKey    = "X-API-Key"
	headerRequestID = "X-Request-ID"

	ctxClient    = "client"
	ctxRequestID = "request_id"
)

// requestLogger tags every request with an id and logs one line per request
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ctxRequestID, requestID)
		c.Header(headerRequestID, requestID)

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		short := requestID
		if len(short) > 8 {
			short = short[:8]
		}
		log.Printf("[%s] %s | %d | %v | %s | %s",
			short,
			c.Request.Method,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			path,
		)
		for _, e := range c.Errors {
			log.Printf("[%s] Error: %v", short, e.Err)
		}
	}
}

// corsMiddleware allows the configured origins, or any origin when none are
// configured
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Content-Type", "Origin", headerAPIKey, headerRequestID},
		ExposeHeaders: []string{"Content-Length", "Content-Type", headerRequestID, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// authorize resolves the API key, checks the feature and applies the
// client's rate limit. With an empty client table every request passes.
func (s *Server) authorize(feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.clients.Len() == 0 {
			c.Next()
			return
		}

		client, err := s.clients.Authorize(c.GetHeader(headerAPIKey), feature)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(ctxClient, client)

		if !s.limiter.allow(c, client) {
			abortWithError(c, ErrRateLimited)
			return
		}

		c.Next()

		log.Printf("[usage] client=%s feature=%s status=%d", client.ClientID, feature, c.Writer.Status())
	}
}

// ClientRateLimiter keeps one token bucket per API client
type ClientRateLimiter struct {
	limiters      map[string]*rateLimiterEntry
	mu            sync.Mutex
	burst         int
	defaultPerMin int
	entryTTL      time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterConfig holds configuration for the rate limiter
type RateLimiterConfig struct {
	Burst           int
	DefaultPerMin   int
	CleanupInterval time.Duration
	EntryTTL        time.Duration
}

// DefaultRateLimiterConfig returns the defaults used when none are set
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Burst:           10,
		DefaultPerMin:   60,
		CleanupInterval: 5 * time.Minute,
		EntryTTL:        10 * time.Minute,
	}
}

// NewClientRateLimiter creates a limiter and starts its cleanup loop
func NewClientRateLimiter(cfg RateLimiterConfig) *ClientRateLimiter {
	def := DefaultRateLimiterConfig()
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.DefaultPerMin <= 0 {
		cfg.DefaultPerMin = def.DefaultPerMin
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = def.EntryTTL
	}

	rl := &ClientRateLimiter{
		limiters:      make(map[string]*rateLimiterEntry),
		burst:         cfg.Burst,
		defaultPerMin: cfg.DefaultPerMin,
		entryTTL:      cfg.EntryTTL,
		stop:          make(chan struct{}),
	}
	go rl.cleanupLoop(cfg.CleanupInterval)
	return rl
}

func (rl *ClientRateLimiter) perMin(client *auth.Client) int {
	if client.RateLimitPerMin > 0 {
		return client.RateLimitPerMin
	}
	return rl.defaultPerMin
}

func (rl *ClientRateLimiter) getLimiter(client *auth.Client) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[client.ClientID]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(float64(rl.perMin(client))/60), rl.burst)
	rl.limiters[client.ClientID] = &rateLimiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// allow consumes one token and sets the rate limit headers
func (rl *ClientRateLimiter) allow(c *gin.Context, client *auth.Client) bool {
	limiter := rl.getLimiter(client)
	c.Header("X-RateLimit-Limit", strconv.Itoa(rl.perMin(client)))

	if !limiter.Allow() {
		retry := int(math.Ceil(60 / float64(rl.perMin(client))))
		c.Header("X-RateLimit-Remaining", "0")
		c.Header("Retry-After", strconv.Itoa(retry))
		return false
	}

	c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
	return true
}

func (rl *ClientRateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *ClientRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.entryTTL)
	for id, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, id)
		}
	}
}

// Active returns the number of tracked clients
func (rl *ClientRateLimiter) Active() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Close stops the cleanup loop
func (rl *ClientRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
