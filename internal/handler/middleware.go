package handler

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"proposal-generator/internal/model"
)

const (
	headerRequestID = "X-Request-ID"
	requestIDKey    = "request_id"
	visitorTTL      = 3 * time.Minute
)

func requestID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(requestIDKey).(string)
	return id
}

// middleware assigns a request id, answers CORS preflights, recovers panics
// and writes one access log line per request.
func (h *Handler) middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		id := string(ctx.Request.Header.Peek(headerRequestID))
		if id == "" {
			id = uuid.New().String()
		}
		ctx.SetUserValue(requestIDKey, id)
		ctx.Response.Header.Set(headerRequestID, id)

		ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowOrigin, h.opts.CORSOrigin)
		ctx.Response.Header.Set(fasthttp.HeaderAccessControlExposeHeaders, "Content-Disposition, X-Document-ID, X-Request-ID")

		defer func() {
			if r := recover(); r != nil {
				h.fail(ctx, fmt.Errorf("panic: %v", r), "Internal server error")
			}
			h.logger.InfoContext(ctx, "request",
				"request_id", id,
				"method", string(ctx.Method()),
				"path", string(ctx.Path()),
				"status", ctx.Response.StatusCode(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()

		if ctx.IsOptions() {
			ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
			ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowHeaders, "Content-Type, X-Request-ID")
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}
		next(ctx)
	}
}

// limited rejects requests from a client address that exceeded its rate.
func (h *Handler) limited(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	if h.limiter == nil {
		return next
	}
	return func(ctx *fasthttp.RequestCtx) {
		if !h.limiter.Allow(ctx.RemoteIP().String()) {
			ctx.Response.Header.Set(fasthttp.HeaderRetryAfter, strconv.Itoa(h.limiter.retryAfter()))
			writeError(ctx, fasthttp.StatusTooManyRequests, model.ErrorResponse{Error: "Too many requests"})
			return
		}
		next(ctx)
	}
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than visitorTTL are dropped on the next sweep.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) retryAfter() int {
	if rl.rps <= 0 {
		return 1
	}
	secs := int(1 / float64(rl.rps))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}
