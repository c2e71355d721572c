package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/yungbote/storybook-backend/internal/http/response"
	"github.com/yungbote/storybook-backend/internal/observability"
	"github.com/yungbote/storybook-backend/internal/platform/apierr"
	"github.com/yungbote/storybook-backend/internal/platform/ctxutil"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

const MsgTooManyRequests = "Too many requests. Please try again later."

// UserRateLimiter hands out one token bucket per authenticated user. Buckets
// of idle users expire from the cache.
type UserRateLimiter struct {
	log     *logger.Logger
	every   time.Duration
	burst   int
	buckets *cache.Cache
	metrics *observability.Metrics
}

// NewUserRateLimiter allows perMinute requests per user with the given
// burst. perMinute <= 0 disables limiting.
func NewUserRateLimiter(log *logger.Logger, perMinute, burst int, metrics *observability.Metrics) *UserRateLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &UserRateLimiter{
		log:     log.With("middleware", "UserRateLimiter"),
		burst:   burst,
		metrics: metrics,
	}
	if perMinute > 0 {
		l.every = time.Minute / time.Duration(perMinute)
		idle := 10 * time.Minute
		if window := l.every * time.Duration(burst); window > idle {
			idle = window
		}
		l.buckets = cache.New(idle, 2*idle)
	}
	return l
}

// Allow reports whether key may proceed now.
func (l *UserRateLimiter) Allow(key string) bool {
	if l == nil || l.buckets == nil {
		return true
	}
	if v, ok := l.buckets.Get(key); ok {
		lim := v.(*rate.Limiter)
		l.buckets.SetDefault(key, lim)
		return lim.Allow()
	}
	lim := rate.NewLimiter(rate.Every(l.every), l.burst)
	if err := l.buckets.Add(key, lim, cache.DefaultExpiration); err != nil {
		// Lost a race with a concurrent first request for the same key.
		if v, ok := l.buckets.Get(key); ok {
			lim = v.(*rate.Limiter)
		}
	}
	return lim.Allow()
}

// Middleware must run after RequireAuth. Anonymous requests pass through.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := ctxutil.UserID(c.Request.Context())
		if uid == uuid.Nil || l.Allow(uid.String()) {
			c.Next()
			return
		}
		l.metrics.IncRateLimited(c.FullPath())
		l.log.Warn("rate limited", "user_id", uid.String(), "path", c.FullPath())
		c.Header("Retry-After", retryAfter(l.every))
		response.Fail(c, l.log, apierr.WithMessage(http.StatusTooManyRequests, "rate_limited", MsgTooManyRequests, nil))
	}
}

func retryAfter(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
