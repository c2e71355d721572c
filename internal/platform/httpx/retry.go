package httpx

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusCoder is implemented by transport errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

// IsRetryableStatus reports whether an upstream status is worth retrying.
func IsRetryableStatus(status int) bool {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	case status >= 500 && status <= 599:
		return true
	default:
		return false
	}
}

// IsRetryableError classifies transport failures: timeouts, resets and
// retryable HTTP statuses. Context cancellation is never retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return IsRetryableStatus(sc.HTTPStatusCode())
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "eof")
}

// RetryAfterDuration honors a Retry-After header (seconds) when present,
// capped at max. Otherwise it returns fallback.
func RetryAfterDuration(resp *http.Response, fallback, max time.Duration) time.Duration {
	if resp == nil {
		return capDuration(fallback, max)
	}
	raw := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if raw == "" {
		return capDuration(fallback, max)
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return capDuration(time.Duration(secs)*time.Second, max)
	}
	if at, err := http.ParseTime(raw); err == nil {
		return capDuration(time.Until(at), max)
	}
	return capDuration(fallback, max)
}

// JitterSleep spreads d by up to +/-20%.
func JitterSleep(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := int64(d) / 5
	if spread <= 0 {
		return d
	}
	return d - time.Duration(spread) + time.Duration(rand.Int64N(2*spread))
}

func capDuration(d, max time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if max > 0 && d > max {
		return max
	}
	return d
}
