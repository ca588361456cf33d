package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yoockh/brdextractor/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// RateLimit shares one token bucket across all callers of the wrapped
// routes: requestsPerMinute sustained, burst at once.
func RateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), burst)

	return func(c *gin.Context) {
		r := limiter.Reserve()
		if !r.OK() {
			abortLimited(c, time.Minute)
			return
		}
		if d := r.Delay(); d > 0 {
			r.Cancel()
			abortLimited(c, d)
			return
		}
		c.Next()
	}
}

func abortLimited(c *gin.Context, retry time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, apiError{
		Code:    utils.CodeTooManyRequests,
		Message: "too many submissions, try again later",
	})
}

// MaxBody caps the request body. Reads past the limit fail with
// *http.MaxBytesError.
func MaxBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
