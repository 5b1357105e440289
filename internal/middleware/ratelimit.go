package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
	"github.com/noah-isme/barbershop-api/pkg/ratelimit"
	"github.com/noah-isme/barbershop-api/pkg/response"
)

// KioskHeader identifies the kiosk device calling the API.
const KioskHeader = "X-Kiosk-ID"

// RateLimitRecorder counts rejected requests.
type RateLimitRecorder interface {
	RecordRateLimited(scope string)
}

// RateLimit throttles requests per kiosk identity, falling back to the client
// IP. Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, scope string, recorder RateLimitRecorder, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		identity := strings.TrimSpace(c.GetHeader(KioskHeader))
		if identity == "" {
			identity = c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), scope+":"+identity)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			if recorder != nil {
				recorder.RecordRateLimited(scope)
			}
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
