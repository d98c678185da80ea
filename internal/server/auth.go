package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"praxis/internal/config"
	"praxis/internal/logging"
)

const defaultWindow = time.Minute

// auth validates X-API-Key and applies the key's tier rate limit. A
// rejected request never consumes quota.
func (s *Server) auth() gin.HandlerFunc {
	log := logging.Get(logging.CategoryServer)
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}
		meta, rate, ok := s.lookupKey(key)
		if !ok {
			log.Warnw("rejected unknown API key", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Set("user", meta.User)
		c.Set("tier", meta.Tier)
		window, err := time.ParseDuration(rate.Window)
		if err != nil || window <= 0 {
			window = defaultWindow
		}

		if !s.limiter.Allow(key, rate.Requests, window) {
			s.metrics.denied.WithLabelValues(meta.Tier).Inc()
			c.Header("Retry-After", window.String())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
				"tier":  meta.Tier,
			})
			return
		}
		c.Next()
	}
}

// lookupKey resolves an API key and its tier rate under the reload lock.
func (s *Server) lookupKey(key string) (config.APIKey, config.TierRate, bool) {
	s.authMu.RLock()
	defer s.authMu.RUnlock()

	meta, ok := s.apiKeys[key]
	if !ok {
		return config.APIKey{}, config.TierRate{}, false
	}
	rate, ok := s.limits[meta.Tier]
	if !ok {
		// Unconfigured tiers get the tightest configured limit.
		rate = s.tightestLimit()
	}
	return meta, rate, true
}

// tightestLimit is called with authMu held.
func (s *Server) tightestLimit() config.TierRate {
	min := config.TierRate{Requests: 10, Window: "1m"}
	for _, rate := range s.limits {
		if rate.Requests < min.Requests {
			min = rate
		}
	}
	return min
}
