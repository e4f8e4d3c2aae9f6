package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a basic in-memory per-client-IP rate limiter for the public
// HTTP surface. The snapshot fetcher's own upstream rate gate (C1) is
// separate (an in-process token bucket inside the Gateway); this one only
// protects this process's HTTP handlers from abusive callers.
func RateLimiter(requests int, window time.Duration) gin.HandlerFunc {
	type client struct {
		count   int
		resetAt time.Time
	}

	clients := make(map[string]*client)
	var mu sync.Mutex

	return func(c *gin.Context) {
		mu.Lock()
		defer mu.Unlock()

		ip := c.ClientIP()
		now := time.Now()

		if cl, exists := clients[ip]; exists {
			if now.After(cl.resetAt) {
				cl.count = 1
				cl.resetAt = now.Add(window)
			} else if cl.count >= requests {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
				c.Abort()
				return
			} else {
				cl.count++
			}
		} else {
			clients[ip] = &client{count: 1, resetAt: now.Add(window)}
		}

		c.Next()
	}
}
