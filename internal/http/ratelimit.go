package http

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// rateLimiter grants each client address a fixed budget of requests per
// window. The budget is a non-refilling limiter that is replaced once the
// window started by the address's first request has elapsed.
type rateLimiter struct {
	mu        sync.Mutex
	requests  int
	window    time.Duration
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	budget *rate.Limiter
	start  time.Time
}

func newRateLimiter(requests int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		requests: requests,
		window:   window,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.window {
		for k, v := range l.visitors {
			if now.Sub(v.start) >= l.window {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok || now.Sub(v.start) >= l.window {
		// a zero limit never refills; the burst is the whole window's budget
		v = &visitor{budget: rate.NewLimiter(0, l.requests), start: now}
		l.visitors[key] = v
	}
	return v.budget.AllowN(now, 1)
}

func (l *rateLimiter) middleware() gin.HandlerFunc {
	message := fmt.Sprintf("Too many requests from this IP, please try again after %d minutes", int(l.window.Minutes()))
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Message: message})
			return
		}
		c.Next()
	}
}
