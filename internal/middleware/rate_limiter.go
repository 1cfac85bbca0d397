package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Rate limiting ─────────────────────────────────────────────────────────────
// The login limiter and the general API limiter share one windowed per-IP
// counter type; they differ only in their map, limit and window.

// ipWindow counts requests from one IP inside the current window.
type ipWindow struct {
	mu        sync.Mutex
	count     int
	windowEnd time.Time
}

// ipTracker maps client IPs to their current window.
type ipTracker struct {
	mu      sync.Mutex
	windows map[string]*ipWindow
}

func newIPTracker() *ipTracker {
	return &ipTracker{windows: make(map[string]*ipWindow)}
}

// allow counts one request and reports whether it stays within limit, along
// with the moment the window resets.
func (t *ipTracker) allow(ip string, limit int, window time.Duration) (bool, time.Time) {
	t.mu.Lock()
	w, ok := t.windows[ip]
	if !ok {
		w = &ipWindow{}
		t.windows[ip] = w
	}
	t.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.After(w.windowEnd) {
		w.count = 0
		w.windowEnd = now.Add(window)
	}
	w.count++
	return w.count <= limit, w.windowEnd
}

// purge drops windows that already expired and returns how many went.
func (t *ipTracker) purge(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	purged := 0
	for ip, w := range t.windows {
		w.mu.Lock()
		if now.After(w.windowEnd) {
			delete(t.windows, ip)
			purged++
		}
		w.mu.Unlock()
	}
	return purged
}

func (t *ipTracker) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.windows)
}

var (
	loginTracker = newIPTracker()
	apiTracker   = newIPTracker()
)

// LoginRateLimiter limits login attempts to 20 per minute per IP. Registers in
// one store share an egress IP, so the limit leaves headroom for a shift
// change where every terminal logs in at once.
func LoginRateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ok, _ := loginTracker.allow(c.ClientIP(), 20, time.Minute); !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many login attempts, retry in 1 minute"))
			return
		}
		c.Next()
	}
}

// RateLimiter limits general API traffic to limit requests per window per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := apiTracker.allow(c.ClientIP(), limit, window)
		if !ok {
			c.Header("Retry-After", windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, retry shortly"))
			return
		}
		c.Next()
	}
}

// Expired windows are purged on a timer so IPs that never return do not
// accumulate in the maps.
const purgeInterval = 5 * time.Minute

func init() {
	go purgeExpiredWindows()
}

func purgeExpiredWindows() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		purgedLogin := loginTracker.purge(now)
		purgedAPI := apiTracker.purge(now)
		if purgedLogin > 0 || purgedAPI > 0 {
			log.Debug().
				Int("login_windows_purged", purgedLogin).
				Int("api_windows_purged", purgedAPI).
				Int("login_windows_remaining", loginTracker.size()).
				Int("api_windows_remaining", apiTracker.size()).
				Msg("rate limiter windows purged")
		}
	}
}
