package http

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"videotube/errs"
)

// statusRecorder remembers the status code a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// instrument logs every request and records it in the request metrics,
// labelled with the route template rather than the raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.observe(r.Method, route, rec.status, elapsed)
		slog.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}

// ipRateLimiter hands out one token bucket per client IP.
type ipRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*rate.Limiter
	r   rate.Limit
	b   int
}

// maxTrackedIPs bounds the limiter map. Idle buckets are dropped when it is
// reached, and all of them only if none is idle.
const maxTrackedIPs = 10000

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	if b < 1 {
		b = 1
	}
	return &ipRateLimiter{ips: make(map[string]*rate.Limiter), r: r, b: b}
}

func (l *ipRateLimiter) allow(ip string) bool {
	if l.r <= 0 {
		return true
	}
	l.mu.Lock()
	limiter, ok := l.ips[ip]
	if !ok {
		if len(l.ips) >= maxTrackedIPs {
			l.sweep()
		}
		limiter = rate.NewLimiter(l.r, l.b)
		l.ips[ip] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// sweep drops the buckets that have refilled completely. l.mu must be held.
func (l *ipRateLimiter) sweep() {
	for ip, limiter := range l.ips {
		if limiter.Tokens() >= float64(l.b) {
			delete(l.ips, ip)
		}
	}
	if len(l.ips) >= maxTrackedIPs {
		l.ips = make(map[string]*rate.Limiter)
	}
}

// rateLimit answers 429 once the client IP has used up its tokens.
func (s *Server) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(s.clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			errs.ReturnError(w, r, errs.Errorf(errs.ETOOMANY, "Too many requests, please try again later."))
			return
		}
		next(w, r)
	}
}

// parseProxies turns IPs and CIDR ranges into prefixes. Invalid entries are
// logged and skipped.
func parseProxies(entries []string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if p, err := netip.ParsePrefix(e); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		slog.Warn("ignoring invalid trusted proxy", "entry", e)
	}
	return prefixes
}

func (s *Server) trustedProxy(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP is the address of the peer. Only when the peer is a trusted proxy
// is X-Forwarded-For consulted, walking it from the right up to the first
// address that is not a trusted proxy itself.
func (s *Server) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !s.trustedProxy(host) {
		return host
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !s.trustedProxy(hop) {
			return hop
		}
	}
	return host
}
