package middleware

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jub0bs/cors"
	"golang.org/x/time/rate"

	"github.com/techstackph/techstack/internal/apperrors"
	"github.com/techstackph/techstack/internal/logger"
	"github.com/techstackph/techstack/internal/response"
)

// Content security policies. The site loads its css framework and htmx from public CDNs and shows remote images.
const (
	APIContentSecurityPolicy  = "default-src 'none'; frame-ancestors 'none';"
	SiteContentSecurityPolicy = "default-src 'self'; script-src 'self' https://unpkg.com; " +
		"style-src 'self' https://cdn.jsdelivr.net; img-src 'self' https:; frame-ancestors 'none';"
)

const (
	// MaxRequestSizeHeader tells clients the largest request body the API accepts
	MaxRequestSizeHeader = "Techstack-Max-Request-Size"

	// SiteTokenHeader identifies requests made by the site to the content API
	SiteTokenHeader = "Techstack-Site-Token"
)

// CORS returns a CORS middleware using the provided pre-built middleware instance.
func CORS(middleware *cors.Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return middleware.Wrap(next)
	}
}

func SecurityHeaders(environment string, contentSecurityPolicy string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// for legacy support
			w.Header().Set("X-Frame-Options", "DENY")

			w.Header().Set("Content-Security-Policy", contentSecurityPolicy)

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if environment == "prod" || environment == "staging" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestSizeLimit limits the size of request bodies and adds the limit as a header for client awareness
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(MaxRequestSizeHeader, strconv.FormatInt(maxBytes, 10))

			// reject early when the declared length is too big
			if r.ContentLength > maxBytes {
				reqLogger := logger.ContextRequestLogger(r.Context())

				reqLogger.Warn("Request size limit exceeded",
					slog.String("component", "RequestSizeLimit"),
					slog.Int64("content_length", r.ContentLength),
					slog.Int64("max_bytes", maxBytes),
				)

				logger.ContextWithLogAttrs(r.Context(),
					slog.Int64("content_length", r.ContentLength),
					slog.Int64("max_bytes", maxBytes),
				)

				response.RespondWithError(w, r, http.StatusRequestEntityTooLarge,
					apperrors.ErrCodeRequestTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytes))
				return
			}

			// bodies without a declared length are cut off while the handler decodes them
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}

// visitorTTL is how long an idle client keeps its rate limiter
const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors holds one token bucket per client address
type visitors struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	clients   map[string]*visitor
	lastPrune time.Time
}

func (v *visitors) allow(client string, now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if now.Sub(v.lastPrune) > visitorTTL {
		for addr, c := range v.clients {
			if now.Sub(c.lastSeen) > visitorTTL {
				delete(v.clients, addr)
			}
		}
		v.lastPrune = now
	}

	c, ok := v.clients[client]
	if !ok {
		c = &visitor{limiter: rate.NewLimiter(v.rps, v.burst)}
		v.clients[client] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// clientAddress is the remote ip of the request (RealIP has already applied any forwarding headers)
func clientAddress(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit limits the requests per second of each client address. If requestsPerSecond <= 0, rate limiting is disabled.
//
// Requests from the site carry siteToken in the SiteTokenHeader and are not limited:
// they are made on behalf of site visitors and would otherwise all count against the site's own address.
// An empty siteToken disables the exemption.
func RateLimit(requestsPerSecond int32, burst int32, siteToken string) func(http.Handler) http.Handler {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	limits := &visitors{
		rps:     rate.Limit(requestsPerSecond),
		burst:   int(burst),
		clients: make(map[string]*visitor),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if siteToken != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SiteTokenHeader)), []byte(siteToken)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			client := clientAddress(r)
			if !limits.allow(client, time.Now()) {
				reqLogger := logger.ContextRequestLogger(r.Context())

				reqLogger.Warn("Rate limit exceeded",
					slog.String("component", "RateLimit"),
					slog.String("client", client),
				)

				logger.ContextWithLogAttrs(r.Context(),
					slog.String("client", client),
				)

				response.RespondWithError(w, r, http.StatusTooManyRequests,
					apperrors.ErrCodeRateLimitExceeded, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
