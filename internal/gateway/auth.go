package gateway

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net"
	"net/http"

	"github.com/soyeahso/slackbridge/internal/logging"
)

// apiKeyHeader carries the static API key on every authenticated request.
const apiKeyHeader = "X-API-Key"

// ResolveAPIKey returns the configured key, or generates a random one and
// logs it once so a local user can copy it.
func ResolveAPIKey(configured string, log *logging.Logger) string {
	if configured != "" {
		return configured
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal().Err(err).Msg("generating api key")
	}
	key := hex.EncodeToString(buf)
	log.Info().Str("apiKey", key).Msg("no api key configured, generated one for this run")
	return key
}

// authMiddleware rejects requests without the correct API key. Health checks
// and CORS preflights pass through.
func authMiddleware(next http.Handler, apiKey string, log *logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			// Websocket clients cannot set custom headers from a browser.
			key = r.URL.Query().Get("api_key")
		}
		if !safeEqual(key, apiKey) {
			log.Warn().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("rejected: bad api key")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loopbackMiddleware rejects any request whose peer is not a loopback
// address, regardless of credentials.
func loopbackMiddleware(next http.Handler, log *logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			log.Warn().Str("remote", r.RemoteAddr).Msg("rejected: non-loopback peer")
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// safeEqual performs a constant-time string comparison to prevent timing
// attacks, without leaking secret length via an early return.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}
