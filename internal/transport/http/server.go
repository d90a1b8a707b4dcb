// Package httptransport builds the HTTP server for the day-ledger API
// and carries the transport-level middleware that is independent of any
// handler: CORS for the browser client and server timeouts sized for
// small JSON payloads.
package httptransport

import (
	"net/http"
	"time"
)

// ServerConfig carries address and timeouts for the API server. Ledger
// requests are small JSON bodies; only the analyze route waits on an
// upstream call, which the write timeout must leave room for.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates *http.Server with provided handler.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// CORS returns middleware granting the browser client access from the
// given origin. Preflight OPTIONS requests are answered here with 204,
// before authentication, since the browser sends them without an
// Authorization header.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
