package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmarks/debasement/internal/api/handlers"
	"github.com/dmarks/debasement/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	research *handlers.ResearchHandler,
	returns *handlers.ReturnsHandler,
	signals *handlers.SignalsHandler,
	hub *handlers.Hub,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// WebSocket
	r.HandleFunc("/ws/signals", hub.ServeWS).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Research endpoints
	api.HandleFunc("/research/frame", research.GetFrame).Methods("GET")
	api.HandleFunc("/research/series/{name}", research.GetSeries).Methods("GET")
	api.HandleFunc("/status", research.GetStatus).Methods("GET")
	api.HandleFunc("/cache/clear", research.ClearCache).Methods("POST")

	// Returns endpoints
	api.HandleFunc("/returns/analyze", returns.Analyze).Methods("POST")

	// Signal endpoints
	api.HandleFunc("/signals", signals.GetComposite).Methods("GET")
	api.HandleFunc("/signals/recommendations", signals.GetRecommendations).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "debasement-api",
	})
}

// methodNotAllowedHandler answers route matches with the wrong method.
// Without it mux would fall through to a plain 404.
func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Method not allowed",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
