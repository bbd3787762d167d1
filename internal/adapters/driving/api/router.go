package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/ragcore/internal/logger"
)

// loggingMiddleware logs request details and latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s %d - %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// corsMiddleware allows browser clients on other origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// NewRouter creates and configures the HTTP router.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/retrieve", handler.HandleRetrieve).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/context", handler.HandleContext).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/documents", handler.HandleDocuments).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/stats", handler.HandleStats).Methods(http.MethodGet)

	r.HandleFunc("/healthz", handler.HandleHealth).Methods(http.MethodGet)

	if handler.metrics != nil {
		r.Handle("/metrics", handler.metrics).Methods(http.MethodGet)
	}
	if handler.mcp != nil {
		r.PathPrefix("/mcp").Handler(handler.mcp)
	}

	return r
}
