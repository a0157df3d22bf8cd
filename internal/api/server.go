// Package api serves cached host metrics over HTTP. Handlers only read through
// the query service; no request ever triggers a probe.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"hostmon-agent/internal/agent/version"
	"hostmon-agent/internal/collector"
	"hostmon-agent/internal/model"
	"hostmon-agent/internal/query"
)

const sampledAtHeader = "X-Sampled-At"

// Metrics is the read surface the handlers depend on.
type Metrics interface {
	CPU() (query.Reading[model.CPUSnapshot], error)
	Memory() (query.Reading[model.MemorySnapshot], error)
	Disk() (query.Reading[model.DiskSnapshot], error)
	Network() (query.Reading[model.NetworkSnapshot], error)
	Combined() (model.CombinedSnapshot, error)
}

type StatusSource interface {
	Snapshot() []collector.CategoryStatus
	Degraded() bool
}

type VersionFunc func() *version.GetVersionResponse

type Server struct {
	metrics     Metrics
	status      StatusSource
	version     VersionFunc
	logger      *slog.Logger
	corsOrigins []string
	retryAfter  time.Duration
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Categories []collector.CategoryStatus `json:"categories"`
}

type errorResponse struct {
	Error      string   `json:"error"`
	Categories []string `json:"categories,omitempty"`
}

// NewHandler builds the routed handler wrapped in logging and CORS middleware.
// retryAfter is advertised on 503 responses; it is normally the shortest
// refresh interval.
func NewHandler(metrics Metrics, status StatusSource, versionFn VersionFunc, corsOrigins []string, retryAfter time.Duration, logger *slog.Logger) http.Handler {
	s := &Server{
		metrics:     metrics,
		status:      status,
		version:     versionFn,
		logger:      logger,
		corsOrigins: corsOrigins,
		retryAfter:  retryAfter,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.rootHandler)
	mux.HandleFunc("GET /api/system/info", s.infoHandler)
	mux.HandleFunc("GET /api/system/cpu", s.cpuHandler)
	mux.HandleFunc("GET /api/system/memory", s.memoryHandler)
	mux.HandleFunc("GET /api/system/disk", s.diskHandler)
	mux.HandleFunc("GET /api/system/network", s.networkHandler)
	mux.HandleFunc("GET /api/system/health", s.healthHandler)
	mux.HandleFunc("GET /api/version", s.versionHandler)

	var handler http.Handler = mux
	handler = s.CORSMiddleware(handler)
	handler = s.LoggingMiddleware(handler)
	return handler
}

func (s *Server) rootHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "System Monitor API"})
}

func (s *Server) infoHandler(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.metrics.Combined()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) cpuHandler(w http.ResponseWriter, _ *http.Request) {
	r, err := s.metrics.CPU()
	writeReading(s, w, r, err)
}

func (s *Server) memoryHandler(w http.ResponseWriter, _ *http.Request) {
	r, err := s.metrics.Memory()
	writeReading(s, w, r, err)
}

func (s *Server) diskHandler(w http.ResponseWriter, _ *http.Request) {
	r, err := s.metrics.Disk()
	writeReading(s, w, r, err)
}

func (s *Server) networkHandler(w http.ResponseWriter, _ *http.Request) {
	r, err := s.metrics.Network()
	writeReading(s, w, r, err)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Categories: s.status.Snapshot()}
	if s.status.Degraded() {
		resp.Status = "degraded"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) versionHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.version())
}

func writeReading[T any](s *Server, w http.ResponseWriter, r query.Reading[T], err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set(sampledAtHeader, r.SampledAt.UTC().Format(time.RFC3339Nano))
	s.writeJSON(w, http.StatusOK, r.Value)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var notReady *query.NotReadyError
	if errors.As(err, &notReady) {
		names := make([]string, 0, len(notReady.Categories))
		for _, c := range notReady.Categories {
			names = append(names, c.String())
		}
		if s.retryAfter > 0 {
			w.Header().Set("Retry-After", retryAfterSeconds(s.retryAfter))
		}
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "metrics not ready", Categories: names})
		return
	}
	s.logger.Error("metrics read failed", "error", err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response failed", "error", err)
	}
}

// CORSMiddleware allows the configured origins; "*" allows any.
func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "*")
			w.Header().Set("Access-Control-Expose-Headers", sampledAtHeader)
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.code,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) originAllowed(origin string) bool {
	return slices.ContainsFunc(s.corsOrigins, func(o string) bool {
		return o == "*" || strings.EqualFold(o, origin)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
