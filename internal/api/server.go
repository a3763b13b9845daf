package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/api/middleware"
	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/cache"
	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/checker"
	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/trust"
)

// defaultMaxBatchSize caps how many domains one batch request may carry.
const defaultMaxBatchSize = 10

// CheckService runs trust checks. Satisfied by *trust.Service.
type CheckService interface {
	CheckDomain(ctx context.Context, target string) (*trust.Report, error)
	RunBatch(ctx context.Context, targets []string) []trust.BatchEntry
}

type Config struct {
	Checks        CheckService
	Cache         cache.Cache   // nil disables caching
	CacheTTL      time.Duration // TTL for single-check results
	BatchCacheTTL time.Duration // TTL for batch-check results
	MaxBatchSize  int
	AuthToken     string
	Logger        *zap.Logger
	CORSOrigins   []string // Allowed CORS origins (empty = allow all)
	RateLimit     int      // Requests per second per IP (0 = disabled)
	RateBurst     int      // Burst size for rate limiter
}

type Server struct {
	cfg      Config
	mux      *http.ServeMux
	limiters *rateLimiterMap
}

func NewServer(cfg Config) *Server {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 7 * 24 * time.Hour
	}
	if cfg.BatchCacheTTL <= 0 {
		cfg.BatchCacheTTL = 24 * time.Hour
	}
	srv := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Middleware chain: RequestID -> Logging -> RateLimit -> CORS -> Handler
	handler := middleware.RequestID(s.withLogging(s.withRateLimit(s.withCORS(s.mux))))
	handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Version 1 API routes (primary)
	s.mux.Handle("/api/v1/health", http.HandlerFunc(s.handleHealth))
	s.mux.Handle("/api/v1/ready", http.HandlerFunc(s.handleReady))
	s.mux.Handle("/api/v1/check", s.withAuth(http.HandlerFunc(s.handleCheck)))
	s.mux.Handle("/api/v1/batch-check", s.withAuth(http.HandlerFunc(s.handleBatchCheck)))

	// Unversioned aliases kept for older clients
	s.mux.Handle("/health", http.HandlerFunc(s.handleHealth))
	s.mux.Handle("/check", s.withAuth(http.HandlerFunc(s.handleCheck)))
	s.mux.Handle("/batch-check", s.withAuth(http.HandlerFunc(s.handleBatchCheck)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Checks == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, errors.New("check service not configured"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type checkRequest struct {
	Domain string `json:"domain"`
	URL    string `json:"url"` // accepted as an alias for domain
}

type batchCheckRequest struct {
	Domains []string `json:"domains"`
	URLs    []string `json:"urls"` // accepted as an alias for domains
}

// handleCheck runs the full probe pipeline for one domain. POST with a
// JSON body is the primary form; GET with ?domain= is kept for quick
// manual use.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var target string
	switch r.Method {
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, 1048576) // 1MB limit
		var req checkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		target = req.Domain
		if target == "" {
			target = req.URL
		}
	case http.MethodGet:
		target = r.URL.Query().Get("domain")
	default:
		s.methodNotAllowed(w, r)
		return
	}
	if target == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("domain is required"))
		return
	}

	domain, err := checker.NormalizeDomain(target)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	if report, ok := s.cachedReport(domain); ok {
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := s.cfg.Checks.CheckDomain(r.Context(), domain)
	if err != nil {
		s.writeError(w, r, checkStatus(err), err)
		return
	}
	s.storeReport(domain, report, s.cfg.CacheTTL)
	writeJSON(w, http.StatusOK, report)
}

// handleBatchCheck runs the pipeline for up to MaxBatchSize domains.
// Cached domains are answered from the cache; only the misses are
// probed.
func (s *Server) handleBatchCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1048576) // 1MB limit
	var req batchCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	targets := req.Domains
	if len(targets) == 0 {
		targets = req.URLs
	}
	if len(targets) == 0 {
		s.writeError(w, r, http.StatusBadRequest, errors.New("domains is required"))
		return
	}
	if len(targets) > s.cfg.MaxBatchSize {
		s.writeError(w, r, http.StatusBadRequest,
			fmt.Errorf("too many domains: %d exceeds limit of %d", len(targets), s.cfg.MaxBatchSize))
		return
	}

	entries := make([]trust.BatchEntry, len(targets))
	var misses []string
	missIdx := make(map[string][]int)
	for i, target := range targets {
		domain, err := checker.NormalizeDomain(target)
		if err != nil {
			entries[i] = trust.BatchEntry{Target: target, Err: err.Error()}
			continue
		}
		if report, ok := s.cachedReport(domain); ok {
			entries[i] = trust.BatchEntry{Target: target, Report: report}
			continue
		}
		if len(missIdx[domain]) == 0 {
			misses = append(misses, domain)
		}
		missIdx[domain] = append(missIdx[domain], i)
	}

	if len(misses) > 0 {
		for _, entry := range s.cfg.Checks.RunBatch(r.Context(), misses) {
			if entry.Report != nil {
				s.storeReport(entry.Target, entry.Report, s.cfg.BatchCacheTTL)
			}
			for _, i := range missIdx[entry.Target] {
				entries[i] = trust.BatchEntry{Target: targets[i], Report: entry.Report, Err: entry.Err}
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": entries,
		"count":   len(entries),
	})
}

func (s *Server) cachedReport(domain string) (*trust.Report, bool) {
	if s.cfg.Cache == nil {
		return nil, false
	}
	return s.cfg.Cache.Get(cache.Key(domain))
}

func (s *Server) storeReport(domain string, report *trust.Report, ttl time.Duration) {
	if s.cfg.Cache == nil || report == nil {
		return
	}
	s.cfg.Cache.Set(cache.Key(domain), report, ttl)
}

// checkStatus maps a check failure to an HTTP status. Only normalize
// errors surface here; probe failures are embedded in the report.
func checkStatus(err error) int {
	if checker.IsKind(err, checker.KindConfig) {
		return http.StatusBadRequest
	}
	if checker.IsKind(err, checker.KindNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip rate limiting if disabled
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		// Extract client IP (handle X-Forwarded-For for proxied requests)
		clientIP := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			// Use first IP in X-Forwarded-For chain
			if idx := strings.Index(forwarded, ","); idx > 0 {
				clientIP = strings.TrimSpace(forwarded[:idx])
			} else {
				clientIP = strings.TrimSpace(forwarded)
			}
		}
		// Remove port if present
		if idx := strings.LastIndex(clientIP, ":"); idx > 0 {
			clientIP = clientIP[:idx]
		}

		limiter := s.limiters.getLimiter(clientIP, s.cfg.RateLimit, s.cfg.RateBurst)
		if !limiter.Allow() {
			if s.cfg.Logger != nil {
				s.requestLogger(r).Warn("rate_limit_exceeded",
					zap.String("client_ip", clientIP),
				)
			}
			s.writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Determine if origin is allowed
		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			allowed := false
			for _, allowedOrigin := range s.cfg.CORSOrigins {
				if allowedOrigin == origin {
					allowed = true
					allowOrigin = origin
					break
				}
			}
			if !allowed {
				allowOrigin = ""
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the response writer to capture status code and size
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		if s.cfg.Logger != nil {
			requestID := middleware.GetRequestID(r.Context())
			s.cfg.Logger.Info("http_request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", duration),
				zap.Int64("bytes", lrw.bytesWritten),
			)
		}
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		// Use constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	// Sanitize error messages to prevent information disclosure
	msg := err.Error()

	// For 5xx errors, return generic message and log details server-side
	if status >= 500 {
		if s.cfg.Logger != nil {
			s.requestLogger(r).Error("internal_server_error",
				zap.Error(err),
				zap.Int("status", status),
			)
		}
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}

	requestID := middleware.GetRequestID(r.Context())
	return s.cfg.Logger.With(
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// rateLimiterMap manages per-IP rate limiters with automatic cleanup
type rateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[string]*ipLimiter
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap() *rateLimiterMap {
	m := &rateLimiterMap{
		limiters: make(map[string]*ipLimiter),
	}
	// Start cleanup goroutine to remove stale limiters
	go m.cleanupLoop()
	return m
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[ip]
	if !exists {
		limiter = &ipLimiter{
			limiter:  rate.NewLimiter(rate.Limit(rps), burst),
			lastSeen: time.Now(),
		}
		m.limiters[ip] = limiter
	} else {
		limiter.lastSeen = time.Now()
	}

	return limiter.limiter
}

// cleanupLoop removes limiters that haven't been used in 5 minutes
func (m *rateLimiterMap) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		for ip, limiter := range m.limiters {
			if time.Since(limiter.lastSeen) > 5*time.Minute {
				delete(m.limiters, ip)
			}
		}
		m.mu.Unlock()
	}
}
