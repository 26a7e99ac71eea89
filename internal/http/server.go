// Package http exposes the JSON API. Request identity is the X-User-ID
// header, falling back to the configured default user.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type Server struct {
	http.Server

	transactions *services.TransactionService
	recurring    *services.RecurringProcessor
	analysis     *services.AnalysisService
	store        ledger.Store

	summaryCache *cache.LRUCache[services.Report]
	cacheManager *cache.Manager
	rateLimiter  *rateLimiter
	hub          *Hub

	defaultUser  string
	shutdownOnce sync.Once
}

type Options struct {
	Addr         string
	Store        ledger.Store
	Transactions *services.TransactionService
	Recurring    *services.RecurringProcessor
	Analysis     *services.AnalysisService
	DefaultUser  string
	CacheSize    int
	CacheTTL     time.Duration
	Logger       *log.Logger
}

// NewServer configures routes and caches, returning a ready-to-run
// server.
func NewServer(opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.DefaultUser == "" {
		opts.DefaultUser = "default"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: log.Middleware(opts.Logger)(mux),
		},
		transactions: opts.Transactions,
		recurring:    opts.Recurring,
		analysis:     opts.Analysis,
		store:        opts.Store,
		summaryCache: cache.NewLRUCache[services.Report](opts.CacheSize, opts.CacheTTL),
		cacheManager: cache.NewManager(),
		rateLimiter:  newRateLimiter(),
		hub:          NewHub(),
		defaultUser:  opts.DefaultUser,
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)
	s.hub.Start()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /ws", s.handleWebsocket)

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/recurring", s.withMiddleware(s.handleListSubscriptions))
	mux.HandleFunc("POST /api/recurring", s.withMiddleware(s.handleCreateSubscription))
	mux.HandleFunc("PUT /api/recurring/{id}", s.withMiddleware(s.handleUpdateSubscription))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.withMiddleware(s.handleDeleteSubscription))
	mux.HandleFunc("POST /api/recurring/process", s.withMiddleware(s.handleProcessRecurring))

	mux.HandleFunc("GET /api/summary", s.withMiddleware(s.handleSummary))

	mux.HandleFunc("GET /api/accounts", s.withMiddleware(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.withMiddleware(s.handleCreateAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.withMiddleware(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.withMiddleware(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withMiddleware(s.handleDeleteCategory))

	for _, kind := range []string{"budgets", "goals", "debts"} {
		mux.HandleFunc("GET /api/"+kind, s.withMiddleware(s.handleListRecords(kind)))
		mux.HandleFunc("POST /api/"+kind, s.withMiddleware(s.handleCreateRecord(kind)))
		mux.HandleFunc("PUT /api/"+kind+"/{id}", s.withMiddleware(s.handleUpdateRecord(kind)))
		mux.HandleFunc("DELETE /api/"+kind+"/{id}", s.withMiddleware(s.handleDeleteRecord(kind)))
	}

	mux.HandleFunc("POST /api/receipts", s.withMiddleware(s.handleParseReceipt))

	return s
}

// userID resolves the acting user for a request.
func (s *Server) userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return s.defaultUser
}

// invalidate drops every cached summary for the user and pushes a live
// update to their open clients.
func (s *Server) invalidate(userID, action string) {
	s.summaryCache.DeletePrefix(userID + "|")
	s.hub.BroadcastLedgerUpdate(userID, action)
}

func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		log.FromContext(ctx).InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the background routines, then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		s.hub.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
