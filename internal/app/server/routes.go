// Package server exposes proxy selection over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fa993/rama/internal/auth"
	"github.com/fa993/rama/internal/proxydb"
)

// Server wires the proxy pool into the HTTP routes.
type Server struct {
	db proxydb.Database
}

func New(db proxydb.Database) *Server {
	return &Server{db: db}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Routes builds the request router. Split out from OpenRoutes so the
// handler tests can drive it through httptest.
func (s *Server) Routes() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("POST /proxy", s.selectProxy)
	router.HandleFunc("GET /health", s.health)
	router.Handle("GET /proxies/{id}", auth.RequireAuth(http.HandlerFunc(s.getProxyByID)))

	return enableCORS(router)
}

// OpenRoutes starts the HTTP server and blocks until it stops or the
// context is cancelled.
func (s *Server) OpenRoutes(ctx context.Context, port int) error {
	server := http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", "error", err)
		}
	}()

	log.Infof("Starting rama backend on port :%d", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}
