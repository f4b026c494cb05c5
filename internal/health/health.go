// Package health - HTTP-проверка живости процесса с переключаемым флагом.
// С диалогами пользователей не связан.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ivanoskov/mani_bot/internal/log"
)

type Server struct {
	healthy atomic.Bool
	log     *log.Logger
}

// NewServer создает сервер в состоянии "healthy"
func NewServer(logger *log.Logger) *Server {
	s := &Server{log: logger.WithComponent("health")}
	s.healthy.Store(true)
	return s
}

func (s *Server) Healthy() bool {
	return s.healthy.Load()
}

// Toggle инвертирует флаг и возвращает новое значение
func (s *Server) Toggle() bool {
	for {
		old := s.healthy.Load()
		if s.healthy.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/toggle", s.handleToggle)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Healthy() {
		writeJSON(w, http.StatusOK, map[string]string{"health": "healthy"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"health": "unhealthy"})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	value := s.Toggle()
	s.log.InfoContext(r.Context(), "health flag toggled", "healthy", value)
	writeJSON(w, http.StatusOK, map[string]bool{"health_value": value})
}

// Run слушает addr до отмены ctx
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Error("health server shutdown error", "error", err)
		}
	}()

	s.log.Info("starting health server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
