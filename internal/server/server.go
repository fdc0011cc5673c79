// Package server exposes the relay over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/cors"

	"github.com/oukeidos/amrelay/internal/language"
	"github.com/oukeidos/amrelay/internal/logger"
)

const (
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes           = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 10 * time.Second
	idleTimeout            = 120 * time.Second
	// cancelGrace is how long canceled handlers get to write their error
	// response once the shutdown timeout has passed.
	cancelGrace = 2 * time.Second
)

// Relay is the behavior the handlers need.
type Relay interface {
	Ask(ctx context.Context, question string) (string, error)
	Translate(ctx context.Context, text string, source, target language.Language) (string, error)
}

type Config struct {
	Addr string
	// AllowedOrigins is passed to CORS. Empty allows any origin.
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	Version         string
}

type Server struct {
	relay Relay
	cfg   Config
}

func New(relay Relay, cfg Config) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Server{relay: relay, cfg: cfg}
}

// Handler returns the routed handler with CORS, request ids and access
// logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /translate", s.handleTranslate)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return withRequestID(withAccessLog(c.Handler(mux)))
}

// ListenAndServe serves until ctx is done, then drains in-flight requests
// for up to the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	baseCtx, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()

	var active atomic.Int64
	handler := s.Handler()
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			active.Add(1)
			defer active.Add(-1)
			handler.ServeHTTP(w, r)
		}),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", s.cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// In-flight requests outlived the drain window. Cancel them so they
		// answer with an error instead of being cut off.
		logger.Warn("Canceling in-flight requests", "active", active.Load())
		cancelBase()
		drained := waitIdle(&active, cancelGrace)
		srv.Close()
		if !drained {
			return err
		}
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// waitIdle polls until no handler is running or grace passes.
func waitIdle(active *atomic.Int64, grace time.Duration) bool {
	deadline := time.Now().Add(grace)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for active.Load() > 0 {
		if time.Now().After(deadline) {
			return false
		}
		<-ticker.C
	}
	return true
}
