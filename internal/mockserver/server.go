// Package mockserver serves a stand-in prediction API whose behavior is
// scripted: answer, answer slowly, hang, or fail. It is used to reproduce a
// stuck endpoint locally and check what the probe reports.
package mockserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Behavior modes of the prediction endpoint.
const (
	ModeOK    = "ok"
	ModeHang  = "hang"
	ModeError = "error"
)

const (
	defaultAddr              = ":3000"
	defaultAnswer            = "Hello from the mock prediction server"
	defaultPredictionTimeout = 60 * time.Second
	defaultErrorMessage      = "mock prediction failure"
)

// Config controls the mock server behavior.
type Config struct {
	Addr              string
	Mode              string        // ok, hang or error
	Delay             time.Duration // Time before the answer in ok mode
	Answer            string
	ErrorMessage      string
	PredictionTimeout time.Duration // Server-side limit on a single prediction
	TokenInterval     time.Duration // Pause between streamed tokens
	Chatflows         []string      // Known chatflow IDs; empty accepts any
	AllowedOrigins    []string      // Allowed Origin URLs; empty allows any
	ReadTimeout       time.Duration
	IdleTimeout       time.Duration
}

// Dependencies holds external collaborators required by the server.
type Dependencies struct {
	Logger logr.Logger
	NewID  func() string
}

// Server wraps http.Server for convenience.
type Server struct {
	*http.Server
	cfg  Config
	deps Dependencies

	stopOnce sync.Once
	stopping chan struct{}
}

// New constructs the mock server with its routes.
func New(cfg Config, deps Dependencies) *Server {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeOK
	}
	if cfg.Answer == "" {
		cfg.Answer = defaultAnswer
	}
	if cfg.ErrorMessage == "" {
		cfg.ErrorMessage = defaultErrorMessage
	}
	if cfg.PredictionTimeout <= 0 {
		cfg.PredictionTimeout = defaultPredictionTimeout
	}
	if deps.Logger.GetSink() == nil {
		deps.Logger = logr.Discard()
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.New().String() }
	}

	s := &Server{
		cfg:      cfg,
		deps:     deps,
		stopping: make(chan struct{}),
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/api/v1/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/prediction/{id}", s.predictionHandler).Methods(http.MethodPost)

	s.Server = &http.Server{
		Addr:        cfg.Addr,
		Handler:     r,
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: cfg.IdleTimeout,
	}
	s.Server.RegisterOnShutdown(s.stop)
	return s
}

// ValidMode reports whether mode is a known behavior mode.
func ValidMode(mode string) bool {
	switch mode {
	case ModeOK, ModeHang, ModeError:
		return true
	}
	return false
}

// Run serves until ctx is canceled, then shuts down gracefully.
// Hung predictions are released when shutdown starts.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("mock prediction server listening", "addr", s.Addr, "mode", s.cfg.Mode, "delay", s.cfg.Delay.String())
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.stop()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) stop() {
	s.stopOnce.Do(func() { close(s.stopping) })
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.deps.Logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"origin", originOrUnknown(r),
			"status", rec.status,
			"duration", time.Since(start).String())
	})
}

func originOrUnknown(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	return "UNKNOWN ORIGIN"
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}
