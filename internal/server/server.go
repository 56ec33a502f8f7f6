// Package server exposes the transform engine over HTTP.
//
//	POST /v1/transform   body: {input, transforms, settings, derived?, path_trace?}
//	GET  /healthz
//
// Request and response bodies use the codec named by Content-Type and
// Accept (JSON when absent). A transformation error is a normal result: the
// error object is returned with status 200 and its code in the
// X-Datadance-Error header. Malformed bodies get 400.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/yakshavingxyz/datadance/internal/codec"
	"github.com/yakshavingxyz/datadance/internal/engine"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

// ErrorHeader carries the wire code of a failed transformation.
const ErrorHeader = "X-Datadance-Error"

const (
	defaultMaxBody         = 10 << 20
	defaultShutdownTimeout = 30 * time.Second
)

// Server serves transformation requests.
type Server struct {
	engine          *engine.Engine
	logger          *slog.Logger
	allowedOrigins  []string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	maxBody         int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithTimeouts sets the HTTP read and write timeouts.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// WithMaxBodyBytes limits request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBody = n
	}
}

// New creates a Server backed by eng.
func New(eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:          eng,
		logger:          slog.Default(),
		allowedOrigins:  []string{"*"},
		readTimeout:     15 * time.Second,
		writeTimeout:    15 * time.Second,
		shutdownTimeout: defaultShutdownTimeout,
		maxBody:         defaultMaxBody,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/transform", s.handleTransform)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{ErrorHeader},
	})
	return corsHandler.Handler(loggingMiddleware(s.logger, mux))
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", l.Addr().String())
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.write(w, codec.JSON(), http.StatusOK, ir.Object{"status": ir.String("ok")})
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	reqCodec := codec.JSON()
	if ct := r.Header.Get("Content-Type"); ct != "" {
		c, ok := codec.ForContentType(ct)
		if !ok {
			s.badRequest(w, codec.JSON(), http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported content type %q", ct))
			return
		}
		reqCodec = c
	}
	respCodec := reqCodec
	if accept := r.Header.Get("Accept"); accept != "" && accept != "*/*" {
		if c, ok := codec.ForContentType(accept); ok {
			respCodec = c
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.badRequest(w, respCodec, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.badRequest(w, respCodec, http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return
	}

	obj, err := codec.DecodeObject(reqCodec, body)
	if err != nil {
		s.badRequest(w, respCodec, http.StatusBadRequest, fmt.Sprintf("decode body: %v", err))
		return
	}
	tc, err := engine.DecodeContext(obj)
	if err != nil {
		s.badRequest(w, respCodec, http.StatusBadRequest, err.Error())
		return
	}

	res := s.engine.Transform(r.Context(), tc)
	if !res.OK() {
		w.Header().Set(ErrorHeader, res.Err.Kind.Code())
	}
	s.write(w, respCodec, http.StatusOK, res.Wire())
}

func (s *Server) badRequest(w http.ResponseWriter, c codec.Codec, status int, msg string) {
	s.write(w, c, status, ir.Object{"error": ir.String(msg)})
}

func (s *Server) write(w http.ResponseWriter, c codec.Codec, status int, body ir.Object) {
	data, err := c.Marshal(body)
	if err != nil {
		s.logger.Error("encode response", "codec", c.Name(), "error", err)
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", c.ContentType())
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}
