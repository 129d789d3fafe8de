// Package server exposes the jsonops operations over HTTP.
//
// Routes:
//
//	GET  /healthz           liveness check, answers "ok"
//	GET  /api               lists the operations
//	POST /api/{operation}   runs one operation on the request body
//
// Request bodies are decoded with the codec named by Content-Type and results
// are encoded with the codec chosen by Accept; both default to JSON.
// Successful responses carry {"value": ...}. Failures answer with the
// operation's fixed message as plain text, or as {"error": ...} for
// operations that report JSON errors.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/jsonops/pkg/codec"
	"github.com/matzehuels/jsonops/pkg/config"
	"github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
	"github.com/matzehuels/jsonops/pkg/ops"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// server is asked to stop.
const shutdownTimeout = 10 * time.Second

// Server serves the operations of a Runner.
type Server struct {
	runner  *ops.Runner
	logger  *log.Logger
	cfg     config.ServerConfig
	handler http.Handler
}

// New creates a server. A nil logger uses the runner's logger.
func New(runner *ops.Runner, logger *log.Logger, cfg config.ServerConfig) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = config.Default().Server.MaxBodyBytes
	}
	s := &Server{runner: runner, logger: logger, cfg: cfg}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if d := s.cfg.RequestTimeout.Duration; d > 0 {
		r.Use(middleware.Timeout(d))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.listOperations)
		r.Post("/{operation}", s.runOperation)
	})
	return r
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) listOperations(w http.ResponseWriter, r *http.Request) {
	list := make([]jsonvalue.Value, 0, len(ops.All()))
	for _, op := range ops.All() {
		list = append(list, jsonvalue.ObjectValue(jsonvalue.NewObject().
			Set("name", jsonvalue.String(op.Name)).
			Set("summary", jsonvalue.String(op.Summary)).
			Set("method", jsonvalue.String(http.MethodPost)).
			Set("path", jsonvalue.String("/api/"+op.Name))))
	}

	out := codec.Negotiate(r.Header.Get("Accept"))
	body, err := out.Encode(ops.Envelope(jsonvalue.Array(list...)))
	if err != nil {
		s.logger.Error("encode operation list", "err", err)
		writeText(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	w.Header().Set("Content-Type", out.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) runOperation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "operation")
	op, ok := ops.Lookup(name)
	if !ok {
		writeText(w, http.StatusNotFound, fmt.Sprintf("Unknown operation: %s", name))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, op, errors.Wrap(errors.ErrCodeBodyUnreadable, err, ops.MsgBodyUnreadable))
		return
	}

	in, ok := codec.ByContentType(r.Header.Get("Content-Type"))
	if !ok {
		in = codec.Default
	}
	out := codec.Negotiate(r.Header.Get("Accept"))

	res, err := s.runner.Execute(r.Context(), op, ops.Request{Body: body, Decoder: in}, out)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	if res.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(res.Body)
}

// writeError answers with the error's user message and mapped status.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op ops.Operation, err error) {
	status := errors.StatusOf(err)
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("operation error", "op", op.Name, "err", err, "request_id", RequestID(r.Context()))
	}

	if !op.JSONErrors {
		writeText(w, status, msg)
		return
	}
	body, encErr := ops.ErrorEnvelope(msg).MarshalJSON()
	if encErr != nil {
		writeText(w, status, msg)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, msg)
}

// =============================================================================
// Lifecycle
// =============================================================================

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout.Duration,
		WriteTimeout: s.cfg.WriteTimeout.Duration,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
