// Package server exposes the value codec over Connect. Clients decode slot
// streams into server-held handles, inspect them, call native functions on
// them and encode them back, with an optional snapshot store behind Save
// and Load.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/borges/store"
	"github.com/chazu/borges/vm"
)

var log = commonlog.GetLogger("borges.server")

// Server is the codec server.
type Server struct {
	worker  *Worker
	handles *HandleStore
	mux     *http.ServeMux

	stopSweeper func()
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	store     *store.Store
	natives   *vm.NativeTable
	handleTTL time.Duration
}

// WithStore attaches a snapshot store, enabling Save and Load.
func WithStore(st *store.Store) ServerOption {
	return func(c *serverConfig) { c.store = st }
}

// WithNatives sets the native function table. Without it, a table with
// the geometry natives is used.
func WithNatives(t *vm.NativeTable) ServerOption {
	return func(c *serverConfig) { c.natives = t }
}

// WithHandleTTL sets how long an unused handle is kept (default 30 minutes).
func WithHandleTTL(ttl time.Duration) ServerOption {
	return func(c *serverConfig) { c.handleTTL = ttl }
}

// New creates a Server.
func New(opts ...ServerOption) *Server {
	cfg := &serverConfig{handleTTL: 30 * time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.handleTTL <= 0 {
		cfg.handleTTL = 30 * time.Minute
	}
	if cfg.natives == nil {
		cfg.natives = vm.NewNativeTable()
		vm.RegisterGeometry(cfg.natives)
	}

	worker := NewWorker(cfg.natives)
	handles := NewHandleStore()

	s := &Server{
		worker:  worker,
		handles: handles,
		mux:     http.NewServeMux(),
	}

	codecSvc := NewCodecService(worker, handles, cfg.store)
	path, handler := codecSvc.Handler()
	s.mux.Handle(path, handler)

	// Sweep six times per TTL
	s.stopSweeper = handles.StartSweeper(cfg.handleTTL/6, cfg.handleTTL)

	return s
}

// Handler returns the HTTP handler serving all procedures.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Handles returns the server's handle store.
func (s *Server) Handles() *HandleStore {
	return s.handles
}

// ListenAndServe serves on addr until ctx is done, then shuts down,
// waiting up to shutdownTimeout for active requests. The address should be
// in the form "host:port" or ":port".
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("codec server listening", "addr", addr, "service", CodecServiceName)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("codec server shutting down", "addr", addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts down background work.
func (s *Server) Stop() {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	s.worker.Stop()
}
