package httpapi

import (
	"context"
	"net/http"
)

// Server wraps the standard library HTTP server with the sandbox's
// routes already registered.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a Server bound to addr.
func NewServer(addr string, handler *Handler) *Server {
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops accepting new requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
