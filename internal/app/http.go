package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// HTTPService runs an http.Server under the supervisor and shuts it down
// gracefully when the supervisor's context ends.
type HTTPService struct {
	Server          *http.Server
	ShutdownTimeout time.Duration

	ready chan net.Addr
}

func NewHTTPService(srv *http.Server, shutdownTimeout time.Duration) *HTTPService {
	return &HTTPService{Server: srv, ShutdownTimeout: shutdownTimeout, ready: make(chan net.Addr, 1)}
}

// Ready yields the bound address once the listener is up.
func (s *HTTPService) Ready() <-chan net.Addr { return s.ready }

func (s *HTTPService) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Server.Addr, err)
	}
	select {
	case s.ready <- ln.Addr():
	default:
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Server.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return ctx.Err()
}

func (s *HTTPService) String() string { return "http-server" }
