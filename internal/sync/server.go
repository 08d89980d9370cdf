package sync

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Server is the line-oriented TCP event feed. It implements suture.Service.
type Server struct {
	Addr string
	Hub  *Hub

	ready chan net.Addr
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub, ready: make(chan net.Addr, 1)}
}

// Ready yields the bound address once the listener is up.
func (s *Server) Ready() <-chan net.Addr { return s.ready }

func (s *Server) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("tcp sync listen: %w", err)
	}
	logger := s.Hub.logger.With().Str("transport", "tcp").Logger()
	logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
	select {
	case s.ready <- ln.Addr():
	default:
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			logger.Warn().Err(err).Msg("accept failed")
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, _ = conn.Write(s.Hub.welcome("tcp"))
		s.Hub.Add(conn)
		logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				logger.Info().Str("remote", c.RemoteAddr().String()).Msg("client disconnected")
			}()

			// Incoming lines are ignored; reading detects the disconnect.
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

func (s *Server) String() string { return "tcp-sync" }
