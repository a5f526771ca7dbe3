package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"chatsync/internal/logging"
)

type Options struct {
	Addr       string
	Token      string
	Version    string
	ReplyDelay time.Duration
	Responder  Responder
	Logger     logging.Logger
}

// Server serves the chat backend API from memory. It exists for local
// development and tests; nothing is persisted.
type Server struct {
	addr     string
	token    string
	api      *API
	logger   logging.Logger
	server   *http.Server
	listener net.Listener
}

func New(opts Options) (*Server, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("devserver token is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	sessions := NewSessionService(ServiceOptions{
		Responder:  opts.Responder,
		ReplyDelay: opts.ReplyDelay,
		Logger:     logger,
	})
	return &Server{
		addr:   strings.TrimSpace(opts.Addr),
		token:  token,
		logger: logger,
		api: &API{
			Version:  opts.Version,
			Sessions: sessions,
			Logger:   logger,
		},
	}, nil
}

func (s *Server) Sessions() *SessionService {
	return s.api.Sessions
}

// Handler returns the routed API behind auth and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.api.RegisterRoutes(mux)
	return LoggingMiddleware(s.logger, TokenAuthMiddleware(s.token, mux))
}

// Run listens until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devserver listening", logging.F("addr", "http://"+listener.Addr().String()))
		errCh <- s.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
