// Package rest exposes the peermail protocol and the operator setup API
// over JSON/HTTP.
package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/config"
	"github.com/dmitrijs2005/peermail/internal/server/services"
)

const (
	maxBodySize     = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Services groups what the handlers call into.
type Services struct {
	Accounts   *services.AccountService
	PassCodes  *services.PassCodeService
	Handshakes *services.HandshakeService
	Messages   *services.MessageService
}

type Server struct {
	address   string
	basePath  string
	certFile  string
	keyFile   string
	jwtSecret []byte
	svc       Services
	logger    logging.Logger
}

func NewServer(cfg *config.Config, svc Services, logger logging.Logger) *Server {
	s := &Server{
		address:   cfg.EndpointAddr,
		basePath:  normalizeBasePath(cfg.BasePath),
		jwtSecret: []byte(cfg.SecretKey),
		svc:       svc,
		logger:    logger.With("module", "rest_server"),
	}
	if cfg.UseTLS() {
		s.certFile, s.keyFile = cfg.TLSCertFile, cfg.TLSKeyFile
	}
	return s
}

func normalizeBasePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// Handler returns the full routing tree wrapped in the common middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	b := s.basePath

	mux.HandleFunc("POST "+b+"/auth", s.handleAuth)
	mux.HandleFunc("POST "+b+"/auth/confirm", s.handleAuthConfirm)
	mux.HandleFunc("POST "+b+"/message/receive", s.handleMessageReceive)
	mux.HandleFunc("POST "+b+"/message/confirm", s.handleMessageConfirm)

	mux.Handle("POST "+b+"/setup/request-pass-code", s.requireToken(http.HandlerFunc(s.handleRequestPassCode)))
	mux.Handle("POST "+b+"/setup/initiate-handshake", s.requireToken(http.HandlerFunc(s.handleInitiateHandshake)))
	mux.Handle("POST "+b+"/setup/send-message", s.requireToken(http.HandlerFunc(s.handleSendMessage)))
	mux.Handle("GET "+b+"/setup/inbox", s.requireToken(http.HandlerFunc(s.handleInbox)))

	mux.HandleFunc("GET "+b+"/ping", s.handlePing)

	return s.logRequests(s.recoverPanics(limitBody(mux)))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// outbound peer calls made while handling a request take up to 15s each
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address, "tls", s.certFile != "")

	var err error
	if s.certFile != "" {
		err = srv.ListenAndServeTLS(s.certFile, s.keyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
