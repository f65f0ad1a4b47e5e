// Package peer calls the protocol endpoints of other domains.
package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/netx"
	"github.com/dmitrijs2005/peermail/internal/server/protocol"
)

const (
	AuthTimeout    = 15 * time.Second
	ConfirmTimeout = 10 * time.Second
	ReceiveTimeout = 15 * time.Second
	MaxRedirects   = 3
)

// Resolver maps a domain to the base URL its protocol endpoints live under.
type Resolver func(domain string) string

// StaticResolver builds "scheme://domain/basePath".
func StaticResolver(scheme, basePath string) Resolver {
	basePath = "/" + strings.Trim(basePath, "/")
	if basePath == "/" {
		basePath = ""
	}
	return func(domain string) string {
		return scheme + "://" + domain + basePath
	}
}

// Client is safe for concurrent use; one instance is shared by all
// requests of the server.
type Client struct {
	http    *http.Client
	resolve Resolver
	logger  logging.Logger
}

func NewClient(resolve Resolver, logger logging.Logger) *Client {
	return &Client{
		http:    netx.NewClient(MaxRedirects),
		resolve: resolve,
		logger:  logger.With("module", "peer"),
	}
}

func (c *Client) Auth(ctx context.Context, domain string, req *protocol.AuthRequest) (*protocol.AuthResponse, error) {
	resp := &protocol.AuthResponse{}
	if err := c.call(ctx, AuthTimeout, domain, "/auth", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ConfirmAuth(ctx context.Context, domain string, req *protocol.AuthConfirmRequest) error {
	return c.call(ctx, ConfirmTimeout, domain, "/auth/confirm", req, &protocol.SuccessResponse{})
}

func (c *Client) Receive(ctx context.Context, domain string, req *protocol.ReceiveRequest) (protocol.ResponseCode, error) {
	resp := &protocol.SuccessResponse{}
	if err := c.call(ctx, ReceiveTimeout, domain, "/message/receive", req, resp); err != nil {
		return "", err
	}
	if resp.ResponseCode == "" {
		return protocol.CodeSuccess, nil
	}
	return resp.ResponseCode, nil
}

func (c *Client) ConfirmMessage(ctx context.Context, domain string, req *protocol.MessageConfirmRequest) error {
	return c.call(ctx, ConfirmTimeout, domain, "/message/confirm", req, &protocol.SuccessResponse{})
}

// call posts in to the domain's endpoint and decodes a success body into
// out. Any remote-reported error comes back as *protocol.Failure; transport
// problems are wrapped in protocol.ErrRemoteUnavailable.
func (c *Client) call(ctx context.Context, timeout time.Duration, domain, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := c.resolve(domain) + path
	status, body, err := netx.PostJSON(ctx, c.http, url, in)
	if err != nil {
		c.logger.Warn(ctx, "peer call failed", "url", url, "error", err)
		return fmt.Errorf("%w: %v", protocol.ErrRemoteUnavailable, err)
	}

	var envelope protocol.ErrorResponse
	if status != http.StatusOK {
		if json.Unmarshal(body, &envelope) == nil && envelope.ErrorMessage != "" {
			return &protocol.Failure{Code: envelope.ResponseCode, Message: envelope.ErrorMessage}
		}
		c.logger.Warn(ctx, "peer returned unexpected status", "url", url, "status", status)
		return fmt.Errorf("%w: status %d", protocol.ErrRemoteUnavailable, status)
	}

	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error {
		return &protocol.Failure{Code: envelope.ResponseCode, Message: envelope.ErrorMessage}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", protocol.ErrRemoteUnavailable, err)
	}
	return nil
}
