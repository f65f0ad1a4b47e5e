package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/models"
	"github.com/dmitrijs2005/peermail/internal/server/protocol"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/memory"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *clock) advance(d time.Duration) {
	c.set(c.now().Add(d))
}

// node is one domain with its own store and services.
type node struct {
	domain     string
	repos      *repomanager.MemoryRepositoryManager
	accounts   *AccountService
	passCodes  *PassCodeService
	handshakes *HandshakeService
	messages   *MessageService
	archive    *recordingArchiver
}

// loopback routes peer calls straight to the services of another node.
type loopback struct {
	nodes map[string]*node
}

func (l *loopback) node(domain string) (*node, error) {
	n, ok := l.nodes[domain]
	if !ok {
		return nil, fmt.Errorf("%w: unknown domain %s", protocol.ErrRemoteUnavailable, domain)
	}
	return n, nil
}

func (l *loopback) Auth(ctx context.Context, domain string, req *protocol.AuthRequest) (*protocol.AuthResponse, error) {
	n, err := l.node(domain)
	if err != nil {
		return nil, err
	}
	return n.handshakes.Respond(ctx, req)
}

func (l *loopback) ConfirmAuth(ctx context.Context, domain string, req *protocol.AuthConfirmRequest) error {
	n, err := l.node(domain)
	if err != nil {
		return err
	}
	return n.handshakes.Confirm(ctx, req)
}

func (l *loopback) Receive(ctx context.Context, domain string, req *protocol.ReceiveRequest) (protocol.ResponseCode, error) {
	n, err := l.node(domain)
	if err != nil {
		return "", err
	}
	return n.messages.Receive(ctx, req)
}

func (l *loopback) ConfirmMessage(ctx context.Context, domain string, req *protocol.MessageConfirmRequest) error {
	n, err := l.node(domain)
	if err != nil {
		return err
	}
	return n.messages.Confirm(ctx, req)
}

type recordingArchiver struct {
	mu    sync.Mutex
	inbox []models.InboxEntry
	sent  []models.SentEntry
	err   error
}

func (r *recordingArchiver) ArchiveInbox(_ context.Context, e *models.InboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inbox = append(r.inbox, *e)
	return r.err
}

func (r *recordingArchiver) ArchiveSent(_ context.Context, e *models.SentEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, *e)
	return r.err
}

func newNode(domain string, peer Peer, clk *clock) *node {
	logger := logging.NewDiscardLogger()
	repos := repomanager.NewMemoryRepositoryManager(memory.NewStore())
	arch := &recordingArchiver{}

	n := &node{
		domain:     domain,
		repos:      repos,
		accounts:   NewAccountService(repos, domain, logger),
		passCodes:  NewPassCodeService(repos, logger),
		handshakes: NewHandshakeService(repos, peer, domain, logger),
		messages:   NewMessageService(repos, peer, arch, domain, logger),
		archive:    arch,
	}
	n.accounts.now = clk.now
	n.passCodes.now = clk.now
	n.handshakes.now = clk.now
	n.messages.now = clk.now
	return n
}

// newNetwork builds one node per domain, all wired to the same loopback.
func newNetwork(clk *clock, domains ...string) map[string]*node {
	lb := &loopback{nodes: make(map[string]*node)}
	for _, d := range domains {
		lb.nodes[d] = newNode(d, lb, clk)
	}
	return lb.nodes
}

func mustAccount(t *testing.T, n *node, addr, name string) {
	t.Helper()
	_, err := n.accounts.Create(context.Background(), addr, name, true)
	require.NoError(t, err)
}

// connect runs a full handshake where initiator (on ni) connects to owner
// (on no).
func connect(t *testing.T, ni *node, initiator string, no *node, owner string) {
	t.Helper()
	ctx := context.Background()
	code, err := no.passCodes.Issue(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, ni.handshakes.Initiate(ctx, owner, code, initiator, "Initiator", true))
}

// stubPeer lets a test script each peer call.
type stubPeer struct {
	auth           func(ctx context.Context, domain string, req *protocol.AuthRequest) (*protocol.AuthResponse, error)
	confirmAuth    func(ctx context.Context, domain string, req *protocol.AuthConfirmRequest) error
	receive        func(ctx context.Context, domain string, req *protocol.ReceiveRequest) (protocol.ResponseCode, error)
	confirmMessage func(ctx context.Context, domain string, req *protocol.MessageConfirmRequest) error
}

func (s *stubPeer) Auth(ctx context.Context, domain string, req *protocol.AuthRequest) (*protocol.AuthResponse, error) {
	return s.auth(ctx, domain, req)
}

func (s *stubPeer) ConfirmAuth(ctx context.Context, domain string, req *protocol.AuthConfirmRequest) error {
	if s.confirmAuth == nil {
		return nil
	}
	return s.confirmAuth(ctx, domain, req)
}

func (s *stubPeer) Receive(ctx context.Context, domain string, req *protocol.ReceiveRequest) (protocol.ResponseCode, error) {
	return s.receive(ctx, domain, req)
}

func (s *stubPeer) ConfirmMessage(ctx context.Context, domain string, req *protocol.MessageConfirmRequest) error {
	if s.confirmMessage == nil {
		return nil
	}
	return s.confirmMessage(ctx, domain, req)
}
