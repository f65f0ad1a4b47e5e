package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/archive"
	"github.com/dmitrijs2005/peermail/internal/server/auth"
	"github.com/dmitrijs2005/peermail/internal/server/config"
	"github.com/dmitrijs2005/peermail/internal/server/peer"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/memory"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/peermail/internal/server/services"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	ts    *httptest.Server
	repos *repomanager.MemoryRepositoryManager
	svc   Services
}

// newTestEnv serves one domain over real HTTP. Peer calls for any domain
// are routed back to the same server.
func newTestEnv(t *testing.T, domain string) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, domain, logging.NewDiscardLogger())
}

func newTestEnvWithLogger(t *testing.T, domain string, logger logging.Logger) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Domain = domain
	cfg.SecretKey = testSecret
	cfg.DatabaseDSN = config.MemoryDSN

	env := &testEnv{repos: repomanager.NewMemoryRepositoryManager(memory.NewStore())}
	pc := peer.NewClient(func(string) string { return env.ts.URL + cfg.BasePath }, logger)

	env.svc = Services{
		Accounts:   services.NewAccountService(env.repos, domain, logger),
		PassCodes:  services.NewPassCodeService(env.repos, logger),
		Handshakes: services.NewHandshakeService(env.repos, pc, domain, logger),
		Messages:   services.NewMessageService(env.repos, pc, archive.Nop{}, domain, logger),
	}
	env.ts = httptest.NewServer(NewServer(cfg, env.svc, logger).Handler())
	t.Cleanup(env.ts.Close)
	return env
}

func (e *testEnv) token(t *testing.T, addr string) string {
	t.Helper()
	tok, err := auth.GenerateToken(addr, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) account(t *testing.T, addr, name string) {
	t.Helper()
	_, err := e.svc.Accounts.Create(context.Background(), addr, name, true)
	require.NoError(t, err)
}

// do sends a request with an optional JSON body and bearer token, and
// decodes the JSON response into a map.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.ts.URL+"/api"+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}
