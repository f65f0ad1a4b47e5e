package rest

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogRequests_ServiceLogsCarryRequestID(t *testing.T) {
	var logs lockedBuffer
	env := newTestEnvWithLogger(t, "example.com", logging.NewJSONLogger(&logs, "info"))
	env.account(t, "0*example.com", "Zero")

	req, err := http.NewRequest(http.MethodPost, env.ts.URL+"/api/setup/request-pass-code",
		strings.NewReader(`{"owner_address":"0*example.com"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.token(t, "0*example.com"))

	resp, err := env.ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	id := resp.Header.Get("X-Request-ID")
	require.NotEmpty(t, id)

	var issued string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, `"msg":"pass code issued"`) {
			issued = line
		}
	}
	require.NotEmpty(t, issued, logs.String())
	assert.Contains(t, issued, `"request_id":"`+id+`"`)
}
