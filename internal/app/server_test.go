// # internal/app/server_test.go
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestObservabilityServer(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "mod.py", "def f():\n    dead = 1\n")

	a, err := New(testConfig(dir))
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.InitialScan(context.Background()))

	addr := fmt.Sprintf("127.0.0.1:%d", freePort(t))
	server := NewObservabilityServer(addr, a)
	require.NoError(t, server.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get("http://" + addr + "/health")
		return err == nil
	}, 2*time.Second, 50*time.Millisecond, "health endpoint never came up")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status healthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, 1, status.Files)
	assert.Equal(t, 1, status.Findings)

	metricsResp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
