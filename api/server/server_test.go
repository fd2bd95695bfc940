package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/analyst/agent/pkg/pipeline"
	"github.com/malbeclabs/analyst/pkg/superstore"
)

func testLogger(t *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func getFreeListener(t *testing.T) net.Listener {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		listener.Close()
	})
	return listener
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(ctx context.Context, question string) (*pipeline.Analysis, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("expected a request deadline")
	}
	return &pipeline.Analysis{ID: "id-1", Question: question, State: pipeline.StateSucceeded, Report: "report: " + question}, nil
}

type stubIngester struct{}

func (stubIngester) Ingest(ctx context.Context, r io.Reader) (superstore.IngestResult, error) {
	return superstore.IngestResult{}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func newTestServer(t *testing.T, pinger Pinger) *Server {
	t.Helper()
	srv, err := New(context.Background(), Config{
		Logger:         testLogger(t),
		Listener:       getFreeListener(t),
		Analyzer:       stubAnalyzer{},
		Ingester:       stubIngester{},
		Pinger:         pinger,
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	require.NoError(t, err)
	return srv
}

func TestServer_Config_Validate(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	require.ErrorContains(t, cfg.Validate(), "listener")

	cfg = Config{Listener: getFreeListener(t)}
	require.ErrorContains(t, cfg.Validate(), "analyzer")

	cfg = Config{Listener: getFreeListener(t), Analyzer: stubAnalyzer{}}
	require.ErrorContains(t, cfg.Validate(), "ingester")

	cfg = Config{Listener: getFreeListener(t), Analyzer: stubAnalyzer{}, Ingester: stubIngester{}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, defaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, defaultShutdownTimeout, cfg.ShutdownTimeout)
}

func TestServer_Config_LoadFromEnv(t *testing.T) {
	t.Setenv("ANALYST_ALLOWED_ORIGINS", " http://a.example , ,http://b.example")

	cfg := Config{}
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)

	cfg = Config{AllowedOrigins: []string{"http://keep"}}
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, []string{"http://keep"}, cfg.AllowedOrigins)
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, stubPinger{})
	h := srv.Handler()

	t.Run("healthz", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("readyz", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("analyse has a deadline", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/dataAnalyst/analyse", strings.NewReader(`{"prompt":"total sales by region"}`))
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "report: total sales by region", rr.Body.String())
	})

	t.Run("front end", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `id="promptForm"`)

		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/script.js", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "/api/dataAnalyst")
	})

	t.Run("unknown route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dataAnalyst/analyse", nil))
		require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("cors preflight", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/api/dataAnalyst/analyse", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		h.ServeHTTP(rr, req)
		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestServer_Readyz_MongoDown(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, stubPinger{err: errors.New("server selection timeout")})
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestServer_Run(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	addr := srv.cfg.Listener.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
