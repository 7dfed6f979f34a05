package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/nucleator/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 0},
		Preview: config.PreviewConfig{
			Title: "Nucleus Preview",
		},
		Fragments: config.FragmentsConfig{
			Dir:        t.TempDir(),
			Extensions: []string{".ncl"},
		},
		Watch: config.WatchConfig{Enabled: false},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *PreviewServer {
	t.Helper()
	s, err := New(cfg, nil)
	require.NoError(t, err)
	return s
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := httptest.NewRecorder()
	s.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "source-input")
	assert.Contains(t, rec.Body.String(), "/ws")

	rec = httptest.NewRecorder()
	s.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCompile(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	body := `{"type":"compile","source":"<n:view title=\"Home\"><h1>{site}</h1></n:view>","style":"h1 { color: teal; }"}`
	req := httptest.NewRequest(http.MethodPost, "/api/compile", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleCompile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Home</title>")
	assert.Contains(t, out, "<h1>Nucleus Demo</h1>")
	assert.Contains(t, out, "color: teal")
}

func TestHandleCompileRendersDiagnosticsOverlay(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	s.collector.AddError("fragments", os.ErrPermission)

	body := `{"type":"compile","source":"<n:view title=\"Home\"><p>ok</p></n:view>"}`
	req := httptest.NewRequest(http.MethodPost, "/api/compile", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleCompile(rec, req)

	out := rec.Body.String()
	assert.Contains(t, out, `id="nucleator-diagnostics"`)
	// The overlay sits inside the body, not after the document.
	assert.Less(t, strings.Index(out, "nucleator-diagnostics"), strings.Index(out, "</body>"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</html>"))
}

func TestHandleCompileMergesRequestData(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	body := `{"type":"compile","source":"<p>{site}</p>","data":{"site":"Override"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/compile", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleCompile(rec, req)

	assert.Contains(t, rec.Body.String(), "<p>Override</p>")
}

func TestHandleCompileRejectsBadInput(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/api/compile", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	s.handleCompile(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/compile", nil)
	rec = httptest.NewRecorder()
	s.handleCompile(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleFragments(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Fragments.Dir, "nav.ncl"), []byte("<nav/>"), 0o644))

	s := newTestServer(t, cfg)
	s.scanFragments(context.Background())

	rec := httptest.NewRecorder()
	s.handleFragments(rec, httptest.NewRequest(http.MethodGet, "/api/fragments", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Fragments []string `json:"fragments"`
		Count     int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"nav"}, resp.Fragments)
	assert.Equal(t, 1, resp.Count)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
}

func TestCheckOrigin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = 8120
	cfg.Server.AllowedOrigins = []string{"example.test:3000"}
	s := newTestServer(t, cfg)

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:8120", true},
		{"http://127.0.0.1:8120", true},
		{"http://example.test:3000", true},
		{"http://evil.test", false},
		{"ftp://localhost:8120", false},
		{"", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, s.checkOrigin(req), "origin %q", tt.origin)
	}
}

func TestWebSocketCompileRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	s := newTestServer(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go s.runHub(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	cfg.Server.AllowedOrigins = []string{u.Host}

	header := http.Header{}
	header.Set("Origin", ts.URL)
	conn, _, err := websocket.Dial(ctx, "ws://"+u.Host+"/ws", &websocket.DialOptions{
		HTTPHeader: header,
	})
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	req := CompileRequest{Type: "compile", Source: "<p>{user.name}</p>"}
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "render", msg.Type)
	assert.Contains(t, msg.Content, "<p>John Doe</p>")
}

func TestWebSocketRejectsBadOrigin(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://evil.test")
	s.handleWebSocket(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestShutdownIdempotent(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, s.Shutdown(ctx))
}
