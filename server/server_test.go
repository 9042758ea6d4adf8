package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angi-lang/angi"
	"github.com/angi-lang/angi/archive"
	"github.com/angi-lang/angi/vm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const app = `{
    port = 4000;
    routes = [
        {path = "/"; handler = "Message 1";},
        {path = "/Hello"; handler = "Message Hello";},
        {path = "/home"; handler = () => html("<h1>Home</h1>");},
        {path = "/about"; handler = () => text("About us");},
        {path = "/answer"; handler = () => json(6 * 7);},
        {path = "/raw"; handler = () => json("{\"ok\":1}");},
        {path = "/config"; handler = () => json({ name = "angi"; tags = ["a", "b"]; });},
        {path = "/old"; handler = () => redirect("/home");},
        {path = "/page"; handler = () => { type = "htmlTemplate"; path = "page.html"; title = "Hi"; };},
        {path = "/submit"; method = "post"; handler = () => text("ok");},
        {path = "/broken"; handler = () => { type = "video"; };},
    ];
}`

func newServer(t *testing.T, source string, options ...Option) *Server {
	t.Helper()
	machine, err := angi.Load(context.Background(), source)
	require.NoError(t, err)
	s, err := New(machine, options...)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, method, path string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec.Result()
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestRoutes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte(`<title>{{.title}}</title>`), 0o644))
	s := newServer(t, app, WithAssets(DirAssets(dir)))
	require.Equal(t, 4000, s.Port())
	require.Len(t, s.Routes(), 11)
	require.Equal(t, http.MethodPost, s.Routes()[9].Method)

	tests := []struct {
		method      string
		path        string
		status      int
		contentType string
		body        string
	}{
		{"GET", "/", 200, "text/plain; charset=utf-8", "Message 1"},
		{"GET", "/Hello", 200, "text/plain; charset=utf-8", "Message Hello"},
		{"GET", "/home", 200, "text/html; charset=utf-8", "<h1>Home</h1>"},
		{"GET", "/about", 200, "text/plain; charset=utf-8", "About us"},
		{"GET", "/answer", 200, "application/json", "42"},
		{"GET", "/raw", 200, "application/json", `{"ok":1}`},
		{"GET", "/config", 200, "application/json", `{"name":"angi","tags":["a","b"]}`},
		{"GET", "/page", 200, "text/html; charset=utf-8", "<title>Hi</title>"},
		{"POST", "/submit", 200, "text/plain; charset=utf-8", "ok"},
		{"GET", "/broken", 500, "text/plain; charset=utf-8", "Internal Server Error\n"},
		{"GET", "/missing", 404, "text/plain; charset=utf-8", "404 page not found\n"},
		{"GET", "/submit", 405, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := get(t, s.Handler(), tt.method, tt.path)
			require.Equal(t, tt.status, resp.StatusCode)
			if tt.contentType != "" {
				require.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			}
			if tt.body != "" {
				require.Equal(t, tt.body, body(t, resp))
			}
			require.NotEmpty(t, resp.Header.Get(RequestIDHeader))
		})
	}
}

func TestRedirect(t *testing.T) {
	s := newServer(t, app)
	resp := get(t, s.Handler(), "GET", "/old")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/home", resp.Header.Get("Location"))
}

func TestRequestIDIsKept(t *testing.T) {
	s := newServer(t, app)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	s := newServer(t, app, WithLogger(zerolog.New(&buf)))
	require.Contains(t, buf.String(), `"message":"route registered"`)

	buf.Reset()
	get(t, s.Handler(), "GET", "/home")
	line := buf.String()
	require.Contains(t, line, `"path":"/home"`)
	require.Contains(t, line, `"status":200`)
	require.Contains(t, line, `"request_id":"`)
}

func TestTemplateWithoutAssets(t *testing.T) {
	s := newServer(t, app)
	resp := get(t, s.Handler(), "GET", "/page")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestPortOverride(t *testing.T) {
	s := newServer(t, app, WithPort(9000), WithHost("127.0.0.1"))
	require.Equal(t, 9000, s.Port())
	require.Equal(t, "127.0.0.1:9000", s.Addr())

	s = newServer(t, `{ routes = []; }`)
	require.Equal(t, DefaultPort, s.Port())
}

func TestInvalidRoutes(t *testing.T) {
	tests := map[string]string{
		"no routes":    `{ port = 1; }`,
		"not a list":   `{ routes = 1; }`,
		"no path":      `{ routes = [{ handler = "x"; }]; }`,
		"bad path":     `{ routes = [{ path = "x"; handler = "x"; }]; }`,
		"bad handler":  `{ routes = [{ path = "/"; handler = 1; }]; }`,
		"bad port":     `{ port = 70000; routes = []; }`,
		"string port":  `{ port = "80"; routes = []; }`,
		"route is int": `{ routes = [1]; }`,
	}
	for name, source := range tests {
		t.Run(name, func(t *testing.T) {
			machine, err := angi.Load(context.Background(), source)
			require.NoError(t, err)
			_, err = New(machine)
			require.Error(t, err)
		})
	}
}

func TestOpenBundle(t *testing.T) {
	code, err := angi.Compile(context.Background(), app)
	require.NoError(t, err)
	a := archive.New()
	require.NoError(t, a.Add(archive.BytecodeEntry, code))
	require.NoError(t, a.Add(archive.TemplatePrefix+"page.html", []byte(`<b>{{.title}}</b>`)))
	data, err := a.Bytes()
	require.NoError(t, err)
	ex, err := archive.NewExtractor(data)
	require.NoError(t, err)

	s, err := OpenBundle(ex, []vm.Option{vm.WithMaxCallDepth(100)})
	require.NoError(t, err)
	resp := get(t, s.Handler(), "GET", "/page")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "<b>Hi</b>", body(t, resp))
}

func TestListenAndServe(t *testing.T) {
	s := newServer(t, app, WithHost("127.0.0.1"), WithPort(freePort(t)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://" + s.Addr() + "/Hello")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 5*time.Second, 10*time.Millisecond)
	defer resp.Body.Close()
	require.Equal(t, "Message Hello", strings.TrimSpace(body(t, resp)))

	cancel()
	require.NoError(t, <-done)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
