package server

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"diamond-hands/internal/config"
	"diamond-hands/internal/ledger"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Env = "test"
	cfg.PublishDebounceMillis = 10
	cfg.PollIntervalSeconds = 1
	return cfg
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// startServer runs a server over an in-memory ledger.
func startServer(t *testing.T) (*httptest.Server, *ledger.Client) {
	t.Helper()
	return startServerWith(t, testConfig())
}

func startServerWith(t *testing.T, cfg config.Config) (*httptest.Server, *ledger.Client) {
	t.Helper()
	client := ledger.NewClient(ledger.NewMemoryStore())
	srv := New(client, cfg, nil)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts, client
}

// newBrowser returns a client that keeps the session cookie.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doRequest(t *testing.T, client *http.Client, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func createRoom(t *testing.T, client *http.Client, ts *httptest.Server, identity string) string {
	t.Helper()
	resp := doRequest(t, client, ts, http.MethodPost, "/api/rooms", map[string]string{"identity": identity})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	code, ok := body["room_code"].(string)
	if !ok {
		t.Fatalf("expected room_code string, got %T", body["room_code"])
	}
	return code
}

func roomView(t *testing.T, client *http.Client, ts *httptest.Server) map[string]any {
	t.Helper()
	resp := doRequest(t, client, ts, http.MethodGet, "/api/room", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}
