package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/intelli-widgets/internal/dom"
	"github.com/tamzrod/intelli-widgets/internal/status"
)

type fakePage struct {
	doc *dom.Document

	mu       sync.Mutex
	received []string
}

func (p *fakePage) Document() *dom.Document { return p.doc }

func (p *fakePage) Status() status.Snapshot {
	return status.Snapshot{
		Health:  status.HealthOK,
		Modules: map[string]string{"chart": "loaded"},
		Locale:  "en",
	}
}

func (p *fakePage) Dispatch(raw []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = append(p.received, string(raw))
	return strings.Contains(string(raw), `"intelli-widgets"`)
}

func prepare(t *testing.T) (*Server, *fakePage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	doc, err := dom.Parse(strings.NewReader(`<div id="w">hello</div>`))
	require.NoError(t, err)

	page := &fakePage{doc: doc}
	return New(page, nil), page
}

func TestDocument(t *testing.T) {
	s, _ := prepare(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `<div id="w">hello</div>`)
}

func TestStatus(t *testing.T) {
	s, _ := prepare(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "en", body["locale"])
	assert.Equal(t, map[string]any{"chart": "loaded"}, body["modules"])
}

func TestMessages(t *testing.T) {
	s, page := prepare(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages",
		strings.NewReader(`{"target":"intelli-widgets","kind":"clear"}`)))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages",
		strings.NewReader(`{"source":"devtools"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Len(t, page.received, 2)
}

func TestMessageTooLarge(t *testing.T) {
	s, page := prepare(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages",
		strings.NewReader(strings.Repeat("x", maxMessageBytes+1))))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, page.received)
}

func TestServeStopsOnCancel(t *testing.T) {
	s, _ := prepare(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
