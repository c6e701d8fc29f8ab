package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIndicator struct {
	mu    sync.Mutex
	shows int
	hides int
}

func (r *recordingIndicator) Show() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shows++
}

func (r *recordingIndicator) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hides++
}

func (r *recordingIndicator) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shows, r.hides
}

type capturedRequest struct {
	method      string
	query       url.Values
	contentType string
	body        string
}

func TestRequestPayloadEncoding(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = capturedRequest{
			method:      r.Method,
			query:       r.URL.Query(),
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)

	tests := []struct {
		name            string
		method          string
		payload         any
		wantQuery       url.Values
		wantBody        string
		wantContentType string
	}{
		{
			name:      "GET sends map payload as query parameters",
			method:    http.MethodGet,
			payload:   map[string]string{"page": "2"},
			wantQuery: url.Values{"page": {"2"}},
			wantBody:  "",
		},
		{
			name:      "GET sends url.Values as query parameters",
			method:    http.MethodGet,
			payload:   url.Values{"tag": {"go", "web"}},
			wantQuery: url.Values{"tag": {"go", "web"}},
			wantBody:  "",
		},
		{
			name:            "POST sends JSON body",
			method:          http.MethodPost,
			payload:         map[string]string{"email": "a@example.com"},
			wantQuery:       url.Values{},
			wantBody:        `{"email":"a@example.com"}`,
			wantContentType: "application/json; charset=utf-8",
		},
		{
			name:            "PUT sends JSON body",
			method:          http.MethodPut,
			payload:         map[string]any{"count": 3},
			wantQuery:       url.Values{},
			wantBody:        `{"count":3}`,
			wantContentType: "application/json; charset=utf-8",
		},
		{
			name:      "DELETE without payload sends no body",
			method:    http.MethodDelete,
			payload:   nil,
			wantQuery: url.Values{},
			wantBody:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured = capturedRequest{}

			res, err := c.Request(context.Background(), tt.method, "/api/test/", tt.payload)
			require.NoError(t, err)

			assert.Equal(t, tt.method, captured.method)
			assert.Equal(t, tt.wantQuery, captured.query)
			assert.Equal(t, tt.wantBody, captured.body)
			assert.Equal(t, tt.wantContentType, captured.contentType)
			assert.JSONEq(t, `{"message":"ok"}`, string(res.Body))
		})
	}
}

func TestRequestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error_code":"internal_error","message":"boom"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"title":"attempt 3"}]`))
	}))
	defer server.Close()

	indicator := &recordingIndicator{}
	c := NewClient(server.URL, WithIndicator(indicator))

	res, err := c.Get(context.Background(), "/api/events/", nil)
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, res.Attempts)
	assert.JSONEq(t, `[{"title":"attempt 3"}]`, string(res.Body))

	shows, hides := indicator.counts()
	assert.Equal(t, 1, shows, "indicator should be shown once")
	assert.Equal(t, 1, hides, "indicator should be hidden once")
}

func TestRequestGivesUpAfterRetryLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(server.URL)

	_, err := c.Get(context.Background(), "/api/events/", nil)
	require.Error(t, err)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusServiceUnavailable, ce.StatusCode)
	assert.Equal(t, KindServer, ce.Kind)
	assert.Equal(t, DefaultRetryLimit+1, ce.Attempts)
	assert.Equal(t, int32(DefaultRetryLimit+1), calls.Load())
}

func TestRequestPermanentFailuresAreNotRetried(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   ErrorKind
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"error_code":"resource_not_found","message":"no such feed"}`,
			wantKind:   KindClient,
			wantStatus: http.StatusNotFound,
			wantMsg:    "no such feed",
		},
		{
			name:       "bad request",
			status:     http.StatusBadRequest,
			body:       `{"message":"Invalid JSON."}`,
			wantKind:   KindClient,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid JSON.",
		},
		{
			name:       "malformed JSON on success",
			status:     http.StatusOK,
			body:       `[{"title":`,
			wantKind:   KindParse,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			indicator := &recordingIndicator{}
			c := NewClient(server.URL, WithIndicator(indicator))

			_, err := c.Get(context.Background(), "/api/events/", nil)

			var ce *ClientError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantKind, ce.Kind)
			assert.Equal(t, tt.wantStatus, ce.StatusCode)
			assert.Equal(t, tt.wantMsg, ce.ServerMessage)
			assert.Equal(t, tt.body, string(ce.Body))
			assert.Equal(t, 1, ce.Attempts)
			assert.Equal(t, int32(1), calls.Load(), "permanent failures must not be retried")

			shows, hides := indicator.counts()
			assert.Equal(t, 1, shows)
			assert.Equal(t, 1, hides)
		})
	}
}

func TestRequestTimeoutExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	indicator := NewLoadingIndicator(nil)
	c := NewClient(server.URL, WithIndicator(indicator), WithTimeout(50*time.Millisecond))

	_, err := c.Get(context.Background(), "/api/programs/", nil)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindTimeout, ce.Kind)
	assert.Equal(t, 0, ce.StatusCode)
	assert.Equal(t, DefaultRetryLimit+1, ce.Attempts)
	assert.Equal(t, int32(DefaultRetryLimit+1), calls.Load())
	assert.False(t, indicator.Visible(), "indicator must not be left visible")
}

func TestRequestConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	c := NewClient(baseURL)

	_, err := c.Get(context.Background(), "/api/blog/", nil)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindNetwork, ce.Kind)
	assert.Equal(t, 1, ce.Attempts)
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{name: "unsupported method", method: "PATCH", path: "/api/events/"},
		{name: "empty url", method: http.MethodGet, path: ""},
		{name: "GET payload that cannot be a query", method: http.MethodGet, path: "/api/events/", body: []int{1, 2}},
		{name: "body that cannot be marshalled", method: http.MethodPost, path: "/api/contact/", body: map[string]any{"ch": make(chan int)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indicator := &recordingIndicator{}
			c := NewClient("http://localhost:0", WithIndicator(indicator))

			_, err := c.Request(context.Background(), tt.method, tt.path, tt.body)

			var ce *ClientError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, KindInternal, ce.Kind)

			shows, _ := indicator.counts()
			assert.Equal(t, 0, shows, "invalid requests are rejected before the indicator is shown")
		})
	}
}

func TestRequestContextCanceled(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	var calls atomic.Int32
	c := NewClient(server.URL, WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls.Add(1)
			return http.DefaultTransport.RoundTrip(r)
		}),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Get(ctx, "/api/events/", nil)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindCanceled, ce.Kind)
	assert.Equal(t, int32(1), calls.Load(), "cancellation is not retried")
}

func TestRequestEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL)

	res, err := c.Delete(context.Background(), "/api/events/1")
	require.NoError(t, err)
	assert.Nil(t, res.Body)

	var items []map[string]any
	require.NoError(t, res.Decode(&items))
	assert.Nil(t, items)
}

func TestRequestAbsoluteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path})
	}))
	defer server.Close()

	c := NewClient("http://unused.invalid")

	res, err := c.Get(context.Background(), server.URL+"/api/blog/", nil)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, res.Decode(&got))
	assert.Equal(t, "/api/blog/", got["path"])
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestRequestSendsConfiguredHeaders(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Techstack-Site-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithHeader("Techstack-Site-Token", "secret"))
	_, err := c.Get(context.Background(), "/api/events/", nil)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Load())
}
