package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobs": [{"id": 1}]}`))
	}))
	defer server.Close()

	var out struct {
		Jobs []struct {
			ID int `json:"id"`
		} `json:"jobs"`
	}
	err := NewClient(nil, nil).GetJSON(context.Background(), server.URL, &out)
	require.NoError(t, err)
	require.Len(t, out.Jobs, 1)
	assert.Equal(t, 1, out.Jobs[0].ID)
}

func TestGet_InvalidURL(t *testing.T) {
	_, err := NewClient(nil, nil).Get(context.Background(), "not-a-valid-url")
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestGet_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(nil, nil).Get(context.Background(), server.URL)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "404")
}

func TestGetJSON_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	var out map[string]any
	err := NewClient(nil, nil).GetJSON(context.Background(), server.URL, &out)
	assert.ErrorContains(t, err, "invalid JSON")
}

func TestGet_CustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"X-Api-Key": "secret"}
	body, err := NewClient(opts, nil).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestGet_RespectsCancelledContextWhileLimited(t *testing.T) {
	limiter := NewHostLimiter(0.001, 1)
	client := NewClient(nil, limiter)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err, "first request uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Get(ctx, server.URL)
	assert.ErrorContains(t, err, "rate limit wait")
}

func TestHostLimiter_PerHost(t *testing.T) {
	hl := NewHostLimiter(1, 1)

	assert.Same(t, hl.limiterFor("a.example.com"), hl.limiterFor("a.example.com"))
	assert.NotSame(t, hl.limiterFor("a.example.com"), hl.limiterFor("b.example.com"))
	assert.NoError(t, hl.WaitURL(context.Background(), "https://c.example.com/x"))
	assert.NoError(t, hl.WaitURL(context.Background(), "::bad"))
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "  Build   things  ", "Build things"},
		{"paragraphs", "<p>First</p><p>Second <b>bold</b></p>", "First\nSecond bold"},
		{"list and br", "<ul><li>Go</li><li>SQL</li></ul>line<br>break", "Go\nSQL\nline\nbreak"},
		{"escaped markup", "&lt;p&gt;Hello &amp;amp; welcome&lt;/p&gt;", "Hello & welcome"},
		{"drops scripts", "<div>Keep</div><script>var x=1</script>", "Keep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTMLToText(tt.input))
		})
	}
}
