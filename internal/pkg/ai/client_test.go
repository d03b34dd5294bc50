package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicommit/aicommit/internal/pkg/config"
	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
	"github.com/aicommit/aicommit/internal/pkg/git"
	"github.com/aicommit/aicommit/internal/pkg/security"
)

func providerFor(endpoint string) config.ProviderConfig {
	p := testProvider
	p.Endpoint = endpoint
	return p
}

func TestClient_Send_RequestShape(t *testing.T) {
	var (
		gotMethod string
		gotAuth   string
		gotCType  string
		gotBody   map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotCType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"feat: a"}}]}`))
	}))
	defer server.Close()

	provider := providerFor(server.URL + "/chat/completions")
	req := BuildChatRequest(git.Diff{Text: "+x"}, provider)

	res, err := NewClient(provider).Send(context.Background(), req, provider)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Body, "feat: a")

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "application/json", gotCType)
	assert.Equal(t, "deepseek-chat", gotBody["model"])
	assert.Equal(t, false, gotBody["stream"])
	assert.Equal(t, 0.7, gotBody["temperature"])
	assert.Equal(t, float64(2000), gotBody["max_tokens"])
	assert.Len(t, gotBody["messages"], 2)
}

func TestClient_Send_FailureStatusIsRawResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	provider := providerFor(server.URL)
	res, err := NewClient(provider).Send(context.Background(), BuildChatRequest(git.Diff{Text: "x"}, provider), provider)
	require.NoError(t, err)
	assert.Equal(t, 500, res.StatusCode)
	assert.Equal(t, "Internal Server Error", res.Body)
}

func TestClient_Send_InvalidKeySendsPlaceholder(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"auth_error"}}`))
	}))
	defer server.Close()

	var logs bytes.Buffer
	provider := providerFor(server.URL)
	provider.APIKey = "sk-line\nbreak"

	res, err := NewClient(provider, WithLogger(apperrors.NewLogger(&logs, true))).
		Send(context.Background(), BuildChatRequest(git.Diff{Text: "x"}, provider), provider)
	require.NoError(t, err)
	assert.Equal(t, security.InvalidBearer, gotAuth)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, logs.String(), "placeholder credential")
}

func TestClient_Send_DoesNotLogPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	var logs bytes.Buffer
	provider := providerFor(server.URL)
	req := BuildChatRequest(git.Diff{Text: "+secret_diff_marker"}, provider)

	_, err := NewClient(provider, WithLogger(apperrors.NewLogger(&logs, true))).Send(context.Background(), req, provider)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "API Request")
	assert.NotContains(t, logs.String(), "secret_diff_marker")
	assert.NotContains(t, logs.String(), "sk-test")
}

func TestClient_Send_SerializationError(t *testing.T) {
	orig := marshalRequest
	marshalRequest = func(any) ([]byte, error) { return nil, errors.New("boom") }
	defer func() { marshalRequest = orig }()

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	provider := providerFor(server.URL)
	_, err := NewClient(provider).Send(context.Background(), BuildChatRequest(git.Diff{}, provider), provider)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrSerialization))
	assert.False(t, called)
}

func TestClient_Send_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	provider := providerFor(url)
	_, err := NewClient(provider).Send(context.Background(), BuildChatRequest(git.Diff{}, provider), provider)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrTransport))
	assert.True(t, apperrors.IsRetryable(err))
	assert.Contains(t, err.Error(), "failed to send completion request")
}

// shortBodyServer answers every request with a body shorter than its
// Content-Length and then drops the connection.
func shortBodyServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			req, err := http.ReadRequest(bufio.NewReader(conn))
			if err == nil {
				_, _ = io.Copy(io.Discard, req.Body)
				_, _ = io.WriteString(conn, "HTTP/1.1 200 OK\r\n"+
					"Content-Type: application/json\r\n"+
					"Content-Length: 100\r\n\r\n"+
					`{"ch`)
			}
			conn.Close()
		}
	}()
	return "http://" + ln.Addr().String() + "/chat/completions"
}

func TestClient_Send_TruncatedBody(t *testing.T) {
	provider := providerFor(shortBodyServer(t))

	res, err := NewClient(provider).Send(context.Background(), BuildChatRequest(git.Diff{}, provider), provider)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrTransport))
	assert.True(t, apperrors.IsRetryable(err))
	assert.Contains(t, err.Error(), "failed to read completion response")
	assert.NotContains(t, err.Error(), "failed to send completion request")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestClient_Send_BadEndpoint(t *testing.T) {
	provider := providerFor("http://[::1")
	_, err := NewClient(provider).Send(context.Background(), BuildChatRequest(git.Diff{}, provider), provider)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrTransport))
}

func TestClient_Send_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	provider := providerFor(server.URL)
	client := NewClient(provider, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	_, err := client.Send(context.Background(), BuildChatRequest(git.Diff{}, provider), provider)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrTimeout))
}

func TestClient_Send_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	provider := providerFor(server.URL)
	_, err := NewClient(provider).Send(ctx, BuildChatRequest(git.Diff{}, provider), provider)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrTimeout))
}

func TestNewClient_Fallback(t *testing.T) {
	tests := []struct {
		name     string
		proxy    string
		fallback bool
	}{
		{"no proxy", "", false},
		{"valid proxy", "http://127.0.0.1:3128", false},
		{"unparseable proxy", "://bad", true},
		{"proxy without host", "localhost:3128", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProvider
			p.Proxy = tt.proxy
			c := NewClient(p, WithLogger(apperrors.NewLogger(io.Discard, false)))
			assert.Equal(t, tt.fallback, c.UsingFallback())
			require.NotNil(t, c.httpClient)
			assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
		})
	}
}

func TestNewClient_FallbackStillSends(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"fix: b"}}]}`))
	}))
	defer server.Close()

	provider := providerFor(server.URL)
	provider.Proxy = "://bad"
	c := NewClient(provider, WithLogger(apperrors.NewLogger(io.Discard, false)))
	require.True(t, c.UsingFallback())

	res, err := c.Send(context.Background(), BuildChatRequest(git.Diff{}, provider), provider)
	require.NoError(t, err)

	got, err := Reconcile(res.StatusCode, res.Body)
	require.NoError(t, err)
	assert.Equal(t, []string{"fix: b"}, got)
}
