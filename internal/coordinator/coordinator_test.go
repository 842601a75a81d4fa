package coordinator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwmbl/crawlworker/internal/crawlresult"
)

func TestNewBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"https://a.example/", "https://b.example/"})
	}))
	defer server.Close()

	client := New(server.URL, "user-1", nil, zerolog.Nop())
	urls, err := client.NewBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/", "https://b.example/"}, urls)
}

func TestNewBatchEmptyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{})
	}))
	defer server.Close()

	client := New(server.URL, "user-1", nil, zerolog.Nop())
	_, err := client.NewBatch(context.Background())
	require.Error(t, err)
}

func TestSubmitOnce(t *testing.T) {
	var received submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "user-1", nil, zerolog.Nop())
	err := client.Submit(context.Background(), []crawlresult.Result{
		crawlresult.Success("https://a.example/", 200, 1, "t", "e", nil, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", received.UserID)
	assert.Len(t, received.Items, 1)
}

func TestSubmitWithRetryRecoversFromGatewayError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "user-1", nil, zerolog.Nop())
	err := client.SubmitWithRetry(context.Background(), nil, time.Millisecond, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestSubmitWithRetryFailsHardOnOtherStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "user-1", nil, zerolog.Nop())
	err := client.SubmitWithRetry(context.Background(), nil, time.Millisecond, 10)
	require.Error(t, err)
}

func TestSubmitWithRetryExhaustsAttempts(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer server.Close()

	client := New(server.URL, "user-1", nil, zerolog.Nop())
	err := client.SubmitWithRetry(context.Background(), nil, time.Millisecond, 3)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}
