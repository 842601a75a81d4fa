package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resourceMock(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("hello world"))
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(resourceMock))
	defer server.Close()

	f := New("test-agent", 3*time.Second, 1<<20, 1024, zerolog.Nop())
	res, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "hello world", string(res.Body))
	assert.False(t, res.Truncated)
}

func TestFetchConnectionRefused(t *testing.T) {
	f := New("test-agent", 3*time.Second, 1<<20, 1024, zerolog.Nop())
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
	var abortErr *AbortError
	assert.ErrorAs(t, err, &abortErr)
}

func TestFetchTruncatesAtSizeCeiling(t *testing.T) {
	const bodySize = 10000
	handler := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", bodySize)))
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	defer server.Close()

	f := New("test-agent", 3*time.Second, 100, 16, zerolog.Nop())
	res, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Body, 100)
}

func TestFetchExactSizeCeilingIsNotTruncated(t *testing.T) {
	const bodySize = 64
	handler := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("b", bodySize)))
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	defer server.Close()

	f := New("test-agent", 3*time.Second, bodySize, 16, zerolog.Nop())
	res, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, res.Truncated)
	assert.Len(t, res.Body, bodySize)
}

func TestFetchTimeCeilingAborts(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		flusher, _ := w.(http.Flusher)
		for i := 0; i < 5; i++ {
			fmt.Fprint(w, "x")
			if flusher != nil {
				flusher.Flush()
			}
			time.Sleep(15 * time.Millisecond)
		}
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	defer server.Close()

	f := New("test-agent", 10*time.Millisecond, 1<<20, 1, zerolog.Nop())
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	var abortErr *AbortError
	assert.ErrorAs(t, err, &abortErr)
}
