package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mwmbl/crawlworker/internal/fetcher"
)

func serverMock(robotsBody string, robotsStatus int) *httptest.Server {
	handler := http.NewServeMux()
	handler.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(robotsStatus)
		_, _ = w.Write([]byte(robotsBody))
	})
	handler.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return httptest.NewServer(handler)
}

func newTestFetcher() *fetcher.Fetcher {
	return fetcher.New("Mwmbl", 3*time.Second, 1<<20, 1024, zerolog.Nop())
}

func TestRootDomainAlwaysAllowed(t *testing.T) {
	gate := New(newTestFetcher(), "Mwmbl")
	assert.True(t, gate.Allowed(context.Background(), "https://example.com/"))
}

func TestMalformedURLDenied(t *testing.T) {
	gate := New(newTestFetcher(), "Mwmbl")
	assert.False(t, gate.Allowed(context.Background(), "://not a url"))
}

func TestDisallowedPath(t *testing.T) {
	server := serverMock("User-agent: *\nDisallow: /private/*\n", http.StatusOK)
	defer server.Close()

	gate := New(newTestFetcher(), "Mwmbl")
	assert.False(t, gate.Allowed(context.Background(), server.URL+"/private/x"))
}

func TestAllowedPath(t *testing.T) {
	server := serverMock("User-agent: *\nDisallow: /private/*\n", http.StatusOK)
	defer server.Close()

	gate := New(newTestFetcher(), "Mwmbl")
	assert.True(t, gate.Allowed(context.Background(), server.URL+"/public/x"))
}

func TestMissingRobotsTxtIsPermissive(t *testing.T) {
	server := serverMock("not found", http.StatusNotFound)
	defer server.Close()

	gate := New(newTestFetcher(), "Mwmbl")
	assert.True(t, gate.Allowed(context.Background(), server.URL+"/private/x"))
}

func TestUnreachableHostIsPermissive(t *testing.T) {
	gate := New(newTestFetcher(), "Mwmbl")
	assert.True(t, gate.Allowed(context.Background(), "http://127.0.0.1:1/private/x"))
}
