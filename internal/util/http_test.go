package util_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacefreq/ificsync/internal/util"
)

func TestFetchBytes_ReturnsBodyAndContentLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "payload")
	}))
	defer server.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	body, contentLength, err := util.FetchBytes(server.Client(), req)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, int64(len("payload")), contentLength)
}

func TestFetchBytes_NonOKStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer server.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, _, err = util.FetchBytes(server.Client(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestRandomUserAgent_NonEmpty(t *testing.T) {
	assert.NotEmpty(t, util.RandomUserAgent())
}

func TestNewHTTPClient_DefaultsTimeout(t *testing.T) {
	assert.Equal(t, 2*time.Minute, util.NewHTTPClient(0).Timeout)
	assert.Equal(t, 30*time.Second, util.NewHTTPClient(30*time.Second).Timeout)
}
