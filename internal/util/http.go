package util

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

var commonUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36",
}

// RandomUserAgent returns one of a small set of realistic User-Agent strings.
func RandomUserAgent() string {
	if len(commonUserAgents) == 0 {
		return "ificsync/1.0 (Go-client)"
	}
	return commonUserAgents[rand.Intn(len(commonUserAgents))]
}

// NewHTTPClient creates an http.Client with the given request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}

// FetchBytes executes a pre-built HTTP request and returns the body bytes
// plus the Content-Length advertised by the server (-1 when absent).
// It handles response closing and non-200 status codes. The caller is
// responsible for creating the request (including context and headers).
func FetchBytes(client *http.Client, req *http.Request) ([]byte, int64, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, -1, fmt.Errorf("http do request for %s: %w", req.URL.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read some of the body for context on error.
		limitReader := io.LimitReader(resp.Body, 512)
		bodyBytes, _ := io.ReadAll(limitReader)
		return nil, -1, fmt.Errorf("bad status '%s' fetching %s: %s", resp.Status, req.URL.String(), string(bodyBytes))
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, -1, fmt.Errorf("failed reading body from %s: %w", req.URL.String(), err)
	}
	return bodyBytes, resp.ContentLength, nil
}
