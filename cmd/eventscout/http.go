package main

// ---------------------------------------------------------------------------
// http.go — HTTP client helpers for talking to a running instance
// ---------------------------------------------------------------------------

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

func apiGet(url, apiKey string, timeout time.Duration) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to eventscout API at %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, checkStatus(resp.StatusCode, body)
}

func apiPost(url string, payload []byte, apiKey string, timeout time.Duration) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to eventscout API at %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, checkStatus(resp.StatusCode, body)
}

// checkStatus maps HTTP error statuses to CLI errors. 401 means no usable
// key was sent; 403 covers both a rejected key and the loopback-only
// shutdown route, so its body is passed through.
func checkStatus(code int, body []byte) error {
	switch {
	case code == 401:
		return fmt.Errorf("authentication required (HTTP 401) — provide --api-key or set EVENTSCOUT_API_KEY")
	case code == 403:
		return fmt.Errorf("request forbidden (HTTP 403): %s", strings.TrimSpace(string(body)))
	case code >= 400:
		return fmt.Errorf("API returned HTTP %d: %s", code, strings.TrimSpace(string(body)))
	}
	return nil
}

// isConnectionError checks if an error is a transient connection issue.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "connection reset") ||
		strings.Contains(s, "EOF") ||
		strings.Contains(s, "connection refused")
}
