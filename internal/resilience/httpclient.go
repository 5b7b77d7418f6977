package resilience

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HTTPClient wraps a pooled http.Client with circuit breaker protection for
// upstream API calls.
type HTTPClient struct {
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// NewHTTPClient builds a pooled client. maxIdle and maxActive bound the
// transport; cb may be nil to disable circuit breaking.
func NewHTTPClient(maxIdle, maxActive int, timeout time.Duration, cb *CircuitBreaker) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:          maxIdle,
		MaxConnsPerHost:       maxActive,
		MaxIdleConnsPerHost:   maxIdle / 2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		circuitBreaker: cb,
	}
}

// Do executes an HTTP request with circuit breaker protection.
func (hc *HTTPClient) Do(ctx context.Context, method, url string, headers map[string]string) (*http.Response, error) {
	run := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, err
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		start := time.Now()
		resp, err := hc.client.Do(req)
		if err != nil {
			slog.Warn("Request failed", "url", url, "error", err, "duration_ms", time.Since(start).Milliseconds())
			return nil, err
		}
		slog.Debug("Request completed", "url", url, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
		return resp, nil
	}

	if hc.circuitBreaker == nil {
		return run()
	}

	var resp *http.Response
	err := hc.circuitBreaker.Call(func() error {
		var err error
		resp, err = run()
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Close releases idle transport connections.
func (hc *HTTPClient) Close() error {
	if transport, ok := hc.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
