package polygon

import (
	"net/http"
	"time"
)

// baseTransportConfig returns the shared HTTP transport configuration used by Polygon clients.
func baseTransportConfig() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   2,
	}
}

// newHTTPClient creates an HTTP client configured for Polygon requests.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: baseTransportConfig(),
		Timeout:   time.Minute,
	}
}
