package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Transport is an http.RoundTripper that records every Remo API call in a
// Collector.
type Transport struct {
	next      http.RoundTripper
	collector *Collector
}

// NewTransport wraps next, or http.DefaultTransport when next is nil.
func NewTransport(collector *Collector, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{next: next, collector: collector}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	endpoint := EndpointLabel(req)
	if err != nil {
		// status 0 marks a transport failure
		t.collector.UpdateAPIMetrics(endpoint, 0, duration, nil)
		return nil, err
	}
	t.collector.UpdateAPIMetrics(endpoint, resp.StatusCode, duration, ParseRateLimitHeaders(resp.Header))
	return resp, nil
}

// EndpointLabel is the method and path of req with resource IDs replaced by
// ":id", e.g. "POST /1/appliances/:id/aircon_settings".
func EndpointLabel(req *http.Request) string {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	for i := 1; i < len(parts); i++ {
		switch parts[i-1] {
		case "appliances", "devices", "signals":
			parts[i] = ":id"
		}
	}
	return req.Method + " /" + strings.Join(parts, "/")
}

// ParseRateLimitHeaders extracts rate limit information from HTTP response headers
func ParseRateLimitHeaders(headers http.Header) *RateLimitInfo {
	limit := headers.Get("X-Rate-Limit-Limit")
	remaining := headers.Get("X-Rate-Limit-Remaining")
	reset := headers.Get("X-Rate-Limit-Reset")

	if limit == "" || remaining == "" || reset == "" {
		return nil
	}

	limitInt, _ := strconv.Atoi(limit)
	remainingInt, _ := strconv.Atoi(remaining)
	resetInt, _ := strconv.ParseInt(reset, 10, 64)

	return &RateLimitInfo{
		Limit:     limitInt,
		Remaining: remainingInt,
		Reset:     resetInt,
	}
}
