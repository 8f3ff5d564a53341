// Package httpclient holds the outbound HTTP policy shared by the LINE
// Messaging API client and the NLP gateway client: one timeout per call and
// at most one retry, only for idempotent GET requests.
package httpclient

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/iliyamo/spa-booking-bot/internal/config"
)

// Policy is the outbound HTTP policy.
type Policy struct {
	Timeout    time.Duration
	GetRetries int // 0 or 1
}

// FromIntegrations derives the policy from configuration.
func FromIntegrations(in config.Integrations) Policy {
	return Policy{Timeout: in.HTTPTimeout, GetRetries: in.HTTPGetRetries}
}

func (p Policy) retries() int {
	switch {
	case p.GetRetries < 0:
		return 0
	case p.GetRetries > 1:
		return 1
	}
	return p.GetRetries
}

// Client returns a *http.Client for SDKs that only accept the standard
// client type.
func (p Policy) Client() *http.Client {
	return &http.Client{
		Timeout:   p.Timeout,
		Transport: &getRetryTransport{next: http.DefaultTransport, retries: p.retries()},
	}
}

// Resty returns a resty client rooted at baseURL.  timeout overrides the
// policy timeout when positive.
func (p Policy) Resty(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = p.Timeout
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(p.retries()).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(retryableGet).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

func retryableGet(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || r.StatusCode() >= http.StatusInternalServerError
}

// getRetryTransport re-sends a GET once after a transport error or a 5xx.
type getRetryTransport struct {
	next    http.RoundTripper
	retries int
}

func (t *getRetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if req.Method != http.MethodGet || t.retries == 0 {
		return resp, err
	}
	for i := 0; i < t.retries; i++ {
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}
		if req.Context().Err() != nil {
			return resp, err
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		resp, err = t.next.RoundTrip(req)
	}
	return resp, err
}
