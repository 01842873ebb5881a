package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return "upstream error" }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsRetryableHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 599} {
		if !IsRetryableHTTPStatus(code) {
			t.Fatalf("status %d should be retryable", code)
		}
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		if IsRetryableHTTPStatus(code) {
			t.Fatalf("status %d should not be retryable", code)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(nil) {
		t.Fatalf("nil error is not retryable")
	}
	if !IsRetryableError(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded should be retryable")
	}
	if !IsRetryableError(statusErr(429)) {
		t.Fatalf("rate-limit error should be retryable")
	}
	if IsRetryableError(statusErr(400)) {
		t.Fatalf("bad request should not be retryable")
	}
	if IsRetryableError(errors.New("boom")) {
		t.Fatalf("plain errors are not retryable")
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"3"}}}
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 3*time.Second {
		t.Fatalf("expected header value to win, got %s", got)
	}
	if got := RetryAfterDuration(resp, time.Second, 2*time.Second); got != 2*time.Second {
		t.Fatalf("expected cap to apply, got %s", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 10*time.Second); got != time.Second {
		t.Fatalf("expected fallback without a response, got %s", got)
	}
	bad := &http.Response{Header: http.Header{"Retry-After": []string{"soon"}}}
	if got := RetryAfterDuration(bad, time.Second, 10*time.Second); got != time.Second {
		t.Fatalf("unparseable header falls back, got %s", got)
	}
}

func TestJitterSleep(t *testing.T) {
	if got := JitterSleep(0); got != 0 {
		t.Fatalf("zero base sleeps zero, got %s", got)
	}
	base := time.Second
	for i := 0; i < 100; i++ {
		got := JitterSleep(base)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jitter out of bounds: %s", got)
		}
	}
}
