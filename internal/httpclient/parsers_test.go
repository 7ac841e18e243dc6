package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestParseOpenAIRateLimitHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "30")
	h.Set("x-ratelimit-remaining-requests", "42")
	h.Set("x-ratelimit-remaining-tokens", "1000")

	info := ParseOpenAIRateLimitHeaders(h)

	if info.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", info.RetryAfter)
	}
	if info.RequestsRemaining != 42 {
		t.Errorf("RequestsRemaining = %d, want 42", info.RequestsRemaining)
	}
	if info.TokensRemaining != 1000 {
		t.Errorf("TokensRemaining = %d, want 1000", info.TokensRemaining)
	}
}

func TestParseOpenAIRateLimitHeaders_MissingHeadersYieldZeroValue(t *testing.T) {
	info := ParseOpenAIRateLimitHeaders(http.Header{})
	if info != (RateLimitInfo{}) {
		t.Errorf("expected zero-value RateLimitInfo, got %+v", info)
	}
}
