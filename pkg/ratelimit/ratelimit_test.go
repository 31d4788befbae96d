package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
)

func TestLoginRateLimiter_WindowAndReset(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	rl := NewLoginRateLimiter(3, 2*time.Minute, clk)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "attempt %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "other IPs are independent")

	assert.Equal(t, 121, rl.RetryAfterSeconds("10.0.0.1"))

	clk.Advance(2*time.Minute + time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "a new window opens after expiry")

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.1")
	rl.Reset("10.0.0.1")
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.Equal(t, 0, rl.RetryAfterSeconds("unknown"))
}

func TestExtractIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/users/login", nil)
	r.RemoteAddr = "192.0.2.10:5555"
	assert.Equal(t, "192.0.2.10", ExtractIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ExtractIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ExtractIP(r))
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(121))
}
