package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{MaxRetries: 4, BaseDelay: 500 * time.Millisecond}

	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, 500*time.Millisecond, p.Delay(1))
	assert.Equal(t, time.Second, p.Delay(2))
	assert.Equal(t, 2*time.Second, p.Delay(3))
	assert.Equal(t, 4*time.Second, p.Delay(4))
}

func TestRetryPolicyExhausted(t *testing.T) {
	p := RetryPolicy{MaxRetries: 4, BaseDelay: time.Millisecond}

	for attempt := 1; attempt <= 4; attempt++ {
		assert.Falsef(t, p.Exhausted(attempt), "attempt %d should not be exhausted", attempt)
	}
	assert.True(t, p.Exhausted(5))
}

func TestRetryPolicyZeroRetries(t *testing.T) {
	p := RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond}
	assert.True(t, p.Exhausted(1))
}
