package resilience

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

// timeoutErr fakes a net.Error timeout.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network timeout", timeoutErr{}, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"wrapped reset string", errors.New("Post \"https://api\": read: connection reset by peer"), true},
		{"dns failure string", errors.New("dial tcp: lookup api: no such host"), true},
		{"io timeout string", errors.New("net/http: i/o timeout"), true},
		{"quota error", errors.New("quota exceeded"), false},
		{"bad request", errors.New("status 400: malformed body"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransient_SeesThroughWrapping(t *testing.T) {
	err := eris.Wrap(syscall.ECONNRESET, "anthropic: create message")
	assert.True(t, IsTransient(err))

	err = eris.Wrap(errors.New("invalid api key"), "anthropic: create message")
	assert.False(t, IsTransient(err))
}

func TestDefaultRetryConfig_FitsSourceBudget(t *testing.T) {
	cfg := DefaultRetryConfig()

	// Two full sleeps at the default growth must leave room for the calls
	// themselves inside the narrative source budget.
	worst := time.Duration(float64(cfg.InitialBackoff) * (1 + cfg.Multiplier) * (1 + cfg.JitterFraction))
	assert.Less(t, worst, 2*time.Second)
	assert.Equal(t, 3, cfg.MaxAttempts)
}
