package valkey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestExpirySeconds(t *testing.T) {
	for in, want := range map[time.Duration]time.Duration{
		time.Millisecond:                time.Second,
		time.Second:                     time.Second,
		1500 * time.Millisecond:         2 * time.Second,
		time.Minute:                     time.Minute,
		time.Minute + time.Nanosecond:   time.Minute + time.Second,
		10*time.Minute + 30*time.Second: 10*time.Minute + 30*time.Second,
	} {
		assert.Equal(t, want, ExpirySeconds(in), in.String())
	}
}
