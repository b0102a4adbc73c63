package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExp2_DoublesAndSaturates(t *testing.T) {
	assert.Equal(t, time.Second, Exp2(time.Second, 0))
	assert.Equal(t, 8*time.Second, Exp2(time.Second, 3))
	assert.Equal(t, MaxDelay, Exp2(time.Second, 34))
	assert.Equal(t, MaxDelay, Exp2(time.Second, 1000))
	assert.Equal(t, time.Duration(0), Exp2(0, 5))
}

func TestConfig_ValidateCapsMaxRetries(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.MaxRetries = MaxRetriesLimit
	assert.NoError(t, cfg.Validate())

	cfg.MaxRetries = MaxRetriesLimit + 1
	assert.Error(t, cfg.Validate())

	cfg.MaxRetries = -1
	assert.Error(t, cfg.Validate())
}
