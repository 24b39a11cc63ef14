package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrincipalKey(t *testing.T) {
	assert.Equal(t, "vb:principal:abc", principalKey("abc"))
}

func TestNewPrincipalCache_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewPrincipalCache(nil, 0).ttl)
	assert.Equal(t, time.Minute, NewPrincipalCache(nil, time.Minute).ttl)
}
