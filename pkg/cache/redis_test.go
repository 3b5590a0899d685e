package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simulatorcalc/pkg/cache"
)

func TestNew_UnreachableServer(t *testing.T) {
	rc, err := cache.New(cache.Config{Host: "127.0.0.1", Port: 1, ConnTimeout: 1, ReadTimeout: 1, WriteTimeout: 1})
	require.Error(t, err)
	assert.Nil(t, rc)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}
