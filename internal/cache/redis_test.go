package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"authd/internal/config"

	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: 6380, Password: "secret", DB: 3})
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, 3, opts.DB)
}

func TestConnect_GivesUpWithContext(t *testing.T) {
	// Reserve a port and close it so nothing listens there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = Connect(ctx, config.RedisConfig{Host: "127.0.0.1", Port: port})
	require.Error(t, err)
}
