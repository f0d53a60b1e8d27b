package utils

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromNatsURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"with port", "nats://localhost:4223", "localhost:4223", false},
		{"default port", "nats://nats.example.com", "nats.example.com:4222", false},
		{"user info", "nats://user:pw@host:1234", "host:1234", false},
		{"server list", "nats://a:1,nats://b:2", "a:1", false},
		{"no host", "localhost", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFromNatsURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWaitForTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	assert.NoError(t, WaitForTCP(context.Background(), addr, time.Second))
	l.Close()
	assert.Error(t, WaitForTCP(context.Background(), addr, 300*time.Millisecond))
}

func TestHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.yml")
	require.NoError(t, os.WriteFile(path, []byte("laps: 3\n"), 0o600))
	h1, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashContent([]byte("laps: 3\n")), h1)
	assert.NotEqual(t, HashContent([]byte("laps: 4\n")), h1)
	assert.Len(t, h1, 64)
	_, err = HashFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
