package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw     string
		host    string
		port    int
		tls     bool
		wantErr bool
	}{
		{raw: "localhost", host: "localhost", port: DefaultPort},
		{raw: "localhost:6333", host: "localhost", port: 6333},
		{raw: "http://qdrant:6334", host: "qdrant", port: 6334},
		{raw: "https://xyz.cloud.qdrant.io", host: "xyz.cloud.qdrant.io", port: DefaultPort, tls: true},
		{raw: "ftp://host", wantErr: true},
		{raw: "http://host:99999", wantErr: true},
		{raw: "http://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			host, port, useTLS, err := parseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.tls, useTLS)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{URL: "localhost:6334", Collection: DefaultCollection, Dimension: 3072}
	assert.NoError(t, cfg.Validate())

	assert.Error(t, (&Config{Collection: "c", Dimension: 1}).Validate())
	assert.Error(t, (&Config{URL: "localhost", Dimension: 1}).Validate())
	assert.Error(t, (&Config{URL: "localhost", Collection: "c"}).Validate())
}
