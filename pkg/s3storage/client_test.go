package s3storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/aiops-assistant/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageProbeConfig
		wantErr bool
	}{
		{
			name: "host and port",
			cfg:  config.StorageProbeConfig{Endpoint: "minio.lab.local:9000", AccessKey: "ak", SecretKey: "sk"},
		},
		{
			name: "ssl with region",
			cfg:  config.StorageProbeConfig{Endpoint: "s3.example.com", Region: "ap-southeast-2", UseSSL: true},
		},
		{
			name:    "empty endpoint",
			cfg:     config.StorageProbeConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}
