/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-docgate/config"
	"github.com/acronis/go-docgate/retry"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    *Config
		wantErr string
	}{
		{
			name: "defaults",
			data: ``,
			want: NewDefaultConfig(),
		},
		{
			name: "custom values",
			data: `
httpClient:
  timeout: 30s
  retries:
    enabled: true
    maxAttempts: 5
    policy: Constant
    interval: 200ms
  logger:
    enabled: true
    mode: all
    slowRequestThreshold: 1s
  metrics:
    enabled: false
`,
			want: &Config{
				keyPrefix: cfgDefaultKeyPrefix,
				Timeout:   30 * time.Second,
				Retries: RetriesConfig{
					Enabled: true, MaxAttempts: 5, Policy: retry.PolicyConstant, Interval: 200 * time.Millisecond,
				},
				Logger:  LoggerConfig{Enabled: true, Mode: LoggingModeAll, SlowRequestThreshold: time.Second},
				Metrics: MetricsConfig{Enabled: false},
			},
		},
		{
			name:    "unknown policy",
			data:    "httpClient:\n  retries:\n    policy: linear\n",
			wantErr: `httpClient.retries.policy: unknown value "linear", should be one of [exponential constant]`,
		},
		{
			name:    "unknown logging mode",
			data:    "httpClient:\n  logger:\n    mode: verbose\n",
			wantErr: `httpClient.logger.mode: unknown value "verbose", should be one of [none all failed]`,
		},
		{
			name:    "negative max attempts",
			data:    "httpClient:\n  retries:\n    maxAttempts: -1\n",
			wantErr: `httpClient.retries.maxAttempts: cannot be negative`,
		},
		{
			name:    "zero interval",
			data:    "httpClient:\n  retries:\n    interval: 0s\n",
			wantErr: `httpClient.retries.interval: must be positive`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.data), config.DataTypeYAML, cfg)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg)
		})
	}
}
