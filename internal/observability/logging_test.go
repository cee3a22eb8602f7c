package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/campusvoice/ticket-service/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggerConfig
		level   zapcore.Level
		wantErr bool
	}{
		{name: "defaults", cfg: config.LoggerConfig{}, level: zapcore.InfoLevel},
		{name: "debug json", cfg: config.LoggerConfig{Level: "DEBUG", Format: "json"}, level: zapcore.DebugLevel},
		{name: "console", cfg: config.LoggerConfig{Level: "warn", Format: "console"}, level: zapcore.WarnLevel},
		{name: "bad level", cfg: config.LoggerConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: config.LoggerConfig{Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			assert.False(t, logger.Core().Enabled(tt.level-1))
		})
	}
}
