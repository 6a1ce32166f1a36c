package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"earnplay-core/pkg/config"
)

func TestLevelDefaultsPerEnvironment(t *testing.T) {
	cfg := &config.Config{}
	require.Equal(t, zapcore.DebugLevel, level(cfg))

	cfg.AppEnv = "production"
	require.Equal(t, zapcore.InfoLevel, level(cfg))

	cfg.Logging.Level = "warn"
	require.Equal(t, zapcore.WarnLevel, level(cfg))

	cfg.Logging.Level = "nonsense"
	require.Equal(t, zapcore.InfoLevel, level(cfg))
}

func TestNewInstallsGlobal(t *testing.T) {
	cfg := &config.Config{AppEnv: "test", AppName: "earnplay-core"}

	log := New(ConfigParams{Cfg: cfg})
	require.NotNil(t, log)
	require.Same(t, log, zap.L())
}
