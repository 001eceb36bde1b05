package remoaircon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestReadConfigFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REMOAC_REMO_TOKEN", "secret")
	t.Setenv("REMOAC_POLL_INTERVAL", "1m")
	t.Setenv("REMOAC_DEFAULT_COOL_TEMPERATURE", "25")
	t.Setenv("REMOAC_LOG_LEVEL", "debug")
	t.Setenv("REMOAC_MQTT_HOST", "broker")

	cfg, err := ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Remo.Token)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, DefaultTemperatures{Cool: 25, Heat: 20}, cfg.DefaultTemperatures())
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "broker", cfg.MQTT.Host)
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, "remo", cfg.MQTT.BaseTopic)
	assert.Equal(t, uint(8080), cfg.HTTP.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestReadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
remo:
  token: file-token
appliances: [ac-1, ac-2]
default_heat_temperature: 22
mqtt:
  host: localhost
  base_topic: Home_Remo
  ha_discovery_enable: true
`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.Remo.Token)
	assert.Equal(t, []string{"ac-1", "ac-2"}, cfg.Appliances)
	assert.Equal(t, 22, cfg.DefaultHeatTemperature)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, "home_remo", cfg.MQTT.BaseTopic)
	assert.True(t, cfg.MQTT.HADiscoveryEnable)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
}

func TestReadConfigValidation(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REMOAC_REMO_TOKEN", "")

	_, err := ReadConfig()
	assert.ErrorContains(t, err, "remo.token")

	t.Setenv("REMOAC_REMO_TOKEN", "secret")
	t.Setenv("REMOAC_POLL_INTERVAL", "1s")
	_, err = ReadConfig()
	assert.ErrorContains(t, err, "poll_interval")

	t.Setenv("REMOAC_POLL_INTERVAL", "30s")
	t.Setenv("REMOAC_MQTT_BASE_TOPIC", "remo/aircon")
	_, err = ReadConfig()
	assert.ErrorContains(t, err, "mqtt.base_topic")
}

func TestRedacted(t *testing.T) {
	var cfg Config
	cfg.Remo.Token = "secret"
	cfg.MQTT.Password = "pw"
	r := cfg.Redacted()
	assert.Equal(t, "*redacted*", r.Remo.Token)
	assert.Equal(t, "*redacted*", r.MQTT.Password)
	assert.Equal(t, "secret", cfg.Remo.Token)
}
