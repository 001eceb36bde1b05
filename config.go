package remoaircon

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// MinPollInterval keeps the poller well inside the API rate limit.
const MinPollInterval = 10 * time.Second

// Config is configuration
type Config struct {
	LogLevel zapcore.Level `mapstructure:"-"`

	Remo struct {
		Token string `mapstructure:"token"`
	} `mapstructure:"remo"`
	// Appliances restricts discovery to these IDs when not empty.
	Appliances             []string      `mapstructure:"appliances"`
	PollInterval           time.Duration `mapstructure:"poll_interval"`
	DefaultCoolTemperature int           `mapstructure:"default_cool_temperature"`
	DefaultHeatTemperature int           `mapstructure:"default_heat_temperature"`

	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	ClientID          string `mapstructure:"client_id"`
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

type HTTPConfig struct {
	Port uint `mapstructure:"port"`
	Log  bool `mapstructure:"log"`
}

type MetricsConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultTemperatures returns the configured per-mode defaults.
func (c Config) DefaultTemperatures() DefaultTemperatures {
	return DefaultTemperatures{Cool: c.DefaultCoolTemperature, Heat: c.DefaultHeatTemperature}
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.Remo.Token != "" {
		c.Remo.Token = "*redacted*"
	}
	if c.MQTT.Password != "" {
		c.MQTT.Password = "*redacted*"
	}
	return c
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("poll_interval", "30s")
	v.SetDefault("default_cool_temperature", 28)
	v.SetDefault("default_heat_temperature", 20)
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "remo-aircon")
	v.SetDefault("mqtt.base_topic", "remo")
	v.SetDefault("mqtt.ha_discovery_enable", false)
	v.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.log", false)
	v.SetDefault("metrics.path", "/metrics")
}

// ReadConfig loads the configuration from REMOAC_* environment variables and,
// when CONFIG_FILE is set, from that YAML file.
func ReadConfig() (*Config, error) {
	v := viper.New()
	setConfigDefaults(v)

	v.SetEnvPrefix("remoac")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows
	for _, key := range []string{"remo.token", "appliances", "mqtt.host", "mqtt.username", "mqtt.password"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}
	return loadConfig(v)
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	switch strings.ToLower(v.GetString("log_level")) {
	case "debug", "trace":
		cfg.LogLevel = zapcore.DebugLevel
	case "warn":
		cfg.LogLevel = zapcore.WarnLevel
	case "error":
		cfg.LogLevel = zapcore.ErrorLevel
	default:
		cfg.LogLevel = zapcore.InfoLevel
	}

	if cfg.Remo.Token == "" {
		return nil, errors.New("config param remo.token is required")
	}
	if cfg.PollInterval < MinPollInterval {
		return nil, fmt.Errorf("config param poll_interval should be >= %s", MinPollInterval)
	}

	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, fmt.Errorf("invalid mqtt.base_topic: %w", err)
	}
	cfg.MQTT.BaseTopic = baseTopic
	haTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, fmt.Errorf("invalid mqtt.ha_discovery_topic: %w", err)
	}
	cfg.MQTT.HADiscoveryTopic = haTopic

	return &cfg, nil
}

var topicRegexp = regexp.MustCompile("^[a-z0-9_]+$")

// CheckMQTTTopic lower-cases topic and checks it is a single topic level.
func CheckMQTTTopic(topic string) (string, error) {
	lower := strings.ToLower(topic)
	if !topicRegexp.MatchString(lower) {
		return "", errors.New("can only contain letters, numbers and underscores")
	}
	return lower, nil
}
