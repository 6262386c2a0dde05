package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes YAML scalars like "5s" or "1m30s".
// yaml.v3 does not parse duration strings into time.Duration on its own.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string or a bare integer of
// nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("bad duration %q: %w", s, perr)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("bad duration value %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string   `yaml:"host"`
		Port            int      `yaml:"port"`
		ReadTimeout     Duration `yaml:"read_timeout"`
		WriteTimeout    Duration `yaml:"write_timeout"`
		ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Auth struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host         string   `yaml:"host"`
		Port         int      `yaml:"port"`
		Database     string   `yaml:"database"`
		User         string   `yaml:"user"`
		Password     string   `yaml:"password"`
		AsyncInsert  bool     `yaml:"async_insert"`
		WaitForAsync bool     `yaml:"wait_for_async_insert"`
		DialTimeout  Duration `yaml:"dial_timeout"`
		ReadTimeout  Duration `yaml:"read_timeout"`
		WriteTimeout Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Dispatch struct {
		Backend    string   `yaml:"backend"` // memory or redis
		Workers    int      `yaml:"workers"`
		QueueSize  int      `yaml:"queue_size"`
		MaxRetries uint8    `yaml:"max_retries"` // default per-signal retry budget
		RetryDelay Duration `yaml:"retry_delay"` // default wait between attempts
	} `yaml:"dispatch"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		Compression  string   `yaml:"compression"`
		RequiredAcks int      `yaml:"required_acks"`
		MaxAttempts  int      `yaml:"max_attempts"`
		WriteTimeout Duration `yaml:"write_timeout"`
		ReadTimeout  Duration `yaml:"read_timeout"`
	} `yaml:"kafka"`
	Alpaca struct {
		BaseURL         string   `yaml:"base_url"`
		StreamURL       string   `yaml:"stream_url"`
		StreamEnabled   bool     `yaml:"stream_enabled"`
		KeyID           string   `yaml:"key_id"`
		SecretKey       string   `yaml:"secret_key"`
		Timeout         Duration `yaml:"timeout"`
		RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	} `yaml:"alpaca"`
	Strategies []StrategyConfig `yaml:"strategies"`
}

// StrategyConfig is one strategy entry from the config file. MaxRetries and
// RetryDelay are pointers so an omitted value inherits the dispatch defaults
// while an explicit 0 stays 0.
type StrategyConfig struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Enabled    bool      `yaml:"enabled"`
	Broker     string    `yaml:"broker"`
	OrderQty   string    `yaml:"order_qty"`
	MaxRetries *uint8    `yaml:"max_retries"`
	RetryDelay *Duration `yaml:"retry_delay"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets and endpoints
// with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		c.Alpaca.KeyID = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		c.Alpaca.SecretKey = v
	}
	if v := os.Getenv("WEBHOOK_API_KEY"); v != "" {
		c.Auth.APIKey = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks the configuration. Failures here are fatal: the process
// must not serve traffic with a broken strategy list or missing credentials.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	switch c.Dispatch.Backend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("dispatch.backend must be 'memory' or 'redis', got %q", c.Dispatch.Backend)
	}
	if c.Dispatch.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for dispatch.backend=redis")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("strategies cannot be empty")
	}
	for i, s := range c.Strategies {
		if s.ID == "" {
			return fmt.Errorf("strategies[%d].id is required", i)
		}
		if s.Broker == "" {
			return fmt.Errorf("strategies[%d].broker is required", i)
		}
	}
	return nil
}
