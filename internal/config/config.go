// README: Config loader; viper reads an optional farcal.yaml and FARCAL_* env overrides on top of defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ModelConfig struct {
	Path              string `mapstructure:"path"`
	RuntimeLibrary    string `mapstructure:"runtime_library"`
	Type              string `mapstructure:"type"`
	MaxConcurrentRuns int64  `mapstructure:"max_concurrent_runs"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type Config struct {
	App struct {
		Name string `mapstructure:"name"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	HTTP struct {
		Addr            string        `mapstructure:"addr"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		// TrustedProxies lists proxy IPs/CIDRs whose forwarding headers are
		// believed when resolving the client IP. Empty trusts none.
		TrustedProxies []string `mapstructure:"trusted_proxies"`
	} `mapstructure:"http"`
	Model ModelConfig `mapstructure:"model"`
	CORS  struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Redis     struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"redis"`
	Metrics struct {
		StatsdAddr   string  `mapstructure:"statsd_addr"`
		SamplingRate float64 `mapstructure:"sampling_rate"`
	} `mapstructure:"metrics"`
}

const envPrefix = "FARCAL"

// Load reads configuration from defaults, an optional farcal.yaml and the
// environment, in increasing priority.
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	setDefaults(v)

	v.SetConfigName("farcal")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/farcal")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "farcal")
	v.SetDefault("app.env", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.trusted_proxies", []string{})
	v.SetDefault("model.path", "models/Random Forest_yaounde_target_encoder.onnx")
	v.SetDefault("model.runtime_library", "")
	v.SetDefault("model.type", "RandomForestRegressor")
	v.SetDefault("model.max_concurrent_runs", 0)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("ratelimit.requests_per_minute", 0)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("redis.addr", "")
	v.SetDefault("metrics.statsd_addr", "localhost:8125")
	v.SetDefault("metrics.sampling_rate", 1.0)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Model.Path) == "" {
		return errors.New("config: model.path is required")
	}
	if c.Model.MaxConcurrentRuns < 0 {
		return errors.New("config: model.max_concurrent_runs must not be negative")
	}
	if c.Metrics.SamplingRate < 0 || c.Metrics.SamplingRate > 1 {
		return fmt.Errorf("config: metrics.sampling_rate %v out of [0,1]", c.Metrics.SamplingRate)
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return errors.New("config: ratelimit values must not be negative")
	}
	if c.HTTP.Addr == "" {
		return errors.New("config: http.addr is required")
	}
	return nil
}
