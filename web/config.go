package web

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SILHOUETTE_SERVER_ADDR.
const EnvPrefix = "SILHOUETTE"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Results ResultsConfig `mapstructure:"results"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Rembg   RembgConfig   `mapstructure:"rembg"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type UploadConfig struct {
	MaxSize int64  `mapstructure:"max_size"`
	Dir     string `mapstructure:"dir"`
}

type ResultsConfig struct {
	// Store is "memory" or "redis".
	Store string        `mapstructure:"store"`
	TTL   time.Duration `mapstructure:"ttl"`
	Sweep string        `mapstructure:"sweep"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type RembgConfig struct {
	// URL of a rembg server; empty disables the model based method.
	URL     string `mapstructure:"url"`
	MaxSide int    `mapstructure:"max_side"`
}

// Load reads the YAML file at configPath on top of the defaults. An empty
// path loads defaults and environment overrides only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)

	v.SetDefault("upload.max_size", 16*1024*1024)
	v.SetDefault("upload.dir", os.TempDir())

	v.SetDefault("results.store", "memory")
	v.SetDefault("results.ttl", time.Hour)
	v.SetDefault("results.sweep", "@every 5m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "silhouette")

	v.SetDefault("rembg.url", "")
	v.SetDefault("rembg.max_side", 2048)
}
