package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	TCPPort    string `yaml:"tcp-port" env:"TCP_PORT" env-default:"3000"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis      Redis  `yaml:"redis" env-prefix:"REDIS_"`
	Match      Match  `yaml:"match" env-prefix:"MATCH_"`
}

// Redis holds the archive of finished matches. Live matches never leave memory.
type Redis struct {
	Enabled   bool          `yaml:"enabled" env:"ENABLED" env-default:"false"`
	Host      string        `yaml:"host" env:"HOST" env-default:"localhost"`
	Port      string        `yaml:"port" env:"PORT" env-default:"6379"`
	ResultTTL time.Duration `yaml:"result-ttl" env:"RESULT_TTL" env-default:"24h"`
}

type Match struct {
	// Permissive accepts out-of-turn moves and moves outside an ongoing match.
	Permissive bool `yaml:"permissive" env:"PERMISSIVE" env-default:"false"`
	// IdleTTL drops matches nobody touched for this long. Zero keeps them forever.
	IdleTTL time.Duration `yaml:"idle-ttl" env:"IDLE_TTL" env-default:"0s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads path and then applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
