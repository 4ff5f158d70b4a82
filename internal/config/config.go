package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Store       StoreConfig       `mapstructure:"store"`
	Dictionary  DictionaryConfig  `mapstructure:"dictionary"`
	Platform    PlatformConfig    `mapstructure:"platform"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
}

type ServerConfig struct {
	Port       string `mapstructure:"port"`
	CORSOrigin string `mapstructure:"cors_origin"`
	AdminToken string `mapstructure:"admin_token"`
}

// StoreConfig selects the key-value backend by URL prefix:
// redis://, rediss://, postgres:// or sqlite://.
type StoreConfig struct {
	URL string `mapstructure:"url"`
}

// DictionaryConfig points at a newline separated word list. Empty uses the
// embedded list.
type DictionaryConfig struct {
	Path string `mapstructure:"path"`
}

type PlatformConfig struct {
	Subreddit string `mapstructure:"subreddit"`
	BaseURL   string `mapstructure:"base_url"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type LeaderboardConfig struct {
	Size int `mapstructure:"size"`
}

// Loader owns the viper instance and the current configuration snapshot.
type Loader struct {
	v   *viper.Viper
	mu  sync.RWMutex
	cur Config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.admin_token", "")

	v.SetDefault("store.url", "sqlite://anchorword.db")
	v.SetDefault("dictionary.path", "")

	v.SetDefault("platform.subreddit", "anchorword")
	v.SetDefault("platform.base_url", "https://reddit.com")

	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.directory", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 7)
	v.SetDefault("logging.compress", true)

	v.SetDefault("leaderboard.size", 10)
}

// Load reads an optional .env file, then defaults, an optional config.yaml in
// configDir and ANCHOR_* environment variables, in increasing precedence.
func Load(configDir string) (*Loader, error) {
	// A missing .env is normal in production where the environment is set directly.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ANCHOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	l := &Loader{v: v}
	if err := v.Unmarshal(&l.cur); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return l, nil
}

// Get returns the current configuration snapshot.
func (l *Loader) Get() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur
}

// Watch reloads the snapshot when the config file changes. Only settings read
// per request (rate limits, leaderboard size) take effect without a restart.
func (l *Loader) Watch(log *zap.Logger) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		var next Config
		if err := l.v.Unmarshal(&next); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		l.mu.Lock()
		l.cur = next
		l.mu.Unlock()
	})
	l.v.WatchConfig()
}
