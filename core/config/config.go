package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	GoogleAPI   GoogleAPIConfig   `mapstructure:"google_api"`
	EventStore  EventStoreConfig  `mapstructure:"event_store"`
	Recommender RecommenderConfig `mapstructure:"recommender"`
	Planner     PlannerConfig     `mapstructure:"planner"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Storage     StorageConfig     `mapstructure:"storage"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	PublicURL    string   `mapstructure:"public_url"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite file
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	AccessTTL time.Duration `mapstructure:"access_ttl"`
}

type GoogleAPIConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type EventStoreConfig struct {
	Driver           string        `mapstructure:"driver"` // local | remote
	BaseURL          string        `mapstructure:"base_url"`
	APIToken         string        `mapstructure:"api_token"`
	Timeout          time.Duration `mapstructure:"timeout"`
	SnapshotCacheDir string        `mapstructure:"snapshot_cache_dir"`
}

type RecommenderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PlannerConfig struct {
	Timezone          string        `mapstructure:"timezone"`
	WeekStart         string        `mapstructure:"week_start"` // sunday | monday
	GridFirstHour     int           `mapstructure:"grid_first_hour"`
	GridLastHour      int           `mapstructure:"grid_last_hour"`
	MergeTimeout      time.Duration `mapstructure:"merge_timeout"`
	RecommendationTTL time.Duration `mapstructure:"recommendation_ttl"`
	DigestCron        string        `mapstructure:"digest_cron"`
}

type QueueConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type StorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

var (
	instance *Config
	mu       sync.RWMutex
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "planner")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "./planner.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_ttl", 24*time.Hour)

	v.SetDefault("google_api.client_id", "")
	v.SetDefault("google_api.client_secret", "")
	v.SetDefault("google_api.redirect_uri", "")

	v.SetDefault("event_store.driver", "local")
	v.SetDefault("event_store.base_url", "")
	v.SetDefault("event_store.api_token", "")
	v.SetDefault("event_store.timeout", 15*time.Second)
	v.SetDefault("event_store.snapshot_cache_dir", "./var/snapshots")

	v.SetDefault("recommender.base_url", "http://localhost:8001/reschedule/")
	v.SetDefault("recommender.timeout", 60*time.Second)

	v.SetDefault("planner.timezone", "UTC")
	v.SetDefault("planner.week_start", "sunday")
	v.SetDefault("planner.grid_first_hour", 6)
	v.SetDefault("planner.grid_last_hour", 23)
	v.SetDefault("planner.merge_timeout", 60*time.Second)
	v.SetDefault("planner.recommendation_ttl", 6*time.Hour)
	v.SetDefault("planner.digest_cron", "0 18 * * 0")

	v.SetDefault("queue.concurrency", 5)

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.use_path_style", false)
}

// Load reads .env, then config.yaml (path or working directory), then the
// environment (DATABASE_HOST overrides database.host), and stores the result
// as the process-wide config.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Set(&cfg)
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Planner.GridFirstHour < 0 || c.Planner.GridLastHour > 23 || c.Planner.GridFirstHour > c.Planner.GridLastHour {
		return fmt.Errorf("invalid planner grid hours %d..%d", c.Planner.GridFirstHour, c.Planner.GridLastHour)
	}
	switch strings.ToLower(c.Planner.WeekStart) {
	case "sunday", "monday":
	default:
		return fmt.Errorf("invalid planner.week_start %q", c.Planner.WeekStart)
	}
	switch c.EventStore.Driver {
	case "local":
	case "remote":
		if c.EventStore.BaseURL == "" {
			return errors.New("event_store.base_url is required for the remote driver")
		}
	default:
		return fmt.Errorf("invalid event_store.driver %q", c.EventStore.Driver)
	}
	return nil
}

// Location resolves planner.timezone, falling back to UTC.
func (p PlannerConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (p PlannerConfig) FirstWeekday() time.Weekday {
	if strings.EqualFold(p.WeekStart, "monday") {
		return time.Monday
	}
	return time.Sunday
}

func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// Get panics when called before Load.
func Get() *Config {
	cfg, ok := GetSafe()
	if !ok {
		panic("config: Get called before Load")
	}
	return cfg
}

func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
