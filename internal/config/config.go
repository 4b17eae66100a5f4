package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvLocal = "local"

	ContentDriverLocal  = "local"
	ContentDriverS3     = "s3"
	ContentDriverPebble = "pebble"

	FileDriverLocal = "local"
	FileDriverS3    = "s3"
)

type Config struct {
	Env            string               `yaml:"env" env:"ENV" env-default:"local"`
	DSN            string               `yaml:"dsn" env:"DSN" env-required:"true"`
	HTTP           HTTPConfig           `yaml:"http"`
	Auth           AuthConfig           `yaml:"auth"`
	FileStorage    FileStorageConfig    `yaml:"file_storage"`
	ContentStorage ContentStorageConfig `yaml:"content_storage"`
	S3             S3Config             `yaml:"s3"`
	Redis          RedisConf            `yaml:"redis"`
	Scraper        ScraperConfig        `yaml:"scraper"`
	Autosave       AutosaveConfig       `yaml:"autosave"`
	Cache          CacheConfig          `yaml:"cache"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
	SessionSecret   string        `yaml:"session_secret" env:"SESSION_SECRET"`
}

type AuthConfig struct {
	AdminLogin        string        `yaml:"admin_login" env:"ADMIN_LOGIN" env-default:"admin"`
	AdminPasswordHash string        `yaml:"admin_password_hash" env:"ADMIN_PASSWORD_HASH"`
	TokenSecret       string        `yaml:"token_secret" env:"TOKEN_SECRET"`
	TokenTTL          time.Duration `yaml:"token_ttl" env-default:"12h"`
}

type FileStorageConfig struct {
	Driver  string    `yaml:"driver" env-default:"local"`
	BaseDir string    `yaml:"base_dir" env-default:"./uploads"`
	BaseURL string    `yaml:"base_url" env-default:"/uploads"`
	MaxSize SizeBytes `yaml:"max_size" env-default:"50MB"`
}

type ContentStorageConfig struct {
	Driver string `yaml:"driver" env-default:"local"`
	Dir    string `yaml:"dir" env-default:"./data/content"`
	Prefix string `yaml:"prefix" env-default:"content"`
}

// S3Config описывает S3-совместимое хранилище (Yandex Object Storage и т.п.).
type S3Config struct {
	Endpoint  string `yaml:"endpoint" env-default:"storage.yandexcloud.net"`
	Region    string `yaml:"region" env-default:"ru-central1"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redispassword"`
	RedisDB       int    `yaml:"redis_db"`
}

type ScraperConfig struct {
	Timeout   time.Duration `yaml:"timeout" env-default:"10s"`
	UserAgent string        `yaml:"user_agent" env-default:"Mozilla/5.0 (compatible; advent-calendar/1.0)"`
	RPS       float64       `yaml:"rps" env-default:"1"`
	Burst     int           `yaml:"burst" env-default:"3"`
}

type AutosaveConfig struct {
	Delay time.Duration `yaml:"delay" env-default:"1500ms"`
}

type CacheConfig struct {
	ContentTTL time.Duration `yaml:"content_ttl" env-default:"5m"`
	RatioTTL   time.Duration `yaml:"ratio_ttl" env-default:"24h"`
	ScrapeTTL  time.Duration `yaml:"scrape_ttl" env-default:"1h"`
}

// SizeBytes размер в байтах, принимает "10MB", "512KiB" или целое число.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}

	return s.SetValue(node.Value)
}

// SetValue нужен cleanenv для env-default и переменных окружения.
func (s *SizeBytes) SetValue(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*s = 0
		return nil
	}

	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}

	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}

	return fmt.Errorf("invalid size value: %q", raw)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

// Load читает конфиг без паники, используется CLI и тестами.
func Load(configPath string) (*Config, error) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.checkSecrets(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// секрет для env=local, если в конфиге ничего не задано
const localSecret = "local-insecure-secret"

const minSecretLen = 16

// checkSecrets локально подставляет заглушку, в остальных окружениях
// требует явные секреты подписи JWT и сессий.
func (c *Config) checkSecrets() error {
	secrets := []struct {
		name  string
		value *string
	}{
		{"auth.token_secret (TOKEN_SECRET)", &c.Auth.TokenSecret},
		{"http.session_secret (SESSION_SECRET)", &c.HTTP.SessionSecret},
	}

	for _, s := range secrets {
		if c.Env == EnvLocal {
			if *s.value == "" {
				*s.value = localSecret
			}
			continue
		}

		switch {
		case *s.value == "" || *s.value == localSecret:
			return fmt.Errorf("%s is required for env %q", s.name, c.Env)
		case len(*s.value) < minSecretLen:
			return fmt.Errorf("%s must be at least %d bytes", s.name, minSecretLen)
		}
	}

	return nil
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
