package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	NATS      NATSConfig      `yaml:"nats"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Inference InferenceConfig `yaml:"inference"`
	Facts     FactsConfig     `yaml:"facts"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port       int    `yaml:"port"`
	ServiceKey string `yaml:"service_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type InferenceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type FactsConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type CatalogConfig struct {
	AnimalsFile string `yaml:"animals_file"`
	PlantsFile  string `yaml:"plants_file"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Inference.Timeout == 0 {
		cfg.Inference.Timeout = 30 * time.Second
	}
	if cfg.Facts.BaseURL == "" {
		cfg.Facts.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Facts.Model == "" {
		cfg.Facts.Model = "gpt-3.5-turbo"
	}
	if cfg.Facts.MaxTokens == 0 {
		cfg.Facts.MaxTokens = 150
	}
	if cfg.Facts.CacheTTL == 0 {
		cfg.Facts.CacheTTL = 24 * time.Hour
	}
	if cfg.Catalog.AnimalsFile == "" {
		cfg.Catalog.AnimalsFile = "data/catalog/animals.json"
	}
	if cfg.Catalog.PlantsFile == "" {
		cfg.Catalog.PlantsFile = "data/catalog/plants.json"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FS_SERVICE_KEY"); v != "" {
		cfg.Server.ServiceKey = v
	}
	if v := os.Getenv("FS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FS_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FS_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("FS_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("FS_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("FS_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("FS_INFERENCE_URL"); v != "" {
		cfg.Inference.BaseURL = v
	}
	if v := os.Getenv("FS_FACTS_API_KEY"); v != "" {
		cfg.Facts.APIKey = v
	}
	if v := os.Getenv("FS_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}
