// config предоставляет структуру конфигурации news-cms
// и функции загрузки из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Допустимые значения переключателей.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	BackendDisk  = "disk"
	BackendMinio = "minio"

	MIMESourceSniffed  = "sniffed"
	MIMESourceDeclared = "declared"
)

// LimitCeiling — верхняя граница limits.max: страница списка не больше 100 новостей.
const LimitCeiling = 100

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
//
// ENV всегда накладывается поверх значений из файла.
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	GRPC     GRPCConfig    `yaml:"grpc"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	Auth     AuthConfig    `yaml:"auth"`
	Uploads  UploadsConfig `yaml:"uploads"`
	S3       S3Config      `yaml:"s3"`
	Limits   LimitsConfig  `yaml:"limits"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"15s"`
}

// HTTPConfig — публичный REST-сервер.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// GRPCConfig — служебный gRPC (health/reflection).
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50060"`
}

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string { return net.JoinHostPort(g.Host, g.Port) }

// DBConfig — выбор драйвера хранилища и строка подключения.
// Для memory URL не нужен.
type DBConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	URL    string `yaml:"url" env:"DATABASE_URL"`
}

// RedisConfig — кэш страниц списка новостей. Пустой URL отключает кэш.
type RedisConfig struct {
	URL string        `yaml:"url" env:"REDIS_URL"`
	TTL time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"1m"`
}

// AuthConfig — выпуск и проверка access-токенов.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"1h"`
	Issuer         string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"news-cms"`
}

// UploadsConfig — политика приёма файлов.
//   - Backend: disk (локальная ФС) или minio (S3);
//   - Dir: корень хранения для disk;
//   - BaseURL: публичный префикс, к которому приклеивается имя файла;
//   - ServePath: маршрут раздачи файлов с диска (пустой — не раздаём);
//   - MIMESource: sniffed (тип по содержимому) или declared (тип от клиента).
type UploadsConfig struct {
	Backend          string   `yaml:"backend" env:"UPLOADS_BACKEND" env-default:"disk"`
	Dir              string   `yaml:"dir" env:"UPLOADS_DIR" env-default:"./var/uploads"`
	BaseURL          string   `yaml:"base_url" env:"UPLOADS_BASE_URL" env-default:"/uploads"`
	ServePath        string   `yaml:"serve_path" env:"UPLOADS_SERVE_PATH" env-default:"/uploads"`
	MaxSizeBytes     int64    `yaml:"max_size_bytes" env:"UPLOADS_MAX_SIZE_BYTES" env-default:"5242880"`
	AllowedMIMETypes []string `yaml:"allowed_mime_types" env:"UPLOADS_ALLOWED_MIME_TYPES" env-separator:"," env-default:"image/jpeg,image/png"`
	MIMESource       string   `yaml:"mime_source" env:"UPLOADS_MIME_SOURCE" env-default:"sniffed"`
}

// S3Config — параметры MinIO/S3 для backend=minio.
type S3Config struct {
	Endpoint     string `yaml:"endpoint" env:"S3_ENDPOINT"`
	RootUser     string `yaml:"root_user" env:"S3_ROOT_USER"`
	RootPassword string `yaml:"root_password" env:"S3_ROOT_PASSWORD"`
	Bucket       string `yaml:"bucket" env:"S3_BUCKET" env-default:"news-photos"`
}

// LimitsConfig — серверные лимиты пагинации.
type LimitsConfig struct {
	// Применяется, когда limit не передан.
	Default int `yaml:"default" env:"DEFAULT_LIMIT" env-default:"10"`
	// Верхняя граница для limit.
	Max int `yaml:"max" env:"MAX_LIMIT" env-default:"100"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
func Load(path string) (*Config, error) {
	var cfg Config

	readFile := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cfg.validate(); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return readFile(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return readFile(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return readFile("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverMongo:
		if c.DB.URL == "" {
			return fmt.Errorf("db.url is required for driver %q", c.DB.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("db.driver must be one of postgres, mongo, memory")
	}

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0")
	}

	switch c.Uploads.Backend {
	case BackendDisk:
		if c.Uploads.Dir == "" {
			return fmt.Errorf("uploads.dir is required for backend disk")
		}
	case BackendMinio:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("s3.endpoint and s3.bucket are required for backend minio")
		}
	default:
		return fmt.Errorf("uploads.backend must be one of disk, minio")
	}

	if c.Uploads.MaxSizeBytes <= 0 {
		return fmt.Errorf("uploads.max_size_bytes must be > 0")
	}
	if len(c.Uploads.AllowedMIMETypes) == 0 {
		return fmt.Errorf("uploads.allowed_mime_types must contain at least one type")
	}
	if c.Uploads.MIMESource != MIMESourceSniffed && c.Uploads.MIMESource != MIMESourceDeclared {
		return fmt.Errorf("uploads.mime_source must be sniffed or declared")
	}

	if c.Limits.Default <= 0 {
		return fmt.Errorf("limits.default must be > 0")
	}
	if c.Limits.Max <= 0 || c.Limits.Max > LimitCeiling {
		return fmt.Errorf("limits.max must be in [1, %d]", LimitCeiling)
	}
	if c.Limits.Default > c.Limits.Max {
		return fmt.Errorf("limits.default must be <= limits.max")
	}

	return nil
}
