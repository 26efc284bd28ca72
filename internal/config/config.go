// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	BasePath string        `yaml:"base_path" env:"BASE_PATH" env-default:"/playlist-transfer-api"`
	HTTP     HTTPConfig    `yaml:"http"`
	GRPC     GRPCConfig    `yaml:"grpc"`
	Auth     AuthConfig    `yaml:"auth"`
	DB       DBConfig      `yaml:"db"`
	AWS      AWSConfig     `yaml:"aws"`
	Hasher   HasherConfig  `yaml:"hasher"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// GRPCConfig — сетевые настройки gRPC health-сервера.
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

// Addr возвращает адрес в формате host:port.
func (g HTTPConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// AuthConfig содержит параметры выпуска и проверки токенов.
// Ключ подписи задаётся либо напрямую (JWTSecret), либо именем параметра SSM (JWTSecretParam).
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTSecretParam  string        `yaml:"jwt_secret_param" env:"JWT_SECRET_PARAM"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`
	Issuer          string        `yaml:"issuer" env:"ISSUER" env-default:"playlist-transfer-api"`
	CookieSecure    bool          `yaml:"cookie_secure" env:"COOKIE_SECURE"`
}

// DBConfig — настройки подключения к базе данных.
// Булевы поля не имеют env-default: cleanenv подставляет default поверх нулевого
// значения, и явный false из YAML был бы потерян.
// Строка подключения задаётся напрямую (DatabaseURL) либо именем параметра SSM (DatabaseURLParam).
type DBConfig struct {
	DatabaseURL      string `yaml:"db_url" env:"DATABASE_URL"`
	DatabaseURLParam string `yaml:"db_url_param" env:"DATABASE_URL_PARAM"`
	Migrate          bool   `yaml:"migrate" env:"DB_MIGRATE"`
}

// AWSConfig — доступ к Parameter Store.
type AWSConfig struct {
	Region         string        `yaml:"region" env:"AWS_REGION" env-default:"us-east-1"`
	Endpoint       string        `yaml:"endpoint" env:"AWS_SSM_ENDPOINT"`
	SecretCacheTTL time.Duration `yaml:"secret_cache_ttl" env:"SECRET_CACHE_TTL" env-default:"5m"`
}

// HasherConfig — параметры Argon2id. Значения по умолчанию совпадают с node-argon2.
type HasherConfig struct {
	MemoryKiB   uint32 `yaml:"memory_kib" env:"HASH_MEMORY_KIB" env-default:"65536"`
	Iterations  uint32 `yaml:"iterations" env:"HASH_ITERATIONS" env-default:"3"`
	Parallelism uint8  `yaml:"parallelism" env:"HASH_PARALLELISM" env-default:"4"`
	SaltLength  uint32 `yaml:"salt_length" env:"HASH_SALT_LENGTH" env-default:"16"`
	KeyLength   uint32 `yaml:"key_length" env:"HASH_KEY_LENGTH" env-default:"32"`
}

// UsesSSM сообщает, нужен ли клиент Parameter Store.
func (c *Config) UsesSSM() bool {
	return c.Auth.JWTSecretParam != "" || c.DB.DatabaseURLParam != ""
}

// Validate проверяет согласованность значений, которые cleanenv проверить не может.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" && c.Auth.JWTSecretParam == "" {
		errs = append(errs, errors.New("auth: jwt_secret or jwt_secret_param is required"))
	}
	if c.DB.DatabaseURL == "" && c.DB.DatabaseURLParam == "" {
		errs = append(errs, errors.New("db: db_url or db_url_param is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("auth: access_token_ttl must be positive"))
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("auth: refresh_token_ttl must be positive"))
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		errs = append(errs, fmt.Errorf("base_path %q must start with '/'", c.BasePath))
	}

	return errors.Join(errs...)
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
// После чтения файла поверх значений из YAML накладываются ENV-переменные.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	var (
		out *Config
		err error
	)

	switch envPath := os.Getenv("CONFIG_PATH"); {
	case path != "":
		out, err = tryRead(path)
	case envPath != "":
		out, err = tryRead(envPath)
	default:
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			out, err = tryRead("local.yaml")
			break
		}

		if err = cleanenv.ReadEnv(&cfg); err != nil {
			err = fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
			break
		}
		out = &cfg
	}
	if err != nil {
		return nil, err
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return out, nil
}
