// Пакет config — загрузка и валидация конфигурации Caseflow
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Caseflow.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Хранилище документов ---

	// Базовый URL storage API (например, https://storage.example.com)
	StorageURL string
	// Service key для авторизации запросов к хранилищу
	StorageKey string
	// Имя bucket с документами
	StorageBucket string
	// Таймаут запросов к хранилищу
	StorageTimeout time.Duration
	// Максимальное количество записей в LRU-кэше содержимого документов
	StorageCacheSize int
	// TTL записи в кэше содержимого документов
	StorageCacheTTL time.Duration

	// --- Docassemble (генерация документов) ---

	// Базовый URL Docassemble
	DocassembleURL string
	// API key Docassemble
	DocassembleAPIKey string
	// Таймаут генерации документа
	DocassembleTimeout time.Duration

	// --- DocuSign (электронная подпись) ---

	// Базовый URL DocuSign eSignature API
	DocusignBaseURL string
	// ID аккаунта DocuSign
	DocusignAccountID string
	// Client ID интеграции (integration key)
	DocusignClientID string
	// Client Secret интеграции
	DocusignClientSecret string
	// Таймаут запросов к DocuSign
	DocusignTimeout time.Duration

	// --- Redis (события) ---

	// Адрес Redis (host:port)
	RedisAddr string
	// Пароль Redis (опционально)
	RedisPassword string
	// Канал pub/sub для доменных событий
	EventsChannel string

	// --- Pipeline ---

	// Cron-расписание ночной сборки demand packages
	DemandSweepSchedule string
	// Количество попыток генерации disbursement sheet
	DisbursementRetries int
	// Базовая задержка между попытками (умножается на номер попытки)
	DisbursementRetryDelay time.Duration

	// --- JWT (валидация токенов, выпуск — на API Gateway) ---

	// URL JWKS endpoint (пустая строка — аутентификация отключена)
	JWTJWKSURL string
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration

	// --- Dephealth ---

	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CF_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("CF_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("CF_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CF_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// CF_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CF_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CF_LOG_LEVEL: %w", err)
	}

	// CF_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CF_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CF_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	cfg.DBHost, err = getEnvRequired("CF_DB_HOST")
	if err != nil {
		return nil, err
	}
	cfg.DBPort, err = getEnvInt("CF_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("CF_DB_PORT: %w", err)
	}
	cfg.DBName = getEnvDefault("CF_DB_NAME", "caseflow")
	cfg.DBUser, err = getEnvRequired("CF_DB_USER")
	if err != nil {
		return nil, err
	}
	cfg.DBPassword, err = getEnvRequired("CF_DB_PASSWORD")
	if err != nil {
		return nil, err
	}
	cfg.DBSSLMode = getEnvDefault("CF_DB_SSL_MODE", "disable")
	switch cfg.DBSSLMode {
	case "disable", "require", "verify-ca", "verify-full":
	default:
		return nil, fmt.Errorf("CF_DB_SSL_MODE: недопустимое значение %q", cfg.DBSSLMode)
	}

	// --- Хранилище документов ---

	cfg.StorageURL, err = getEnvRequired("CF_STORAGE_URL")
	if err != nil {
		return nil, err
	}
	cfg.StorageKey, err = getEnvRequired("CF_STORAGE_KEY")
	if err != nil {
		return nil, err
	}
	cfg.StorageBucket = getEnvDefault("CF_STORAGE_BUCKET", "documents")
	cfg.StorageTimeout, err = getEnvDuration("CF_STORAGE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CF_STORAGE_TIMEOUT: %w", err)
	}
	cfg.StorageCacheSize, err = getEnvInt("CF_STORAGE_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("CF_STORAGE_CACHE_SIZE: %w", err)
	}
	cfg.StorageCacheTTL, err = getEnvDuration("CF_STORAGE_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CF_STORAGE_CACHE_TTL: %w", err)
	}

	// --- Docassemble ---

	cfg.DocassembleURL, err = getEnvRequired("CF_DOCASSEMBLE_URL")
	if err != nil {
		return nil, err
	}
	cfg.DocassembleAPIKey, err = getEnvRequired("CF_DOCASSEMBLE_API_KEY")
	if err != nil {
		return nil, err
	}
	cfg.DocassembleTimeout, err = getEnvDuration("CF_DOCASSEMBLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CF_DOCASSEMBLE_TIMEOUT: %w", err)
	}

	// --- DocuSign ---

	cfg.DocusignBaseURL, err = getEnvRequired("CF_DOCUSIGN_BASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.DocusignAccountID, err = getEnvRequired("CF_DOCUSIGN_ACCOUNT_ID")
	if err != nil {
		return nil, err
	}
	cfg.DocusignClientID, err = getEnvRequired("CF_DOCUSIGN_CLIENT_ID")
	if err != nil {
		return nil, err
	}
	cfg.DocusignClientSecret, err = getEnvRequired("CF_DOCUSIGN_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.DocusignTimeout, err = getEnvDuration("CF_DOCUSIGN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CF_DOCUSIGN_TIMEOUT: %w", err)
	}

	// --- Redis ---

	cfg.RedisAddr = getEnvDefault("CF_REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("CF_REDIS_PASSWORD")
	cfg.EventsChannel = getEnvDefault("CF_EVENTS_CHANNEL", "activity")

	// --- Pipeline ---

	// CF_DEMAND_SWEEP_SCHEDULE — cron-расписание ночной сборки (по умолчанию 02:00)
	cfg.DemandSweepSchedule = getEnvDefault("CF_DEMAND_SWEEP_SCHEDULE", "0 2 * * *")

	cfg.DisbursementRetries, err = getEnvInt("CF_DISBURSEMENT_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("CF_DISBURSEMENT_RETRIES: %w", err)
	}
	if cfg.DisbursementRetries < 1 {
		return nil, fmt.Errorf("CF_DISBURSEMENT_RETRIES: значение должно быть >= 1")
	}
	cfg.DisbursementRetryDelay, err = getEnvDuration("CF_DISBURSEMENT_RETRY_DELAY", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CF_DISBURSEMENT_RETRY_DELAY: %w", err)
	}

	// --- JWT ---

	cfg.JWTJWKSURL = os.Getenv("CF_JWT_JWKS_URL")
	cfg.JWTLeeway, err = getEnvDuration("CF_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CF_JWT_LEEWAY: %w", err)
	}
	cfg.JWKSRefreshInterval, err = getEnvDuration("CF_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CF_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// --- Dephealth ---

	cfg.DephealthGroup = getEnvDefault("CF_DEPHEALTH_GROUP", "caseflow")
	cfg.DephealthCheckInterval, err = getEnvDuration("CF_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CF_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("CF_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CF_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает DSN для подключения pgx к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger создаёт slog.Logger согласно конфигурации и
// устанавливает его как логгер по умолчанию.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// getEnvRequired возвращает значение обязательной переменной окружения.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает длительность из переменной окружения.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
