package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Storage and session drivers understood by main.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreMySQL  = "mysql"

	SessionsStore = "store"
	SessionsRedis = "redis"
)

type Config struct {
	Port string
	Env  string // development, staging, production

	// Storage
	StoreDriver string
	DatabaseURL string
	BoltPath    string

	// Database performance settings
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime int // minutes
	DBConnMaxIdleTime int // minutes
	DBReadTimeout     time.Duration
	DBWriteTimeout    time.Duration

	// Sessions
	SessionDriver     string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	SessionTTL        time.Duration
	SessionCookieName string
	PasswordCost      int

	// Monitoring and logging settings
	LogLevel          string
	LogFormat         string // "json" or "text"
	LogFile           string
	EnableFileLogging bool

	// Admin listener serves /metrics and /health*
	AdminPort      string
	MetricsEnabled bool
	MetricsPath    string
}

// Load reads configuration from the environment. When CONFIG_FILE names a
// YAML file, its keys (same names as the env vars) provide the defaults and
// the environment still wins.
func Load() (*Config, error) {
	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		file, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src = file
	}
	return load(src), nil
}

func load(src source) *Config {
	dbMaxOpenConns, _ := strconv.Atoi(src.get("DB_MAX_OPEN_CONNS", "20"))
	dbMaxIdleConns, _ := strconv.Atoi(src.get("DB_MAX_IDLE_CONNS", "5"))
	dbConnMaxLifetime, _ := strconv.Atoi(src.get("DB_CONN_MAX_LIFETIME_MINUTES", "10"))
	dbConnMaxIdleTime, _ := strconv.Atoi(src.get("DB_CONN_MAX_IDLE_TIME_MINUTES", "5"))
	dbReadTO, _ := time.ParseDuration(src.get("DB_READ_TIMEOUT", "8s"))
	dbWriteTO, _ := time.ParseDuration(src.get("DB_WRITE_TIMEOUT", "6s"))

	redisDB, _ := strconv.Atoi(src.get("REDIS_DB", "0"))
	sessionTTL, _ := time.ParseDuration(src.get("SESSION_TTL", "720h"))
	passwordCost, _ := strconv.Atoi(src.get("PASSWORD_COST", "10"))

	enableFileLogging, _ := strconv.ParseBool(src.get("ENABLE_FILE_LOGGING", "false"))

	env := strings.ToLower(src.get("ENV", "development"))
	metricsDefault := env == "development" || env == "staging"
	metricsEnabled, _ := strconv.ParseBool(src.get("METRICS_ENABLED", strconv.FormatBool(metricsDefault)))

	return &Config{
		Port: src.get("PORT", "8080"),
		Env:  env,

		StoreDriver: strings.ToLower(src.get("STORE_DRIVER", StoreMemory)),
		DatabaseURL: src.get("DATABASE_URL", ""),
		BoltPath:    src.get("BOLT_PATH", "data/todos.db"),

		DBMaxOpenConns:    dbMaxOpenConns,
		DBMaxIdleConns:    dbMaxIdleConns,
		DBConnMaxLifetime: dbConnMaxLifetime,
		DBConnMaxIdleTime: dbConnMaxIdleTime,
		DBReadTimeout:     dbReadTO,
		DBWriteTimeout:    dbWriteTO,

		SessionDriver:     strings.ToLower(src.get("SESSION_DRIVER", SessionsStore)),
		RedisAddr:         src.get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     src.get("REDIS_PASSWORD", ""),
		RedisDB:           redisDB,
		SessionTTL:        sessionTTL,
		SessionCookieName: src.get("SESSION_COOKIE_NAME", "session"),
		PasswordCost:      passwordCost,

		LogLevel:          src.get("LOG_LEVEL", "info"),
		LogFormat:         src.get("LOG_FORMAT", "json"),
		LogFile:           src.get("LOG_FILE", "/var/log/todo-bulk-update/app.log"),
		EnableFileLogging: enableFileLogging,

		AdminPort:      src.get("ADMIN_PORT", "6060"),
		MetricsEnabled: metricsEnabled,
		MetricsPath:    src.get("METRICS_PATH", "/metrics"),
	}
}

// source holds file-provided defaults keyed by env var name.
type source map[string]string

func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func readFile(path string) (source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}
	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	src := make(source, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		src[strings.ToUpper(k)] = stringify(v)
	}
	return src, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		out, _ := yaml.Marshal(t)
		return strings.TrimSpace(string(out))
	}
}
