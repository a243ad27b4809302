package config

import (
	"fmt"
	"strconv"
	"strings"

	errs "todo-bulk-update/pkg/errors"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error for field '%s' with value '%s': %s", e.Field, e.Value, e.Message)
}

// ConfigValidator collects validation errors so they can be reported together.
type ConfigValidator struct {
	errors []ValidationError
}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{errors: make([]ValidationError, 0)}
}

func (cv *ConfigValidator) AddError(field, value, message string) {
	cv.errors = append(cv.errors, ValidationError{Field: field, Value: value, Message: message})
}

func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errors) > 0
}

func (cv *ConfigValidator) GetErrors() []ValidationError {
	return cv.errors
}

func (cv *ConfigValidator) GetErrorsAsString() string {
	var errorStrings []string
	for _, err := range cv.errors {
		errorStrings = append(errorStrings, err.Error())
	}
	return strings.Join(errorStrings, "\n")
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	validator := NewConfigValidator()

	c.validateRequired(validator)
	c.validateFormats(validator)
	c.validateRanges(validator)
	c.validatePorts(validator)

	if validator.HasErrors() {
		return errs.NewInputParse("config.Validate", fmt.Sprintf("configuration validation failed:\n%s", validator.GetErrorsAsString()), nil)
	}
	return nil
}

func (c *Config) validateRequired(validator *ConfigValidator) {
	if c.Port == "" {
		validator.AddError("PORT", c.Port, "port is required")
	}
	switch c.StoreDriver {
	case StoreMySQL:
		if c.DatabaseURL == "" {
			validator.AddError("DATABASE_URL", c.DatabaseURL, "database URL is required for the mysql driver")
		}
	case StoreBolt:
		if c.BoltPath == "" {
			validator.AddError("BOLT_PATH", c.BoltPath, "bolt path is required for the bolt driver")
		}
	}
	if c.SessionDriver == SessionsRedis && c.RedisAddr == "" {
		validator.AddError("REDIS_ADDR", c.RedisAddr, "redis address is required for the redis session driver")
	}
}

func (c *Config) validateFormats(validator *ConfigValidator) {
	if !contains([]string{StoreMemory, StoreBolt, StoreMySQL}, c.StoreDriver) {
		validator.AddError("STORE_DRIVER", c.StoreDriver, "invalid store driver (must be one of: memory, bolt, mysql)")
	}
	if !contains([]string{SessionsStore, SessionsRedis}, c.SessionDriver) {
		validator.AddError("SESSION_DRIVER", c.SessionDriver, "invalid session driver (must be 'store' or 'redis')")
	}

	if c.StoreDriver == StoreMySQL && c.DatabaseURL != "" {
		if !strings.Contains(c.DatabaseURL, "@") || !strings.Contains(c.DatabaseURL, "/") {
			validator.AddError("DATABASE_URL", c.DatabaseURL, "invalid database URL format")
		}
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if c.LogLevel != "" && !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		validator.AddError("LOG_LEVEL", c.LogLevel, "invalid log level (must be one of: trace, debug, info, warn, error, fatal)")
	}
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "text" {
		validator.AddError("LOG_FORMAT", c.LogFormat, "invalid log format (must be 'json' or 'text')")
	}
	if c.MetricsEnabled && !strings.HasPrefix(c.MetricsPath, "/") {
		validator.AddError("METRICS_PATH", c.MetricsPath, "metrics path must start with '/'")
	}
	if c.SessionCookieName == "" {
		validator.AddError("SESSION_COOKIE_NAME", c.SessionCookieName, "cookie name is required")
	}
}

func (c *Config) validateRanges(validator *ConfigValidator) {
	if c.DBMaxOpenConns < 1 || c.DBMaxOpenConns > 1000 {
		validator.AddError("DB_MAX_OPEN_CONNS", strconv.Itoa(c.DBMaxOpenConns), "max open connections must be between 1 and 1000")
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		validator.AddError("DB_MAX_IDLE_CONNS", strconv.Itoa(c.DBMaxIdleConns), "max idle connections must be between 0 and max open connections")
	}
	if c.DBConnMaxLifetime < 1 || c.DBConnMaxLifetime > 60 {
		validator.AddError("DB_CONN_MAX_LIFETIME_MINUTES", strconv.Itoa(c.DBConnMaxLifetime), "connection max lifetime must be between 1 and 60 minutes")
	}
	if c.DBConnMaxIdleTime < 1 || c.DBConnMaxIdleTime > 30 {
		validator.AddError("DB_CONN_MAX_IDLE_TIME_MINUTES", strconv.Itoa(c.DBConnMaxIdleTime), "connection max idle time must be between 1 and 30 minutes")
	}
	if c.SessionTTL <= 0 {
		validator.AddError("SESSION_TTL", c.SessionTTL.String(), "session ttl must be positive")
	}
	// bcrypt.MinCost..bcrypt.MaxCost
	if c.PasswordCost < 4 || c.PasswordCost > 31 {
		validator.AddError("PASSWORD_COST", strconv.Itoa(c.PasswordCost), "password cost must be between 4 and 31")
	}
	if c.RedisDB < 0 {
		validator.AddError("REDIS_DB", strconv.Itoa(c.RedisDB), "redis db must not be negative")
	}
}

func (c *Config) validatePorts(validator *ConfigValidator) {
	ports := []struct{ name, value string }{
		{"PORT", c.Port},
		{"ADMIN_PORT", c.AdminPort},
	}
	used := make(map[string]string)
	for _, p := range ports {
		if p.value == "" || p.value == "0" {
			continue
		}
		if port, err := strconv.Atoi(p.value); err != nil || port < 1 || port > 65535 {
			validator.AddError(p.name, p.value, "invalid port number (must be 1-65535)")
			continue
		}
		if other, ok := used[p.value]; ok {
			validator.AddError(p.name, p.value, fmt.Sprintf("port conflicts with %s", other))
			continue
		}
		used[p.value] = p.name
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// GetConfigSummary returns a summary of the configuration (excluding sensitive data)
func (c *Config) GetConfigSummary() map[string]interface{} {
	return map[string]interface{}{
		"env":                 c.Env,
		"port":                c.Port,
		"store_driver":        c.StoreDriver,
		"database_url":        maskString(c.DatabaseURL, 20),
		"bolt_path":           c.BoltPath,
		"session_driver":      c.SessionDriver,
		"redis_addr":          c.RedisAddr,
		"session_ttl":         c.SessionTTL.String(),
		"db_max_open_conns":   c.DBMaxOpenConns,
		"db_max_idle_conns":   c.DBMaxIdleConns,
		"log_level":           c.LogLevel,
		"log_format":          c.LogFormat,
		"enable_file_logging": c.EnableFileLogging,
		"metrics_enabled":     c.MetricsEnabled,
	}
}

// maskString masks sensitive strings for logging/display
func maskString(s string, keepFirst int) string {
	if s == "" {
		return ""
	}
	if len(s) <= keepFirst {
		return strings.Repeat("*", len(s))
	}
	return s[:keepFirst] + strings.Repeat("*", len(s)-keepFirst)
}
