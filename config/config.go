// Package config reads config.toml, .env and the environment into viper and
// validates the result before anything else starts
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers    = []string{"sqlite", "postgres"}
	validStorageTypes = []string{"s3"}
	validCacheTypes   = []string{"memory", "redis"}
)

// keys that can be overridden from the environment, app.log_level is read
// from APP_LOG_LEVEL and so on
var envKeys = []string{
	"app.log_level",
	"app.log_file",

	"host.port",
	"host.domain",
	"host.ssl_enabled",
	"host.cors_origins",

	"db.driver",
	"db.dsn",

	"jwt.secret",
	"jwt.ttl_hours",

	"storage.type",
	"storage.endpoint",
	"storage.region",
	"storage.bucket",
	"storage.access_key_id",
	"storage.secret_access_key",
	"storage.presign_minutes",

	"upload.max_size",
	"upload.max_request_size",

	"mail.enabled",
	"mail.host",
	"mail.port",
	"mail.sender",
	"mail.password",

	"cache.type",
	"cache.redis_addr",
	"cache.ttl_seconds",

	"security.rate_limit",
	"security.turnstile_enabled",
	"security.turnstile_secret",

	"review.max_open_assignments",

	"schedule.token_cleanup",
	"schedule.counter_reconcile",
}

// command line flags that override config keys
var flagKeys = map[string]string{
	"log-level": "app.log_level",
	"port":      "host.port",
	"db-driver": "db.driver",
	"db-dsn":    "db.dsn",
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// EnvName returns the environment variable bound to a config key
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Setup loads configuration from (in order of precedence) flags, the
// environment, .env, the config file and defaults. An empty path looks for
// config.toml in the working directory, the file is optional.
func Setup(path string, flags *pflag.FlagSet) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env, %w", err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}

			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s, %w", name, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	for _, key := range envKeys {
		v.BindEnv(key, EnvName(key))
	}

	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	return validate()
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost:8080")
	v.SetDefault("host.ssl_enabled", false)
	v.SetDefault("host.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("jwt.ttl_hours", 24)

	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.presign_minutes", 15)

	v.SetDefault("upload.max_size", 200)
	v.SetDefault("upload.max_request_size", 1024)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl_seconds", 30)

	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("security.turnstile_enabled", false)

	v.SetDefault("review.max_open_assignments", 1000)

	v.SetDefault("schedule.token_cleanup", "@daily")
	v.SetDefault("schedule.counter_reconcile", "@every 6h")
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid db.driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		return fmt.Errorf("jwt.secret is not set, set %s to a random value such as:\n\n%s", EnvName("jwt.secret"), genSecret())
	}

	if v.GetInt("jwt.ttl_hours") <= 0 {
		return errors.New("jwt.ttl_hours must be bigger than 0")
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetString("storage.bucket") == "" {
		return errors.New("bucket can't be empty")
	}
	if v.GetString("storage.access_key_id") == "" {
		return errors.New("storage access key id can't be empty")
	}
	if v.GetString("storage.secret_access_key") == "" {
		return errors.New("storage secret access key can't be empty")
	}

	if v.GetInt("storage.presign_minutes") <= 0 {
		return errors.New("storage.presign_minutes must be bigger than 0")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt("upload.max_request_size") < v.GetInt("upload.max_size") {
		return errors.New("upload.max_request_size can't be smaller than upload.max_size")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" || v.GetString("mail.sender") == "" {
			return errors.New("mail.host and mail.sender are required when mail is enabled")
		}
	}

	if !slices.Contains(validCacheTypes, v.GetString("cache.type")) {
		return errors.New("invalid cache type provided")
	}

	if v.GetString("cache.type") == "redis" && v.GetString("cache.redis_addr") == "" {
		return errors.New("cache.redis_addr is required for the redis cache")
	}

	if v.GetInt("security.rate_limit") < 0 {
		return errors.New("security.rate_limit can't be negative")
	}

	if v.GetBool("security.turnstile_enabled") && v.GetString("security.turnstile_secret") == "" {
		return errors.New("turnstile secret token is missing")
	}

	if v.GetInt("review.max_open_assignments") < 0 {
		return errors.New("review.max_open_assignments can't be negative")
	}

	return nil
}

// MaxUploadBytes is upload.max_size converted from megabytes
func MaxUploadBytes() int64 {
	return v.GetInt64("upload.max_size") << 20
}

// MaxRequestBytes caps a whole request body, a submission carries several
// files
func MaxRequestBytes() int64 {
	return v.GetInt64("upload.max_request_size") << 20
}
