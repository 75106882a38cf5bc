package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Quote        QuoteConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OSGBHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"OSGBHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OSGBHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OSGBHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"OSGBHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"OSGBHUB_DB_DSN"`
	Driver string `envconfig:"OSGBHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OSGBHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"OSGBHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OSGBHUB_DB_USER"`
	LegacyPassword string `envconfig:"OSGBHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"OSGBHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"OSGBHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OSGBHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OSGBHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OSGBHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OSGBHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OSGBHUB_REDIS_URL"`
	Address      string        `envconfig:"OSGBHUB_REDIS_ADDR"`
	Password     string        `envconfig:"OSGBHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"OSGBHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OSGBHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OSGBHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OSGBHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OSGBHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OSGBHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type QuoteConfig struct {
	// DraftTTL bounds how long an untouched autosaved draft survives before
	// the retention job purges it.
	DraftTTL            time.Duration `envconfig:"OSGBHUB_QUOTE_DRAFT_TTL" default:"720h"`
	DefaultValidityDays int           `envconfig:"OSGBHUB_QUOTE_DEFAULT_VALIDITY_DAYS" default:"30"`
	NumberPrefix        string        `envconfig:"OSGBHUB_QUOTE_NUMBER_PREFIX" default:"TKF"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"OSGBHUB_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"OSGBHUB_CRON_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"OSGBHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"OSGBHUB_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DriverSQLite) {
		db.DSN = "file::memory:?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
