package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "OSGBHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "OSGBHUB_APP_ENV"
	EnvPort     = "OSGBHUB_APP_PORT"
	EnvDBDSN    = "OSGBHUB_DB_DSN"
	EnvDBHost   = "OSGBHUB_DB_HOST"
	EnvDBUser   = "OSGBHUB_DB_USER"
	EnvDBName   = "OSGBHUB_DB_NAME"
	EnvRedisURL = "OSGBHUB_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
