package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for fields without a tag.
const EnvPrefix = "CAISSE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv    = "CAISSE_APP_ENV"
	EnvPort      = "CAISSE_APP_PORT"
	EnvDBDSN     = "CAISSE_DB_DSN"
	EnvDBHost    = "CAISSE_DB_HOST"
	EnvDBUser    = "CAISSE_DB_USER"
	EnvDBName    = "CAISSE_DB_NAME"
	EnvRedisURL  = "CAISSE_REDIS_URL"
	EnvAdminCode = "CAISSE_ADMIN_CODE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
