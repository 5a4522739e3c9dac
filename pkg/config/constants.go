package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// TATLICO_-prefixed names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "TATLICO_APP_ENV"

	EnvDBDSN  = "TATLICO_DB_DSN"
	EnvDBHost = "TATLICO_DB_HOST"
	EnvDBUser = "TATLICO_DB_USER"
	EnvDBName = "TATLICO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
