package config

const (
	EnvPrefix = "CAMPUSFIND"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "CAMPUSFIND_DB_DSN"
	EnvDBHost = "CAMPUSFIND_DB_HOST"
	EnvDBUser = "CAMPUSFIND_DB_USER"
	EnvDBName = "CAMPUSFIND_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
