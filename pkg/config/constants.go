package config

// EnvPrefix namespaces every environment variable consumed by the app.
const EnvPrefix = "KREASIVISUAL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "KREASIVISUAL_DB_DSN"
	EnvDBHost = "KREASIVISUAL_DB_HOST"
	EnvDBUser = "KREASIVISUAL_DB_USER"
	EnvDBName = "KREASIVISUAL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
