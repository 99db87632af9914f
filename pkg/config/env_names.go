package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for variables without a tag.
const EnvPrefix = "SHADERSTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv          = "SHADERSTORE_APP_ENV"
	EnvPort            = "SHADERSTORE_APP_PORT"
	EnvDBDSN           = "SHADERSTORE_DB_DSN"
	EnvDBHost          = "SHADERSTORE_DB_HOST"
	EnvDBUser          = "SHADERSTORE_DB_USER"
	EnvDBName          = "SHADERSTORE_DB_NAME"
	EnvRedisURL        = "SHADERSTORE_REDIS_URL"
	EnvCartTokenSecret = "SHADERSTORE_CART_TOKEN_SECRET"
	EnvOrderServiceURL = "SHADERSTORE_ORDER_SERVICE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
