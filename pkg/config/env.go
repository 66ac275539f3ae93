package config

// EnvPrefix is passed to envconfig; each field declares its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "FRESHCART_APP_ENV"
	EnvPort                   = "FRESHCART_APP_PORT"
	EnvDBDSN                  = "FRESHCART_DB_DSN"
	EnvDBHost                 = "FRESHCART_DB_HOST"
	EnvDBUser                 = "FRESHCART_DB_USER"
	EnvDBName                 = "FRESHCART_DB_NAME"
	EnvRedisURL               = "FRESHCART_REDIS_URL"
	EnvJWTSecret              = "FRESHCART_JWT_SECRET"
	EnvJWTIssuer              = "FRESHCART_JWT_ISSUER"
	EnvJWTExpMins             = "FRESHCART_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FRESHCART_REFRESH_TOKEN_TTL_MINUTES"
	EnvAdminEmails            = "FRESHCART_ADMIN_EMAILS"
	EnvGCSBucket              = "FRESHCART_GCS_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
