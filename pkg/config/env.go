package config

// EnvPrefix is empty because every field carries its fully qualified name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv                 = "CLAYHAUS_APP_ENV"
	EnvPort                   = "CLAYHAUS_APP_PORT"
	EnvDBDSN                  = "CLAYHAUS_DB_DSN"
	EnvDBDriver               = "CLAYHAUS_DB_DRIVER"
	EnvDBHost                 = "CLAYHAUS_DB_HOST"
	EnvDBUser                 = "CLAYHAUS_DB_USER"
	EnvDBName                 = "CLAYHAUS_DB_NAME"
	EnvRedisURL               = "CLAYHAUS_REDIS_URL"
	EnvJWTSecret              = "CLAYHAUS_JWT_SECRET"
	EnvJWTIssuer              = "CLAYHAUS_JWT_ISSUER"
	EnvJWTExpMins             = "CLAYHAUS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "CLAYHAUS_REFRESH_TOKEN_TTL_MINUTES"
	EnvAdminEmail             = "CLAYHAUS_ADMIN_EMAIL"
	EnvAdminPassword          = "CLAYHAUS_ADMIN_PASSWORD"
	EnvCartTTL                = "CLAYHAUS_CART_TTL"
	EnvPinningJWT             = "CLAYHAUS_PINNING_JWT"
	EnvGCSBucket              = "CLAYHAUS_GCS_BUCKET_NAME"
	EnvPubSubOrdersTopic      = "CLAYHAUS_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
