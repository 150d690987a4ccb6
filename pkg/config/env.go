package config

const EnvPrefix = "REDSEAM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverRedis  = "redis"
	StorageDriverSQL    = "sql"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv          = "REDSEAM_APP_ENV"
	EnvPort            = "REDSEAM_APP_PORT"
	EnvLogLevel        = "REDSEAM_LOG_LEVEL"
	EnvStorageDriver   = "REDSEAM_STORAGE_DRIVER"
	EnvDBDSN           = "REDSEAM_DB_DSN"
	EnvDBDriver        = "REDSEAM_DB_DRIVER"
	EnvDBHost          = "REDSEAM_DB_HOST"
	EnvDBUser          = "REDSEAM_DB_USER"
	EnvDBName          = "REDSEAM_DB_NAME"
	EnvRedisURL        = "REDSEAM_REDIS_URL"
	EnvRedisAddr       = "REDSEAM_REDIS_ADDR"
	EnvSessionSecret   = "REDSEAM_SESSION_SECRET"
	EnvProductAPIBase  = "REDSEAM_PRODUCT_API_BASE_URL"
	EnvCartDeliveryFee = "REDSEAM_CART_DELIVERY_FEE"
)
