package config

const (
	EnvPrefix = "PRINTSHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	CashfreeEnvSandbox    = "SANDBOX"
	CashfreeEnvProduction = "PRODUCTION"

	OutboxPublisherPubSub = "pubsub"
	OutboxPublisherKafka  = "kafka"
)

const (
	EnvAppEnv          = "PRINTSHOP_APP_ENV"
	EnvPort            = "PRINTSHOP_APP_PORT"
	EnvDBDSN           = "PRINTSHOP_DB_DSN"
	EnvDBHost          = "PRINTSHOP_DB_HOST"
	EnvDBUser          = "PRINTSHOP_DB_USER"
	EnvDBName          = "PRINTSHOP_DB_NAME"
	EnvRedisURL        = "PRINTSHOP_REDIS_URL"
	EnvJWTSecret       = "PRINTSHOP_JWT_SECRET"
	EnvJWTIssuer       = "PRINTSHOP_JWT_ISSUER"
	EnvTaxRate         = "PRINTSHOP_TAX_RATE"
	EnvShippingFlat    = "PRINTSHOP_SHIPPING_FLAT"
	EnvOutboxPublisher = "PRINTSHOP_OUTBOX_PUBLISHER"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
