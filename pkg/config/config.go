package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Cashfree CashfreeConfig
	SMTP     SMTPConfig
	Site     SiteConfig
	Pricing  PricingConfig
	GCP      GCPConfig
	Kafka    KafkaConfig
	Outbox   OutboxConfig
	Cron     CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Outbox.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRINTSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"PRINTSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRINTSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRINTSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"PRINTSHOP_DB_DSN"`

	Host     string `envconfig:"PRINTSHOP_DB_HOST"`
	Port     int    `envconfig:"PRINTSHOP_DB_PORT" default:"5432"`
	User     string `envconfig:"PRINTSHOP_DB_USER"`
	Password string `envconfig:"PRINTSHOP_DB_PASSWORD"`
	Name     string `envconfig:"PRINTSHOP_DB_NAME"`
	SSLMode  string `envconfig:"PRINTSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRINTSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"PRINTSHOP_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRINTSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`

	WebhookIdempotencyTTL  time.Duration `envconfig:"PRINTSHOP_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
	CheckoutIdempotencyTTL time.Duration `envconfig:"PRINTSHOP_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PRINTSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PRINTSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PRINTSHOP_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CashfreeConfig holds the payment gateway credentials. The secret key also
// signs inbound webhooks.
type CashfreeConfig struct {
	AppID      string        `envconfig:"PRINTSHOP_CASHFREE_APP_ID"`
	SecretKey  string        `envconfig:"PRINTSHOP_CASHFREE_SECRET_KEY"`
	Env        string        `envconfig:"PRINTSHOP_CASHFREE_ENV" default:"SANDBOX"`
	APIVersion string        `envconfig:"PRINTSHOP_CASHFREE_API_VERSION" default:"2023-08-01"`
	BaseURL    string        `envconfig:"PRINTSHOP_CASHFREE_BASE_URL"`
	Timeout    time.Duration `envconfig:"PRINTSHOP_CASHFREE_TIMEOUT" default:"10s"`
}

// Environment returns the normalized gateway environment (SANDBOX/PRODUCTION).
func (c CashfreeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToUpper(c.Env))
	if env == "" {
		return CashfreeEnvSandbox
	}
	return env
}

type SMTPConfig struct {
	Host string `envconfig:"PRINTSHOP_SMTP_HOST" default:"smtp.gmail.com"`
	Port int    `envconfig:"PRINTSHOP_SMTP_PORT" default:"587"`
	User string `envconfig:"PRINTSHOP_SMTP_USER"`
	Pass string `envconfig:"PRINTSHOP_SMTP_PASS"`
	From string `envconfig:"PRINTSHOP_MAIL_FROM"`
}

// Configured reports whether credentials are present. Without them mail is skipped.
func (s SMTPConfig) Configured() bool {
	return strings.TrimSpace(s.User) != "" && strings.TrimSpace(s.Pass) != ""
}

// Sender returns the From address, falling back to the SMTP user.
func (s SMTPConfig) Sender() string {
	if from := strings.TrimSpace(s.From); from != "" {
		return from
	}
	return s.User
}

type SiteConfig struct {
	BaseURL   string `envconfig:"PRINTSHOP_SITE_BASE_URL" default:"http://localhost:3000"`
	StoreName string `envconfig:"PRINTSHOP_STORE_NAME" default:"3D Print with Sruthi"`
}

// URL joins path onto the base URL without doubling slashes.
func (s SiteConfig) URL(path string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

type PricingConfig struct {
	TaxRate      string `envconfig:"PRINTSHOP_TAX_RATE" default:"0"`
	ShippingFlat string `envconfig:"PRINTSHOP_SHIPPING_FLAT" default:"0"`
	Currency     string `envconfig:"PRINTSHOP_CURRENCY" default:"INR"`
}

// Rates returns the parsed tax rate and flat shipping amount.
func (p PricingConfig) Rates() (decimal.Decimal, decimal.Decimal, error) {
	tax, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid %s: %w", EnvTaxRate, err)
	}
	shipping, err := decimal.NewFromString(strings.TrimSpace(p.ShippingFlat))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid %s: %w", EnvShippingFlat, err)
	}
	return tax, shipping, nil
}

func (p PricingConfig) validate() error {
	tax, shipping, err := p.Rates()
	if err != nil {
		return err
	}
	if tax.IsNegative() || tax.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be between 0 and 1", EnvTaxRate)
	}
	if shipping.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvShippingFlat)
	}
	return nil
}

type GCPConfig struct {
	ProjectID       string `envconfig:"PRINTSHOP_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"PRINTSHOP_GCP_CREDENTIALS_JSON"`
}

type KafkaConfig struct {
	Brokers string `envconfig:"PRINTSHOP_KAFKA_BROKERS"`
}

// BrokerList splits the comma separated broker list.
func (k KafkaConfig) BrokerList() []string {
	brokers := []string{}
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"PRINTSHOP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"PRINTSHOP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"PRINTSHOP_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Publisher      string `envconfig:"PRINTSHOP_OUTBOX_PUBLISHER" default:"pubsub"`
	Topic          string `envconfig:"PRINTSHOP_OUTBOX_TOPIC" default:"printshop-order-events"`
	RetentionDays  int    `envconfig:"PRINTSHOP_OUTBOX_RETENTION_DAYS" default:"14"`
}

func (o OutboxConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.Publisher)) {
	case OutboxPublisherPubSub, OutboxPublisherKafka:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvOutboxPublisher, OutboxPublisherPubSub, OutboxPublisherKafka)
	}
}

type CronConfig struct {
	IntervalSeconds          int `envconfig:"PRINTSHOP_CRON_INTERVAL_SECONDS" default:"300"`
	PendingPaymentAgeMinutes int `envconfig:"PRINTSHOP_PENDING_PAYMENT_AGE_MINUTES" default:"30"`
	PendingPaymentBatchSize  int `envconfig:"PRINTSHOP_PENDING_PAYMENT_BATCH_SIZE" default:"100"`
}

// Interval returns the scheduler tick interval.
func (c CronConfig) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
