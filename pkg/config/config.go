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
	App          AppConfig
	Storage      StorageConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	ProductAPI   ProductAPIConfig
	Cart         CartConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == StorageDriverSQL {
		if err := cfg.DB.EnsureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Storage.Driver == StorageDriverRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvStorageDriver, StorageDriverRedis)
	}
	if _, err := cfg.Cart.DeliveryFee(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REDSEAM_APP_ENV" required:"true"`
	Port         string `envconfig:"REDSEAM_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"REDSEAM_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"REDSEAM_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"REDSEAM_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"REDSEAM_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the key-value backend that plays the role of the
// visitor's persistent local storage.
type StorageConfig struct {
	Driver string `envconfig:"REDSEAM_STORAGE_DRIVER" default:"memory"`
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(s.Driver) {
	case StorageDriverMemory, StorageDriverRedis, StorageDriverSQL:
		return nil
	}
	return fmt.Errorf("unsupported %s %q", EnvStorageDriver, s.Driver)
}

type DBConfig struct {
	DSN    string `envconfig:"REDSEAM_DB_DSN"`
	Driver string `envconfig:"REDSEAM_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"REDSEAM_DB_HOST"`
	Port     int    `envconfig:"REDSEAM_DB_PORT" default:"5432"`
	User     string `envconfig:"REDSEAM_DB_USER"`
	Password string `envconfig:"REDSEAM_DB_PASSWORD"`
	Name     string `envconfig:"REDSEAM_DB_NAME"`
	SSLMode  string `envconfig:"REDSEAM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REDSEAM_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"REDSEAM_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"REDSEAM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REDSEAM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the SQL backend runs on SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"REDSEAM_REDIS_URL"`
	Address      string        `envconfig:"REDSEAM_REDIS_ADDR"`
	Password     string        `envconfig:"REDSEAM_REDIS_PASSWORD"`
	DB           int           `envconfig:"REDSEAM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDSEAM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDSEAM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDSEAM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDSEAM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REDSEAM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig controls the signed visitor cookie that scopes storage.
type SessionConfig struct {
	Secret     string        `envconfig:"REDSEAM_SESSION_SECRET" required:"true"`
	Issuer     string        `envconfig:"REDSEAM_SESSION_ISSUER" default:"redseam"`
	CookieName string        `envconfig:"REDSEAM_SESSION_COOKIE" default:"redseam_session"`
	TTL        time.Duration `envconfig:"REDSEAM_SESSION_TTL" default:"8760h"`
	Secure     bool          `envconfig:"REDSEAM_SESSION_SECURE" default:"false"`
}

type ProductAPIConfig struct {
	BaseURL           string        `envconfig:"REDSEAM_PRODUCT_API_BASE_URL" default:"https://api.redseam.redberryinternship.ge/api"`
	Timeout           time.Duration `envconfig:"REDSEAM_PRODUCT_API_TIMEOUT" default:"10s"`
	PageCacheTTL      time.Duration `envconfig:"REDSEAM_PRODUCT_API_PAGE_CACHE_TTL" default:"5m"`
	EnrichConcurrency int           `envconfig:"REDSEAM_ENRICH_CONCURRENCY" default:"4"`
}

type CartConfig struct {
	StorageKey   string `envconfig:"REDSEAM_CART_KEY" default:"redseam_cart"`
	UserKey      string `envconfig:"REDSEAM_USER_KEY" default:"redseam_user"`
	DeliveryFeeS string `envconfig:"REDSEAM_CART_DELIVERY_FEE" default:"5"`
	DefaultImage string `envconfig:"REDSEAM_CART_DEFAULT_IMAGE" default:"/assets/img/jersey1.png"`
}

// DeliveryFee parses the flat delivery fee charged on non-empty carts.
func (c CartConfig) DeliveryFee() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.DeliveryFeeS)
	if raw == "" {
		return decimal.Zero, nil
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", EnvCartDeliveryFee, raw, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be non-negative", EnvCartDeliveryFee)
	}
	return fee, nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REDSEAM_AUTO_MIGRATE" default:"false"`
	Enrichment  bool `envconfig:"REDSEAM_FEATURE_ENRICHMENT" default:"true"`
}

// EnsureDSN fills DSN from the discrete connection fields when it is unset.
func (db *DBConfig) EnsureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:redseam.db?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range []string{EnvDBHost, EnvDBUser, EnvDBName} {
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
