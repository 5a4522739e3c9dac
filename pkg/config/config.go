package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Pricing       PricingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TATLICO_APP_ENV" required:"true"`
	Port         string `envconfig:"TATLICO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TATLICO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TATLICO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TATLICO_DB_DSN"`
	Driver string `envconfig:"TATLICO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TATLICO_DB_HOST"`
	LegacyPort     int    `envconfig:"TATLICO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TATLICO_DB_USER"`
	LegacyPassword string `envconfig:"TATLICO_DB_PASSWORD"`
	LegacyName     string `envconfig:"TATLICO_DB_NAME"`
	LegacySSLMode  string `envconfig:"TATLICO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TATLICO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TATLICO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TATLICO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TATLICO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TATLICO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TATLICO_REDIS_ADDR"`
	Password     string        `envconfig:"TATLICO_REDIS_PASSWORD"`
	DB           int           `envconfig:"TATLICO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TATLICO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TATLICO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TATLICO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TATLICO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TATLICO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TATLICO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TATLICO_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TATLICO_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TATLICO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TATLICO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TATLICO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TATLICO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TATLICO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TATLICO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"TATLICO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"TATLICO_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"TATLICO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TATLICO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TATLICO_AUTO_MIGRATE" default:"false"`
}

// PricingConfig carries the landed-cost calculator constants shared by every
// catalog. Pallet cost is amortized over the cases a pallet holds.
type PricingConfig struct {
	PalletCost     string `envconfig:"TATLICO_PRICING_PALLET_COST" default:"350"`
	CasesPerPallet int    `envconfig:"TATLICO_PRICING_CASES_PER_PALLET" default:"384"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TATLICO_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TATLICO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TATLICO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PricingTopic        string `envconfig:"TATLICO_PUBSUB_PRICING_TOPIC" default:"tt-pricing-events"`
	PricingSubscription string `envconfig:"TATLICO_PUBSUB_PRICING_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TATLICO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TATLICO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TATLICO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
