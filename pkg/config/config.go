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
	Admin         AdminConfig
	Cart          CartConfig
	Pinning       PinningConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env          string `envconfig:"CLAYHAUS_APP_ENV" required:"true"`
	Port         string `envconfig:"CLAYHAUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CLAYHAUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLAYHAUS_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"CLAYHAUS_LOG_FORMAT"`
	CORSOrigins  string `envconfig:"CLAYHAUS_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

type DBConfig struct {
	DSN    string `envconfig:"CLAYHAUS_DB_DSN"`
	Driver string `envconfig:"CLAYHAUS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CLAYHAUS_DB_HOST"`
	LegacyPort     int    `envconfig:"CLAYHAUS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CLAYHAUS_DB_USER"`
	LegacyPassword string `envconfig:"CLAYHAUS_DB_PASSWORD"`
	LegacyName     string `envconfig:"CLAYHAUS_DB_NAME"`
	LegacySSLMode  string `envconfig:"CLAYHAUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLAYHAUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLAYHAUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLAYHAUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLAYHAUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CLAYHAUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CLAYHAUS_REDIS_ADDR"`
	Password     string        `envconfig:"CLAYHAUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLAYHAUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLAYHAUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLAYHAUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLAYHAUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLAYHAUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLAYHAUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CLAYHAUS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CLAYHAUS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CLAYHAUS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CLAYHAUS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CLAYHAUS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CLAYHAUS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CLAYHAUS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CLAYHAUS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CLAYHAUS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CLAYHAUS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CLAYHAUS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CLAYHAUS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CLAYHAUS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CLAYHAUS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CLAYHAUS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CLAYHAUS_AUTO_MIGRATE" default:"false"`
	SeedAdmin   bool `envconfig:"CLAYHAUS_SEED_ADMIN" default:"true"`
}

// AdminConfig holds the bootstrap admin account created on startup.
type AdminConfig struct {
	Email    string `envconfig:"CLAYHAUS_ADMIN_EMAIL" default:"admin@clayhaus.local"`
	Password string `envconfig:"CLAYHAUS_ADMIN_PASSWORD"`
	Name     string `envconfig:"CLAYHAUS_ADMIN_NAME" default:"Admin"`
	ShopName string `envconfig:"CLAYHAUS_ADMIN_SHOP_NAME" default:"Clayhaus"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"CLAYHAUS_CART_TTL" default:"720h"`
}

type PinningConfig struct {
	BaseURL    string        `envconfig:"CLAYHAUS_PINNING_BASE_URL" default:"https://api.pinata.cloud"`
	JWT        string        `envconfig:"CLAYHAUS_PINNING_JWT"`
	GatewayURL string        `envconfig:"CLAYHAUS_PINNING_GATEWAY_URL" default:"https://gateway.pinata.cloud/ipfs"`
	Timeout    time.Duration `envconfig:"CLAYHAUS_PINNING_TIMEOUT" default:"2m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CLAYHAUS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CLAYHAUS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CLAYHAUS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"CLAYHAUS_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"CLAYHAUS_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

// Enabled reports whether image uploads can be stored in a bucket.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

type MediaConfig struct {
	MaxUploadMB int    `envconfig:"CLAYHAUS_MAX_UPLOAD_MB" default:"200"`
	MaxImageMB  int    `envconfig:"CLAYHAUS_MAX_IMAGE_MB" default:"10"`
	TempDir     string `envconfig:"CLAYHAUS_MEDIA_TEMP_DIR"`
}

// MaxUploadBytes converts the configured video cap into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	return int64(m.MaxUploadMB) << 20
}

// MaxImageBytes converts the configured image cap into bytes.
func (m MediaConfig) MaxImageBytes() int64 {
	return int64(m.MaxImageMB) << 20
}

type PubSubConfig struct {
	OrdersTopic  string `envconfig:"CLAYHAUS_PUBSUB_ORDERS_TOPIC" default:"clayhaus-order-events"`
	CatalogTopic string `envconfig:"CLAYHAUS_PUBSUB_CATALOG_TOPIC" default:"clayhaus-catalog-events"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"CLAYHAUS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"CLAYHAUS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"CLAYHAUS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int    `envconfig:"CLAYHAUS_OUTBOX_RETENTION_DAYS" default:"14"`
	MetricsAddr    string `envconfig:"CLAYHAUS_OUTBOX_METRICS_ADDR"`
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"CLAYHAUS_CRON_INTERVAL" default:"1h"`
	LockTTL     time.Duration `envconfig:"CLAYHAUS_CRON_LOCK_TTL" default:"5m"`
	MetricsAddr string        `envconfig:"CLAYHAUS_CRON_METRICS_ADDR"`
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
