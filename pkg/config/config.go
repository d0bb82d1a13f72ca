package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Midtrans     MidtransConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Chat         ChatConfig
	PubSub       PubSubConfig
	AuthRate     AuthRateLimitConfig
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
	Env          string `envconfig:"KREASIVISUAL_APP_ENV" required:"true"`
	Port         string `envconfig:"KREASIVISUAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KREASIVISUAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KREASIVISUAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KREASIVISUAL_DB_DSN"`
	Driver string `envconfig:"KREASIVISUAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KREASIVISUAL_DB_HOST"`
	LegacyPort     int    `envconfig:"KREASIVISUAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KREASIVISUAL_DB_USER"`
	LegacyPassword string `envconfig:"KREASIVISUAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"KREASIVISUAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"KREASIVISUAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KREASIVISUAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KREASIVISUAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KREASIVISUAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KREASIVISUAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KREASIVISUAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KREASIVISUAL_REDIS_ADDR"`
	Password     string        `envconfig:"KREASIVISUAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"KREASIVISUAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KREASIVISUAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KREASIVISUAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KREASIVISUAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KREASIVISUAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KREASIVISUAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"KREASIVISUAL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"KREASIVISUAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"KREASIVISUAL_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"KREASIVISUAL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KREASIVISUAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KREASIVISUAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KREASIVISUAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KREASIVISUAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KREASIVISUAL_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KREASIVISUAL_AUTO_MIGRATE" default:"false"`
}

// MidtransConfig carries the Snap gateway credentials. Sandbox or production
// endpoints are selected from the "SB-" key prefix, not configured separately.
type MidtransConfig struct {
	ServerKey string `envconfig:"KREASIVISUAL_MIDTRANS_SERVER_KEY" required:"true"`
	ClientKey string `envconfig:"KREASIVISUAL_MIDTRANS_CLIENT_KEY" required:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"KREASIVISUAL_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"KREASIVISUAL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"KREASIVISUAL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"KREASIVISUAL_GCS_BUCKET_NAME" required:"true"`
}

type ChatConfig struct {
	MaxAttachmentMB int `envconfig:"KREASIVISUAL_CHAT_MAX_ATTACHMENT_MB" default:"10"`
}

// MaxAttachmentBytes returns the attachment ceiling in bytes.
func (c ChatConfig) MaxAttachmentBytes() int64 {
	return int64(c.MaxAttachmentMB) << 20
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"KREASIVISUAL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"KREASIVISUAL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"KREASIVISUAL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"KREASIVISUAL_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"KREASIVISUAL_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"KREASIVISUAL_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"KREASIVISUAL_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"KREASIVISUAL_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
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
