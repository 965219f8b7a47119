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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Auth          AuthConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Matching      MatchingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
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
	Env          string `envconfig:"CAMPUSFIND_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUSFIND_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAMPUSFIND_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUSFIND_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CAMPUSFIND_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPUSFIND_DB_DSN"`
	Driver string `envconfig:"CAMPUSFIND_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAMPUSFIND_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPUSFIND_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPUSFIND_DB_USER"`
	LegacyPassword string `envconfig:"CAMPUSFIND_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPUSFIND_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPUSFIND_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPUSFIND_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPUSFIND_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUSFIND_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPUSFIND_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUSFIND_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAMPUSFIND_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUSFIND_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUSFIND_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUSFIND_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUSFIND_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUSFIND_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUSFIND_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUSFIND_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CAMPUSFIND_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CAMPUSFIND_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CAMPUSFIND_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type AuthConfig struct {
	CampusEmailDomain string `envconfig:"CAMPUSFIND_AUTH_CAMPUS_EMAIL_DOMAIN" default:"columbia.edu"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAMPUSFIND_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAMPUSFIND_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAMPUSFIND_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAMPUSFIND_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAMPUSFIND_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CAMPUSFIND_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CAMPUSFIND_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CAMPUSFIND_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CAMPUSFIND_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CAMPUSFIND_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CAMPUSFIND_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CAMPUSFIND_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CAMPUSFIND_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"CAMPUSFIND_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type MatchingConfig struct {
	CandidateWindowDays int `envconfig:"CAMPUSFIND_MATCHING_CANDIDATE_WINDOW_DAYS" default:"7"`
	CandidateLimit      int `envconfig:"CAMPUSFIND_MATCHING_CANDIDATE_LIMIT" default:"5"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CAMPUSFIND_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CAMPUSFIND_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CAMPUSFIND_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	MatchingTopic            string `envconfig:"CAMPUSFIND_PUBSUB_MATCHING_TOPIC" required:"true"`
	MatchingSubscription     string `envconfig:"CAMPUSFIND_PUBSUB_MATCHING_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"CAMPUSFIND_PUBSUB_NOTIFICATION_TOPIC" default:"cf-notification-events"`
	NotificationSubscription string `envconfig:"CAMPUSFIND_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
	AnalyticsTopic           string `envconfig:"CAMPUSFIND_PUBSUB_ANALYTICS_TOPIC" required:"true"`
	AnalyticsSubscription    string `envconfig:"CAMPUSFIND_PUBSUB_ANALYTICS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"CAMPUSFIND_BIGQUERY_DATASET" default:"campusfind"`
	ItemEventsTable  string `envconfig:"CAMPUSFIND_BIGQUERY_ITEM_EVENTS_TABLE" default:"item_events"`
	MatchEventsTable string `envconfig:"CAMPUSFIND_BIGQUERY_MATCH_EVENTS_TABLE" default:"match_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CAMPUSFIND_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CAMPUSFIND_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CAMPUSFIND_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	OutboxRetentionDays       int `envconfig:"CAMPUSFIND_CRON_OUTBOX_RETENTION_DAYS" default:"14"`
	NotificationRetentionDays int `envconfig:"CAMPUSFIND_CRON_NOTIFICATION_RETENTION_DAYS" default:"90"`
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
