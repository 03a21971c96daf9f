package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Gateway GatewayConfig
	Feed    FeedConfig
	Push    PushConfig
	GCP     GCPConfig
	PubSub  PubSubConfig
	Outbox  OutboxConfig
	Cron    CronConfig

	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"NESTTASK_APP_ENV" required:"true"`
	Port         string `envconfig:"NESTTASK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NESTTASK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NESTTASK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"NESTTASK_SERVICE_KIND" default:"edge"`
}

type DBConfig struct {
	DSN    string `envconfig:"NESTTASK_DB_DSN"`
	Driver string `envconfig:"NESTTASK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NESTTASK_DB_HOST"`
	LegacyPort     int    `envconfig:"NESTTASK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NESTTASK_DB_USER"`
	LegacyPassword string `envconfig:"NESTTASK_DB_PASSWORD"`
	LegacyName     string `envconfig:"NESTTASK_DB_NAME"`
	LegacySSLMode  string `envconfig:"NESTTASK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NESTTASK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NESTTASK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NESTTASK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NESTTASK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NESTTASK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NESTTASK_REDIS_ADDR"`
	Password     string        `envconfig:"NESTTASK_REDIS_PASSWORD"`
	DB           int           `envconfig:"NESTTASK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NESTTASK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NESTTASK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NESTTASK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NESTTASK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NESTTASK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"NESTTASK_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"NESTTASK_JWT_ISSUER" required:"true"`
}

// GatewayConfig controls the offline gateway: the cache generation tag, the
// upstream origin serving the app shell, and the data-backend host whose
// requests bypass the cache entirely.
type GatewayConfig struct {
	CacheGeneration string        `envconfig:"NESTTASK_CACHE_GENERATION" default:"nesttask-v1"`
	UpstreamOrigin  string        `envconfig:"NESTTASK_UPSTREAM_ORIGIN" required:"true"`
	BackendHost     string        `envconfig:"NESTTASK_BACKEND_HOST" default:"supabase.co"`
	OfflinePath     string        `envconfig:"NESTTASK_OFFLINE_PATH" default:"/offline.html"`
	FetchTimeout    time.Duration `envconfig:"NESTTASK_GATEWAY_FETCH_TIMEOUT" default:"15s"`
}

type FeedConfig struct {
	ReloadMaxAttempts int           `envconfig:"NESTTASK_FEED_RELOAD_MAX_ATTEMPTS" default:"3"`
	ReloadBaseDelay   time.Duration `envconfig:"NESTTASK_FEED_RELOAD_BASE_DELAY" default:"1s"`
	ReloadMaxDelay    time.Duration `envconfig:"NESTTASK_FEED_RELOAD_MAX_DELAY" default:"10s"`
}

type PushConfig struct {
	IconPath       string `envconfig:"NESTTASK_PUSH_ICON" default:"/icons/icon-192x192.png"`
	BadgePath      string `envconfig:"NESTTASK_PUSH_BADGE" default:"/icons/badge.png"`
	GatewayURL     string `envconfig:"NESTTASK_PUSH_GATEWAY_URL" default:"https://push.nesttask.app"`
	VAPIDPublicKey string `envconfig:"NESTTASK_PUSH_VAPID_PUBLIC_KEY" default:"BIuYLLr8y2QBCcfOE2aTDzKeT4FQ2JLTwEcz_L0VEMWzX3FfzOBjag7mkj2gCRLArcmtsE1aZC7WfRI6blb-yTE"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"NESTTASK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"NESTTASK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"NESTTASK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	TasksTopic               string `envconfig:"NESTTASK_PUBSUB_TASKS_TOPIC" default:"nesttask-task-events"`
	TasksSubscription        string `envconfig:"NESTTASK_PUBSUB_TASKS_SUBSCRIPTION" required:"true"`
	AnnouncementsTopic       string `envconfig:"NESTTASK_PUBSUB_ANNOUNCEMENTS_TOPIC" default:"nesttask-announcement-events"`
	AnnouncementSubscription string `envconfig:"NESTTASK_PUBSUB_ANNOUNCEMENTS_SUBSCRIPTION" required:"true"`
	PushTopic                string `envconfig:"NESTTASK_PUBSUB_PUSH_TOPIC" default:"nesttask-push-events"`
	PushSubscription         string `envconfig:"NESTTASK_PUBSUB_PUSH_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"NESTTASK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"NESTTASK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"NESTTASK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval                 time.Duration `envconfig:"NESTTASK_CRON_INTERVAL" default:"24h"`
	PushSubRetentionDays     int           `envconfig:"NESTTASK_CRON_PUSH_SUB_RETENTION_DAYS" default:"90"`
	OutboxRetentionDays      int           `envconfig:"NESTTASK_CRON_OUTBOX_RETENTION_DAYS" default:"14"`
	LockTTL                  time.Duration `envconfig:"NESTTASK_CRON_LOCK_TTL" default:"25h"`
	DisableMaintenanceLocked bool          `envconfig:"NESTTASK_CRON_DISABLE_WHEN_LOCKED" default:"false"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NESTTASK_AUTO_MIGRATE" default:"false"`
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
