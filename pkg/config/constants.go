package config

const (
	EnvPrefix = "NESTTASK"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv = "NESTTASK_APP_ENV"
	EnvPort   = "NESTTASK_APP_PORT"

	EnvDBDSN  = "NESTTASK_DB_DSN"
	EnvDBHost = "NESTTASK_DB_HOST"
	EnvDBUser = "NESTTASK_DB_USER"
	EnvDBName = "NESTTASK_DB_NAME"

	EnvRedisURL = "NESTTASK_REDIS_URL"

	EnvJWTSecret = "NESTTASK_JWT_SECRET"
	EnvJWTIssuer = "NESTTASK_JWT_ISSUER"

	EnvUpstreamOrigin = "NESTTASK_UPSTREAM_ORIGIN"

	EnvGCPProjectID = "NESTTASK_GCP_PROJECT_ID"

	EnvPubSubTasksSub         = "NESTTASK_PUBSUB_TASKS_SUBSCRIPTION"
	EnvPubSubAnnouncementsSub = "NESTTASK_PUBSUB_ANNOUNCEMENTS_SUBSCRIPTION"
	EnvPubSubPushSub          = "NESTTASK_PUBSUB_PUSH_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
