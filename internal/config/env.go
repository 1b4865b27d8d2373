package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "FILEDECK_"

// parseEnv loads .env from the working directory when present and overlays
// every FILEDECK_* variable that is set. Malformed numbers or durations panic,
// as invalid startup configuration is fatal.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.SiteURL, "SITE_URL")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.LogFormat, "LOG_FORMAT")

	envString(&config.StorageBackend, "STORAGE")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_ENDPOINT")
	envString(&config.S3AccessKey, "S3_ACCESS_KEY")
	envString(&config.S3SecretKey, "S3_SECRET_KEY")
	envString(&config.S3PublicBaseURL, "S3_PUBLIC_URL")
	envBool(&config.S3UsePathStyle, "S3_PATH_STYLE")
	envInt(&config.ListLimit, "LIST_LIMIT")
	envDuration(&config.UploadClearDelay, "UPLOAD_CLEAR_DELAY")
	envDuration(&config.SignedURLValidity, "SIGNED_URL_TTL")

	envString(&config.IdentityBackend, "IDENTITY")
	envString(&config.AuthURL, "AUTH_URL")
	envString(&config.RestURL, "REST_URL")
	envString(&config.APIKey, "API_KEY")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "SECRET_KEY")
	envDuration(&config.TokenValidity, "TOKEN_TTL")
	envDuration(&config.InviteDelay, "INVITE_DELAY")

	envString(&config.GoogleClientID, "GOOGLE_CLIENT_ID")
	envString(&config.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")

	envString(&config.RedisAddr, "REDIS_ADDR")
	envString(&config.RedisPassword, "REDIS_PASSWORD")
	envInt(&config.RedisDB, "REDIS_DB")

	envString(&config.DownloadDir, "DOWNLOAD_DIR")
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	if v, ok := lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = n
	}
}

func envBool(dst *bool, name string) {
	if v, ok := lookup(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		*dst = b
	}
}

func envDuration(dst *time.Duration, name string) {
	if v, ok := lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}
