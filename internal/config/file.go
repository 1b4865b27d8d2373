package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/flagx"
	"github.com/dmitrijs2005/filedeck/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Pointer fields tell
// "absent" from zero so that a partial file only overrides what it names.
type FileConfig struct {
	HTTPAddr  *string `json:"http_addr" yaml:"http_addr"`
	SiteURL   *string `json:"site_url" yaml:"site_url"`
	LogLevel  *string `json:"log_level" yaml:"log_level"`
	LogFormat *string `json:"log_format" yaml:"log_format"`

	StorageBackend    *string         `json:"storage" yaml:"storage"`
	S3Bucket          *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region          *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3AccessKey       *string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey       *string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3PublicBaseURL   *string         `json:"s3_public_base_url" yaml:"s3_public_base_url"`
	S3UsePathStyle    *bool           `json:"s3_path_style" yaml:"s3_path_style"`
	ListLimit         *int            `json:"list_limit" yaml:"list_limit"`
	UploadClearDelay  *timex.Duration `json:"upload_clear_delay" yaml:"upload_clear_delay"`
	SignedURLValidity *timex.Duration `json:"signed_url_validity" yaml:"signed_url_validity"`

	IdentityBackend *string         `json:"identity" yaml:"identity"`
	AuthURL         *string         `json:"auth_url" yaml:"auth_url"`
	RestURL         *string         `json:"rest_url" yaml:"rest_url"`
	APIKey          *string         `json:"api_key" yaml:"api_key"`
	DatabaseDSN     *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey       *string         `json:"secret_key" yaml:"secret_key"`
	TokenValidity   *timex.Duration `json:"token_validity" yaml:"token_validity"`
	InviteDelay     *timex.Duration `json:"invite_delay" yaml:"invite_delay"`

	GoogleClientID     *string `json:"google_client_id" yaml:"google_client_id"`
	GoogleClientSecret *string `json:"google_client_secret" yaml:"google_client_secret"`

	RedisAddr     *string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword *string `json:"redis_password" yaml:"redis_password"`
	RedisDB       *int    `json:"redis_db" yaml:"redis_db"`

	DownloadDir *string `json:"download_dir" yaml:"download_dir"`
}

// parseFile overlays values from the file named by -c/-config. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON. A missing
// flag leaves config untouched; unreadable or malformed files panic.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		panic(err)
	}
	fc.apply(config)
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	}
	return fc, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}

func (fc *FileConfig) apply(c *Config) {
	set(&c.HTTPAddr, fc.HTTPAddr)
	set(&c.SiteURL, fc.SiteURL)
	set(&c.LogLevel, fc.LogLevel)
	set(&c.LogFormat, fc.LogFormat)

	set(&c.StorageBackend, fc.StorageBackend)
	set(&c.S3Bucket, fc.S3Bucket)
	set(&c.S3Region, fc.S3Region)
	set(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	set(&c.S3AccessKey, fc.S3AccessKey)
	set(&c.S3SecretKey, fc.S3SecretKey)
	set(&c.S3PublicBaseURL, fc.S3PublicBaseURL)
	set(&c.S3UsePathStyle, fc.S3UsePathStyle)
	set(&c.ListLimit, fc.ListLimit)
	setDuration(&c.UploadClearDelay, fc.UploadClearDelay)
	setDuration(&c.SignedURLValidity, fc.SignedURLValidity)

	set(&c.IdentityBackend, fc.IdentityBackend)
	set(&c.AuthURL, fc.AuthURL)
	set(&c.RestURL, fc.RestURL)
	set(&c.APIKey, fc.APIKey)
	set(&c.DatabaseDSN, fc.DatabaseDSN)
	set(&c.SecretKey, fc.SecretKey)
	setDuration(&c.TokenValidity, fc.TokenValidity)
	setDuration(&c.InviteDelay, fc.InviteDelay)

	set(&c.GoogleClientID, fc.GoogleClientID)
	set(&c.GoogleClientSecret, fc.GoogleClientSecret)

	set(&c.RedisAddr, fc.RedisAddr)
	set(&c.RedisPassword, fc.RedisPassword)
	set(&c.RedisDB, fc.RedisDB)

	set(&c.DownloadDir, fc.DownloadDir)
}
