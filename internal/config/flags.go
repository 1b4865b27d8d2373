package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/filedeck/internal/flagx"
)

// parseFlags populates the most frequently overridden fields from
// command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-u string   public site URL
//	-l string   log level (debug|info|warn|error)
//	-storage    storage backend (s3|memory)
//	-b string   S3 bucket name
//	-e string   S3 base endpoint
//	-identity   identity backend (gotrue|local)
//	-d string   PostgreSQL DSN for the local identity backend
//	-s string   HMAC secret for local tokens
//	-t duration token validity (e.g., "1h")
//	-r string   Redis address for the session store
//	-o string   download directory of the terminal client
//
// os.Args is filtered with flagx.FilterArgs first, so -c/-config and flags
// owned by other components never reach this flag set.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-u", "-l", "-storage", "-b", "-e", "-identity", "-d", "-s", "-t", "-r", "-o",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.SiteURL, "u", config.SiteURL, "public site URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.StorageBackend, "storage", config.StorageBackend, "storage backend (s3|memory)")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.IdentityBackend, "identity", config.IdentityBackend, "identity backend (gotrue|local)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.TokenValidity, "t", config.TokenValidity, "token validity")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.DownloadDir, "o", config.DownloadDir, "download directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
