// Package config loads server configuration from RESPECTLED_* environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     string `env:"RESPECTLED_PORT" envDefault:"8080"`
	DBPath   string `env:"RESPECTLED_DB_PATH" envDefault:"respectled.db"`
	LogLevel string `env:"RESPECTLED_LOG_LEVEL" envDefault:"info"`

	// Web push. Both keys must be set for notifications to go out; generate a
	// pair with `respectled -generate-vapid-keys`.
	VAPIDPublicKey  string `env:"RESPECTLED_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"RESPECTLED_VAPID_PRIVATE_KEY"`

	// Optional image host for shop item pictures.
	ImageHostURL string `env:"RESPECTLED_IMAGE_HOST_URL"`
	ImageHostKey string `env:"RESPECTLED_IMAGE_HOST_KEY"`

	// Encrypted off-site backups to S3-compatible storage. Backups stay off
	// until every S3 field plus the passphrase is set.
	BackupEndpoint   string        `env:"RESPECTLED_BACKUP_S3_ENDPOINT"`
	BackupBucket     string        `env:"RESPECTLED_BACKUP_S3_BUCKET"`
	BackupRegion     string        `env:"RESPECTLED_BACKUP_S3_REGION" envDefault:"auto"`
	BackupAccessKey  string        `env:"RESPECTLED_BACKUP_S3_ACCESS_KEY"`
	BackupSecretKey  string        `env:"RESPECTLED_BACKUP_S3_SECRET_KEY"`
	BackupPassphrase string        `env:"RESPECTLED_BACKUP_PASSPHRASE"`
	BackupInterval   time.Duration `env:"RESPECTLED_BACKUP_INTERVAL" envDefault:"24h"`
	BackupRetention  int           `env:"RESPECTLED_BACKUP_RETENTION_DAYS" envDefault:"30"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
