package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ShubhamGupta2412/vaultboard/internal/flagx"
	"github.com/ShubhamGupta2412/vaultboard/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// both "15m" and a number of seconds. Absent fields keep earlier values.
type JsonConfig struct {
	GRPCAddr           string         `json:"grpc_addr"`
	MetricsAddr        string         `json:"metrics_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	JWTSecret          string         `json:"jwt_secret"`
	EncryptionSecret   string         `json:"encryption_secret"`
	Environment        string         `json:"environment"`
	LogLevel           string         `json:"log_level"`
	AccessTokenTTL     timex.Duration `json:"access_token_ttl"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	KafkaBrokers       []string       `json:"kafka_brokers"`
	KafkaTopic         string         `json:"kafka_topic"`
	RedisURL           string         `json:"redis_url"`
	PrincipalCacheTTL  timex.Duration `json:"principal_cache_ttl"`
	AuditBufferSize    int            `json:"audit_buffer_size"`
	AuditBatchSize     int            `json:"audit_batch_size"`
	AuditFlushInterval timex.Duration `json:"audit_flush_interval"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var c JsonConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.GRPCAddr, c.GRPCAddr)
	setString(&cfg.MetricsAddr, c.MetricsAddr)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.JWTSecret, c.JWTSecret)
	setString(&cfg.EncryptionSecret, c.EncryptionSecret)
	setString(&cfg.Environment, c.Environment)
	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.S3RootUser, c.S3RootUser)
	setString(&cfg.S3RootPassword, c.S3RootPassword)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&cfg.KafkaTopic, c.KafkaTopic)
	setString(&cfg.RedisURL, c.RedisURL)
	if len(c.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = c.KafkaBrokers
	}
	if c.AccessTokenTTL.Duration > 0 {
		cfg.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.PrincipalCacheTTL.Duration > 0 {
		cfg.PrincipalCacheTTL = c.PrincipalCacheTTL.Duration
	}
	if c.AuditFlushInterval.Duration > 0 {
		cfg.AuditFlushInterval = c.AuditFlushInterval.Duration
	}
	if c.AuditBufferSize > 0 {
		cfg.AuditBufferSize = c.AuditBufferSize
	}
	if c.AuditBatchSize > 0 {
		cfg.AuditBatchSize = c.AuditBatchSize
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
