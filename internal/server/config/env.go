package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/flagx"
)

const envPrefix = "VAULTBOARD_"

// parseEnv overlays VAULTBOARD_* variables. Secrets are usually supplied
// this way so they stay out of config files and process listings.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		return v, ok && v != ""
	}

	strs := map[string]*string{
		"GRPC_ADDR":         &cfg.GRPCAddr,
		"METRICS_ADDR":      &cfg.MetricsAddr,
		"DATABASE_DSN":      &cfg.DatabaseDSN,
		"JWT_SECRET":        &cfg.JWTSecret,
		"ENCRYPTION_SECRET": &cfg.EncryptionSecret,
		"ENVIRONMENT":       &cfg.Environment,
		"LOG_LEVEL":         &cfg.LogLevel,
		"S3_ROOT_USER":      &cfg.S3RootUser,
		"S3_ROOT_PASSWORD":  &cfg.S3RootPassword,
		"S3_BUCKET":         &cfg.S3Bucket,
		"S3_REGION":         &cfg.S3Region,
		"S3_BASE_ENDPOINT":  &cfg.S3BaseEndpoint,
		"KAFKA_TOPIC":       &cfg.KafkaTopic,
		"REDIS_URL":         &cfg.RedisURL,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	if v, ok := get("KAFKA_BROKERS"); ok {
		cfg.KafkaBrokers = flagx.SplitList(v)
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":     &cfg.AccessTokenTTL,
		"PRINCIPAL_CACHE_TTL":  &cfg.PrincipalCacheTTL,
		"AUDIT_FLUSH_INTERVAL": &cfg.AuditFlushInterval,
	}
	for name, dst := range durations {
		v, ok := get(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"AUDIT_BUFFER_SIZE": &cfg.AuditBufferSize,
		"AUDIT_BATCH_SIZE":  &cfg.AuditBatchSize,
	}
	for name, dst := range ints {
		v, ok := get(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}
	return nil
}
