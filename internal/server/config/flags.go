package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/flagx"
)

var serverFlags = []string{"-a", "-m", "-d", "-s", "-k", "-n", "-l", "-t", "-u", "-p", "-b", "-g", "-e", "-q", "-o", "-r"}

// parseFlags overlays the short flags below. Unrelated arguments are
// filtered out first so other components can own their own flags.
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-m string   ops HTTP bind address serving /metrics and /healthz
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret
//	-k string   content encryption secret
//	-n string   environment (development, test, production)
//	-l string   log level
//	-t int      access token validity, minutes
//	-u/-p/-b/-g/-e  S3 user, password, bucket, region, endpoint
//	-q list     Kafka brokers, comma separated
//	-o string   Kafka topic
//	-r string   Redis URL
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("vaultboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.GRPCAddr, "a", cfg.GRPCAddr, "gRPC bind address")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "ops HTTP bind address")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "JWT secret")
	fs.StringVar(&cfg.EncryptionSecret, "k", cfg.EncryptionSecret, "encryption secret")
	fs.StringVar(&cfg.Environment, "n", cfg.Environment, "environment")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	tokenMinutes := fs.Int("t", int(cfg.AccessTokenTTL.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")

	brokers := flagx.StringList(cfg.KafkaBrokers)
	fs.Var(&brokers, "q", "Kafka brokers")
	fs.StringVar(&cfg.KafkaTopic, "o", cfg.KafkaTopic, "Kafka topic")
	fs.StringVar(&cfg.RedisURL, "r", cfg.RedisURL, "Redis URL")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.AccessTokenTTL = time.Duration(*tokenMinutes) * time.Minute
		}
	})
	cfg.KafkaBrokers = []string(brokers)
	return nil
}
