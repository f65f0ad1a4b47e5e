package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/peermail/internal/flagx"
)

var knownFlags = []string{
	"-a", "-n", "-x", "-m", "-tls-cert", "-tls-key", "-d", "-s", "-t", "-o", "-w", "-l",
	"-u", "-p", "-b", "-g", "-e",
}

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-n string     local domain
//	-x string     endpoint base path (e.g. "/api")
//	-m string     scheme used to reach peers ("https" or "http")
//	-tls-cert     TLS certificate file
//	-tls-key      TLS key file
//	-d string     PostgreSQL DSN or "memory"
//	-s string     setup token HMAC secret
//	-t int        setup token validity, minutes
//	-o int        outbox retention, minutes
//	-w int        sweep interval, seconds
//	-l string     log level
//	-u/-p/-b/-g/-e  S3 user, password, bucket, region, base endpoint
//
// Only the flags above are looked at (see flagx.FilterArgs), so -c/-config
// and foreign flags do not cause parse errors.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.Domain, "n", config.Domain, "local domain")
	fs.StringVar(&config.BasePath, "x", config.BasePath, "endpoint base path")
	fs.StringVar(&config.PeerScheme, "m", config.PeerScheme, "peer scheme")
	fs.StringVar(&config.TLSCertFile, "tls-cert", config.TLSCertFile, "TLS certificate file")
	fs.StringVar(&config.TLSKeyFile, "tls-key", config.TLSKeyFile, "TLS key file")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "setup token validity (in minutes)")
	outboxRetention := fs.Int("o", int(config.OutboxRetention.Minutes()), "outbox retention (in minutes)")
	sweepInterval := fs.Int("w", int(config.SweepInterval.Seconds()), "sweep interval (in seconds)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 archive bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.OutboxRetention = time.Duration(*outboxRetention) * time.Minute
	config.SweepInterval = time.Duration(*sweepInterval) * time.Second
}
