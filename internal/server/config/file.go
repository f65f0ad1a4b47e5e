package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/peermail/internal/flagx"
	"github.com/dmitrijs2005/peermail/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for file decoding. Durations use timex.Duration
// so both "15s" and integer nanoseconds are accepted. Only keys present in
// the file override the current values.
type FileConfig struct {
	EndpointAddr                *string         `json:"endpoint_addr" yaml:"endpoint_addr"`
	Domain                      *string         `json:"domain" yaml:"domain"`
	BasePath                    *string         `json:"base_path" yaml:"base_path"`
	PeerScheme                  *string         `json:"peer_scheme" yaml:"peer_scheme"`
	TLSCertFile                 *string         `json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile                  *string         `json:"tls_key_file" yaml:"tls_key_file"`
	DatabaseDSN                 *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	OutboxRetention             *timex.Duration `json:"outbox_retention" yaml:"outbox_retention"`
	SweepInterval               *timex.Duration `json:"sweep_interval" yaml:"sweep_interval"`
	LogLevel                    *string         `json:"log_level" yaml:"log_level"`
	S3RootUser                  *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads the file named by -c/-config, if any, and overlays it onto
// config. Files ending in .yaml or .yml are decoded as YAML, everything else
// as JSON. Unreadable or invalid files panic: the server must not start with
// a half-applied configuration.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddr, fc.EndpointAddr)
	setString(&c.Domain, fc.Domain)
	setString(&c.BasePath, fc.BasePath)
	setString(&c.PeerScheme, fc.PeerScheme)
	setString(&c.TLSCertFile, fc.TLSCertFile)
	setString(&c.TLSKeyFile, fc.TLSKeyFile)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)

	if fc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.OutboxRetention != nil {
		c.OutboxRetention = fc.OutboxRetention.Duration
	}
	if fc.SweepInterval != nil {
		c.SweepInterval = fc.SweepInterval.Duration
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
