package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/codesleeps/palmers/internal/flagx"
	"github.com/codesleeps/palmers/internal/timex"
	"gopkg.in/yaml.v3"
)

// JsonConfig defines a configuration structure tailored for JSON (or YAML)
// unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing strings
// such as "15m" or "7d" as well as integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. Pointer fields distinguish "absent" from "zero" so a
// partial file only overrides what it names.
type JsonConfig struct {
	HTTPAddr              *string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN           *string         `json:"database_dsn" yaml:"database_dsn"`
	RedisURL              *string         `json:"redis_url" yaml:"redis_url"`
	SecretKey             *string         `json:"secret_key" yaml:"secret_key"`
	TokenTTL              *timex.Duration `json:"token_ttl" yaml:"token_ttl"`
	Environment           *string         `json:"environment" yaml:"environment"`
	AllowInsecureSecret   *bool           `json:"allow_insecure_secret" yaml:"allow_insecure_secret"`
	CORSOrigins           []string        `json:"cors_origins" yaml:"cors_origins"`
	LoginFailureThreshold *int            `json:"login_failure_threshold" yaml:"login_failure_threshold"`
	LoginLockoutDuration  *timex.Duration `json:"login_lockout_duration" yaml:"login_lockout_duration"`
	StoreTimeout          *timex.Duration `json:"store_timeout" yaml:"store_timeout"`
	Debug                 *bool           `json:"debug" yaml:"debug"`
}

// parseJson loads configuration values from the file named by the -c or
// -config flag into config. Files ending in .yaml or .yml are read as YAML,
// anything else as JSON. Without the flag nothing is loaded.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	switch strings.ToLower(filepath.Ext(jsonConfigFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(file, c)
	default:
		err = json.Unmarshal(file, c)
	}
	if err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.RedisURL, c.RedisURL)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.Environment, c.Environment)
	setIf(&config.AllowInsecureSecret, c.AllowInsecureSecret)
	setIf(&config.LoginFailureThreshold, c.LoginFailureThreshold)
	setIf(&config.Debug, c.Debug)

	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	if c.TokenTTL != nil {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.LoginLockoutDuration != nil {
		config.LoginLockoutDuration = c.LoginLockoutDuration.Duration
	}
	if c.StoreTimeout != nil {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
