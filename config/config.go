// Package config loads the client settings from a YAML file with AFIP_*
// environment overrides.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/layer-3/afip/core"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ServiceWSFE is the only WSAA service whose tickets WSFE accepts.
const ServiceWSFE = "wsfe"

// Ticket store backends.
const (
	StoreFile       = "file"
	StoreLockedFile = "locked_file"
	StoreRedis      = "redis"
	StoreMemory     = "memory"
)

type Config struct {
	WSDLWSAA       string `yaml:"wsdl_wsaa"`
	WSDLWSFE       string `yaml:"wsdl_wsfe"`
	TAFile         string `yaml:"ta_file"`
	PrivateKeyFile string `yaml:"private_key_file"`
	CrtFile        string `yaml:"crt_file"`
	KeyPhrase      string `yaml:"key_phrase"`
	Cuit           int64  `yaml:"cuit"`
	SellPoint      int    `yaml:"sell_point"`
	Service        string `yaml:"service"`
	ProxyHost      string `yaml:"proxy_host"`
	ProxyPort      int    `yaml:"proxy_port"`

	TicketStore   string        `yaml:"ticket_store"`
	RedisURL      string        `yaml:"redis_url"`
	PublishEvents bool          `yaml:"publish_events"`
	HTTPAddr      string        `yaml:"http_addr"`
	APIToken      string        `yaml:"api_token"`
	Timeout       time.Duration `yaml:"timeout"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
}

// Default returns the settings used for keys absent from file and env.
func Default() Config {
	return Config{
		Service:     ServiceWSFE,
		TicketStore: StoreFile,
		RedisURL:    "redis://localhost:6379/0",
		HTTPAddr:    ":9000",
		Timeout:     30 * time.Second,
		LogLevel:    "info",
		LogFormat:   "console",
	}
}

// Load reads path (optional) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(core.ErrConfig, "read %s: %v", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(core.ErrConfig, "parse %s: %v", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.WSDLWSAA = getenv("AFIP_WSDL_WSAA", c.WSDLWSAA)
	c.WSDLWSFE = getenv("AFIP_WSDL_WSFE", c.WSDLWSFE)
	c.TAFile = getenv("AFIP_TA_FILE", c.TAFile)
	c.PrivateKeyFile = getenv("AFIP_PRIVATE_KEY_FILE", c.PrivateKeyFile)
	c.CrtFile = getenv("AFIP_CRT_FILE", c.CrtFile)
	c.KeyPhrase = getenv("AFIP_KEY_PHRASE", c.KeyPhrase)
	c.Service = getenv("AFIP_SERVICE", c.Service)
	c.ProxyHost = getenv("AFIP_PROXY_HOST", c.ProxyHost)
	c.TicketStore = getenv("AFIP_TICKET_STORE", c.TicketStore)
	c.RedisURL = getenv("AFIP_REDIS_URL", c.RedisURL)
	c.HTTPAddr = getenv("AFIP_HTTP_ADDR", c.HTTPAddr)
	c.APIToken = getenv("AFIP_API_TOKEN", c.APIToken)
	c.LogLevel = getenv("AFIP_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenv("AFIP_LOG_FORMAT", c.LogFormat)

	var err error
	if v := os.Getenv("AFIP_CUIT"); v != "" {
		if c.Cuit, err = strconv.ParseInt(v, 10, 64); err != nil {
			return errors.Wrap(core.ErrConfig, "AFIP_CUIT must be numeric")
		}
	}
	if v := os.Getenv("AFIP_SELL_POINT"); v != "" {
		if c.SellPoint, err = strconv.Atoi(v); err != nil {
			return errors.Wrap(core.ErrConfig, "AFIP_SELL_POINT must be numeric")
		}
	}
	if v := os.Getenv("AFIP_PROXY_PORT"); v != "" {
		if c.ProxyPort, err = strconv.Atoi(v); err != nil {
			return errors.Wrap(core.ErrConfig, "AFIP_PROXY_PORT must be numeric")
		}
	}
	if v := os.Getenv("AFIP_TIMEOUT"); v != "" {
		if c.Timeout, err = time.ParseDuration(v); err != nil {
			return errors.Wrap(core.ErrConfig, "AFIP_TIMEOUT must be a duration")
		}
	}
	if v := os.Getenv("AFIP_PUBLISH_EVENTS"); v != "" {
		c.PublishEvents = strings.EqualFold(v, "true") || v == "1"
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"wsdl_wsaa", c.WSDLWSAA},
		{"wsdl_wsfe", c.WSDLWSFE},
		{"private_key_file", c.PrivateKeyFile},
		{"crt_file", c.CrtFile},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.Wrapf(core.ErrConfig, "%s is required", r.key)
		}
	}
	if c.Cuit <= 0 {
		return errors.Wrap(core.ErrConfig, "cuit is required")
	}
	if c.SellPoint <= 0 {
		return errors.Wrap(core.ErrConfig, "sell_point is required")
	}
	if c.Service != ServiceWSFE {
		return errors.Wrapf(core.ErrConfig, "service must be %q, got %q", ServiceWSFE, c.Service)
	}
	if c.ProxyHost != "" && c.ProxyPort <= 0 {
		return errors.Wrap(core.ErrConfig, "proxy_port is required with proxy_host")
	}

	switch c.TicketStore {
	case StoreFile, StoreLockedFile:
		if c.TAFile == "" {
			return errors.Wrap(core.ErrConfig, "ta_file is required")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.Wrap(core.ErrConfig, "redis_url is required")
		}
	case StoreMemory:
	default:
		return errors.Wrapf(core.ErrConfig, "unknown ticket_store %q", c.TicketStore)
	}
	if c.PublishEvents && c.RedisURL == "" {
		return errors.Wrap(core.ErrConfig, "redis_url is required to publish events")
	}
	return nil
}
