package toolfactory

import (
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/registry"
	"github.com/effective-security/mmtools/pkg/schema"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// Result store types
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	// Runtime specifies the inference server
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	// Device specifies the default device, `cpu` if not set
	Device string `json:"device,omitempty" yaml:"device,omitempty"`
	// EcoMode moves model weights to the device only for the duration of a call
	EcoMode bool `json:"eco_mode,omitempty" yaml:"eco_mode,omitempty"`
	// Parser specifies the agent convention: naive|visual_chatgpt|huggingface
	Parser string `json:"parser,omitempty" yaml:"parser,omitempty" validate:"omitempty,oneof=naive visual_chatgpt huggingface"`
	// ResultStore specifies the optional store of tool results
	ResultStore *ResultStoreConfig `json:"result_store,omitempty" yaml:"result_store,omitempty"`
	// Tools specifies the tools exposed to the agent, with their overrides
	Tools []*registry.ToolConfig `json:"tools,omitempty" yaml:"tools,omitempty" validate:"dive"`
}

// RuntimeConfig for the inference server
type RuntimeConfig struct {
	// Endpoint is the base URL of the model server.
	// Model backed tools fail to construct if not set.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
	// Timeout of a request, e.g. `5m`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ResultStoreConfig specifies the store of tool results
type ResultStoreConfig struct {
	// Type is memory|redis
	Type string `json:"type" yaml:"type" validate:"required,oneof=memory redis"`
	// URL is the redis URL, e.g. `redis://localhost:6379/0`
	URL string `json:"url,omitempty" yaml:"url,omitempty" validate:"required_if=Type redis"`
	// Prefix of the redis keys
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// TTL of the stored results, e.g. `24h`. Results are kept forever if not set.
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// GetTTL returns the parsed TTL
func (c *ResultStoreConfig) GetTTL() (time.Duration, error) {
	return parseDuration(c.TTL)
}

// GetTimeout returns the parsed timeout
func (c *RuntimeConfig) GetTimeout() (time.Duration, error) {
	return parseDuration(c.Timeout)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration: %q", s)
	}
	return d, nil
}

// Validate returns an error if the config is invalid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if _, err := c.Runtime.GetTimeout(); err != nil {
		return err
	}
	if c.ResultStore != nil {
		if _, err := c.ResultStore.GetTTL(); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig from file
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigSchema returns the JSON schema of the configuration file
func ConfigSchema() *jsonschema.Schema {
	return schema.JSONSchema(reflect.TypeOf(Config{}))
}
