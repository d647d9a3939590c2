package registry

import (
	"github.com/effective-security/mmtools/pkg/store"
	"github.com/effective-security/mmtools/pkg/tools"
)

// LoadOption overrides the default parameters of a tool.
type LoadOption interface {
	apply(*loadOptions)
}

type loadOptions struct {
	model             any
	description       string
	inputDescription  string
	outputDescription string
	device            string
	options           tools.Options
}

type loadOption struct {
	applyFunc func(*loadOptions)
}

func (o loadOption) apply(opts *loadOptions) {
	o.applyFunc(opts)
}

// WithModel overrides the model, either a name or a structured config.
// Empty value keeps the default.
func WithModel(model any) LoadOption {
	return loadOption{func(o *loadOptions) {
		o.model = model
	}}
}

// WithDescription overrides the description.
func WithDescription(description string) LoadOption {
	return loadOption{func(o *loadOptions) {
		o.description = description
	}}
}

// WithInputDescription overrides the input description.
func WithInputDescription(description string) LoadOption {
	return loadOption{func(o *loadOptions) {
		o.inputDescription = description
	}}
}

// WithOutputDescription overrides the output description.
func WithOutputDescription(description string) LoadOption {
	return loadOption{func(o *loadOptions) {
		o.outputDescription = description
	}}
}

// WithDevice sets the device, the cache default if empty.
func WithDevice(device string) LoadOption {
	return loadOption{func(o *loadOptions) {
		o.device = device
	}}
}

// WithOptions adds construction options.
func WithOptions(opts map[string]any) LoadOption {
	return loadOption{func(o *loadOptions) {
		for k, v := range opts {
			o.options[k] = v
		}
	}}
}

// WithOption adds a construction option.
func WithOption(key string, value any) LoadOption {
	return loadOption{func(o *loadOptions) {
		o.options[key] = value
	}}
}

// CacheOption configures the Cache.
type CacheOption interface {
	apply(*Cache)
}

type cacheOption struct {
	applyFunc func(*Cache)
}

func (o cacheOption) apply(c *Cache) {
	o.applyFunc(c)
}

// WithResultStore reuses tool results from the store.
func WithResultStore(s store.ResultStore) CacheOption {
	return cacheOption{func(c *Cache) {
		c.store = s
	}}
}

// WithDefaultDevice sets the device for loads that do not specify one.
func WithDefaultDevice(device string) CacheOption {
	return cacheOption{func(c *Cache) {
		if device != "" {
			c.defaultDevice = device
		}
	}}
}

// WithDefaultOptions sets construction options applied to every load,
// overridden by the options of the load.
func WithDefaultOptions(opts map[string]any) CacheOption {
	return cacheOption{func(c *Cache) {
		c.defaultOptions = tools.Options(opts).Clone()
	}}
}

