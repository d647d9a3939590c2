package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/fingerprint"
	"github.com/effective-security/mmtools/pkg/inference"
	"github.com/effective-security/mmtools/pkg/metricskey"
	"github.com/effective-security/mmtools/pkg/store"
	"github.com/effective-security/mmtools/pkg/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

// CacheKey is the set of parameters that identify a tool instance.
type CacheKey struct {
	ToolName          string         `json:"tool_name"`
	Revision          uint64         `json:"revision"`
	Model             any            `json:"model"`
	Description       string         `json:"description"`
	InputDescription  string         `json:"input_description"`
	OutputDescription string         `json:"output_description"`
	Device            string         `json:"device"`
	Options           map[string]any `json:"options"`
}

// Canonical returns the serialization of the key
// with options sorted by key at every depth.
func (k *CacheKey) Canonical() (string, error) {
	bs, err := fingerprint.Canonical(k)
	if err != nil {
		return "", errors.WithMessagef(err, "invalid parameters for tool %q", k.ToolName)
	}
	return string(bs), nil
}

// Cache constructs tools on demand and keeps them for the process lifetime.
type Cache struct {
	reg            *Registry
	store          store.ResultStore
	defaultDevice  string
	defaultOptions tools.Options

	lock    sync.Mutex
	entries map[string]*cacheEntry
}

// cacheEntry holds the instances of one tool name.
// Its lock guards the check, construct and insert sequence.
type cacheEntry struct {
	lock      sync.Mutex
	revision  uint64
	instances []*instance
}

type instance struct {
	key         string
	fingerprint string
	tool        tools.Tool
}

// NewCache returns a cache of tools from the registry.
func NewCache(reg *Registry, opts ...CacheOption) *Cache {
	c := &Cache{
		reg:            reg,
		defaultDevice:  inference.DeviceCPU,
		defaultOptions: tools.Options{},
		entries:        make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}

// Registry returns the registry of the cache.
func (c *Cache) Registry() *Registry {
	return c.reg
}

func (c *Cache) entry(name string) *cacheEntry {
	c.lock.Lock()
	defer c.lock.Unlock()
	e, ok := c.entries[name]
	if !ok {
		e = new(cacheEntry)
		c.entries[name] = e
	}
	return e
}

// Load returns the tool instance for the name and parameters.
//
// Parameters not specified by options use the defaults of the tool.
// Identical parameters return the same instance. A new instance is
// constructed and set up otherwise, and the Nth distinct instance of
// the tool is displayed as "{name} {N}".
// Construction failures are returned as ConstructionError and not cached.
func (c *Cache) Load(ctx context.Context, name string, opts ...LoadOption) (tools.Tool, error) {
	metricskey.StatsToolLoads.IncrCounter(1, name)

	desc, err := c.reg.Lookup(name)
	if err != nil {
		metricskey.StatsToolNotFound.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.DEBUG, "reason", "not_found", "tool", name)
		return nil, err
	}

	lo := &loadOptions{options: c.defaultOptions.Clone()}
	for _, opt := range opts {
		opt.apply(lo)
	}

	e := c.entry(name)
	e.lock.Lock()
	defer e.lock.Unlock()

	if desc.revision < e.revision {
		// replaced while waiting for the lock
		if desc, err = c.reg.Lookup(name); err != nil {
			return nil, err
		}
	}
	if desc.revision != e.revision {
		if len(e.instances) > 0 {
			logger.ContextKV(ctx, xlog.INFO,
				"status", "dropped_instances",
				"tool", name,
				"count", len(e.instances),
				"revision", desc.revision,
			)
		}
		e.instances = nil
		e.revision = desc.revision
	}

	meta := desc.DefaultMeta.Clone()
	if !isEmptyModel(lo.model) {
		meta.Model = lo.model
	}
	meta.Description = values.StringsCoalesce(lo.description, meta.Description)
	meta.InputDescription = values.StringsCoalesce(lo.inputDescription, meta.InputDescription)
	meta.OutputDescription = values.StringsCoalesce(lo.outputDescription, meta.OutputDescription)
	device := values.StringsCoalesce(lo.device, c.defaultDevice)

	ck := &CacheKey{
		ToolName:          name,
		Revision:          desc.revision,
		Model:             meta.Model,
		Description:       meta.Description,
		InputDescription:  meta.InputDescription,
		OutputDescription: meta.OutputDescription,
		Device:            device,
		Options:           lo.options,
	}
	key, err := ck.Canonical()
	if err != nil {
		return nil, err
	}

	for _, inst := range e.instances {
		if inst.key == key {
			metricskey.StatsToolCacheHits.IncrCounter(1, name)
			return inst.tool, nil
		}
	}

	if n := len(e.instances) + 1; n > 1 {
		meta.ToolName = fmt.Sprintf("%s %d", name, n)
	}

	started := time.Now()
	tool, err := desc.construct(ctx, meta, device, lo.options.Clone())
	if err != nil {
		metricskey.StatsToolConstructionFailed.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "construct",
			"tool", name,
			"model", meta.ModelName(),
			"device", device,
			"err", err.Error(),
		)
		return nil, &ConstructionError{Name: name, Err: err}
	}

	fp := fingerprint.Sum([]byte(key))
	if c.store != nil && tools.IsCacheable(tool) {
		tool = tools.NewMemoTool(tool, fp, c.store)
	}
	e.instances = append(e.instances, &instance{
		key:         key,
		fingerprint: fp,
		tool:        tool,
	})

	metricskey.StatsToolsConstructed.IncrCounter(1, name)
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "constructed",
		"tool", name,
		"display_name", meta.ToolName,
		"kind", desc.Kind.String(),
		"model", meta.ModelName(),
		"device", device,
		"fingerprint", fp,
		"elapsed", time.Since(started).String(),
	)
	return tool, nil
}

// Instances returns the cached instances of the tool, in construction order.
func (c *Cache) Instances(name string) []tools.Tool {
	e := c.entry(name)
	e.lock.Lock()
	defer e.lock.Unlock()

	list := make([]tools.Tool, 0, len(e.instances))
	for _, inst := range e.instances {
		list = append(list, inst.tool)
	}
	return list
}

// Fingerprint returns the fingerprint of the parameters the tool was loaded with.
func (c *Cache) Fingerprint(tool tools.Tool) (string, bool) {
	c.lock.Lock()
	entries := make([]*cacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.lock.Unlock()

	for _, e := range entries {
		e.lock.Lock()
		for _, inst := range e.instances {
			if inst.tool == tool {
				e.lock.Unlock()
				return inst.fingerprint, true
			}
		}
		e.lock.Unlock()
	}
	return "", false
}

// ToolConfig specifies a tool to load.
type ToolConfig struct {
	// Name is the registered tool name.
	Name string `json:"name" yaml:"name" validate:"required"`
	// Model overrides the default model, a name or a structured config.
	Model any `json:"model,omitempty" yaml:"model,omitempty"`
	// Description overrides the default description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// InputDescription overrides the default input description.
	InputDescription string `json:"input_description,omitempty" yaml:"input_description,omitempty"`
	// OutputDescription overrides the default output description.
	OutputDescription string `json:"output_description,omitempty" yaml:"output_description,omitempty"`
	// Device overrides the default device.
	Device string `json:"device,omitempty" yaml:"device,omitempty"`
	// Options are construction options.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// LoadOptions returns the load options for the config.
func (tc *ToolConfig) LoadOptions() []LoadOption {
	return []LoadOption{
		WithModel(tc.Model),
		WithDescription(tc.Description),
		WithInputDescription(tc.InputDescription),
		WithOutputDescription(tc.OutputDescription),
		WithDevice(tc.Device),
		WithOptions(tc.Options),
	}
}

// Preload loads all tools in the list, and stops on the first error.
func (c *Cache) Preload(ctx context.Context, list []*ToolConfig) ([]tools.Tool, error) {
	res := make([]tools.Tool, 0, len(list))
	for _, tc := range list {
		tool, err := c.Load(ctx, tc.Name, tc.LoadOptions()...)
		if err != nil {
			return nil, err
		}
		res = append(res, tool)
	}
	return res, nil
}

func isEmptyModel(m any) bool {
	switch v := m.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case map[string]any:
		return len(v) == 0
	}
	return false
}
