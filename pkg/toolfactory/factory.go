package toolfactory

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/inference"
	"github.com/effective-security/mmtools/pkg/inference/httpruntime"
	"github.com/effective-security/mmtools/pkg/parsers"
	"github.com/effective-security/mmtools/pkg/registry"
	"github.com/effective-security/mmtools/pkg/store"
	"github.com/effective-security/mmtools/pkg/toolmeta"
	"github.com/effective-security/mmtools/pkg/tools"
	"github.com/effective-security/mmtools/pkg/tools/builtin"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mmtools", "toolfactory")

// NewRuntime is a wrapper for CreateRuntime to allow for overriding the default implementation.
var NewRuntime = CreateRuntime

// NewResultStore is a wrapper for CreateResultStore to allow for overriding the default implementation.
var NewResultStore = CreateResultStore

// Factory is the interface for loading tools.
type Factory interface {
	// Registry returns the tool registry.
	Registry() *registry.Registry
	// List returns the names of registered tools.
	List() []string
	// Load returns a tool by its name and overrides.
	Load(ctx context.Context, name string, opts ...registry.LoadOption) (tools.Tool, error)
	// Custom registers a function as a tool.
	Custom(meta *toolmeta.ToolMeta, force bool, fn tools.ApplyFunc) error
	// AgentTools returns the configured tools, wrapped for the agent.
	// All registered tools with default parameters are returned if the config has no tools.
	AgentTools(ctx context.Context, callbacks ...tools.Callback) ([]tools.ITool, error)
}

// Load returns a factory configured by the file.
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

type factory struct {
	cfg    *Config
	reg    *registry.Registry
	cache  *registry.Cache
	parser parsers.Parser
}

// New creates a new tool factory with the built-in tools registered.
func New(cfg *Config) (Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	parser, err := parsers.ByName(cfg.Parser)
	if err != nil {
		return nil, err
	}

	rt, err := NewRuntime(&cfg.Runtime)
	if err != nil {
		return nil, err
	}

	var shared *inference.Shared
	if rt != nil {
		shared = inference.NewShared(rt)
	}

	reg := registry.New()
	if err = builtin.Register(reg, shared); err != nil {
		return nil, err
	}

	opts := []registry.CacheOption{
		registry.WithDefaultDevice(cfg.Device),
	}
	if cfg.EcoMode {
		opts = append(opts, registry.WithDefaultOptions(map[string]any{tools.OptionEcoMode: true}))
	}
	if cfg.ResultStore != nil {
		rs, err := NewResultStore(cfg.ResultStore)
		if err != nil {
			return nil, err
		}
		opts = append(opts, registry.WithResultStore(rs))
	}

	logger.KV(xlog.DEBUG,
		"status", "created_factory",
		"endpoint", cfg.Runtime.Endpoint,
		"device", cfg.Device,
		"eco_mode", cfg.EcoMode,
		"parser", parser.Name(),
		"tools", len(cfg.Tools),
	)

	return &factory{
		cfg:    cfg,
		reg:    reg,
		cache:  registry.NewCache(reg, opts...),
		parser: parser,
	}, nil
}

// CreateRuntime returns the HTTP runtime for the endpoint,
// or nil if the endpoint is not configured.
func CreateRuntime(cfg *RuntimeConfig) (inference.Runtime, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	timeout, err := cfg.GetTimeout()
	if err != nil {
		return nil, err
	}
	rt, err := httpruntime.New(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		rt = rt.WithHTTPClient(&http.Client{Timeout: timeout})
	}
	if cfg.Token != "" {
		rt = rt.WithToken(cfg.Token)
	}
	return rt, nil
}

// CreateResultStore returns the store of tool results.
func CreateResultStore(cfg *ResultStoreConfig) (store.ResultStore, error) {
	ttl, err := cfg.GetTTL()
	if err != nil {
		return nil, err
	}
	switch cfg.Type {
	case StoreMemory:
		return store.NewMemoryStore(ttl), nil
	case StoreRedis:
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, errors.Wrap(err, "invalid redis URL")
		}
		return store.NewRedisStore(redis.NewClient(opts), cfg.Prefix, ttl), nil
	}
	return nil, errors.Errorf("unsupported result store type: %s", cfg.Type)
}

func (f *factory) Registry() *registry.Registry {
	return f.reg
}

func (f *factory) List() []string {
	return f.reg.List()
}

func (f *factory) Load(ctx context.Context, name string, opts ...registry.LoadOption) (tools.Tool, error) {
	return f.cache.Load(ctx, name, opts...)
}

func (f *factory) Custom(meta *toolmeta.ToolMeta, force bool, fn tools.ApplyFunc) error {
	_, err := registry.CustomTool(f.reg, meta, force)(fn)
	return err
}

func (f *factory) AgentTools(ctx context.Context, callbacks ...tools.Callback) ([]tools.ITool, error) {
	list := f.cfg.Tools
	if len(list) == 0 {
		for _, name := range f.reg.List() {
			list = append(list, &registry.ToolConfig{Name: name})
		}
	}

	loaded, err := f.cache.Preload(ctx, list)
	if err != nil {
		return nil, err
	}

	res := make([]tools.ITool, 0, len(loaded))
	for _, tool := range loaded {
		res = append(res, tools.NewAgentTool(tool, f.parser, callbacks...))
	}
	return res, nil
}
