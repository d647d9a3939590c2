package tools

import (
	"context"

	"github.com/effective-security/mmtools/pkg/fingerprint"
	"github.com/effective-security/mmtools/pkg/metricskey"
	"github.com/effective-security/mmtools/pkg/store"
	"github.com/effective-security/mmtools/pkg/toolmeta"
	"github.com/effective-security/xlog"
)

// Cacheable is implemented by tools that report whether results
// of the same inputs can be reused.
type Cacheable interface {
	Cacheable() bool
}

// IsCacheable returns true if the tool implements Cacheable and allows reuse.
// Tools that do not implement it are not memoized.
func IsCacheable(tool Tool) bool {
	c, ok := tool.(Cacheable)
	return ok && c.Cacheable()
}

// MemoTool reuses results of previous calls with the same inputs.
// Results are keyed by the fingerprint of the tool configuration and the inputs.
type MemoTool struct {
	tool        Tool
	fingerprint string
	store       store.ResultStore
}

var _ Tool = (*MemoTool)(nil)

// NewMemoTool wraps the tool with the result store.
func NewMemoTool(tool Tool, fingerprint string, store store.ResultStore) *MemoTool {
	return &MemoTool{
		tool:        tool,
		fingerprint: fingerprint,
		store:       store,
	}
}

// Unwrap returns the underlying tool.
func (t *MemoTool) Unwrap() Tool {
	return t.tool
}

func (t *MemoTool) Meta() *toolmeta.ToolMeta {
	return t.tool.Meta()
}

func (t *MemoTool) Setup(ctx context.Context) error {
	return t.tool.Setup(ctx)
}

func (t *MemoTool) Apply(ctx context.Context, inputs ...string) (string, error) {
	key, err := fingerprint.Of(struct {
		Tool   string
		Inputs []string
	}{t.fingerprint, inputs})
	if err != nil {
		return "", err
	}

	name := t.tool.Meta().ToolName
	if res, ok, err := t.store.Get(ctx, key); err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "store_get",
			"tool", name,
			"err", err.Error(),
		)
	} else if ok {
		metricskey.StatsToolResultsReused.IncrCounter(1, name)
		return res, nil
	}

	res, err := t.tool.Apply(ctx, inputs...)
	if err != nil {
		return "", err
	}
	if err := t.store.Put(ctx, key, res); err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "store_put",
			"tool", name,
			"err", err.Error(),
		)
	}
	return res, nil
}
