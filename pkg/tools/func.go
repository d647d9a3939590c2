package tools

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/toolmeta"
)

// FuncTool adapts a plain function to the Tool interface.
// Its Setup is a no-op.
type FuncTool struct {
	meta *toolmeta.ToolMeta
	fn   ApplyFunc
}

var _ Tool = (*FuncTool)(nil)

// NewFuncTool returns a tool that calls fn.
func NewFuncTool(meta *toolmeta.ToolMeta, fn ApplyFunc) (*FuncTool, error) {
	if fn == nil {
		return nil, errors.Errorf("function is nil for tool %q", meta.ToolName)
	}
	return &FuncTool{
		meta: meta.Clone(),
		fn:   fn,
	}, nil
}

func (t *FuncTool) Meta() *toolmeta.ToolMeta {
	return t.meta.Clone()
}

func (t *FuncTool) Setup(context.Context) error {
	return nil
}

func (t *FuncTool) Apply(ctx context.Context, inputs ...string) (string, error) {
	return t.fn(ctx, inputs...)
}
