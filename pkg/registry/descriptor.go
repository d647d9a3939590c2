package registry

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/toolmeta"
	"github.com/effective-security/mmtools/pkg/tools"
)

// Kind is how a tool is implemented.
type Kind int

const (
	// KindObject is a stateful tool built by a Constructor
	KindObject Kind = iota
	// KindFunction is a plain function
	KindFunction
)

func (k Kind) String() string {
	if k == KindFunction {
		return "function"
	}
	return "object"
}

// Constructor builds a tool instance.
// The options are free-form, tools ignore the ones they do not know.
type Constructor func(ctx context.Context, meta *toolmeta.ToolMeta, device string, opts tools.Options) (tools.Tool, error)

// Descriptor describes a registered tool.
type Descriptor struct {
	// Name is the unique registry key.
	Name string
	// DefaultMeta is the metadata used when a load does not override it.
	DefaultMeta toolmeta.ToolMeta
	// Kind is the implementation kind.
	Kind Kind
	// New builds an instance of KindObject tools.
	New Constructor
	// Func implements KindFunction tools.
	Func tools.ApplyFunc

	revision uint64
}

// Revision is incremented every time the name is registered again with overwrite.
func (d *Descriptor) Revision() uint64 {
	return d.revision
}

// Validate returns an error if the descriptor can not be registered.
func (d *Descriptor) Validate() error {
	if d == nil {
		return errors.New("descriptor is nil")
	}
	if d.Name == "" {
		return errors.New("tool name is required")
	}
	if err := d.DefaultMeta.Validate(); err != nil {
		return err
	}
	if d.DefaultMeta.ToolName != d.Name {
		return errors.Errorf("tool name %q does not match descriptor %q", d.DefaultMeta.ToolName, d.Name)
	}
	switch d.Kind {
	case KindObject:
		if d.New == nil {
			return errors.Errorf("constructor is not specified for tool %q", d.Name)
		}
	case KindFunction:
		if d.Func == nil {
			return errors.Errorf("function is not specified for tool %q", d.Name)
		}
	default:
		return errors.Errorf("unsupported kind %d for tool %q", d.Kind, d.Name)
	}
	return nil
}

func (d *Descriptor) clone() *Descriptor {
	c := *d
	c.DefaultMeta = *d.DefaultMeta.Clone()
	return &c
}

// construct returns a tool for the meta.
// Function tools are attached the meta, object tools are built and set up.
func (d *Descriptor) construct(ctx context.Context, meta *toolmeta.ToolMeta, device string, opts tools.Options) (tools.Tool, error) {
	if d.Kind == KindFunction {
		return tools.NewFuncTool(meta, d.Func)
	}

	tool, err := d.New(ctx, meta, device, opts)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, errors.Errorf("constructor returned nil for tool %q", d.Name)
	}
	if err = tool.Setup(ctx); err != nil {
		return nil, err
	}
	return tool, nil
}
