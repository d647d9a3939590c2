package registry

import (
	"context"
	"sync"

	"github.com/effective-security/mmtools/pkg/toolmeta"
	"github.com/effective-security/mmtools/pkg/tools"
	"github.com/effective-security/xlog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mmtools", "registry")

// Registry maps tool names to descriptors.
// Entries are never removed, and names are listed in the registration order.
type Registry struct {
	lock        sync.RWMutex
	descriptors *orderedmap.OrderedMap[string, *Descriptor]
	revisions   map[string]uint64
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		descriptors: orderedmap.New[string, *Descriptor](),
		revisions:   make(map[string]uint64),
	}
}

// Register adds the tool descriptor.
// It fails with DuplicateNameError if the name exists, unless overwrite is true.
func (r *Registry) Register(desc *Descriptor, overwrite bool) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.descriptors.Get(desc.Name); ok && !overwrite {
		return &DuplicateNameError{Name: desc.Name}
	}

	d := desc.clone()
	r.revisions[d.Name]++
	d.revision = r.revisions[d.Name]
	r.descriptors.Set(d.Name, d)

	logger.KV(xlog.DEBUG,
		"status", "registered",
		"tool", d.Name,
		"kind", d.Kind.String(),
		"revision", d.revision,
	)
	return nil
}

// List returns the names of registered tools in the registration order.
func (r *Registry) List() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	names := make([]string, 0, r.descriptors.Len())
	for pair := r.descriptors.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Lookup returns a copy of the descriptor,
// or UnknownToolError that enumerates all registered names.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	r.lock.RLock()
	d, ok := r.descriptors.Get(name)
	r.lock.RUnlock()

	if !ok {
		return nil, &UnknownToolError{Name: name, Valid: r.List()}
	}
	return d.clone(), nil
}

// Descriptors returns copies of all descriptors in the registration order.
func (r *Registry) Descriptors() []*Descriptor {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*Descriptor, 0, r.descriptors.Len())
	for pair := r.descriptors.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, pair.Value.clone())
	}
	return list
}

// Custom registers a function as a tool named after the tool name.
// With force, an existing tool of the same name is replaced.
func (r *Registry) Custom(fn tools.ApplyFunc, name, description, inputDescription, outputDescription string, force bool) error {
	return r.Register(&Descriptor{
		Name: name,
		DefaultMeta: toolmeta.ToolMeta{
			ToolName:          name,
			Description:       description,
			InputDescription:  inputDescription,
			OutputDescription: outputDescription,
		},
		Kind: KindFunction,
		Func: fn,
	}, force)
}

// CustomTool returns a function that registers fn as a tool with the meta,
// and returns fn unchanged.
//
//	caption, err := registry.CustomTool(reg, meta, false)(func(ctx context.Context, inputs ...string) (string, error) {
//		...
//	})
func CustomTool(reg *Registry, meta *toolmeta.ToolMeta, force bool) func(fn tools.ApplyFunc) (tools.ApplyFunc, error) {
	return func(fn tools.ApplyFunc) (tools.ApplyFunc, error) {
		if meta == nil {
			return nil, (*toolmeta.ToolMeta)(nil).Validate()
		}
		if err := reg.Custom(fn, meta.ToolName, meta.Description, meta.InputDescription, meta.OutputDescription, force); err != nil {
			return nil, err
		}
		return fn, nil
	}
}

// Func is a convenience adapter of a function without context.
func Func(fn func(inputs ...string) (string, error)) tools.ApplyFunc {
	return func(_ context.Context, inputs ...string) (string, error) {
		return fn(inputs...)
	}
}
