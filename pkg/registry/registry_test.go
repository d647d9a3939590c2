package registry_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/registry"
	"github.com/effective-security/mmtools/pkg/toolmeta"
	"github.com/effective-security/mmtools/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	*tools.BaseTool
	opts   tools.Options
	setups atomic.Int32
	fail   error
}

func (f *fakeTool) Setup(ctx context.Context) error {
	return f.Once(ctx, func(context.Context) error {
		f.setups.Add(1)
		return f.fail
	})
}

func (f *fakeTool) Cacheable() bool {
	return true
}

func (f *fakeTool) Apply(_ context.Context, inputs ...string) (string, error) {
	return f.Meta().ModelName() + ":" + inputs[0], nil
}

type counter struct {
	constructed atomic.Int32
	fail        error
}

func (c *counter) New(_ context.Context, meta *toolmeta.ToolMeta, device string, opts tools.Options) (tools.Tool, error) {
	c.constructed.Add(1)
	return &fakeTool{
		BaseTool: tools.NewBaseTool(meta, device, opts),
		opts:     opts,
		fail:     c.fail,
	}, nil
}

func ocrDescriptor(c *counter) *registry.Descriptor {
	return &registry.Descriptor{
		Name: "OCRTool",
		DefaultMeta: toolmeta.ToolMeta{
			ToolName:    "OCRTool",
			Description: "Recognize the text in the {{{input:image}}}, returns {{{output:text}}}.",
			Model:       "svtr-small",
		},
		Kind: registry.KindObject,
		New:  c.New,
	}
}

func newRegistry(t *testing.T, c *counter) *registry.Registry {
	reg := registry.New()
	require.NoError(t, reg.Register(ocrDescriptor(c), false))
	require.NoError(t, reg.Custom(registry.Func(func(inputs ...string) (string, error) {
		return "v1:" + inputs[0], nil
	}), "Calculator", "Evaluates the {{{input:text}}}, returns {{{output:text}}}.", "", "", false))
	require.NoError(t, reg.Register(&registry.Descriptor{
		Name: "ImageCaptionTool",
		DefaultMeta: toolmeta.ToolMeta{
			ToolName:    "ImageCaptionTool",
			Description: "Describe the {{{input:image}}}, returns {{{output:text}}}.",
			Model:       "blip-base_3rdparty_caption",
		},
		New: c.New,
	}, false))
	return reg
}

func TestRegistry(t *testing.T) {
	c := &counter{}
	reg := newRegistry(t, c)
	assert.Equal(t, []string{"OCRTool", "Calculator", "ImageCaptionTool"}, reg.List())

	d, err := reg.Lookup("OCRTool")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.Revision())
	assert.Equal(t, registry.KindObject, d.Kind)
	assert.Equal(t, "object", d.Kind.String())

	// copies are returned
	d.DefaultMeta.Model = "changed"
	d, err = reg.Lookup("OCRTool")
	require.NoError(t, err)
	assert.Equal(t, "svtr-small", d.DefaultMeta.Model)

	list := reg.Descriptors()
	require.Len(t, list, 3)
	assert.Equal(t, "Calculator", list[1].Name)
	assert.Equal(t, "function", list[1].Kind.String())

	err = reg.Register(ocrDescriptor(c), false)
	require.Error(t, err)
	assert.True(t, registry.IsDuplicateName(err))
	assert.EqualError(t, err, `tool "OCRTool" is already registered`)

	require.NoError(t, reg.Register(ocrDescriptor(c), true))
	d, err = reg.Lookup("OCRTool")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), d.Revision())
	// overwrite keeps the position
	assert.Equal(t, []string{"OCRTool", "Calculator", "ImageCaptionTool"}, reg.List())
}

func TestRegistry_Lookup(t *testing.T) {
	reg := newRegistry(t, &counter{})

	_, err := reg.Lookup("NotARealTool")
	require.Error(t, err)
	assert.True(t, registry.IsUnknownTool(err))
	for _, name := range reg.List() {
		assert.Contains(t, err.Error(), name)
	}
	assert.EqualError(t, err, `tool "NotARealTool" is not registered, available tools: OCRTool, Calculator, ImageCaptionTool`)

	var ute *registry.UnknownToolError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "NotARealTool", ute.Name)
	assert.Len(t, ute.Valid, 3)
}

func TestDescriptor_Validate(t *testing.T) {
	meta := toolmeta.ToolMeta{ToolName: "T", Description: "d"}
	tcases := []struct {
		desc *registry.Descriptor
		err  string
	}{
		{nil, "descriptor is nil"},
		{&registry.Descriptor{DefaultMeta: meta}, "tool name is required"},
		{&registry.Descriptor{Name: "T", DefaultMeta: toolmeta.ToolMeta{ToolName: "T"}}, `invalid meta for tool "T"`},
		{&registry.Descriptor{Name: "T", DefaultMeta: meta}, `constructor is not specified for tool "T"`},
		{&registry.Descriptor{Name: "Other", DefaultMeta: meta}, `tool name "T" does not match descriptor "Other"`},
		{&registry.Descriptor{Name: "T", DefaultMeta: meta, Kind: registry.KindFunction}, `function is not specified for tool "T"`},
		{&registry.Descriptor{Name: "T", DefaultMeta: meta, Kind: 5}, `unsupported kind 5 for tool "T"`},
	}
	reg := registry.New()
	for _, tc := range tcases {
		err := reg.Register(tc.desc, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), tc.err)
	}
	assert.Empty(t, reg.List())
}

func TestCustomTool(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, &counter{})
	cache := registry.NewCache(reg)

	calc, err := cache.Load(ctx, "Calculator")
	require.NoError(t, err)
	res, err := calc.Apply(ctx, "1+1")
	require.NoError(t, err)
	assert.Equal(t, "v1:1+1", res)

	meta := &toolmeta.ToolMeta{
		ToolName:    "Calculator",
		Description: "Evaluates the {{{input:text}}} precisely, returns {{{output:text}}}.",
	}
	v2 := func(_ context.Context, inputs ...string) (string, error) {
		return "v2:" + inputs[0], nil
	}

	_, err = registry.CustomTool(reg, meta, false)(v2)
	require.Error(t, err)
	assert.True(t, registry.IsDuplicateName(err))

	// not replaced
	res, err = calc.Apply(ctx, "1+1")
	require.NoError(t, err)
	assert.Equal(t, "v1:1+1", res)

	fn, err := registry.CustomTool(reg, meta, true)(v2)
	require.NoError(t, err)
	assert.NotNil(t, fn)

	calc2, err := cache.Load(ctx, "Calculator")
	require.NoError(t, err)
	assert.NotSame(t, calc, calc2)
	assert.Equal(t, "Calculator", calc2.Meta().ToolName)
	assert.Contains(t, calc2.Meta().Description, "precisely")
	res, err = calc2.Apply(ctx, "1+1")
	require.NoError(t, err)
	assert.Equal(t, "v2:1+1", res)
	assert.Len(t, cache.Instances("Calculator"), 1)

	_, err = registry.CustomTool(reg, nil, true)(v2)
	assert.EqualError(t, err, "tool meta is nil")
	_, err = registry.CustomTool(reg, &toolmeta.ToolMeta{ToolName: "NoDescription"}, true)(v2)
	assert.Error(t, err)
}

func TestRegistry_Concurrent(t *testing.T) {
	reg := registry.New()
	var wg sync.WaitGroup
	var failed atomic.Int32
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := reg.Custom(registry.Func(func(...string) (string, error) { return "", nil }), "Same", "desc", "", "", false)
			if err != nil {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(9), failed.Load())
	assert.Equal(t, []string{"Same"}, reg.List())
}
