package registry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/registry"
	"github.com/effective-security/mmtools/pkg/store"
	"github.com/effective-security/mmtools/pkg/toolmeta"
	"github.com/effective-security/mmtools/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_OCRTool(t *testing.T) {
	ctx := context.Background()
	c := &counter{}
	cache := registry.NewCache(newRegistry(t, c))

	t1, err := cache.Load(ctx, "OCRTool")
	require.NoError(t, err)
	assert.Equal(t, "OCRTool", t1.Meta().ToolName)
	assert.NotEmpty(t, t1.Meta().Description)

	t2, err := cache.Load(ctx, "OCRTool", registry.WithModel("svtr-small"))
	require.NoError(t, err)
	assert.Same(t, t1, t2)

	t3, err := cache.Load(ctx, "OCRTool", registry.WithModel("other-model"))
	require.NoError(t, err)
	assert.NotSame(t, t1, t3)
	assert.Equal(t, "OCRTool 2", t3.Meta().ToolName)
	assert.Equal(t, "other-model", t3.Meta().ModelName())

	t4, err := cache.Load(ctx, "OCRTool", registry.WithModel("other-model"), registry.WithDevice("cpu"))
	require.NoError(t, err)
	assert.Same(t, t3, t4)

	t5, err := cache.Load(ctx, "OCRTool", registry.WithDevice("cuda:0"))
	require.NoError(t, err)
	assert.Equal(t, "OCRTool 3", t5.Meta().ToolName)

	assert.Equal(t, int32(3), c.constructed.Load())
	assert.Len(t, cache.Instances("OCRTool"), 3)
	assert.Equal(t, int32(1), t1.(*fakeTool).setups.Load())

	fp1, ok := cache.Fingerprint(t1)
	require.True(t, ok)
	fp3, ok := cache.Fingerprint(t3)
	require.True(t, ok)
	assert.NotEqual(t, fp1, fp3)
	_, ok = cache.Fingerprint(&fakeTool{})
	assert.False(t, ok)
}

func TestCache_Options(t *testing.T) {
	ctx := context.Background()
	c := &counter{}
	cache := registry.NewCache(newRegistry(t, c), registry.WithDefaultOptions(map[string]any{"eco_mode": false}))

	t1, err := cache.Load(ctx, "ImageCaptionTool",
		registry.WithOptions(map[string]any{
			"num_beams": 4,
			"nested":    map[string]any{"b": 1, "a": []any{"x", map[string]any{"z": 1, "y": 2}}},
		}),
		registry.WithOption("max_new_tokens", 30),
	)
	require.NoError(t, err)
	ft := t1.(*fakeTool)
	assert.Equal(t, 4, ft.opts.Int("num_beams", 0))
	assert.Equal(t, 30, ft.opts.Int("max_new_tokens", 0))
	assert.False(t, ft.EcoMode())

	// the order of options does not matter
	t2, err := cache.Load(ctx, "ImageCaptionTool",
		registry.WithOption("max_new_tokens", 30),
		registry.WithOptions(map[string]any{
			"nested":    map[string]any{"a": []any{"x", map[string]any{"y": 2, "z": 1}}, "b": 1},
			"num_beams": 4,
		}),
	)
	require.NoError(t, err)
	assert.Same(t, t1, t2)

	t3, err := cache.Load(ctx, "ImageCaptionTool", registry.WithOption("num_beams", 5))
	require.NoError(t, err)
	assert.NotSame(t, t1, t3)
	assert.Equal(t, "ImageCaptionTool 2", t3.Meta().ToolName)

	// empty overrides are the defaults
	t4, err := cache.Load(ctx, "OCRTool", registry.WithModel(""), registry.WithDescription(""), registry.WithDevice(""))
	require.NoError(t, err)
	t5, err := cache.Load(ctx, "OCRTool")
	require.NoError(t, err)
	assert.Same(t, t4, t5)

	t6, err := cache.Load(ctx, "OCRTool",
		registry.WithDescription("Read the {{{input:image}}}."),
		registry.WithInputDescription("a photo"),
		registry.WithOutputDescription("the text"),
	)
	require.NoError(t, err)
	meta := t6.Meta()
	assert.Equal(t, "OCRTool 2", meta.ToolName)
	assert.Equal(t, "Read the {{{input:image}}}.", meta.Description)
	assert.Equal(t, "a photo", meta.InputDescription)
	assert.Equal(t, "the text", meta.OutputDescription)
	assert.Equal(t, "svtr-small", meta.ModelName())

	_, err = cache.Load(ctx, "OCRTool", registry.WithOption("callback", func() {}))
	assert.EqualError(t, err, `invalid parameters for tool "OCRTool": value of type func() can not be serialized`)
}

func TestCache_DefaultDevice(t *testing.T) {
	ctx := context.Background()
	cache := registry.NewCache(newRegistry(t, &counter{}), registry.WithDefaultDevice("cuda"))

	t1, err := cache.Load(ctx, "OCRTool")
	require.NoError(t, err)
	assert.Equal(t, "cuda", t1.(*fakeTool).Device())

	t2, err := cache.Load(ctx, "OCRTool", registry.WithDevice("cuda"))
	require.NoError(t, err)
	assert.Same(t, t1, t2)
}

func TestCache_UnknownTool(t *testing.T) {
	reg := newRegistry(t, &counter{})
	cache := registry.NewCache(reg)
	assert.Equal(t, reg, cache.Registry())

	_, err := cache.Load(context.Background(), "NotARealTool")
	require.Error(t, err)
	assert.True(t, registry.IsUnknownTool(err))
	for _, name := range reg.List() {
		assert.Contains(t, err.Error(), name)
	}
}

func TestCache_AllToolsHaveMeta(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, &counter{})
	cache := registry.NewCache(reg)
	for _, name := range reg.List() {
		tool, err := cache.Load(ctx, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, tool.Meta().ToolName, name)
		assert.NotEmpty(t, tool.Meta().Description, name)
	}
}

func TestCache_ConstructionError(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("missing dependency: mmocr")
	c := &counter{fail: cause}
	cache := registry.NewCache(newRegistry(t, c))

	_, err := cache.Load(ctx, "OCRTool")
	require.Error(t, err)
	assert.True(t, registry.IsConstruction(err))
	assert.True(t, errors.Is(err, cause))
	assert.EqualError(t, err, "failed to construct OCRTool: missing dependency: mmocr")

	var ce *registry.ConstructionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "OCRTool", ce.Name)

	// failures are not cached
	_, err = cache.Load(ctx, "OCRTool")
	require.Error(t, err)
	assert.Equal(t, int32(2), c.constructed.Load())
	assert.Empty(t, cache.Instances("OCRTool"))
}

func TestCache_ConstructorFailure(t *testing.T) {
	reg := registry.New()
	cause := errors.New("unsupported device")
	require.NoError(t, reg.Register(&registry.Descriptor{
		Name: "Broken",
		DefaultMeta: toolmeta.ToolMeta{
			ToolName:    "Broken",
			Description: "broken",
		},
		New: func(context.Context, *toolmeta.ToolMeta, string, tools.Options) (tools.Tool, error) {
			return nil, cause
		},
	}, false))
	require.NoError(t, reg.Register(&registry.Descriptor{
		Name: "Nil",
		DefaultMeta: toolmeta.ToolMeta{
			ToolName:    "Nil",
			Description: "nil",
		},
		New: func(context.Context, *toolmeta.ToolMeta, string, tools.Options) (tools.Tool, error) {
			return nil, nil
		},
	}, false))

	cache := registry.NewCache(reg)
	_, err := cache.Load(context.Background(), "Broken")
	assert.True(t, errors.Is(err, cause))
	_, err = cache.Load(context.Background(), "Nil")
	assert.EqualError(t, err, `failed to construct Nil: constructor returned nil for tool "Nil"`)
}

func TestCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := &counter{}
	cache := registry.NewCache(newRegistry(t, c))

	var wg sync.WaitGroup
	res := make([]tools.Tool, 20)
	for i := range res {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			model := "svtr-small"
			if i%2 == 1 {
				model = "other-model"
			}
			tool, err := cache.Load(ctx, "OCRTool", registry.WithModel(model))
			assert.NoError(t, err)
			res[i] = tool
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(2), c.constructed.Load())
	for i := 2; i < len(res); i++ {
		assert.Same(t, res[i%2], res[i])
	}
}

func TestCache_ResultStore(t *testing.T) {
	ctx := context.Background()
	cache := registry.NewCache(newRegistry(t, &counter{}), registry.WithResultStore(store.NewMemoryStore(0)))

	tool, err := cache.Load(ctx, "OCRTool")
	require.NoError(t, err)
	memo, ok := tool.(*tools.MemoTool)
	require.True(t, ok)
	assert.IsType(t, &fakeTool{}, memo.Unwrap())

	res, err := tool.Apply(ctx, "page.png")
	require.NoError(t, err)
	assert.Equal(t, "svtr-small:page.png", res)

	again, err := cache.Load(ctx, "OCRTool")
	require.NoError(t, err)
	assert.Same(t, tool, again)

	// function tools are not known to be deterministic
	calc, err := cache.Load(ctx, "Calculator")
	require.NoError(t, err)
	assert.IsType(t, &tools.FuncTool{}, calc)
}

func TestCache_Preload(t *testing.T) {
	ctx := context.Background()
	c := &counter{}
	cache := registry.NewCache(newRegistry(t, c))

	list, err := cache.Preload(ctx, []*registry.ToolConfig{
		{Name: "OCRTool"},
		{Name: "OCRTool", Model: "other-model", Options: map[string]any{"eco_mode": true}},
		{Name: "Calculator"},
	})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "OCRTool 2", list[1].Meta().ToolName)
	assert.True(t, list[1].(*fakeTool).EcoMode())

	_, err = cache.Preload(ctx, []*registry.ToolConfig{{Name: "Unknown"}})
	assert.True(t, registry.IsUnknownTool(err))
}

func TestCache_StructOptions(t *testing.T) {
	ctx := context.Background()
	c := &counter{}
	cache := registry.NewCache(newRegistry(t, c))

	a, err := cache.Load(ctx, "OCRTool", registry.WithOption("since", time.Unix(0, 0)))
	require.NoError(t, err)
	b, err := cache.Load(ctx, "OCRTool", registry.WithOption("since", time.Unix(1_000_000, 0)))
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, "OCRTool 2", b.Meta().ToolName)

	again, err := cache.Load(ctx, "OCRTool", registry.WithOption("since", time.Unix(1_000_000, 0)))
	require.NoError(t, err)
	assert.Same(t, b, again)
	assert.Equal(t, int32(2), c.constructed.Load())

	type opaque struct{ n int }
	_, err = cache.Load(ctx, "OCRTool", registry.WithOption("state", opaque{n: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid parameters for tool "OCRTool"`)
}
