package tools

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/fileutil"
	"github.com/effective-security/mmtools/pkg/inference"
	"github.com/effective-security/mmtools/pkg/llmutils"
	"github.com/effective-security/mmtools/pkg/schema"
	"github.com/effective-security/mmtools/pkg/toolmeta"
	"github.com/effective-security/xlog"
)

// Model input keys set by ModelTool
const (
	InputOutputPath = "output_path"
	DefaultOutput   = "output"
)

// Task describes how a model backed tool maps its arguments to the model.
type Task struct {
	// Name is the inference task.
	Name string
	// Output is the key of the model output, "output" if empty.
	Output string
	// Generates is the extension of the produced media file,
	// empty if the tool returns text.
	Generates string
	// FuncName is used in names of generated files.
	FuncName string
	// Params are default model parameters, overridden by construction options.
	Params map[string]any
	// Inputs are the argument modalities. They do not change when the
	// description is overridden. Taken from the description at construction if empty.
	Inputs []toolmeta.Modality
	// Origin is the argument that names generated files,
	// the first media argument if empty.
	Origin string
}

// ModelTool is a tool backed by an inference model.
//
// Tool arguments are passed to the model keyed by their schema names,
// see schema.ArgNames.
//
// Tools built on the same shared model in eco mode move it between devices.
// Calls on one model are serialized for the move, infer, move back sequence,
// so a sibling tool never finds the model moved back to cpu mid-call.
type ModelTool struct {
	*BaseTool

	task   Task
	args   []string
	shared *inference.Shared
	params map[string]any
	model  inference.Model
}

var _ Tool = (*ModelTool)(nil)

// NewModelTool returns a model backed tool.
// Options other than `remote` and `eco_mode` are passed to the model as parameters.
func NewModelTool(meta *toolmeta.ToolMeta, device string, opts Options, shared *inference.Shared, task Task) (*ModelTool, error) {
	if shared == nil {
		return nil, errors.Errorf("inference runtime is not configured for tool %q", meta.ToolName)
	}
	if task.Name == "" {
		return nil, errors.Errorf("inference task is not specified for tool %q", meta.ToolName)
	}
	if task.Output == "" {
		task.Output = DefaultOutput
	}
	args := schema.InputNames(meta)
	if len(task.Inputs) > 0 {
		args = schema.ArgNames(task.Inputs)
	}
	if task.Origin != "" && !slices.Contains(args, task.Origin) {
		return nil, errors.Errorf("origin %q is not an argument of tool %q", task.Origin, meta.ToolName)
	}
	return &ModelTool{
		BaseTool: NewBaseTool(meta, device, opts),
		task:     task,
		args:     args,
		shared:   shared,
		params:   llmutils.MergeInputs(task.Params, opts.Without(OptionRemote, OptionEcoMode)),
	}, nil
}

// Task returns the task of the tool.
func (t *ModelTool) Task() Task {
	return t.task
}

// Args returns the argument names in order.
func (t *ModelTool) Args() []string {
	return slices.Clone(t.args)
}

// Cacheable returns false for tools that generate media files,
// a reused result could point to a file that no longer exists.
func (t *ModelTool) Cacheable() bool {
	return t.task.Generates == ""
}

// Params returns the model parameters.
func (t *ModelTool) Params() map[string]any {
	return llmutils.MergeInputs(t.params, nil)
}

// Setup loads the model.
// In eco mode the model is loaded on cpu, and moved to the device for each call.
// Nothing is loaded in remote mode.
func (t *ModelTool) Setup(ctx context.Context) error {
	if t.Remote() {
		return nil
	}
	return t.Once(ctx, func(ctx context.Context) error {
		device := t.Device()
		if t.EcoMode() {
			device = inference.DeviceCPU
		}
		model, err := t.shared.Load(ctx, &inference.Spec{
			Task:   t.task.Name,
			Model:  t.meta.ModelName(),
			Config: t.modelConfig(),
			Device: device,
		})
		if err != nil {
			return errors.WithMessagef(err, "failed to set up %s", t.meta.ToolName)
		}
		t.model = model
		return nil
	})
}

func (t *ModelTool) modelConfig() map[string]any {
	if _, ok := t.meta.Model.(map[string]any); ok {
		return t.meta.ModelConfig()
	}
	return nil
}

// Apply runs the model on the inputs.
func (t *ModelTool) Apply(ctx context.Context, inputs ...string) (string, error) {
	if err := t.CheckLocal(); err != nil {
		return "", err
	}
	if err := t.Setup(ctx); err != nil {
		return "", err
	}

	names := t.args
	if len(inputs) != len(names) {
		return "", errors.Errorf("%s expects %d inputs, got %d", t.meta.ToolName, len(names), len(inputs))
	}

	args := make(map[string]any, len(names))
	origin := ""
	for i, name := range names {
		args[name] = inputs[i]
		if t.task.Origin == name || (t.task.Origin == "" && origin == "" && schema.IsMedia(name)) {
			origin = inputs[i]
		}
	}
	args = llmutils.MergeInputs(t.params, args)

	var outPath string
	if t.task.Generates != "" {
		outPath = fileutil.NewFilePath(origin, t.task.FuncName, t.task.Generates)
		if err := fileutil.EnsureDir(outPath); err != nil {
			return "", err
		}
		args[InputOutputPath] = outPath
	}

	res, err := t.infer(ctx, args)
	if err != nil {
		return "", err
	}

	out, ok := res[t.task.Output]
	if !ok || out == nil {
		if outPath != "" {
			return outPath, nil
		}
		return "", errors.Wrapf(ErrInvalidOutput, "%s: missing %q", t.meta.ToolName, t.task.Output)
	}
	return llmutils.Stringify(out), nil
}

func (t *ModelTool) infer(ctx context.Context, args map[string]any) (res map[string]any, err error) {
	if t.EcoMode() && inference.IsAccelerator(t.Device()) {
		unlock := t.shared.Lock(t.model)
		defer unlock()

		if err = t.model.ToDevice(ctx, t.Device()); err != nil {
			return nil, errors.WithMessagef(err, "failed to move %s to %s", t.meta.ToolName, t.Device())
		}
		defer func() {
			if cerr := t.model.ToDevice(ctx, inference.DeviceCPU); cerr != nil {
				logger.ContextKV(ctx, xlog.ERROR,
					"reason", "to_cpu",
					"tool", t.meta.ToolName,
					"err", cerr.Error(),
				)
				if err == nil {
					err = errors.WithMessagef(cerr, "failed to move %s to cpu", t.meta.ToolName)
				}
			}
		}()
	}

	res, err = t.model.Infer(ctx, args)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s failed", t.meta.ToolName)
	}
	return res, nil
}
