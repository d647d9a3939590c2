// Package builtin registers the catalog of model backed tools.
package builtin

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/inference"
	"github.com/effective-security/mmtools/pkg/llmutils"
	"github.com/effective-security/mmtools/pkg/registry"
	"github.com/effective-security/mmtools/pkg/toolmeta"
	"github.com/effective-security/mmtools/pkg/tools"
)

// Inference tasks
const (
	TaskImageCaption    = "image-caption"
	TaskTextToBox       = "text-to-box"
	TaskTextToImage     = "text-to-image"
	TaskOCR             = "ocr"
	TaskPoseEstimation  = "pose-estimation"
	TaskSemSeg          = "semantic-segmentation"
	TaskObjectDetection = "object-detection"
	TaskCanny           = "canny"
	TaskCannyToImage    = "canny-to-image"
	TaskSegToImage      = "seg-to-image"
	TaskVideoCaption    = "video-caption"
	TaskAnythingToImage = "anything-to-image"
)

type item struct {
	meta     toolmeta.ToolMeta
	task     tools.Task
	defaults tools.Options
	// localOnly tools reject remote mode at construction
	localOnly bool
	// params is decoded from the model parameters and validated at construction
	params func() any
}

type cannyParams struct {
	LowThreshold  int `mapstructure:"low_threshold" validate:"gte=0,ltefield=HighThreshold"`
	HighThreshold int `mapstructure:"high_threshold" validate:"gte=0,lte=255"`
}

type videoCaptionParams struct {
	NumBeams     int     `mapstructure:"num_beams" validate:"gte=1"`
	MaxNewTokens int     `mapstructure:"max_new_tokens" validate:"gte=1"`
	Temperature  float64 `mapstructure:"temperature" validate:"gt=0"`
}

var catalog = []item{
	{
		meta: toolmeta.ToolMeta{
			ToolName: "ImageCaptionTool",
			Model:    "blip-base_3rdparty_caption",
			Description: "This is a useful tool when you want to know what is inside the image. " +
				"It takes an {{{input:image}}} as the input, and returns a {{{output:text}}} " +
				"representing the description of the image.",
		},
		task: tools.Task{Name: TaskImageCaption},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "Text2BoxTool",
			Model:    "glip_atss_swin-t_a_fpn_dyhead_pretrain_obj365",
			Description: "This is a useful tool when you want to detect the objects described by a text in the image. " +
				"It takes an {{{input:image}}} and a {{{input:text}}} with the object names as the input, " +
				"and returns the {{{output:image}}} with the detected boxes.",
		},
		task: tools.Task{Name: TaskTextToBox, Generates: ".png", FuncName: "detect_box"},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "Text2ImageTool",
			Model:    "stable_diffusion",
			Description: "This is a useful tool when you want to generate an image from a user input text. " +
				"It takes a {{{input:text}}} as the prompt, and returns the generated {{{output:image}}}.",
		},
		task: tools.Task{Name: TaskTextToImage, Generates: ".png", FuncName: "generate"},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "OCRTool",
			Model:    "svtr-small",
			Description: "This is a useful tool when you want to recognize the text in the image. " +
				"It takes an {{{input:image}}} as the input, and returns the recognized {{{output:text}}}.",
		},
		task: tools.Task{Name: TaskOCR},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "HumanBodyPoseTool",
			Model:    "human",
			Description: "This is a useful tool when you want to estimate the human body pose in the image. " +
				"It takes an {{{input:image}}} as the input, and returns the {{{output:image}}} with the keypoints.",
		},
		task: tools.Task{Name: TaskPoseEstimation, Generates: ".png", FuncName: "pose"},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "SemSegTool",
			Model:    "mask2former_r50_8xb2-90k_cityscapes-512x1024",
			Description: "This is a useful tool when you want to segment all the parts of the image. " +
				"It takes an {{{input:image}}} as the input, and returns the {{{output:image}}} of the segmentation.",
		},
		task: tools.Task{Name: TaskSemSeg, Generates: ".png", FuncName: "semseg"},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "ObjectDetectionTool",
			Model:    "rtmdet_l_8xb32-300e_coco",
			Description: "This is a useful tool when you want to detect all the objects in the image. " +
				"It takes an {{{input:image}}} as the input, and returns the {{{output:image}}} with the detected boxes.",
		},
		task: tools.Task{Name: TaskObjectDetection, Generates: ".png", FuncName: "detect"},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "Image2CannyTool",
			Model:    "canny",
			Description: "This is a useful tool when you want to detect the edge of the image. " +
				"It takes an {{{input:image}}} as the input, and returns the {{{output:image}}} of the edges.",
		},
		task: tools.Task{
			Name:      TaskCanny,
			Generates: ".png",
			FuncName:  "edge",
			Params:    map[string]any{"low_threshold": 100, "high_threshold": 200},
		},
		params: func() any { return new(cannyParams) },
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "Canny2ImageTool",
			Model:    "controlnet_canny",
			Description: "This is a useful tool when you want to generate a new image from an edge image and a text. " +
				"It takes an {{{input:image}}} of the edges and a {{{input:text}}} as the prompt, " +
				"and returns the generated {{{output:image}}}.",
		},
		task: tools.Task{Name: TaskCannyToImage, Generates: ".png", FuncName: "generate_from_canny"},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "Seg2ImageTool",
			Model:    "controlnet_seg",
			Description: "This is a useful tool when you want to generate a new image from a segmentation and a text. " +
				"It takes an {{{input:image}}} of the segmentation and a {{{input:text}}} as the prompt, " +
				"and returns the generated {{{output:image}}}.",
		},
		task: tools.Task{Name: TaskSegToImage, Generates: ".png", FuncName: "generate_from_seg"},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "VideoCaptionTool",
			Model:    "kpyu/video-blip-flan-t5-xl-ego4d",
			Description: "This is a useful tool when you want to generate description for a video. " +
				"It takes a {{{input:video}}} as the input, and returns a {{{output:text}}} " +
				"representing the description of the video.",
		},
		task: tools.Task{
			Name:   TaskVideoCaption,
			Params: map[string]any{"num_beams": 4, "max_new_tokens": 128, "temperature": 0.7},
		},
		localOnly: true,
		params:    func() any { return new(videoCaptionParams) },
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "AudioToImage",
			Model:    "stabilityai/stable-diffusion-2-1-unclip",
			Description: "This is a useful tool when you want to generate a real image from audio. " +
				"It takes an {{{input:audio}}} as the input, and returns the generated {{{output:image}}}.",
		},
		task: tools.Task{
			Name:      TaskAnythingToImage,
			Generates: ".png",
			FuncName:  "AudioToImage",
			Params:    map[string]any{"width": 512, "height": 512},
		},
		defaults: tools.Options{tools.OptionEcoMode: true},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "AudioTextToImage",
			Model:    "stabilityai/stable-diffusion-2-1-unclip",
			Description: "This is a useful tool when you want to generate a real image from audio and the user's description. " +
				"The input to this tool should be a {{{input:audio}}} and a {{{input:text}}} as the prompt. " +
				"It returns the generated {{{output:image}}}.",
		},
		task: tools.Task{
			Name:      TaskAnythingToImage,
			Generates: ".png",
			FuncName:  "AudioTextToImage",
			Params:    map[string]any{"width": 512, "height": 512},
		},
		defaults: tools.Options{tools.OptionEcoMode: true},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "ThermalToImage",
			Model:    "stabilityai/stable-diffusion-2-1-unclip",
			Description: "This is a useful tool when you want to generate a real image from a thermal image. " +
				"It takes an {{{input:image}}} as the input and returns the generated {{{output:image}}}.",
		},
		task: tools.Task{
			Name:      TaskAnythingToImage,
			Generates: ".png",
			FuncName:  "ThermalToImage",
			Params:    map[string]any{"width": 512, "height": 512, "source": "thermal"},
		},
		defaults: tools.Options{tools.OptionEcoMode: true},
	},
	{
		meta: toolmeta.ToolMeta{
			ToolName: "AudioImageToImage",
			Model:    "stabilityai/stable-diffusion-2-1-unclip",
			Description: "This is a useful tool when you want to generate a real image from image and audio. " +
				"The input to this tool should be an {{{input:image}}} and a {{{input:audio}}}. " +
				"It returns the generated {{{output:image}}}.",
		},
		task: tools.Task{
			Name:      TaskAnythingToImage,
			Generates: ".png",
			FuncName:  "AudioImageToImage",
			Params:    map[string]any{"width": 512, "height": 512},
			Origin:    "audio",
		},
		defaults: tools.Options{tools.OptionEcoMode: true},
	},
}

// Names returns the names of the built-in tools.
func Names() []string {
	names := make([]string, len(catalog))
	for i, it := range catalog {
		names[i] = it.meta.ToolName
	}
	return names
}

// Register adds the built-in tools to the registry.
// Models are loaded from the shared cache, so tools built on the same model load it once.
func Register(reg *registry.Registry, shared *inference.Shared) error {
	for _, it := range catalog {
		err := reg.Register(&registry.Descriptor{
			Name:        it.meta.ToolName,
			DefaultMeta: it.meta,
			Kind:        registry.KindObject,
			New:         it.constructor(shared),
		}, false)
		if err != nil {
			return err
		}
	}
	return nil
}

func (it item) constructor(shared *inference.Shared) registry.Constructor {
	return func(_ context.Context, meta *toolmeta.ToolMeta, device string, opts tools.Options) (tools.Tool, error) {
		opts = llmutils.MergeInputs(it.defaults, opts)
		if it.localOnly && opts.Bool(tools.OptionRemote, false) {
			return nil, &tools.UnsupportedModeError{Tool: meta.ToolName, Mode: tools.ModeRemote}
		}
		// arguments follow the catalog description, not an override
		task := it.task
		task.Inputs = it.meta.Inputs()
		tool, err := tools.NewModelTool(meta, device, opts, shared, task)
		if err != nil {
			return nil, err
		}
		if it.params != nil {
			if err = tools.Options(tool.Params()).Decode(it.params()); err != nil {
				return nil, errors.WithMessagef(err, "%s", meta.ToolName)
			}
		}
		return tool, nil
	}
}
