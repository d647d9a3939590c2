package inference

import (
	"context"
	"strings"
)

//go:generate mockgen -source=inference.go -destination=../../mocks/mockinference/inference_mock.gen.go -package mockinference

// Well known devices
const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Spec describes the model to load.
type Spec struct {
	// Task is the capability of the model, e.g. "image-caption"
	Task string `json:"task"`
	// Model is the model name
	Model string `json:"model,omitempty"`
	// Config is an optional structured model config
	Config map[string]any `json:"config,omitempty"`
	// Device to load the model on
	Device string `json:"device"`
}

// Runtime loads models.
type Runtime interface {
	// Load loads the model described by the spec.
	// The call may be expensive: weights are fetched and moved to the device.
	Load(ctx context.Context, spec *Spec) (Model, error)
}

// Model is a loaded model.
type Model interface {
	// Infer runs the model on the inputs and returns the named outputs.
	Infer(ctx context.Context, inputs map[string]any) (map[string]any, error)
	// ToDevice moves the model weights to the device.
	ToDevice(ctx context.Context, device string) error
	// Device returns the device the model weights are currently on.
	Device() string
}

// IsAccelerator returns true if device is not a CPU device.
func IsAccelerator(device string) bool {
	return device != "" && !strings.EqualFold(device, DeviceCPU)
}
