package tools

import (
	"context"
	"sync"
	"time"

	"github.com/effective-security/mmtools/pkg/inference"
	"github.com/effective-security/mmtools/pkg/metricskey"
	"github.com/effective-security/mmtools/pkg/toolmeta"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mmtools", "tools")

// BaseTool carries the state shared by all tools:
// metadata, target device, execution mode and the setup latch.
type BaseTool struct {
	meta    *toolmeta.ToolMeta
	device  string
	remote  bool
	ecoMode bool

	setupOnce sync.Once
	setupErr  error
}

// NewBaseTool returns the base for a tool.
// The `remote` and `eco_mode` options are consumed here.
func NewBaseTool(meta *toolmeta.ToolMeta, device string, opts Options) *BaseTool {
	return &BaseTool{
		meta:    meta.Clone(),
		device:  values.StringsCoalesce(device, inference.DeviceCPU),
		remote:  opts.Bool(OptionRemote, false),
		ecoMode: opts.Bool(OptionEcoMode, false),
	}
}

// Meta returns a copy of the tool metadata.
func (t *BaseTool) Meta() *toolmeta.ToolMeta {
	return t.meta.Clone()
}

// Name returns the display name of the tool.
func (t *BaseTool) Name() string {
	return t.meta.ToolName
}

// Device returns the device the tool runs on.
func (t *BaseTool) Device() string {
	return t.device
}

// Remote returns true if the tool was requested in remote mode.
func (t *BaseTool) Remote() bool {
	return t.remote
}

// EcoMode returns true if model weights are moved to the device only for the duration of a call.
func (t *BaseTool) EcoMode() bool {
	return t.ecoMode
}

// Once runs fn on the first call only, and returns its result on every call.
// A failed setup is not retried.
func (t *BaseTool) Once(ctx context.Context, fn func(context.Context) error) error {
	t.setupOnce.Do(func() {
		started := time.Now()
		t.setupErr = fn(ctx)
		metricskey.PerfToolSetup.MeasureSince(started, t.meta.ToolName)

		if t.setupErr != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"reason", "setup",
				"tool", t.meta.ToolName,
				"device", t.device,
				"err", t.setupErr.Error(),
			)
			return
		}
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "setup",
			"tool", t.meta.ToolName,
			"model", t.meta.ModelName(),
			"device", t.device,
			"eco_mode", t.ecoMode,
			"elapsed", time.Since(started).String(),
		)
	})
	return t.setupErr
}

// CheckLocal returns UnsupportedModeError if the tool was requested in remote mode.
func (t *BaseTool) CheckLocal() error {
	if t.remote {
		return &UnsupportedModeError{Tool: t.meta.ToolName, Mode: ModeRemote}
	}
	return nil
}
