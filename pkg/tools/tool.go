package tools

import (
	"context"

	"github.com/effective-security/mmtools/pkg/toolmeta"
)

//go:generate mockgen -source=tool.go -destination=../../mocks/mocktools/tools_mock.gen.go -package mocktools

// Tool is a named capability with declared inputs and outputs.
//
// Media inputs and outputs are passed as file paths or URLs,
// text is passed as is.
type Tool interface {
	// Meta returns a copy of the tool metadata.
	Meta() *toolmeta.ToolMeta
	// Setup performs expensive initialization, like loading model weights.
	// It is idempotent: only the first call does the work,
	// subsequent calls return the result of the first one.
	Setup(ctx context.Context) error
	// Apply runs the tool on the inputs.
	Apply(ctx context.Context, inputs ...string) (string, error)
}

// ApplyFunc is a tool implemented as a plain function.
type ApplyFunc func(ctx context.Context, inputs ...string) (string, error)
