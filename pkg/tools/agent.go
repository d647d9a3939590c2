package tools

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/metricskey"
	"github.com/effective-security/mmtools/pkg/parsers"
	"github.com/effective-security/mmtools/pkg/schema"
	"github.com/effective-security/xlog"
)

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the parameters definition of the function, to be used in the prompt.
	Parameters() any

	// Call executes the tool with the given input and returns the result.
	// If the tool fails to parse the input, it should return ErrFailedUnmarshalInput error.
	Call(context.Context, string) (string, error)
}

type Callback interface {
	OnToolStart(context.Context, ITool, string)
	OnToolEnd(context.Context, ITool, string, string)
	OnToolError(context.Context, ITool, string, error)
}

// AgentTool exposes a Tool to an agent, using the parser conventions
// for description, input and output.
type AgentTool struct {
	tool      Tool
	parser    parsers.Parser
	callbacks []Callback
}

var _ ITool = (*AgentTool)(nil)

// NewAgentTool returns ITool for the tool.
// The naive parser is used if parser is nil.
func NewAgentTool(tool Tool, parser parsers.Parser, callbacks ...Callback) *AgentTool {
	if parser == nil {
		parser = parsers.Naive{}
	}
	return &AgentTool{
		tool:      tool,
		parser:    parser,
		callbacks: callbacks,
	}
}

// Tool returns the underlying tool.
func (t *AgentTool) Tool() Tool {
	return t.tool
}

func (t *AgentTool) Name() string {
	return t.tool.Meta().ToolName
}

func (t *AgentTool) Description() string {
	return t.parser.Description(t.tool.Meta())
}

func (t *AgentTool) Parameters() any {
	return schema.ForTool(t.tool.Meta())
}

func (t *AgentTool) Call(ctx context.Context, input string) (string, error) {
	meta := t.tool.Meta()
	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, meta.ToolName)

	for _, cb := range t.callbacks {
		cb.OnToolStart(ctx, t, input)
	}

	args, err := t.parser.ParseInputs(meta, input)
	if err != nil {
		err = errors.Mark(errors.WithMessagef(err, "%s", meta.ToolName), ErrFailedUnmarshalInput)
		t.onError(ctx, input, err)
		return "", err
	}

	out, err := t.tool.Apply(ctx, args...)
	if err != nil {
		t.onError(ctx, input, err)
		return "", err
	}

	res := t.parser.FormatOutput(meta, out)
	metricskey.StatsToolCallsSucceeded.IncrCounter(1, meta.ToolName)
	for _, cb := range t.callbacks {
		cb.OnToolEnd(ctx, t, input, res)
	}
	return res, nil
}

func (t *AgentTool) onError(ctx context.Context, input string, err error) {
	name := t.Name()
	metricskey.StatsToolCallsFailed.IncrCounter(1, name)
	logger.ContextKV(ctx, xlog.DEBUG,
		"reason", "call",
		"tool", name,
		"err", err.Error(),
	)
	for _, cb := range t.callbacks {
		cb.OnToolError(ctx, t, input, err)
	}
}
