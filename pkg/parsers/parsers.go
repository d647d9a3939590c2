// Package parsers adapts tools to the conventions of different agents:
// how the tool description reads, how the raw tool input of an agent is split
// into tool arguments, and how the output is reported back.
package parsers

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/llmutils"
	"github.com/effective-security/mmtools/pkg/schema"
	"github.com/effective-security/mmtools/pkg/toolmeta"
)

// Parser names
const (
	NameNaive         = "naive"
	NameVisualChatGPT = "visual_chatgpt"
	NameHuggingFace   = "huggingface"
)

// ErrInvalidInput is returned when the raw input can not be mapped to tool arguments
var ErrInvalidInput = errors.New("invalid tool input")

// Parser converts between an agent and a tool.
type Parser interface {
	// Name returns the parser name.
	Name() string
	// Description returns the tool description as the agent sees it.
	Description(meta *toolmeta.ToolMeta) string
	// ParseInputs splits the raw agent input into ordered tool arguments.
	ParseInputs(meta *toolmeta.ToolMeta, raw string) ([]string, error)
	// FormatOutput returns the tool output as reported to the agent.
	FormatOutput(meta *toolmeta.ToolMeta, output string) string
}

// ByName returns a parser by name, the naive parser for empty name.
func ByName(name string) (Parser, error) {
	switch strings.ToLower(name) {
	case "", NameNaive:
		return Naive{}, nil
	case NameVisualChatGPT:
		return VisualChatGPT{}, nil
	case NameHuggingFace:
		return HuggingFace{}, nil
	}
	return nil, errors.Errorf("unsupported parser: %s", name)
}

// Naive passes JSON arguments through.
// The input is a JSON object keyed by the schema argument names,
// a JSON array of arguments, or a plain string for a single argument tool.
type Naive struct{}

func (Naive) Name() string {
	return NameNaive
}

func (Naive) Description(meta *toolmeta.ToolMeta) string {
	return meta.RenderDescription(func(_ string, m toolmeta.Modality) string {
		return string(m)
	})
}

func (Naive) ParseInputs(meta *toolmeta.ToolMeta, raw string) ([]string, error) {
	return parseJSONInputs(meta, raw)
}

func (Naive) FormatOutput(_ *toolmeta.ToolMeta, output string) string {
	return output
}

// VisualChatGPT follows the Visual ChatGPT convention: media are passed by
// path, multiple arguments are a comma separated string, and the last
// argument keeps any remaining commas.
type VisualChatGPT struct{}

func (VisualChatGPT) Name() string {
	return NameVisualChatGPT
}

func (VisualChatGPT) Description(meta *toolmeta.ToolMeta) string {
	return meta.RenderDescription(func(kind string, m toolmeta.Modality) string {
		if m == toolmeta.ModalityText {
			if kind == "input" {
				return "a text string"
			}
			return "a text"
		}
		return "a string representing the " + string(m) + " path"
	})
}

func (VisualChatGPT) ParseInputs(meta *toolmeta.ToolMeta, raw string) ([]string, error) {
	names := schema.InputNames(meta)
	parts := strings.SplitN(raw, ",", len(names))
	if len(parts) != len(names) {
		return nil, errors.Wrapf(ErrInvalidInput, "expected %d comma separated values: %s", len(names), strings.Join(names, ", "))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func (VisualChatGPT) FormatOutput(_ *toolmeta.ToolMeta, output string) string {
	return output
}

// HuggingFace follows the Transformers Agent convention: arguments are named
// by the schema, and the description refers to them by name.
type HuggingFace struct{}

func (HuggingFace) Name() string {
	return NameHuggingFace
}

func (HuggingFace) Description(meta *toolmeta.ToolMeta) string {
	names := schema.InputNames(meta)
	i := 0
	return meta.RenderDescription(func(kind string, m toolmeta.Modality) string {
		if kind == "input" && i < len(names) {
			name := names[i]
			i++
			return "`" + name + "`"
		}
		return "`" + string(m) + "`"
	})
}

func (HuggingFace) ParseInputs(meta *toolmeta.ToolMeta, raw string) ([]string, error) {
	return parseJSONInputs(meta, raw)
}

func (HuggingFace) FormatOutput(meta *toolmeta.ToolMeta, output string) string {
	outs := meta.Outputs()
	if len(outs) == 1 && outs[0] != toolmeta.ModalityText {
		return llmutils.ToJSON(map[string]string{string(outs[0]): output})
	}
	return output
}

func parseJSONInputs(meta *toolmeta.ToolMeta, raw string) ([]string, error) {
	names := schema.InputNames(meta)
	trimmed := strings.TrimSpace(raw)
	cleaned := []byte(trimmed)
	if strings.HasPrefix(trimmed, "```") {
		cleaned = llmutils.CleanJSON(llmutils.BytesTrimBackticks(cleaned))
	}

	switch {
	case strings.HasPrefix(string(cleaned), "{"):
		var args map[string]any
		if err := json.Unmarshal(cleaned, &args); err != nil {
			return nil, errors.Wrap(ErrInvalidInput, err.Error())
		}
		res := make([]string, 0, len(names))
		for _, name := range names {
			v, ok := args[name]
			if !ok {
				return nil, errors.Wrapf(ErrInvalidInput, "missing argument %q", name)
			}
			res = append(res, llmutils.Stringify(v))
		}
		return res, nil
	case strings.HasPrefix(string(cleaned), "["):
		var args []any
		if err := json.Unmarshal(cleaned, &args); err != nil {
			return nil, errors.Wrap(ErrInvalidInput, err.Error())
		}
		if len(args) != len(names) {
			return nil, errors.Wrapf(ErrInvalidInput, "expected %d arguments, got %d", len(names), len(args))
		}
		res := make([]string, len(args))
		for i, v := range args {
			res[i] = llmutils.Stringify(v)
		}
		return res, nil
	}

	if len(names) != 1 {
		return nil, errors.Wrapf(ErrInvalidInput, "expected JSON object with arguments: %s", strings.Join(names, ", "))
	}
	return []string{trimmed}, nil
}
