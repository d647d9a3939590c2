package toolmeta

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Modality is the kind of value a tool consumes or produces.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
	ModalityAudio Modality = "audio"
)

// ToolMeta is the metadata of a tool.
// Once attached to an instantiated tool it must not be mutated,
// tools hand out copies via Clone.
type ToolMeta struct {
	// ToolName is the display name of the tool, as seen by the agent.
	ToolName string `json:"tool_name" yaml:"tool_name" validate:"required"`
	// Description is used in the agent prompt for tool selection.
	// It may contain modality placeholders, like {{{input:image}}}.
	Description string `json:"description" yaml:"description" validate:"required"`
	// Model is either a model name, or a structured model config
	// with the model name under the "model" key.
	Model any `json:"model,omitempty" yaml:"model,omitempty"`
	// InputDescription is a free text description of the inputs.
	InputDescription string `json:"input_description,omitempty" yaml:"input_description,omitempty"`
	// OutputDescription is a free text description of the output.
	OutputDescription string `json:"output_description,omitempty" yaml:"output_description,omitempty"`
}

var placeholder = regexp.MustCompile(`\{\{\{(input|output):([a-zA-Z_]+)\}\}\}`)

// Clone returns a deep copy of the metadata.
func (m *ToolMeta) Clone() *ToolMeta {
	if m == nil {
		return nil
	}
	c := *m
	if mm, ok := m.Model.(map[string]any); ok {
		c.Model = maps.Clone(mm)
	}
	return &c
}

// Validate returns an error if required fields are missing.
func (m *ToolMeta) Validate() error {
	if m == nil {
		return errors.New("tool meta is nil")
	}
	if err := validator.New().Struct(m); err != nil {
		return errors.Wrapf(err, "invalid meta for tool %q", m.ToolName)
	}
	return nil
}

// ModelName returns the model reference as a string.
// For structured models the "model" key is returned.
func (m *ToolMeta) ModelName() string {
	switch v := m.Model.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if name, ok := v["model"].(string); ok {
			return name
		}
		bs, _ := json.Marshal(v)
		return string(bs)
	default:
		return fmt.Sprint(v)
	}
}

// ModelConfig returns the structured model config, or a config with
// only the "model" key for a plain model name.
func (m *ToolMeta) ModelConfig() map[string]any {
	switch v := m.Model.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return maps.Clone(v)
	default:
		return map[string]any{"model": m.ModelName()}
	}
}

// Inputs returns the input modalities declared in the description,
// in the order of appearance.
func (m *ToolMeta) Inputs() []Modality {
	return m.modalities("input")
}

// Outputs returns the output modalities declared in the description,
// in the order of appearance.
func (m *ToolMeta) Outputs() []Modality {
	return m.modalities("output")
}

func (m *ToolMeta) modalities(kind string) []Modality {
	var res []Modality
	for _, match := range placeholder.FindAllStringSubmatch(m.Description, -1) {
		if match[1] == kind {
			res = append(res, Modality(strings.ToLower(match[2])))
		}
	}
	return res
}

// RenderDescription replaces the modality placeholders in the description
// with the text returned by fn.
func (m *ToolMeta) RenderDescription(fn func(kind string, modality Modality) string) string {
	return placeholder.ReplaceAllStringFunc(m.Description, func(s string) string {
		match := placeholder.FindStringSubmatch(s)
		return fn(match[1], Modality(strings.ToLower(match[2])))
	})
}

// String returns the display name of the tool.
func (m *ToolMeta) String() string {
	return m.ToolName
}
