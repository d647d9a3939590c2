package tools

import "github.com/effective-security/mmtools/pkg/llmutils"

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

func describeTools(list []ITool) toolsDescription {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
		})
	}
	return d
}

// GetDescriptions returns the tool catalog as a JSON code block.
func GetDescriptions(list ...ITool) string {
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(describeTools(list)))
}

// GetDescriptionsYAML returns the tool catalog as a YAML code block.
func GetDescriptionsYAML(list ...ITool) string {
	return llmutils.BackticksYAML(llmutils.ToYAML(describeTools(list)))
}
