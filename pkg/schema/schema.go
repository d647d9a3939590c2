// Package schema builds JSON schemas: function-calling parameters of a tool,
// derived from its declared input modalities, and schemas of Go types.
package schema

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/effective-security/mmtools/pkg/toolmeta"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultInput is the argument name of a tool that does not declare modalities
const DefaultInput = "input"

// InputNames returns argument names for the declared inputs of the tool.
// Names are the modality, suffixed with the position if a modality repeats:
// `image`, `text`, `image_2`.
func InputNames(meta *toolmeta.ToolMeta) []string {
	return ArgNames(meta.Inputs())
}

// ArgNames returns argument names for the input modalities, see InputNames.
func ArgNames(inputs []toolmeta.Modality) []string {
	if len(inputs) == 0 {
		return []string{DefaultInput}
	}

	names := make([]string, 0, len(inputs))
	seen := make(map[toolmeta.Modality]int)
	for _, m := range inputs {
		seen[m]++
		name := string(m)
		if n := seen[m]; n > 1 {
			name += "_" + strconv.Itoa(n)
		}
		names = append(names, name)
	}
	return names
}

// ForTool returns the function parameters schema of the tool inputs.
func ForTool(meta *toolmeta.ToolMeta) *jsonschema.Schema {
	inputs := meta.Inputs()
	names := InputNames(meta)

	props := orderedmap.New[string, *jsonschema.Schema]()
	for i, name := range names {
		modality := toolmeta.ModalityText
		if i < len(inputs) {
			modality = inputs[i]
		}
		props.Set(name, &jsonschema.Schema{
			Type:        "string",
			Title:       name,
			Description: describe(modality, meta.InputDescription),
		})
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   names,
	}
}

func describe(m toolmeta.Modality, fallback string) string {
	switch m {
	case toolmeta.ModalityImage, toolmeta.ModalityVideo, toolmeta.ModalityAudio:
		return "Path or URL of the " + string(m) + " file"
	case toolmeta.ModalityText:
		if fallback != "" {
			return fallback
		}
		return "Text input"
	}
	return "Input of type " + string(m)
}

// JSONSchema return the json schema of the type
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	// VS Code does not support the jsonschema version 2020-12
	jsonschema.Version = "http://json-schema.org/draft-07/schema#"

	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = true
	r.AllowAdditionalProperties = true

	// Struct names of different packages can collide,
	// the package path hash keeps the definitions apart.
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			fullname := t.PkgPath() + "/" + t.Name()
			name = t.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(fullname), 10)
		}
		return name
	}

	return r.ReflectFromType(t)
}

// String returns indented JSON of the schema.
func String(s *jsonschema.Schema) string {
	js, _ := json.MarshalIndent(s, "", "\t")
	return string(js)
}

// PropertyNames returns the property names of the schema in order.
func PropertyNames(s *jsonschema.Schema) []string {
	if s == nil || s.Properties == nil {
		return nil
	}
	var names []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// IsMedia returns true if the argument name refers to a media input.
func IsMedia(name string) bool {
	base, _, _ := strings.Cut(name, "_")
	switch toolmeta.Modality(base) {
	case toolmeta.ModalityImage, toolmeta.ModalityVideo, toolmeta.ModalityAudio:
		return true
	}
	return false
}
