package tools

import (
	"maps"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Well known construction options
const (
	// OptionRemote requests remote execution
	OptionRemote = "remote"
	// OptionEcoMode keeps model weights off the accelerator between calls
	OptionEcoMode = "eco_mode"
)

// Options are free-form construction options of a tool.
type Options map[string]any

// Clone returns a copy of the options.
func (o Options) Clone() Options {
	if o == nil {
		return Options{}
	}
	return maps.Clone(o)
}

// Bool returns the option as bool, or def if missing or invalid.
func (o Options) Bool(key string, def bool) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Int returns the option as int, or def if missing or invalid.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// Float returns the option as float64, or def if missing or invalid.
func (o Options) Float(key string, def float64) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// String returns the option as string, or def if missing.
func (o Options) String(key string, def string) string {
	if v, ok := o[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Without returns a copy of the options without the keys.
func (o Options) Without(keys ...string) Options {
	c := o.Clone()
	for _, k := range keys {
		delete(c, k)
	}
	return c
}

// Decode decodes the options into a typed struct, and validates it with the
// `validate` tags. Values are weakly typed, so "0.5" decodes into a float.
// Keys without a matching field are ignored.
func (o Options) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if err = decoder.Decode(map[string]any(o)); err != nil {
		return errors.Wrap(err, "invalid options")
	}
	if err = validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "invalid options")
	}
	return nil
}
