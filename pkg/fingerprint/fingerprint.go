// Package fingerprint provides canonical serialization and content hashing
// used to deduplicate tool instances and shared models.
package fingerprint

import (
	"bytes"
	"encoding"
	"encoding/json"
	"reflect"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// Canonical returns a deterministic JSON serialization of v.
// Map keys are sorted at every depth, including maps with non-string keys,
// so that values built in different orders serialize identically.
func Canonical(v any) ([]byte, error) {
	norm, err := normalize(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm); err != nil {
		return nil, errors.Wrap(err, "failed to serialize value")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Sum returns the hex encoded xxhash64 of the data.
func Sum(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// Of returns the fingerprint of the canonical serialization of v.
func Of(v any) (string, error) {
	bs, err := Canonical(v)
	if err != nil {
		return "", err
	}
	return Sum(bs), nil
}

type kv struct {
	Key   string `json:"k"`
	Value any    `json:"v"`
}

// typed keeps the type name of structs and marshaled values,
// so values of different types with the same content do not collide.
type typed struct {
	Type  string `json:"t"`
	Value any    `json:"v"`
}

// normalize converts v into values that encoding/json serializes
// deterministically: maps become key-sorted slices of pairs.
// Values implementing json.Marshaler or encoding.TextMarshaler are
// serialized with their marshaler.
func normalize(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		return normalize(v.Elem())
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, nil
	}
	if val, ok, err := marshal(v); ok {
		return val, err
	}

	switch v.Kind() {
	case reflect.Pointer:
		return normalize(v.Elem())
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		pairs := make([]kv, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := keyString(iter.Key())
			if err != nil {
				return nil, err
			}
			val, err := normalize(iter.Value())
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, kv{Key: key, Value: val})
		}
		sort.Slice(pairs, func(i, j int) bool {
			return pairs[i].Key < pairs[j].Key
		})
		return pairs, nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface(), nil
		}
		list := make([]any, v.Len())
		for i := range list {
			val, err := normalize(v.Index(i))
			if err != nil {
				return nil, err
			}
			list[i] = val
		}
		return list, nil
	case reflect.Struct:
		fields := make([]any, 0, v.NumField())
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				if f.Name == "_" {
					continue
				}
				return nil, errors.Errorf("value of type %s has unexported field %s", t, f.Name)
			}
			val, err := normalize(v.Field(i))
			if err != nil {
				return nil, err
			}
			fields = append(fields, kv{Key: f.Name, Value: val})
		}
		return typed{Type: t.String(), Value: fields}, nil
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil, errors.Errorf("value of type %s can not be serialized", v.Type())
	default:
		return v.Interface(), nil
	}
}

// marshal returns the serialization of v by its own marshaler,
// ok is false if v does not implement one.
func marshal(v reflect.Value) (any, bool, error) {
	if !v.CanInterface() {
		return nil, false, nil
	}
	i := v.Interface()
	name := v.Type()
	for name.Kind() == reflect.Pointer {
		name = name.Elem()
	}
	if _, isMarshaler := i.(json.Marshaler); !isMarshaler {
		if _, isText := i.(encoding.TextMarshaler); !isText && v.CanAddr() && v.Addr().CanInterface() {
			i = v.Addr().Interface()
		}
	}

	switch m := i.(type) {
	case json.Marshaler:
		bs, err := m.MarshalJSON()
		if err != nil {
			return nil, true, errors.Wrapf(err, "failed to marshal value of type %s", v.Type())
		}
		return typed{Type: name.String(), Value: json.RawMessage(bs)}, true, nil
	case encoding.TextMarshaler:
		bs, err := m.MarshalText()
		if err != nil {
			return nil, true, errors.Wrapf(err, "failed to marshal value of type %s", v.Type())
		}
		return typed{Type: name.String(), Value: string(bs)}, true, nil
	}
	return nil, false, nil
}

func keyString(k reflect.Value) (string, error) {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	case reflect.Bool:
		return strconv.FormatBool(k.Bool()), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(k.Float(), 'g', -1, 64), nil
	}
	return "", errors.Errorf("map key of type %s can not be serialized", k.Type())
}
