package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/stategraph/pkg/schema"
)

// RegisterFunc registers a tool whose arguments are the fields of struct T.
// The argument schema is derived from T (json tag names; pointer or omitempty
// fields are optional) and call arguments are decoded into T with mapstructure,
// so JSON numbers such as 3.0 decode into int fields.
func RegisterFunc[T any, R any](r *Registry, name, description string, fn func(ctx context.Context, args T) (R, error)) error {
	args, err := SchemaFor[T]()
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}
	return r.Register(Definition{Name: name, Description: description, Args: args},
		func(ctx context.Context, raw map[string]any) (any, error) {
			var in T
			if err := Decode(raw, &in); err != nil {
				return nil, fmt.Errorf("decode arguments for %s: %w", name, err)
			}
			return fn(ctx, in)
		})
}

// Decode converts loosely typed arguments into a struct using json tag names.
func Decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// SchemaFor derives an argument schema from the exported fields of struct T.
func SchemaFor[T any]() (schema.Schema, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("arguments must be a struct, got %s", t)
	}

	out := schema.Schema{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}

		ft := f.Type
		optional := strings.Contains(opts, "omitempty")
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
			optional = true
		}
		typ := typeOf(ft)
		if optional {
			typ = schema.Optional(typ)
		}
		out[name] = typ
	}
	return out, nil
}

func typeOf(t reflect.Type) schema.Type {
	switch t.Kind() {
	case reflect.String:
		return schema.String()
	case reflect.Bool:
		return schema.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return schema.Int()
	case reflect.Float32, reflect.Float64:
		return schema.Float()
	case reflect.Slice, reflect.Array:
		return schema.Slice(typeOf(t.Elem()))
	default:
		return schema.Custom(t.String(), func(any) error { return nil })
	}
}
