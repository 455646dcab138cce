package openapi

import (
	"reflect"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/makeplus/makeplus-api/internal/validate"
)

// TypeMapping maps Go types and validated request fields to OpenAPI
// type/format pairs.
type TypeMapping struct {
	Type   string // OpenAPI type: string, integer, number, boolean, object, array
	Format string // OpenAPI format: int32, int64, float, double, date-time, byte, etc.
}

var timeType = reflect.TypeOf(time.Time{})

// MapGoType converts a Go type to an OpenAPI type mapping. Pointers map to
// their element type; unknown kinds fall back to {"string", ""}.
func MapGoType(t reflect.Type) TypeMapping {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return TypeMapping{"string", "date-time"}
	}
	switch t.Kind() {
	case reflect.Bool:
		return TypeMapping{"boolean", ""}
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return TypeMapping{"integer", "int32"}
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return TypeMapping{"integer", "int64"}
	case reflect.Float32:
		return TypeMapping{"number", "float"}
	case reflect.Float64:
		return TypeMapping{"number", "double"}
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return TypeMapping{"string", "byte"}
		}
		return TypeMapping{"array", ""}
	case reflect.Map, reflect.Struct, reflect.Interface:
		return TypeMapping{"object", ""}
	}
	return TypeMapping{"string", ""}
}

// MapKind converts the coercion kind of a validated field.
func MapKind(k validate.Kind) TypeMapping {
	switch k {
	case validate.Int:
		return TypeMapping{"integer", "int32"}
	case validate.Bool:
		return TypeMapping{"boolean", ""}
	case validate.List, validate.Objects:
		return TypeMapping{"array", ""}
	}
	return TypeMapping{"string", ""}
}

func typeSchema(m TypeMapping) *openapi3.Schema {
	s := &openapi3.Schema{Type: &openapi3.Types{m.Type}}
	if m.Format != "" {
		s.Format = m.Format
	}
	return s
}

// schemaOf describes the JSON encoding of values of type t. Struct fields
// follow their json tags; fields tagged "-" are omitted.
func schemaOf(t reflect.Type) *openapi3.Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Interface {
		return &openapi3.Schema{}
	}

	m := MapGoType(t)
	s := typeSchema(m)
	switch {
	case m.Type == "array":
		s.Items = &openapi3.SchemaRef{Value: schemaOf(t.Elem())}
	case t.Kind() == reflect.Struct && t != timeType:
		s.Properties = openapi3.Schemas{}
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
			s.Properties[name] = &openapi3.SchemaRef{Value: schemaOf(f.Type)}
			if f.Type.Kind() != reflect.Pointer && !strings.Contains(opts, "omitempty") {
				s.Required = append(s.Required, name)
			}
		}
	case t.Kind() == reflect.Map:
		s.AdditionalProperties = openapi3.AdditionalProperties{
			Schema: &openapi3.SchemaRef{Value: schemaOf(t.Elem())},
		}
	}
	return s
}
