package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/makeplus/makeplus-api/internal/model"
)

// Schema is an ordered list of field rules.
type Schema []*Rule

// Values holds the sanitized fields that passed validation, nested by path.
type Values map[string]any

// Validate runs every rule against input. Each field reports at most its
// first failing check; all fields are evaluated. Fields not named by the
// schema are dropped.
func (s Schema) Validate(input map[string]any) (Values, []model.FieldError) {
	out := Values{}
	var errs []model.FieldError
	for _, r := range s {
		raw, present := lookup(input, r.path)
		val, keep, msg := r.apply(raw, present)
		if msg != "" {
			errs = append(errs, model.FieldError{Field: r.path, Message: msg})
			continue
		}
		if keep {
			out.set(r.path, val)
		}
	}
	return out, errs
}

// lookup finds path in input, either as a literal key (form fields) or by
// walking nested objects (JSON).
func lookup(input map[string]any, path string) (any, bool) {
	if v, ok := input[path]; ok {
		return v, true
	}
	cur := any(input)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func (v Values) set(path string, val any) {
	parts := strings.Split(path, ".")
	m := map[string]any(v)
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = val
}

// Has reports whether path passed validation and was present.
func (v Values) Has(path string) bool {
	_, ok := lookup(v, path)
	return ok
}

// String returns the value at path, or "" when absent.
func (v Values) String(path string) string {
	val, _ := lookup(v, path)
	s, _ := val.(string)
	return s
}

// Decode copies the values into dst, matching struct fields by their json
// tag. Absent optional fields leave pointer fields nil.
func (v Values) Decode(dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  dst,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(v)); err != nil {
		return fmt.Errorf("decode validated values: %w", err)
	}
	return nil
}

type ctxKey struct{}

// WithValues attaches validated values to ctx.
func WithValues(ctx context.Context, v Values) context.Context {
	return context.WithValue(ctx, ctxKey{}, v)
}

// FromContext returns the values stored by Body, or an empty set.
func FromContext(ctx context.Context) Values {
	if v, ok := ctx.Value(ctxKey{}).(Values); ok {
		return v
	}
	return Values{}
}
