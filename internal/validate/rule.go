// Package validate runs declarative per-field rules over request input,
// collecting every failure before a handler sees the data.
package validate

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
)

// Kind is the type a field value is coerced to before its checks run.
type Kind int

const (
	String Kind = iota
	Int
	Bool
	List
	Objects
)

type check struct {
	tag string
	fn  func(any) bool
	msg string
}

// Rule validates and sanitizes one field. Build rules with Field and the
// chained methods; checks run in the order they were added.
type Rule struct {
	path      string
	kind      Kind
	typeMsg   string
	optional  bool
	skipFalsy bool
	trim      bool
	lower     bool
	escape    bool
	checks    []check
}

// Field starts a rule for the value at path. Dots address nested objects,
// e.g. "internationalCongress.value".
func Field(path string) *Rule {
	return &Rule{path: path, kind: String}
}

// Path is the field path the rule applies to.
func (r *Rule) Path() string { return r.path }

// Kind is the type the value is coerced to.
func (r *Rule) Kind() Kind { return r.kind }

// IsOptional reports whether the field may be omitted.
func (r *Rule) IsOptional() bool { return r.optional }

// Tags returns the validator tag expressions of the rule in order.
func (r *Rule) Tags() []string {
	var tags []string
	for _, c := range r.checks {
		if c.tag != "" {
			tags = append(tags, c.tag)
		}
	}
	return tags
}

// Int coerces the value to an integer; msg is reported when it is not one.
func (r *Rule) Int(msg string) *Rule {
	r.kind, r.typeMsg = Int, msg
	return r
}

// Bool coerces the value to a boolean.
func (r *Rule) Bool(msg string) *Rule {
	r.kind, r.typeMsg = Bool, msg
	return r
}

// List coerces the value to a list of strings. A single string is split on
// commas.
func (r *Rule) List(msg string) *Rule {
	r.kind, r.typeMsg = List, msg
	return r
}

// Objects requires a list of JSON objects, e.g. [{"id":1,"order":0}].
func (r *Rule) Objects(msg string) *Rule {
	r.kind, r.typeMsg = Objects, msg
	return r
}

// Optional skips the field entirely when it is absent, null or blank.
func (r *Rule) Optional() *Rule {
	r.optional = true
	return r
}

// OptionalFalsy is Optional that also skips false and zero, for text fields
// that clients clear with any falsy value.
func (r *Rule) OptionalFalsy() *Rule {
	r.optional = true
	r.skipFalsy = true
	return r
}

// Trim strips surrounding whitespace before the checks run.
func (r *Rule) Trim() *Rule {
	r.trim = true
	return r
}

// NormalizeEmail lower-cases the value before the checks run.
func (r *Rule) NormalizeEmail() *Rule {
	r.trim, r.lower = true, true
	return r
}

// Escape HTML-escapes the stored value after all checks pass.
func (r *Rule) Escape() *Rule {
	r.escape = true
	return r
}

// Check adds a validator tag expression such as "required" or
// "min=2,max=100"; msg is reported when it fails.
func (r *Rule) Check(tag, msg string) *Rule {
	r.checks = append(r.checks, check{tag: tag, msg: msg})
	return r
}

// Func adds a custom predicate over the coerced value.
func (r *Rule) Func(fn func(v any) bool, msg string) *Rule {
	r.checks = append(r.checks, check{fn: fn, msg: msg})
	return r
}

// apply runs the rule against raw. It returns the sanitized value, whether
// the field should be stored and the first failure message, if any.
func (r *Rule) apply(raw any, present bool) (any, bool, string) {
	if s, ok := raw.(string); ok && r.trim {
		raw = strings.TrimSpace(s)
	}
	if r.optional && (!present || raw == nil || raw == "" || r.skipFalsy && isFalsy(raw)) {
		return nil, false, ""
	}

	val, err := r.coerce(raw)
	if err != nil {
		return nil, false, r.typeMsg
	}

	for _, c := range r.checks {
		ok := true
		if c.fn != nil {
			ok = c.fn(val)
		} else {
			ok = engine.Var(val, c.tag) == nil
		}
		if !ok {
			return nil, false, c.msg
		}
	}

	if r.escape {
		switch v := val.(type) {
		case string:
			val = escapeHTML(v)
		case []string:
			for i := range v {
				v[i] = escapeHTML(v[i])
			}
		}
	}
	return val, true, ""
}

func (r *Rule) coerce(raw any) (any, error) {
	switch r.kind {
	case Int:
		return toInt(raw)
	case Bool:
		return toBool(raw)
	case List:
		return toList(raw, r.trim)
	case Objects:
		return toObjects(raw)
	default:
		return toString(raw, r.lower)
	}
}

// isFalsy reports false and numeric zero. Strings are handled by the blank
// check; "0" and "false" are ordinary text.
func isFalsy(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return !v
	case float64:
		return v == 0
	case int:
		return v == 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	}
	return false
}

func toString(raw any, lower bool) (string, error) {
	var s string
	switch v := raw.(type) {
	case nil:
		s = ""
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		return "", fmt.Errorf("not a string: %T", raw)
	}
	if lower {
		s = strings.ToLower(s)
	}
	return s, nil
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := strconv.Atoi(v.String())
		return n, err
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	case int:
		return v, nil
	}
	return 0, fmt.Errorf("not an integer: %T", raw)
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	case float64:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	}
	return false, fmt.Errorf("not a boolean: %v", raw)
}

func toList(raw any, trim bool) ([]string, error) {
	var items []string
	switch v := raw.(type) {
	case nil:
	case string:
		items = strings.Split(v, ",")
	case []string:
		items = append(items, v...)
	case []any:
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("list element is %T", e)
			}
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("not a list: %T", raw)
	}

	out := make([]string, 0, len(items))
	for _, s := range items {
		if trim {
			s = strings.TrimSpace(s)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func toObjects(raw any) ([]map[string]any, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("not a list: %T", raw)
	}
	out := make([]map[string]any, 0, len(items))
	for _, e := range items {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("list element is %T", e)
		}
		out = append(out, m)
	}
	return out, nil
}

// escapeHTML replaces & < > " ' with their entities.
func escapeHTML(s string) string {
	return html.EscapeString(s)
}
