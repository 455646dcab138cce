// Package openapi describes the HTTP API as an OpenAPI 3.1 document built
// from the route table and the request validation schemas.
package openapi

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/validate"
)

// Info holds the document metadata.
type Info struct {
	Title     string
	Version   string
	ServerURL string
}

// Route describes one mounted endpoint.
type Route struct {
	Method      string
	Path        string // chi pattern, e.g. /api/admin/videos/{id}
	Tag         string
	Summary     string
	OperationID string

	Auth        bool // requires an admin session
	SuperAdmin  bool // requires the superadmin role
	RateLimited bool

	Body      validate.Schema
	Multipart bool // body may also be sent as multipart/form-data with a logo file
	Query     openapi3.Parameters

	Status int  // success status; defaults to 200
	Data   any  // sample value of the envelope data field, nil for none
	Raw    bool // the body is Data itself rather than an envelope
}

// Generate builds the document for the given routes.
func Generate(info Info, routes []Route) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       info.Title,
			Description: "Public content and contact intake plus the admin dashboard API.",
			Version:     info.Version,
		},
	}
	if info.ServerURL != "" {
		doc.Servers = openapi3.Servers{{URL: info.ServerURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Components.SecuritySchemes["cookieAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "cookie",
			Name: "token",
		},
	}

	doc.Components.Schemas["FieldError"] = &openapi3.SchemaRef{Value: schemaOf(reflect.TypeOf(model.FieldError{}))}
	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"success":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
				"message":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
				"retryAfter": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
				"errors": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:  &openapi3.Types{"array"},
						Items: openapi3.NewSchemaRef("#/components/schemas/FieldError", nil),
					},
				},
			},
			Required: []string{"success", "message"},
		},
	}

	doc.Paths = openapi3.NewPaths()
	for _, rt := range routes {
		item := doc.Paths.Value(rt.Path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(rt.Path, item)
		}
		item.SetOperation(rt.Method, operation(rt))
	}
	return doc
}

// operation builds the operation object for one route.
func operation(rt Route) *openapi3.Operation {
	status := rt.Status
	if status == 0 {
		status = http.StatusOK
	}
	op := &openapi3.Operation{
		Tags:        []string{rt.Tag},
		Summary:     rt.Summary,
		OperationID: rt.OperationID,
		Parameters:  append(pathParameters(rt.Path), rt.Query...),
	}
	if rt.Auth {
		op.Security = &openapi3.SecurityRequirements{
			{"bearerAuth": {}},
			{"cookieAuth": {}},
		}
	}

	if rt.Body != nil {
		body := requestSchema(rt.Body)
		content := openapi3.NewContentWithJSONSchema(body)
		if rt.Multipart {
			form := requestSchema(rt.Body)
			form.Properties["logo"] = &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "binary"},
			}
			content["multipart/form-data"] = &openapi3.MediaType{
				Schema: &openapi3.SchemaRef{Value: form},
			}
		}
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{Required: true, Content: content},
		}
	}

	var codes []int
	if rt.Body != nil || len(rt.Query) > 0 || len(op.Parameters) > 0 {
		codes = append(codes, http.StatusBadRequest)
	}
	if rt.Auth || rt.Path == "/api/admin/login" {
		codes = append(codes, http.StatusUnauthorized)
	}
	if rt.SuperAdmin {
		codes = append(codes, http.StatusForbidden)
	}
	if strings.Contains(rt.Path, "{") {
		codes = append(codes, http.StatusNotFound)
	}
	if rt.Multipart {
		codes = append(codes, http.StatusRequestEntityTooLarge)
	}
	if rt.RateLimited || rt.Auth {
		codes = append(codes, http.StatusTooManyRequests)
	}
	codes = append(codes, http.StatusInternalServerError)

	body := envelopeSchema(rt.Data)
	if rt.Raw {
		body = &openapi3.SchemaRef{Value: schemaOf(reflect.TypeOf(rt.Data))}
	}
	op.Responses = newResponses(status, body, codes)
	return op
}

// pathParameters declares every {name} segment of a chi pattern. All path
// parameters of this API are numeric ids.
func pathParameters(path string) openapi3.Parameters {
	var params openapi3.Parameters
	for _, seg := range strings.Split(path, "/") {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.Trim(seg, "{}")
		params = append(params, &openapi3.ParameterRef{
			Value: openapi3.NewPathParameter(name).
				WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}),
		})
	}
	return params
}

// envelopeSchema wraps the data schema in the success envelope.
func envelopeSchema(data any) *openapi3.SchemaRef {
	s := &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"success": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
			"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
		},
		Required: []string{"success"},
	}
	if data != nil {
		s.Properties["data"] = &openapi3.SchemaRef{Value: schemaOf(reflect.TypeOf(data))}
	}
	return &openapi3.SchemaRef{Value: s}
}

// requestSchema converts a validation schema into an object schema. Dotted
// paths become nested objects; a nested object is never required itself.
func requestSchema(schema validate.Schema) *openapi3.Schema {
	root := &openapi3.Schema{Type: &openapi3.Types{"object"}, Properties: openapi3.Schemas{}}
	for _, rule := range schema {
		parts := strings.Split(rule.Path(), ".")
		parent := root
		for _, p := range parts[:len(parts)-1] {
			ref, ok := parent.Properties[p]
			if !ok {
				ref = &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"object"}, Properties: openapi3.Schemas{}},
				}
				parent.Properties[p] = ref
			}
			parent = ref.Value
		}
		leaf := parts[len(parts)-1]
		parent.Properties[leaf] = &openapi3.SchemaRef{Value: ruleSchema(rule)}
		if !rule.IsOptional() {
			parent.Required = append(parent.Required, leaf)
		}
	}
	return root
}

// ruleSchema describes a single validated field. Validator tags up to the
// first dive map onto bounds and enums.
func ruleSchema(rule *validate.Rule) *openapi3.Schema {
	s := typeSchema(MapKind(rule.Kind()))
	switch rule.Kind() {
	case validate.List:
		s.Items = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
	case validate.Objects:
		s.Items = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}

	for _, tags := range rule.Tags() {
		for _, tag := range strings.Split(tags, ",") {
			if tag == "dive" {
				break
			}
			name, param, _ := strings.Cut(tag, "=")
			switch name {
			case "oneof":
				for _, v := range strings.Fields(param) {
					s.Enum = append(s.Enum, v)
				}
			case "email":
				s.Format = "email"
			case "url", "http_url":
				s.Format = "uri"
			case "min", "gte":
				applyBound(s, rule.Kind(), param, true)
			case "max", "lte":
				applyBound(s, rule.Kind(), param, false)
			case "len":
				applyBound(s, rule.Kind(), param, true)
				applyBound(s, rule.Kind(), param, false)
			}
		}
	}
	return s
}

func applyBound(s *openapi3.Schema, kind validate.Kind, param string, lower bool) {
	n, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return
	}
	switch kind {
	case validate.Int:
		f := float64(n)
		if lower {
			s.Min = &f
		} else {
			s.Max = &f
		}
	case validate.List, validate.Objects:
		if lower {
			s.MinItems = n
		} else {
			s.MaxItems = &n
		}
	case validate.String:
		if lower {
			s.MinLength = n
		} else {
			s.MaxLength = &n
		}
	}
}

// ─── Response Helpers ───────────────────────────────────────────────────────

var errorDescriptions = map[int]string{
	http.StatusBadRequest:            "Validation failed or malformed request",
	http.StatusUnauthorized:          "Missing, invalid or expired credentials",
	http.StatusForbidden:             "Insufficient role",
	http.StatusNotFound:              "Resource not found",
	http.StatusRequestEntityTooLarge: "Payload too large",
	http.StatusTooManyRequests:       "Rate limit exceeded",
	http.StatusInternalServerError:   "Internal server error",
}

// newResponses builds a Responses map with a success response and the given
// error responses.
func newResponses(status int, schema *openapi3.SchemaRef, errorCodes []int) *openapi3.Responses {
	successDesc := http.StatusText(status)
	responses := openapi3.NewResponses(openapi3.WithStatus(status, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}))

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for _, code := range errorCodes {
		desc, ok := errorDescriptions[code]
		if !ok {
			desc = http.StatusText(code)
		}
		responses.Set(strconv.Itoa(code), &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}

// operationID derives a stable id such as "get_admin_videos_id".
func operationID(method, path string) string {
	path = strings.TrimPrefix(path, "/api")
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(path, "/") {
		seg = strings.Trim(seg, "{}")
		if seg == "" {
			continue
		}
		b.WriteByte('_')
		b.WriteString(strings.NewReplacer("-", "_", ".", "_").Replace(seg))
	}
	return b.String()
}

// describe fills in defaults derived from the method and path.
func describe(routes []Route) []Route {
	for i := range routes {
		if routes[i].OperationID == "" {
			routes[i].OperationID = operationID(routes[i].Method, routes[i].Path)
		}
		if routes[i].Summary == "" {
			routes[i].Summary = fmt.Sprintf("%s %s", routes[i].Method, routes[i].Path)
		}
	}
	return routes
}
