package validate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/makeplus/makeplus-api/internal/model"
)

func contactSchema() Schema {
	return Schema{
		Field("name").Trim().
			Check("required", "Name is required").
			Check("min=2,max=100", "Name must be between 2 and 100 characters").
			Check("personname", "Name can only contain letters, spaces, hyphens, and apostrophes").
			Escape(),
		Field("email").NormalizeEmail().
			Check("required", "Email is required").
			Check("email", "Invalid email format"),
		Field("phone").Optional().Trim().
			Check("min=10,max=20", "Phone must be between 10 and 20 characters").
			Check("phone", "Phone can only contain numbers, spaces, +, (), and -"),
		Field("message").Trim().
			Check("required", "Message is required").
			Check("min=10,max=2000", "Message must be between 10 and 2000 characters").
			Escape(),
		Field("language").Optional().Check("oneof=fr en", "Language must be either fr or en"),
	}
}

func TestTwoInvalidFieldsYieldTwoErrors(t *testing.T) {
	_, errs := contactSchema().Validate(map[string]any{
		"name":    "J",
		"email":   "not-an-email",
		"message": "A long enough message",
	})
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %+v", len(errs), errs)
	}
	if errs[0].Field != "name" || errs[1].Field != "email" {
		t.Errorf("errors out of order: %+v", errs)
	}
	if errs[1].Message != "Invalid email format" {
		t.Errorf("email message = %q", errs[1].Message)
	}
}

func TestFirstFailingCheckWins(t *testing.T) {
	_, errs := contactSchema().Validate(map[string]any{
		"name":    "   ",
		"email":   "a@b.co",
		"message": "A long enough message",
	})
	want := []model.FieldError{{Field: "name", Message: "Name is required"}}
	if len(errs) != 1 || errs[0] != want[0] {
		t.Errorf("got %+v, want %+v", errs, want)
	}
}

func TestAllFieldsMissing(t *testing.T) {
	_, errs := contactSchema().Validate(map[string]any{})
	got := map[string]string{}
	for _, e := range errs {
		got[e.Field] = e.Message
	}
	if len(errs) != 3 {
		t.Fatalf("got %+v", errs)
	}
	if got["name"] != "Name is required" || got["email"] != "Email is required" || got["message"] != "Message is required" {
		t.Errorf("got %+v", got)
	}
}

func TestOptionalFalsy(t *testing.T) {
	schema := Schema{
		Field("company").OptionalFalsy().Trim().Check("min=2,max=100", "Company must be 2 to 100 characters"),
		Field("phone").Optional().Trim().Check("min=10,max=20", "Phone must be between 10 and 20 characters"),
		Field("isActive").Optional().Bool("isActive must be a boolean"),
	}

	tests := []struct {
		name      string
		input     map[string]any
		wantErrs  []string
		wantStore []string
	}{
		{"false is skipped", map[string]any{"company": false}, nil, nil},
		{"zero is skipped", map[string]any{"company": float64(0)}, nil, nil},
		{"json zero is skipped", map[string]any{"company": json.Number("0")}, nil, nil},
		{"text zero is checked", map[string]any{"company": "0"}, []string{"company"}, nil},
		{"plain optional checks false", map[string]any{"phone": false}, []string{"phone"}, nil},
		{"false boolean is kept", map[string]any{"isActive": false}, nil, []string{"isActive"}},
		{"value is checked", map[string]any{"company": "Acme"}, nil, []string{"company"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, errs := schema.Validate(tt.input)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			if strings.Join(fields, ",") != strings.Join(tt.wantErrs, ",") {
				t.Errorf("errors = %+v, want fields %v", errs, tt.wantErrs)
			}
			for _, f := range tt.wantStore {
				if !values.Has(f) {
					t.Errorf("%s not stored", f)
				}
			}
			if len(tt.wantStore) == 0 && len(errs) == 0 && values.Has("company") {
				t.Error("skipped company should not be stored")
			}
		})
	}
}

func TestSanitizers(t *testing.T) {
	values, errs := contactSchema().Validate(map[string]any{
		"name":     "  Zoé O'Neil  ",
		"email":    " Zoe@Example.COM ",
		"message":  "<b>Hello</b> there & welcome",
		"phone":    "",
		"language": "en",
		"extra":    "dropped",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if got := values.String("name"); got != "Zoé O&#39;Neil" {
		t.Errorf("name = %q", got)
	}
	if got := values.String("email"); got != "zoe@example.com" {
		t.Errorf("email = %q", got)
	}
	if got := values.String("message"); got != "&lt;b&gt;Hello&lt;/b&gt; there &amp; welcome" {
		t.Errorf("message = %q", got)
	}
	if values.Has("phone") {
		t.Error("blank optional field should be skipped")
	}
	if values.Has("extra") {
		t.Error("fields outside the schema should be dropped")
	}
}

func TestKindsAndNestedPaths(t *testing.T) {
	schema := Schema{
		Field("stats.value").Optional().Int("Value must be a positive integer").Check("min=0", "Value must be a positive integer"),
		Field("order").Optional().Int("Order must be a positive integer").Check("min=0", "Order must be a positive integer"),
		Field("isActive").Optional().Bool("isActive must be a boolean"),
		Field("tags").Optional().Trim().List("Tags must be a list").Check("max=3", "At most 3 tags"),
	}

	values, errs := schema.Validate(map[string]any{
		"stats":    map[string]any{"value": float64(0)},
		"order":    "4",
		"isActive": "false",
		"tags":     "a, b ,,c",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}

	var dst struct {
		Stats struct {
			Value *int `json:"value"`
		} `json:"stats"`
		Order    *int     `json:"order"`
		IsActive *bool    `json:"isActive"`
		Tags     []string `json:"tags"`
	}
	if err := values.Decode(&dst); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dst.Stats.Value == nil || *dst.Stats.Value != 0 {
		t.Errorf("stats.value = %v; zero must be kept", dst.Stats.Value)
	}
	if dst.Order == nil || *dst.Order != 4 {
		t.Errorf("order = %v", dst.Order)
	}
	if dst.IsActive == nil || *dst.IsActive {
		t.Errorf("isActive = %v", dst.IsActive)
	}
	if strings.Join(dst.Tags, "|") != "a|b|c" {
		t.Errorf("tags = %v", dst.Tags)
	}

	_, errs = schema.Validate(map[string]any{
		"stats":    map[string]any{"value": -1},
		"order":    1.5,
		"isActive": "maybe",
		"tags":     []any{"a", "b", "c", "d"},
	})
	if len(errs) != 4 {
		t.Fatalf("got %+v", errs)
	}
}

func TestObjects(t *testing.T) {
	schema := Schema{
		Field("videos").Objects("Invalid videos array").Check("min=1", "Invalid videos array"),
	}
	values, errs := schema.Validate(map[string]any{
		"videos": []any{
			map[string]any{"id": float64(3), "order": float64(0)},
			map[string]any{"id": float64(1), "order": float64(1)},
		},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	var dst struct {
		Videos []model.OrderUpdate `json:"videos"`
	}
	if err := values.Decode(&dst); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(dst.Videos) != 2 || dst.Videos[0].ID != 3 || dst.Videos[1].Order != 1 {
		t.Errorf("videos = %+v", dst.Videos)
	}

	for _, bad := range []any{nil, "1,2", []any{1.0, 2.0}, []any{}} {
		if _, errs := schema.Validate(map[string]any{"videos": bad}); len(errs) != 1 {
			t.Errorf("%v: got %+v", bad, errs)
		}
	}
}

func TestCustomTags(t *testing.T) {
	schema := Schema{
		Field("url").Trim().Check("url", "Invalid YouTube URL format").Check("youtube", "Must be a valid YouTube URL"),
	}
	if _, errs := schema.Validate(map[string]any{"url": "https://youtu.be/dQw4w9WgXcQ"}); len(errs) != 0 {
		t.Errorf("youtu.be rejected: %+v", errs)
	}
	_, errs := schema.Validate(map[string]any{"url": "https://vimeo.com/1"})
	if len(errs) != 1 || errs[0].Message != "Must be a valid YouTube URL" {
		t.Errorf("got %+v", errs)
	}
}

func TestBodyMiddleware(t *testing.T) {
	var got Values
	h := Body(contactSchema())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Jane Doe","email":"JANE@example.com","message":"Hello there, world"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}
		if got.String("email") != "jane@example.com" {
			t.Errorf("email = %q", got.String("email"))
		}
	})

	t.Run("urlencoded", func(t *testing.T) {
		form := url.Values{"name": {"Jane Doe"}, "email": {"jane@example.com"}, "message": {"Hello there, world"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}
	})

	t.Run("invalid fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"J","email":"nope","message":"Hello there, world"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		var env model.Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatal(err)
		}
		if env.Success || env.Message != "Validation error" || len(env.Errors) != 2 {
			t.Errorf("envelope = %+v", env)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("body too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 100)+`"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		req.Body = http.MaxBytesReader(rec, req.Body, 16)
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}
