package validate

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/makeplus/makeplus-api/internal/apierr"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before file parts spill to disk.
const multipartMemory = 8 << 20

// Body decodes the request body, runs schema over it and rejects the request
// with a 400 listing every field error. On success the sanitized values are
// available to the next handler through FromContext.
func Body(schema Schema) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			input, err := ReadInput(r)
			if err != nil {
				apierr.Write(w, r, nil, err)
				return
			}
			values, errs := schema.Validate(input)
			if len(errs) > 0 {
				apierr.Write(w, r, nil, apierr.Validation(errs))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithValues(r.Context(), values)))
		})
	}
}

// ReadInput returns the request body as a generic object. JSON,
// urlencoded and multipart bodies are supported; an empty body yields an
// empty object. Multipart file parts stay on r.MultipartForm.
func ReadInput(r *http.Request) (map[string]any, error) {
	input := map[string]any{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, bodyError(err, "Invalid multipart body")
		}
		formInto(input, r.MultipartForm.Value)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err, "Invalid form body")
		}
		formInto(input, r.PostForm)
	default:
		if r.Body == nil {
			return input, nil
		}
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&input); err != nil {
			if errors.Is(err, io.EOF) {
				return map[string]any{}, nil
			}
			return nil, bodyError(err, "Invalid JSON body")
		}
		if input == nil {
			input = map[string]any{}
		}
	}
	return input, nil
}

func formInto(dst map[string]any, form map[string][]string) {
	for k, vs := range form {
		switch len(vs) {
		case 0:
		case 1:
			dst[k] = vs[0]
		default:
			items := make([]any, len(vs))
			for i, s := range vs {
				items[i] = s
			}
			dst[k] = items
		}
	}
}

func bodyError(err error, msg string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apierr.Wrap(apierr.KindBadRequest, msg, err)
}
