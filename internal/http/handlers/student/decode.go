package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 50 << 20

// maxMemory is how much of a multipart body is kept in memory.
const maxMemory = 32 << 20

var errEmptyBody = errors.New("request body is empty")

// formValues flattens the request body into field → value. Repeated
// keys keep their first value.
func formValues(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		return jsonValues(r.Body)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
	}

	values := make(map[string]string, len(r.PostForm))
	for key, vs := range r.PostForm {
		if len(vs) > 0 {
			values[key] = vs[0]
		}
	}
	return values, nil
}

// jsonValues decodes a JSON object. Strings, numbers and booleans are
// kept as text so JSON and form submissions go through the same
// validation; null means "not provided".
func jsonValues(body io.Reader) (map[string]string, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	err := dec.Decode(&raw)
	if errors.Is(err, io.EOF) {
		return nil, errEmptyBody
	}
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	values := make(map[string]string, len(raw))
	for key, v := range raw {
		switch v := v.(type) {
		case nil:
		case string:
			values[key] = v
		case json.Number:
			values[key] = v.String()
		case bool:
			values[key] = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("field %s must be a string or a number", key)
		}
	}
	return values, nil
}
