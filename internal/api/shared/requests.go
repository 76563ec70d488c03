package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. validator.Validate is safe for
// concurrent use and caches struct metadata, so one instance serves all
// handlers.
var validate = validator.New()

// maxRequestBodySize limits request bodies to 1 MiB.
const maxRequestBodySize = 1 << 20

// DecodeJSON decodes a JSON request body into dst, rejecting unknown fields
// and oversized bodies. It returns an error suitable for a 400 response.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("request body contains malformed JSON (at position %d)", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			if typeErr.Field != "" {
				return fmt.Errorf("request body contains an invalid value for field %q", typeErr.Field)
			}
			return fmt.Errorf("request body contains an invalid value (at position %d)", typeErr.Offset)
		case errors.As(err, &maxBytesErr):
			return fmt.Errorf("request body must not exceed %d bytes", maxBytesErr.Limit)
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("request body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("request body contains unknown field %s", field)
		default:
			return errors.New("request body could not be parsed")
		}
	}

	// Reject trailing content after the first JSON value.
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}

	return nil
}

// ValidateRequest runs struct-tag validation on a decoded request and returns
// a client-presentable error describing the first failing field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("field %q failed validation (%s)", strings.ToLower(fe.Field()), fe.Tag())
	}
	return err
}
