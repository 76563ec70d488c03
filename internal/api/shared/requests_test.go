package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name  string `json:"name" validate:"required,max=10"`
	Count int    `json:"count" validate:"min=0"`
}

func decodeInto(t *testing.T, body string, dst interface{}) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return DecodeJSON(httptest.NewRecorder(), req, dst)
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	t.Run("valid body", func(t *testing.T) {
		t.Parallel()
		var p samplePayload
		require.NoError(t, decodeInto(t, `{"name":"board","count":3}`, &p))
		assert.Equal(t, "board", p.Name)
		assert.Equal(t, 3, p.Count)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		var p samplePayload
		err := decodeInto(t, ``, &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not be empty")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()
		var p samplePayload
		err := decodeInto(t, `{"name":`, &p)
		require.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		var p samplePayload
		err := decodeInto(t, `{"name":"x","color":"red"}`, &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown field")
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		var p samplePayload
		err := decodeInto(t, `{"name":"x","count":"three"}`, &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "count")
	})

	t.Run("trailing content", func(t *testing.T) {
		t.Parallel()
		var p samplePayload
		err := decodeInto(t, `{"name":"x"}{"name":"y"}`, &p)
		require.Error(t, err)
	})
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateRequest(samplePayload{Name: "ok"}))

	err := ValidateRequest(samplePayload{Name: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "required")

	err = ValidateRequest(samplePayload{Name: "far-too-long-name"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max")
}
