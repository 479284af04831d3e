package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T, reply string, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent") {
			http.NotFound(w, r)
			return
		}
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if gotBody != nil {
			require.NoError(t, json.Unmarshal(body, gotBody))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": reply}},
					},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GenerateJSON(t *testing.T) {
	var body map[string]any
	srv := fakeAPI(t, `{"score": 90}`, &body)

	c, err := New(context.Background(), "key", "test-model", 512, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	assert.Equal(t, "test-model", c.Model())

	got, err := c.GenerateJSON(context.Background(), "be strict", "review this")
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": 90}`, got)

	gen, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig must be sent")
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.EqualValues(t, 512, gen["maxOutputTokens"])
	assert.NotNil(t, body["systemInstruction"])
}

func TestClient_GenerateJSON_Empty(t *testing.T) {
	srv := fakeAPI(t, "", nil)

	c, err := New(context.Background(), "key", "test-model", 0, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.GenerateJSON(context.Background(), "sys", "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), "", "m", 0)
	assert.Error(t, err)
}
