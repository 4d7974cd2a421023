package directoryserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/habits/internal/model"
)

func TestRoutes(t *testing.T) {
	srv := httptest.NewServer(NewRouter(SampleSeed()))
	defer srv.Close()

	type tExpectedResponse struct {
		code int
		keys int
	}
	testCases := []struct {
		name             string
		path             string
		expectedResponse tExpectedResponse
	}{
		{name: "users", path: "/users", expectedResponse: tExpectedResponse{code: http.StatusOK, keys: 4}},
		{name: "habits", path: "/habits", expectedResponse: tExpectedResponse{code: http.StatusOK, keys: 4}},
		{name: "single user", path: "/users/u2", expectedResponse: tExpectedResponse{code: http.StatusOK, keys: 3}},
		{name: "unknown user", path: "/users/nobody", expectedResponse: tExpectedResponse{code: http.StatusNotFound, keys: 1}},
		{name: "health", path: "/health", expectedResponse: tExpectedResponse{code: http.StatusOK, keys: 1}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resp, err := resty.New().R().Get(srv.URL + testCase.path)
			require.NoError(t, err)

			assert.Equal(t, testCase.expectedResponse.code, resp.StatusCode())
			assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

			var body map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(resp.Body(), &body))
			assert.Len(t, body, testCase.expectedResponse.keys)
		})
	}
}

func TestLoadSeedFillsMissingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	content := `{"users": {"x1": {"name": "Xena"}}, "habits": {}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, model.User{ID: "x1", Name: "Xena"}, seed.Users["x1"])
}

func TestLoadSeedDefaultsToSample(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)
	assert.Equal(t, SampleSeed(), seed)
}

func TestLoadSeedMissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "read seed")
}
