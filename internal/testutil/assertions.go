package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse checks the status and decodes the body into v
func AssertJSONResponse(t *testing.T, resp *http.Response, expectedStatus int, v interface{}) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code: %s", string(body))

	if v != nil {
		err = json.Unmarshal(body, v)
		require.NoError(t, err, "failed to unmarshal response: %s", string(body))
	}
}

// AssertErrorResponse verifies the status and the error code of an error body
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedCode string) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code: %s", string(body))

	var errResp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &errResp), "error body is not JSON: %s", string(body))
	assert.Equal(t, expectedCode, errResp.Error.Code, "error code mismatch")
	assert.NotEmpty(t, errResp.Error.Message)
}
