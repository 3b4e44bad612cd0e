package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "test error")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "test error", resp["error"])
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		write func(http.ResponseWriter)
		code  int
	}{
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "x") }, http.StatusBadRequest},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "x") }, http.StatusNotFound},
		{"unavailable", func(w http.ResponseWriter) { ServiceUnavailable(w, "x") }, http.StatusServiceUnavailable},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "x") }, http.StatusInternalServerError},
		{"ok", func(w http.ResponseWriter) { WriteJSONOK(w, map[string]int{"n": 1}) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestReadJSON(t *testing.T) {
	t.Parallel()

	type body struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"ramp"}`, ""},
		{"empty", ``, "empty"},
		{"unknown field", `{"nme":"ramp"}`, "unknown field"},
		{"trailing value", `{"name":"a"}{"name":"b"}`, "single JSON value"},
		{"malformed", `{"name":`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got body
			err := ReadJSON(req, &got)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ramp", got.Name)
		})
	}
}

func TestReadBodyLimit(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", MaxBodyBytes+1)))
	_, err := ReadBody(req)
	assert.ErrorContains(t, err, "exceeds")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok"))
	data, err := ReadBody(req)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestGetJSON(t *testing.T) {
	t.Parallel()

	mock := NewMockHTTPClient().
		AddResponse(http.StatusOK, `{"resting_zoom":15}`).
		AddResponse(http.StatusBadRequest, `{"error":"resting_zoom out of range"}`).
		AddResponse(http.StatusBadGateway, `oops`).
		AddErrorResponse(errors.New("connection refused"))

	ctx := context.Background()
	var got map[string]float64
	require.NoError(t, GetJSON(ctx, mock, "http://mapcam/api/camera/params", &got))
	assert.Equal(t, 15.0, got["resting_zoom"])

	assert.ErrorContains(t, GetJSON(ctx, mock, "http://mapcam/x", &got), "resting_zoom out of range")
	assert.ErrorContains(t, GetJSON(ctx, mock, "http://mapcam/x", &got), "unexpected status 502")
	assert.ErrorContains(t, GetJSON(ctx, mock, "http://mapcam/x", &got), "connection refused")
	assert.Equal(t, 4, mock.RequestCount())
}

func TestPostJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		if err := ReadJSON(r, &in); err != nil {
			BadRequest(w, err.Error())
			return
		}
		WriteJSONOK(w, map[string]string{"echo": in["id"]})
	}))
	defer srv.Close()

	c := NewStandardClient(srv.Client())
	var out map[string]string
	require.NoError(t, PostJSON(context.Background(), c, srv.URL, map[string]string{"id": "ramp"}, &out))
	assert.Equal(t, "ramp", out["echo"])

	require.NoError(t, PostJSON(context.Background(), c, srv.URL, map[string]string{"id": "x"}, nil))
}
