// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/orgconsole/internal/log"
)

func TestWrite(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/settings/general/abc", nil)
	req = req.WithContext(log.ContextWithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()

	Write(rec, req, http.StatusNotFound, "settings/view_not_found", "Not Found", "VIEW_NOT_FOUND", "view expired", map[string]any{
		"viewId": "abc",
		"status": 200,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "settings/view_not_found", body["type"])
	assert.Equal(t, "VIEW_NOT_FOUND", body["code"])
	assert.Equal(t, "view expired", body["detail"])
	assert.Equal(t, "/settings/general/abc", body["instance"])
	assert.Equal(t, "req-1", body[JSONKeyRequestID])
	assert.Equal(t, "abc", body["viewId"])
	assert.EqualValues(t, 404, body["status"])
}
