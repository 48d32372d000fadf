package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soukhtanlou/school-service-optimizer/api"
)

func TestOpenAPIHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	api.OpenAPIHandler(rec, httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "/v1/waypoints/{slot}")
	require.Contains(t, rec.Body.String(), "/optimize-route")
}
