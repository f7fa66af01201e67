package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuscrm/backoffice/internal/application/services"
	"github.com/nexuscrm/backoffice/internal/bootstrap"
	"github.com/nexuscrm/backoffice/internal/infrastructure/persistence"
	"github.com/nexuscrm/backoffice/internal/interfaces/middleware"
	"github.com/nexuscrm/backoffice/internal/interfaces/rest"
	"github.com/nexuscrm/backoffice/pkg/auth"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/models"
)

const handlerDefaultsYAML = `
modules:
  vendors:
    searchFields: [name]
    gridConfig:
      itemsPerPage: 10
      sortBy: name
    fields:
      - id: vendors_name
        name: name
        label: Name
        type: text
        validation: {required: true}
        gridConfig: {showInGrid: true, gridOrder: 0, sortable: true}
        formOrder: 0
        isDefault: true
        isActive: true
        isSystem: true
      - id: vendors_country
        name: country
        label: Country
        type: text
        gridConfig: {showInGrid: true, gridOrder: 1, sortable: true, filterable: true}
        formOrder: 1
        isDefault: false
        isActive: true
`

type testServer struct {
	router     *gin.Engine
	adminToken string
	userToken  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	defaults, err := bootstrap.ParseDefaults([]byte(handlerDefaultsYAML))
	require.NoError(t, err)

	svc := services.NewServiceManager(
		persistence.NewMemoryDocumentStore(),
		persistence.NewMemoryKVStore(),
		defaults,
		middleware.Identity,
	)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	router := gin.New()
	rest.SetupRoutes(router, svc, tokens, middleware.NewRateLimiter(1000, 1000))

	admin, err := tokens.GenerateToken(models.UserSession{ID: "u-admin", Role: constants.RoleAdmin})
	require.NoError(t, err)
	user, err := tokens.GenerateToken(models.UserSession{ID: "u-user", Role: constants.RoleUser})
	require.NoError(t, err)

	return &testServer{router: router, adminToken: admin, userToken: user}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	if token != "" {
		req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vendors")
}

func TestConfigHandler_GetConfig(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/modules/vendors/config", s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	cfg := body[constants.ResponseConfig].(map[string]interface{})
	assert.Equal(t, float64(1), cfg["version"])
	assert.NotContains(t, body, constants.ResponseWarning)

	w = s.do(t, http.MethodGet, "/api/modules/unknown/config", s.userToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/modules/vendors/config", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConfigHandler_FieldLifecycle(t *testing.T) {
	s := newTestServer(t)
	field := map[string]interface{}{"name": "rating", "label": "Rating", "type": "number", "isActive": true}

	w := s.do(t, http.MethodPost, "/api/modules/vendors/fields", s.userToken, field)
	assert.Equal(t, http.StatusForbidden, w.Code, "only admins change configuration")

	w = s.do(t, http.MethodPost, "/api/modules/vendors/fields", s.adminToken, field)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["field"].(map[string]interface{})
	id := created["id"].(string)
	assert.True(t, strings.HasPrefix(id, "vendors_"))

	w = s.do(t, http.MethodPost, "/api/modules/vendors/fields", s.adminToken, field)
	assert.Equal(t, http.StatusConflict, w.Code, "names are unique")

	w = s.do(t, http.MethodPatch, "/api/modules/vendors/fields/"+id, s.adminToken, map[string]interface{}{"label": "Score"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Score", decode(t, w)["field"].(map[string]interface{})["label"])

	w = s.do(t, http.MethodPatch, "/api/modules/vendors/fields/"+id, s.adminToken, map[string]interface{}{"id": "other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/modules/vendors/fields/"+id+"/active", s.adminToken, map[string]interface{}{"active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/modules/vendors/fields?scope=active", s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"Score"`)

	w = s.do(t, http.MethodDelete, "/api/modules/vendors/fields/"+id, s.adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/modules/vendors/fields/vendors_name", s.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "system fields cannot be removed")

	w = s.do(t, http.MethodGet, "/api/modules/vendors/fields?scope=everything", s.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfigHandler_ReorderAndLayout(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/modules/vendors/fields/order", s.adminToken, map[string]interface{}{
		"ids": []string{"vendors_country", "vendors_name"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fields := decode(t, w)[constants.ResponseFields].([]interface{})
	assert.Equal(t, "country", fields[0].(map[string]interface{})["name"])

	w = s.do(t, http.MethodPut, "/api/modules/vendors/layout", s.adminToken, map[string]interface{}{
		"columns": 5,
		"fields":  map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/api/modules/vendors/grid", s.adminToken, map[string]interface{}{"itemsPerPage": 25})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(25), decode(t, w)["gridConfig"].(map[string]interface{})["itemsPerPage"])

	w = s.do(t, http.MethodPost, "/api/modules/vendors/config/reset", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cfg := decode(t, w)[constants.ResponseConfig].(map[string]interface{})
	assert.Equal(t, float64(10), cfg["gridConfig"].(map[string]interface{})["itemsPerPage"])
}

func createVendor(t *testing.T, s *testServer, name, country string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/modules/vendors/records", s.userToken, map[string]interface{}{
		"name":    name,
		"country": country,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)[constants.ResponseRecord].(map[string]interface{})["id"].(string)
}

func TestRecordHandler_CRUD(t *testing.T) {
	s := newTestServer(t)
	id := createVendor(t, s, "Acme", "France")

	w := s.do(t, http.MethodPost, "/api/modules/vendors/records", s.userToken, map[string]interface{}{"country": "Spain"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
	assert.Equal(t, true, body["data"].(map[string]interface{})["name"].(map[string]interface{})["required"])

	w = s.do(t, http.MethodGet, "/api/modules/vendors/records/"+id, s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	record := decode(t, w)[constants.ResponseRecord].(map[string]interface{})
	assert.Equal(t, "France", record[constants.FieldCustomFields].(map[string]interface{})["country"])

	w = s.do(t, http.MethodPut, "/api/modules/vendors/records/"+id, s.userToken, map[string]interface{}{"country": "Italy"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/modules/vendors/form?recordId="+id, s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	form := decode(t, w)[constants.ResponseForm].(map[string]interface{})
	assert.Equal(t, "edit", form["mode"])

	w = s.do(t, http.MethodDelete, "/api/modules/vendors/records/"+id, s.userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/modules/vendors/records/"+id, s.userToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordHandler_BulkDelete(t *testing.T) {
	s := newTestServer(t)
	a := createVendor(t, s, "Acme", "France")
	b := createVendor(t, s, "Globex", "Spain")

	w := s.do(t, http.MethodPost, "/api/modules/vendors/records/bulk-delete", s.userToken, map[string]interface{}{
		"ids": []string{a, "missing", b},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)[constants.ResponseResult].(map[string]interface{})
	assert.Equal(t, float64(2), result["successCount"])
	assert.Equal(t, float64(1), result["failureCount"])
}

func TestListHandler_QueryList(t *testing.T) {
	s := newTestServer(t)
	createVendor(t, s, "Globex", "Spain")
	createVendor(t, s, "Acme", "France")
	createVendor(t, s, "Initech", "France")

	w := s.do(t, http.MethodPost, "/api/modules/vendors/list", s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode(t, w)[constants.ResponseView].(map[string]interface{})
	assert.Equal(t, float64(3), view["totalCount"])
	rows := view["rows"].([]interface{})
	assert.Equal(t, "Acme", rows[0].(map[string]interface{})["name"], "grid default sort applies")

	w = s.do(t, http.MethodPost, "/api/modules/vendors/list", s.userToken, map[string]interface{}{
		"customFieldFilters": map[string]interface{}{"country": "France"},
		"sort":               map[string]interface{}{"field": "name", "direction": "desc"},
		"pageSize":           1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decode(t, w)[constants.ResponseView].(map[string]interface{})
	assert.Equal(t, float64(2), view["totalCount"])
	assert.Equal(t, float64(2), view["totalPages"])
	rows = view["rows"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "Initech", rows[0].(map[string]interface{})["name"])

	w = s.do(t, http.MethodPost, "/api/modules/vendors/list", s.userToken, map[string]interface{}{"filterExpr": "name =="})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/modules/vendors/list", s.userToken, map[string]interface{}{"filterExpr": `nmae == "Acme"`})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/modules/vendors/list", s.userToken, map[string]interface{}{"page": -4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decode(t, w)[constants.ResponseView].(map[string]interface{})
	assert.Equal(t, float64(0), view["page"])
	assert.Len(t, view["rows"].([]interface{}), 3)
}

func TestListHandler_Columns(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/modules/vendors/columns", s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)[constants.ResponseColumns])

	w = s.do(t, http.MethodPut, "/api/modules/vendors/columns", s.userToken, map[string]interface{}{
		"ids": []string{"vendors_country", "vendors_country"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []interface{}{"vendors_country"}, decode(t, w)[constants.ResponseColumns])

	w = s.do(t, http.MethodPost, "/api/modules/vendors/list", s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	columns := decode(t, w)[constants.ResponseView].(map[string]interface{})["columns"].([]interface{})
	require.Len(t, columns, 1)
	assert.Equal(t, "country", columns[0].(map[string]interface{})["name"])

	w = s.do(t, http.MethodGet, "/api/modules/vendors/columns?table=other", s.userToken, nil)
	assert.Empty(t, decode(t, w)[constants.ResponseColumns], "selections are per table")
}

func TestListHandler_Export(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/modules/vendors/export?format=csv", s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["empty"])
	assert.Equal(t, services.NothingToExport, body[constants.ResponseMessage])

	createVendor(t, s, "Acme, Inc", "France")
	createVendor(t, s, "Globex", "Spain")

	w = s.do(t, http.MethodPost, "/api/modules/vendors/export?format=csv", s.userToken, map[string]interface{}{"searchTerm": "acme"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, constants.ContentTypeCSV, w.Header().Get(constants.HeaderContentType))
	assert.Contains(t, w.Header().Get(constants.HeaderContentDisposition), `filename="vendors-`)
	assert.Equal(t, "Name,Country\n\"Acme, Inc\",France", w.Body.String())

	w = s.do(t, http.MethodPost, "/api/modules/vendors/export?format=pdf", s.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
