package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsignal/incident-backend/internal/config"
	"github.com/fieldsignal/incident-backend/internal/handlers"
	"github.com/fieldsignal/incident-backend/internal/routes"
	"github.com/fieldsignal/incident-backend/internal/services"
	"github.com/fieldsignal/incident-backend/internal/storage/memory"
)

func newTestApp() *fiber.App {
	cfg := &config.Config{
		AppName:            "incident-backend-test",
		JWTSecret:          "test-jwt-secret",
		JWTAlgorithm:       "HS256",
		JWTExpiresDays:     30,
		PhoneHashSecret:    "test-phone-secret",
		PhoneDefaultRegion: "PL",
		CORSOrigins:        "*",
	}

	store := memory.NewStore()
	identity := services.NewIdentityService(store.Users, cfg)
	reportService := services.NewReportService(store.Reports, store.Statuses, identity)
	statusService := services.NewStatusService(store.Statuses, store.Reports, identity)

	app := fiber.New()
	routes.Setup(app, cfg, identity,
		handlers.NewAuthHandler(identity),
		handlers.NewReportHandler(reportService, statusService),
		handlers.NewHealthHandler(store),
	)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 && json.Valid(raw) && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func authenticate(t *testing.T, app *fiber.App, phone string) string {
	t.Helper()
	resp, body := doJSON(t, app, fiber.MethodPost, "/auth/phone",
		`{"phone_number": "`+phone+`"}`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	app := newTestApp()

	resp, body := doJSON(t, app, fiber.MethodGet, "/health/", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db"])
}

func TestPhoneLogin(t *testing.T) {
	app := newTestApp()

	resp, body := doJSON(t, app, fiber.MethodPost, "/auth/phone",
		`{"phone_number": "+48 601 234 567"}`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, user["id"])
	assert.Equal(t, float64(1), user["token_version"])
}

func TestPhoneLogin_BadNumber(t *testing.T) {
	app := newTestApp()

	resp, body := doJSON(t, app, fiber.MethodPost, "/auth/phone",
		`{"phone_number": "garbage"}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, true, body["error"])
}

func TestSubmitReport_Anonymous(t *testing.T) {
	app := newTestApp()

	resp, body := doJSON(t, app, fiber.MethodPost, "/reports/",
		`{"type": "incident", "data": {"description": "smoke"}}`, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "incident", body["type"])
	assert.Nil(t, body["user_id"])
}

func TestSubmitReport_Authenticated(t *testing.T) {
	app := newTestApp()
	token := authenticate(t, app, "+48601234567")

	resp, body := doJSON(t, app, fiber.MethodPost, "/reports/",
		`{"type": "incident", "geo_point": {"latitude": 52.23, "longitude": 21.01}}`,
		map[string]string{fiber.HeaderAuthorization: "Bearer " + token})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["user_id"])
}

func TestSubmitReport_EmptyType(t *testing.T) {
	app := newTestApp()

	resp, _ := doJSON(t, app, fiber.MethodPost, "/reports/", `{"type": ""}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmitReport_MalformedBearer(t *testing.T) {
	app := newTestApp()

	resp, _ := doJSON(t, app, fiber.MethodPost, "/reports/", `{"type": "incident"}`,
		map[string]string{fiber.HeaderAuthorization: "Token abc"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/reports/", `{"type": "incident"}`,
		map[string]string{fiber.HeaderAuthorization: "Bearer "})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestModerationFlow(t *testing.T) {
	app := newTestApp()
	token := authenticate(t, app, "+48601234567")

	resp, created := doJSON(t, app, fiber.MethodPost, "/reports/",
		`{"type": "incident"}`,
		map[string]string{fiber.HeaderAuthorization: "Bearer " + token})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	reportID := created["id"].(string)

	// Status absent before moderation.
	resp, _ = doJSON(t, app, fiber.MethodGet, "/reports/"+reportID+"/status", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, status := doJSON(t, app, fiber.MethodPatch, "/reports/"+reportID+"/status",
		`{"status": "approved"}`,
		map[string]string{fiber.HeaderAuthorization: "supervisor-7"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", status["status"])
	assert.Equal(t, "supervisor-7", status["updated_by"])

	resp, status = doJSON(t, app, fiber.MethodGet, "/reports/"+reportID+"/status", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", status["status"])

	// Listing includes the joined status and reporter reputation.
	req := httptest.NewRequest(fiber.MethodGet, "/reports/", nil)
	listResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)

	raw, err := io.ReadAll(listResp.Body)
	require.NoError(t, err)
	var reports []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "approved", reports[0]["status"].(map[string]interface{})["status"])
	assert.Equal(t, float64(1), reports[0]["user_reputation"])
}

func TestUpdateStatus_UnknownReport(t *testing.T) {
	app := newTestApp()

	resp, _ := doJSON(t, app, fiber.MethodPatch, "/reports/no-such-id/status",
		`{"status": "approved"}`, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateStatus_InvalidValue(t *testing.T) {
	app := newTestApp()

	resp, _ := doJSON(t, app, fiber.MethodPatch, "/reports/some-id/status",
		`{"status": "bogus"}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRevokeInvalidatesToken(t *testing.T) {
	app := newTestApp()
	token := authenticate(t, app, "+48601234567")

	resp, _ := doJSON(t, app, fiber.MethodPost, "/auth/revoke", "",
		map[string]string{fiber.HeaderAuthorization: "Bearer " + token})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/reports/", `{"type": "incident"}`,
		map[string]string{fiber.HeaderAuthorization: "Bearer " + token})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRevoke_RequiresAuth(t *testing.T) {
	app := newTestApp()

	resp, _ := doJSON(t, app, fiber.MethodPost, "/auth/revoke", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
