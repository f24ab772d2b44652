package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"planhub/internal/config"
	"planhub/internal/models"
	"planhub/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer boots a Server against in-memory sqlite and a temp file
// store, with no Redis. Routes are registered without the global middleware
// stack so tests exercise handlers and auth directly.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.DocumentRequest{},
		&models.DownloadToken{},
		&models.DownloadAccessLog{},
	))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zoning.pdf"), []byte("pdf-bytes"), 0o644))

	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                  "0",
		Env:                   "test",
		JWTSecret:             "test_secret_that_is_long_enough_0123",
		StorageRoot:           dir,
		DownloadWindowMinutes: 120,
		RequestWindowHours:    72,
	}

	s := NewServerWithDeps(cfg, db, nil, store)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	payload := map[string]json.RawMessage{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}

// signupUser registers an account and returns its auth token and ID.
func signupUser(t *testing.T, app *fiber.App, s *Server, username, email string, admin bool) (string, uint) {
	t.Helper()

	resp, payload := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "Password123!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.User
	require.NoError(t, json.Unmarshal(payload["user"], &user))

	if admin {
		require.NoError(t, s.db.Model(&models.User{}).
			Where("id = ?", user.ID).Update("is_admin", true).Error)
	}

	var token string
	require.NoError(t, json.Unmarshal(payload["token"], &token))
	return token, user.ID
}

func seedDocument(t *testing.T, app *fiber.App, adminToken string) models.Document {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/admin/documents", adminToken, map[string]string{
		"title":     "Zoning Plan 2026",
		"reference": "ZP-2026-001",
		"file_path": "zoning.pdf",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	listResp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = listResp.Body.Close() }()

	var list struct {
		Documents []models.Document `json:"documents"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list.Documents, 1)
	return list.Documents[0]
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	s, app := newTestServer(t)

	citizenToken, _ := signupUser(t, app, s, "citizen", "citizen@example.com", false)
	adminToken, _ := signupUser(t, app, s, "reviewer", "reviewer@example.com", true)
	document := seedDocument(t, app, adminToken)

	// Citizen submits a request.
	resp, payload := doJSON(t, app, http.MethodPost, "/api/requests/", citizenToken, map[string]any{
		"document_id": document.ID,
		"purpose":     "Reviewing the zoning plan for a property purchase",
		"urgency":     "high",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var request models.DocumentRequest
	raw, _ := json.Marshal(payload)
	require.NoError(t, json.Unmarshal(raw, &request))
	require.NotZero(t, request.ID)
	assert.Equal(t, models.RequestStatusPending, request.Status)

	// A second open request for the same document is refused.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/requests/", citizenToken, map[string]any{
		"document_id": document.ID,
		"purpose":     "Second request for the same document",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Citizens cannot reach the review queue.
	reqPending := httptest.NewRequest(http.MethodGet, "/api/admin/requests/pending", nil)
	reqPending.Header.Set("Authorization", "Bearer "+citizenToken)
	pendingResp, err := app.Test(reqPending, -1)
	require.NoError(t, err)
	_ = pendingResp.Body.Close()
	assert.Equal(t, http.StatusForbidden, pendingResp.StatusCode)

	// Admin approves; response carries the token and a download URL.
	resp, payload = doJSON(t, app, http.MethodPost,
		"/api/admin/requests/"+itoa(request.ID)+"/approve", adminToken,
		map[string]string{"review_notes": "Verified identity"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var downloadURL string
	require.NoError(t, json.Unmarshal(payload["download_url"], &downloadURL))
	require.Contains(t, downloadURL, "/api/downloads/")

	// Redeem the token; the file streams back exactly once.
	dlReq := httptest.NewRequest(http.MethodGet, downloadURL, nil)
	dlResp, err := app.Test(dlReq, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(dlResp.Body)
	require.NoError(t, err)
	_ = dlResp.Body.Close()

	require.Equal(t, http.StatusOK, dlResp.StatusCode)
	assert.Equal(t, "pdf-bytes", string(body))
	assert.Contains(t, dlResp.Header.Get(fiber.HeaderContentDisposition), "zoning.pdf")

	// Replay is refused.
	dlReq = httptest.NewRequest(http.MethodGet, downloadURL, nil)
	dlResp, err = app.Test(dlReq, -1)
	require.NoError(t, err)
	_ = dlResp.Body.Close()
	assert.Equal(t, http.StatusForbidden, dlResp.StatusCode)

	// The audit trail shows the success and the replay.
	logReq := httptest.NewRequest(http.MethodGet,
		"/api/admin/requests/"+itoa(request.ID)+"/access-log", nil)
	logReq.Header.Set("Authorization", "Bearer "+adminToken)
	logResp, err := app.Test(logReq, -1)
	require.NoError(t, err)
	defer func() { _ = logResp.Body.Close() }()
	require.Equal(t, http.StatusOK, logResp.StatusCode)

	var trail struct {
		Entries []models.DownloadAccessLog `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(logResp.Body).Decode(&trail))
	require.Len(t, trail.Entries, 2)
}

func TestRejectionOverHTTP(t *testing.T) {
	s, app := newTestServer(t)

	citizenToken, _ := signupUser(t, app, s, "citizen", "citizen@example.com", false)
	adminToken, _ := signupUser(t, app, s, "reviewer", "reviewer@example.com", true)
	document := seedDocument(t, app, adminToken)

	resp, payload := doJSON(t, app, http.MethodPost, "/api/requests/", citizenToken, map[string]any{
		"document_id": document.ID,
		"purpose":     "Checking easements before construction",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var request models.DocumentRequest
	raw, _ := json.Marshal(payload)
	require.NoError(t, json.Unmarshal(raw, &request))

	// Rejection without notes is a validation error.
	resp, _ = doJSON(t, app, http.MethodPost,
		"/api/admin/requests/"+itoa(request.ID)+"/reject", adminToken,
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, payload = doJSON(t, app, http.MethodPost,
		"/api/admin/requests/"+itoa(request.ID)+"/reject", adminToken,
		map[string]string{"review_notes": "Document restricted pending litigation"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status string
	require.NoError(t, json.Unmarshal(payload["status"], &status))
	assert.Equal(t, "rejected", status)

	// Rejecting again conflicts.
	resp, _ = doJSON(t, app, http.MethodPost,
		"/api/admin/requests/"+itoa(request.ID)+"/reject", adminToken,
		map[string]string{"review_notes": "Twice"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRequestVisibilityOverHTTP(t *testing.T) {
	s, app := newTestServer(t)

	citizenToken, _ := signupUser(t, app, s, "citizen", "citizen@example.com", false)
	otherToken, _ := signupUser(t, app, s, "other", "other@example.com", false)
	adminToken, _ := signupUser(t, app, s, "reviewer", "reviewer@example.com", true)
	document := seedDocument(t, app, adminToken)

	resp, payload := doJSON(t, app, http.MethodPost, "/api/requests/", citizenToken, map[string]any{
		"document_id": document.ID,
		"purpose":     "Boundary dispute research for my parcel",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var request models.DocumentRequest
	raw, _ := json.Marshal(payload)
	require.NoError(t, json.Unmarshal(raw, &request))

	// Another citizen cannot see it; the admin can.
	get := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/requests/"+itoa(request.ID), nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusForbidden, get(otherToken))
	assert.Equal(t, http.StatusOK, get(citizenToken))
	assert.Equal(t, http.StatusOK, get(adminToken))

	// Unauthenticated requests are refused outright.
	req := httptest.NewRequest(http.MethodGet, "/api/requests/"+itoa(request.ID), nil)
	anonResp, err := app.Test(req, -1)
	require.NoError(t, err)
	_ = anonResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, anonResp.StatusCode)
}

func TestInvalidDownloadTokenOverHTTP(t *testing.T) {
	_, app := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/downloads/not-a-real-token", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func itoa(id uint) string {
	return strconv.Itoa(int(id))
}
