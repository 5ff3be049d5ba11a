package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"skillmarket_backend/internal/config"
	"skillmarket_backend/internal/logger"
	"skillmarket_backend/internal/models"
	"skillmarket_backend/internal/services/dto"
	"skillmarket_backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

// testServer - приложение поверх sqlite в памяти и httptest
type testServer struct {
	server *httptest.Server
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Env = "test"
	cfg.Server.RateLimitPerMinute = 0
	cfg.JWT.Secret = "app-test-secret"
	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = t.TempDir()
	cfg.Storage.BaseURL = "/uploads"

	db := testutil.NewTestDB(t)
	a, err := assemble(context.Background(), cfg, db)
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return &testServer{server: srv, db: db}
}

func (ts *testServer) sendJSON(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.do(t, req)
}

func (ts *testServer) sendForm(t *testing.T, path, token string, fields map[string]string, files map[string][]byte) (*http.Response, []byte) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, content := range files {
		part, err := w.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, ts.server.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.do(t, req)
}

func (ts *testServer) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 10))))
	return buf.Bytes()
}

// registerAndVerify проходит регистрацию и подтверждение, возвращает токен сессии
func (ts *testServer) registerAndVerify(t *testing.T, emailAddr, password string) dto.SessionResponse {
	t.Helper()

	res, raw := ts.sendJSON(t, http.MethodPost, "/api/register", "", map[string]string{
		"email": emailAddr, "password": password,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(raw))
	reg := decode[dto.RegisterResponse](t, raw)
	require.NotEmpty(t, reg.UserID)

	var vc models.VerificationCode
	require.NoError(t, ts.db.Where("user_id = ?", reg.UserID).First(&vc).Error)

	res, raw = ts.sendJSON(t, http.MethodPost, "/api/verify", "", map[string]string{
		"userId": reg.UserID, "code": vc.Code,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(raw))
	session := decode[dto.SessionResponse](t, raw)
	require.NotEmpty(t, session.Token)
	return session
}

func TestApp_AccountAndProfileFlow(t *testing.T) {
	ts := newTestServer(t)
	session := ts.registerAndVerify(t, "Designer@Example.com", "Abc123!@")

	res, raw := ts.sendJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "designer@example.com", "password": "Abc123!@",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(raw))
	login := decode[dto.SessionResponse](t, raw)
	assert.Equal(t, session.UserID, login.UserID)
	assert.Nil(t, login.ProfileImageURL)

	res, raw = ts.sendForm(t, "/api/profile", login.Token, map[string]string{
		"fullName": "Ann Smith",
		"title":    "Designer",
		"skills":   "Figma, UI ,,ux",
	}, map[string][]byte{
		"profileImage":    samplePNG(t),
		"portfolioImages": samplePNG(t),
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(raw))
	saved := decode[dto.SaveProfileResponse](t, raw)
	assert.Equal(t, "Profile saved successfully", saved.Message)
	require.NotNil(t, saved.Profile)
	require.NotNil(t, saved.Profile.ProfileImageURL)
	require.Len(t, saved.Profile.Portfolio, 1)

	res, raw = ts.sendJSON(t, http.MethodGet, "/api/profile/"+login.UserID, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(raw))
	profile := decode[dto.ProfileResponse](t, raw)
	assert.Equal(t, "Ann Smith", profile.FullName)
	require.NotNil(t, profile.Skills)
	assert.Equal(t, "Figma,UI,ux", *profile.Skills)

	// загруженный файл раздается по публичному URL
	res, raw = ts.sendJSON(t, http.MethodGet, *profile.ProfileImageURL, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, raw)

	res, raw = ts.sendJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "designer@example.com", "password": "Abc123!@",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, profile.ProfileImageURL, decode[dto.SessionResponse](t, raw).ProfileImageURL)
}

func TestApp_PasswordReset(t *testing.T) {
	ts := newTestServer(t)
	session := ts.registerAndVerify(t, "reset@example.com", "Abc123!@")

	res, raw := ts.sendJSON(t, http.MethodPost, "/api/forgot-password", "", map[string]string{"email": "reset@example.com"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(raw))
	known := decode[dto.MessageResponse](t, raw)

	res, raw = ts.sendJSON(t, http.MethodPost, "/api/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, known, decode[dto.MessageResponse](t, raw))

	var rt models.PasswordResetToken
	require.NoError(t, ts.db.Where("user_id = ?", session.UserID).First(&rt).Error)

	res, raw = ts.sendJSON(t, http.MethodPost, "/api/reset-password", "", map[string]string{
		"token": rt.Token, "newPassword": "Xyz789$@",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(raw))

	res, _ = ts.sendJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "reset@example.com", "password": "Abc123!@",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = ts.sendJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "reset@example.com", "password": "Xyz789$@",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestApp_ErrorResponses(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndVerify(t, "taken@example.com", "Abc123!@")

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "duplicate email",
			method:     http.MethodPost,
			path:       "/api/register",
			body:       map[string]string{"email": "TAKEN@example.com", "password": "Abc123!@"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "EMAIL_ALREADY_EXISTS",
		},
		{
			name:       "malformed json",
			method:     http.MethodPost,
			path:       "/api/login",
			body:       "not-an-object",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "profile not found",
			method:     http.MethodGet,
			path:       "/api/profile/missing",
			wantStatus: http.StatusNotFound,
			wantCode:   "PROFILE_NOT_FOUND",
		},
		{
			name:       "missing upload",
			method:     http.MethodGet,
			path:       "/uploads/profileImage-1.png",
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, raw := ts.sendJSON(t, tt.method, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, res.StatusCode, string(raw))

			var body struct {
				Message string `json:"message"`
				Error   *struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.NotEmpty(t, body.Message)
			if tt.wantCode != "" {
				require.NotNil(t, body.Error)
				assert.Equal(t, tt.wantCode, body.Error.Code)
			}
		})
	}
}

func TestApp_SaveProfileRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	res, _ := ts.sendForm(t, "/api/profile", "", map[string]string{"fullName": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = ts.sendForm(t, "/api/profile", "garbage", map[string]string{"fullName": "x"}, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestApp_Health(t *testing.T) {
	ts := newTestServer(t)

	res, raw := ts.sendJSON(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok","database":"up"}`, string(raw))
}
