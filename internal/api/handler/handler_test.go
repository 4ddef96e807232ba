package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MirandaDiazJorge/sistema-fichaje/internal/dto"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/service"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/timecalc"
	"github.com/MirandaDiazJorge/sistema-fichaje/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult    *dto.TokenResponse
	loginErr       error
	refreshResult  *dto.TokenResponse
	refreshErr     error
	logoutErr      error
	currentResult  *dto.UserResponse
	currentErr     error
	registerResult *dto.UserResponse
	registerErr    error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ string) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, _ string, _ time.Time) error {
	return m.logoutErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.currentResult, m.currentErr
}
func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.UserResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) EnsureAdmin(_ context.Context) error { return nil }

// ── Mock TrackingService ──

type mockTrackingService struct {
	clockInResult  *dto.SessionResponse
	clockInErr     error
	clockOutResult *dto.SessionResponse
	clockOutErr    error
	statusResult   *dto.StatusResponse
	statusErr      error
	correctResult  *dto.SessionResponse
	correctErr     error
	gotDeviceTag   string
}

func (m *mockTrackingService) ClockIn(_ context.Context, _, _, _, deviceTag string) (*dto.SessionResponse, error) {
	m.gotDeviceTag = deviceTag
	return m.clockInResult, m.clockInErr
}
func (m *mockTrackingService) ClockOut(_ context.Context, _, _ string) (*dto.SessionResponse, error) {
	return m.clockOutResult, m.clockOutErr
}
func (m *mockTrackingService) GetStatus(_ context.Context, _ string) (*dto.StatusResponse, error) {
	return m.statusResult, m.statusErr
}
func (m *mockTrackingService) CorrectSession(_ context.Context, _ int64, _ *dto.CorrectSessionRequest) (*dto.SessionResponse, error) {
	return m.correctResult, m.correctErr
}

// ── Mock HistoryService ──

type mockHistoryService struct {
	groups    []dto.DayGroup
	groupsErr error
	ics       string
	icsErr    error
}

func (m *mockHistoryService) GetHistory(_ context.Context, _ string) ([]dto.DayGroup, error) {
	return m.groups, m.groupsErr
}
func (m *mockHistoryService) GetAllHistory(_ context.Context) ([]dto.DayGroup, error) {
	return m.groups, m.groupsErr
}
func (m *mockHistoryService) HistoryICS(_ context.Context, _ string) (string, error) {
	return m.ics, m.icsErr
}

// ── Mock ExportService ──

type mockExportService struct {
	data []byte
	err  error
}

func (m *mockExportService) Download(_ context.Context) ([]byte, error) {
	return m.data, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("username", "jperez")
	c.Set("name", "Juan Pérez")
	c.Set("role", "employee")
	c.Set("token_jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "jperez",
		Password: "password123",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "jperez",
		Password: "wrong",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Refresh_Invalid(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrInvalidRefresh})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{
		RefreshToken: "stale",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_Register_DuplicateUsername(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: service.ErrUsernameTaken})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Username: "jperez",
		Password: "password123",
		Name:     "Juan Pérez",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", func(c *gin.Context) {
		setAuth(c)
		h.Register(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11003 {
		t.Errorf("expected error code 11003, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", func(c *gin.Context) {
		setAuth(c)
		h.Logout(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	r := gin.New()
	r.GET("/auth/me", h.Me)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// TrackingHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTrackingHandler_ClockIn_Success(t *testing.T) {
	mock := &mockTrackingService{
		clockInResult: &dto.SessionResponse{
			ID:          1,
			EmployeeID:  "jperez",
			Date:        "2026-03-02",
			ClockInTime: "09:00:00",
		},
	}
	h := NewTrackingHandler(mock)

	w := setupRecorder()
	// 空请求体：使用服务器当前时刻
	req := httptest.NewRequest("POST", "/tracking/clock-in", nil)

	r := gin.New()
	r.POST("/tracking/clock-in", func(c *gin.Context) {
		setAuth(c)
		h.ClockIn(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestTrackingHandler_ClockIn_ForwardsUserAgent(t *testing.T) {
	mock := &mockTrackingService{
		clockInResult: &dto.SessionResponse{ID: 1, EmployeeID: "jperez"},
	}
	h := NewTrackingHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/tracking/clock-in", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0")

	r := gin.New()
	r.POST("/tracking/clock-in", func(c *gin.Context) {
		setAuth(c)
		h.ClockIn(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if mock.gotDeviceTag != "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0" {
		t.Errorf("expected User-Agent forwarded as device tag, got %q", mock.gotDeviceTag)
	}
}

func TestTrackingHandler_ClockIn_AlreadyOpen(t *testing.T) {
	h := NewTrackingHandler(&mockTrackingService{clockInErr: service.ErrSessionAlreadyOpen})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/tracking/clock-in", nil)

	r := gin.New()
	r.POST("/tracking/clock-in", func(c *gin.Context) {
		setAuth(c)
		h.ClockIn(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12001 {
		t.Errorf("expected error code 12001, got %d", resp.Code)
	}
}

func TestTrackingHandler_ClockOut_NoOpenSession(t *testing.T) {
	h := NewTrackingHandler(&mockTrackingService{clockOutErr: service.ErrNoOpenSession})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/tracking/clock-out", nil)

	r := gin.New()
	r.POST("/tracking/clock-out", func(c *gin.Context) {
		setAuth(c)
		h.ClockOut(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12002 {
		t.Errorf("expected error code 12002, got %d", resp.Code)
	}
}

func TestTrackingHandler_Status_Unauthenticated(t *testing.T) {
	h := NewTrackingHandler(&mockTrackingService{})

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/tracking/status", nil)

	r := gin.New()
	r.GET("/tracking/status", h.Status)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestTrackingHandler_CorrectSession_BadID(t *testing.T) {
	h := NewTrackingHandler(&mockTrackingService{})

	w := setupRecorder()
	req := httptest.NewRequest("PUT", "/admin/sessions/abc", jsonBody(dto.CorrectSessionRequest{}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/admin/sessions/:id", func(c *gin.Context) {
		setAuth(c)
		h.CorrectSession(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestTrackingHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"AlreadyOpen", service.ErrSessionAlreadyOpen, 409, 12001},
		{"NoOpenSession", service.ErrNoOpenSession, 409, 12002},
		{"NotFound", service.ErrSessionNotFound, 404, 12003},
		{"InvalidClock", timecalc.ErrInvalidClock, 400, 12004},
		{"EmptyCorrection", service.ErrEmptyCorrection, 400, 10001},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTrackingHandler(&mockTrackingService{clockOutErr: tt.err})

			w := setupRecorder()
			req := httptest.NewRequest("POST", "/tracking/clock-out", nil)

			r := gin.New()
			r.POST("/tracking/clock-out", func(c *gin.Context) {
				setAuth(c)
				h.ClockOut(c)
			})
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// HistoryHandler Tests
// ═══════════════════════════════════════════════════════════

func TestHistoryHandler_MyHistory_Success(t *testing.T) {
	mock := &mockHistoryService{
		groups: []dto.DayGroup{{
			EmployeeID:   "jperez",
			Name:         "Juan Pérez",
			Date:         "2026-03-02",
			TotalDecimal: "8.50",
			TotalHuman:   "08:30",
		}},
	}
	h := NewHistoryHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/tracking/history", nil)

	r := gin.New()
	r.GET("/tracking/history", func(c *gin.Context) {
		setAuth(c)
		h.MyHistory(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestHistoryHandler_MyHistoryICS_ContentType(t *testing.T) {
	mock := &mockHistoryService{ics: "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"}
	h := NewHistoryHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/tracking/history.ics", nil)

	r := gin.New()
	r.GET("/tracking/history.ics", func(c *gin.Context) {
		setAuth(c)
		h.MyHistoryICS(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("BEGIN:VCALENDAR")) {
		t.Error("expected iCalendar body")
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Download_Success(t *testing.T) {
	mock := &mockExportService{data: []byte("excel content")}
	h := NewExportHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/admin/export", nil)

	r := gin.New()
	r.GET("/admin/export", h.Download)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if w.Header().Get("Content-Disposition") == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_Download_Error(t *testing.T) {
	mock := &mockExportService{err: errors.New("file busy")}
	h := NewExportHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/admin/export", nil)

	r := gin.New()
	r.GET("/admin/export", h.Download)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
