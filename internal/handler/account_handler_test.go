package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eybms-go-api/internal/dto"
	"github.com/noah-isme/eybms-go-api/internal/handler"
	"github.com/noah-isme/eybms-go-api/internal/middleware"
	"github.com/noah-isme/eybms-go-api/internal/service"
	"github.com/noah-isme/eybms-go-api/internal/session"
)

type mockAccountService struct {
	createErr  error
	resetErr   error
	resetID    uint
	resetActor *uint
	batch      dto.BatchCreateResponse
	batchErr   error
	listErr    error
	listRoles  []string
}

func (m *mockAccountService) Create(context.Context, dto.CreateAccountRequest, *uint) (dto.AccountResponse, error) {
	return dto.AccountResponse{ID: 1}, m.createErr
}

func (m *mockAccountService) CreateBatch(context.Context, []dto.BatchAccountRow) (dto.BatchCreateResponse, error) {
	return m.batch, m.batchErr
}

func (m *mockAccountService) Login(context.Context, dto.LoginRequest) (service.LoginResult, error) {
	return service.LoginResult{}, service.ErrInvalidCredentials
}

func (m *mockAccountService) ChangePassword(context.Context, string, dto.ChangePasswordRequest) error {
	return nil
}

func (m *mockAccountService) ResetPassword(_ context.Context, id uint, actor *uint) error {
	m.resetID = id
	m.resetActor = actor
	return m.resetErr
}

func (m *mockAccountService) ListByRole(_ context.Context, role string) ([]dto.AccountResponse, error) {
	m.listRoles = append(m.listRoles, role)
	if m.listErr != nil {
		return nil, m.listErr
	}
	return []dto.AccountResponse{{ID: 7, AccountType: role}}, nil
}

func newAccountApp(svc service.AccountService, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != "" {
			middleware.SetSession(c, session.Session{User: session.Snapshot{AccountID: 3, AccountType: role}})
		}
		return c.Next()
	})
	handler.NewAccountHandler(svc, zerolog.Nop()).Register(app, middleware.NewGate(nil))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAccountHandlerResetPasswordErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{err: nil, status: fiber.StatusOK},
		{err: service.ErrAccountNotFound, status: fiber.StatusNotFound},
		{err: service.ErrBirthdayMissing, status: fiber.StatusNotFound},
		{err: service.ErrCorruptCredential, status: fiber.StatusBadRequest},
		{err: errors.New("boom"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		svc := &mockAccountService{resetErr: tc.err}
		resp := postJSON(t, newAccountApp(svc, "admin"), "/reset-password/12", nil)
		require.Equal(t, tc.status, resp.StatusCode)
		require.Equal(t, uint(12), svc.resetID)
		require.NotNil(t, svc.resetActor)
		require.Equal(t, uint(3), *svc.resetActor)
	}

	resp := postJSON(t, newAccountApp(&mockAccountService{}, "admin"), "/reset-password/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAccountHandlerCreateErrorMapping(t *testing.T) {
	body := map[string]string{"studentNumber": "1", "birthday": "2000-01-01", "accountType": "student"}

	resp := postJSON(t, newAccountApp(&mockAccountService{}, ""), "/create-account", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, newAccountApp(&mockAccountService{createErr: service.ErrDuplicateAccount}, ""), "/create-account", body)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, newAccountApp(&mockAccountService{createErr: errors.New("boom")}, ""), "/create-account", body)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestAccountHandlerUploadBatchAbort(t *testing.T) {
	svc := &mockAccountService{batch: dto.BatchCreateResponse{Created: 2}, batchErr: errors.New("connection reset")}
	resp := postJSON(t, newAccountApp(svc, ""), "/upload-csv", []map[string]string{{"studentNumber": "x"}})
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var envelope struct {
		Success bool                    `json:"success"`
		Data    dto.BatchCreateResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.False(t, envelope.Success)
	require.Equal(t, 2, envelope.Data.Created)

	resp = postJSON(t, newAccountApp(svc, ""), "/upload-csv", map[string]string{"not": "an array"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAccountHandlerListFailure(t *testing.T) {
	app := newAccountApp(&mockAccountService{listErr: errors.New("db down")}, "admin")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/students", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestAccountHandlerCommitteeListingPaths(t *testing.T) {
	svc := &mockAccountService{}
	app := newAccountApp(svc, "admin")

	for _, path := range []string{"/committee", "/comittee"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
	require.Equal(t, []string{"committee", "committee"}, svc.listRoles)

	resp, err := newAccountApp(&mockAccountService{}, "student").Test(httptest.NewRequest(http.MethodGet, "/comittee", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
