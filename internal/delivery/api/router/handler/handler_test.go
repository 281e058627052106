package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"accounts/internal/delivery/api/validator"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	mockUsecase "accounts/internal/mocks/usecase"
	"accounts/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validator.New()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	return env
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleUser() *entity.User {
	return &entity.User{
		ID:        uuid.New(),
		Email:     "a@x.com",
		Password:  "0011223344556677.deadbeef",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestAuthHandler_Signup(t *testing.T) {
	authUC := mockUsecase.NewMockAuthUsecase(t)
	h := NewAuthHandler(AuthHandlerParams{AuthUC: authUC, Logger: discardLogger()})
	user := sampleUser()

	authUC.EXPECT().
		Signup(mock.Anything, &usecase.SignupInput{Email: "a@x.com", Password: "secret"}).
		Return(user, nil)

	c, rec := newContext(http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"secret"}`)
	require.NoError(t, h.Signup(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, map[string]any{"id": user.ID.String(), "email": "a@x.com"}, data)
	assert.NotContains(t, rec.Body.String(), user.Password)
}

func TestAuthHandler_Signup_EmailInUse(t *testing.T) {
	authUC := mockUsecase.NewMockAuthUsecase(t)
	h := NewAuthHandler(AuthHandlerParams{AuthUC: authUC, Logger: discardLogger()})

	authUC.EXPECT().Signup(mock.Anything, mock.Anything).
		Return(nil, domainerrors.ErrEmailInUse.WrapMessage("signup"))

	c, rec := newContext(http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"secret"}`)
	require.NoError(t, h.Signup(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domainerrors.ErrEmailInUse.ErrorCode(), decode(t, rec).Error.Code)
}

func TestAuthHandler_Signup_Validation(t *testing.T) {
	authUC := mockUsecase.NewMockAuthUsecase(t)
	h := NewAuthHandler(AuthHandlerParams{AuthUC: authUC, Logger: discardLogger()})

	c, rec := newContext(http.MethodPost, "/auth/signup", `{"email":"nope","password":""}`)
	require.NoError(t, h.Signup(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, domainerrors.ErrValidationFailed.ErrorCode(), env.Error.Code)
	assert.Equal(t, map[string]string{"email": "email", "password": "required"}, env.Error.Details)
	authUC.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
}

func TestAuthHandler_Signin(t *testing.T) {
	authUC := mockUsecase.NewMockAuthUsecase(t)
	h := NewAuthHandler(AuthHandlerParams{AuthUC: authUC, Logger: discardLogger()})
	user := sampleUser()

	authUC.EXPECT().
		Signin(mock.Anything, &usecase.SigninInput{Email: "a@x.com", Password: "secret"}).
		Return(user, nil)

	c, rec := newContext(http.MethodPost, "/auth/signin", `{"email":"a@x.com","password":"secret"}`)
	require.NoError(t, h.Signin(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ID.String())
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestAuthHandler_Signin_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", domainerrors.ErrUserNotFound.WrapMessage("signin"), http.StatusNotFound},
		{"bad password", domainerrors.ErrInvalidCredentials.WrapMessage("signin"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authUC := mockUsecase.NewMockAuthUsecase(t)
			h := NewAuthHandler(AuthHandlerParams{AuthUC: authUC, Logger: discardLogger()})
			authUC.EXPECT().Signin(mock.Anything, mock.Anything).Return(nil, tt.err)

			c, rec := newContext(http.MethodPost, "/auth/signin", `{"email":"a@x.com","password":"secret"}`)
			require.NoError(t, h.Signin(c))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAuthHandler_Signin_InternalErrorPropagates(t *testing.T) {
	authUC := mockUsecase.NewMockAuthUsecase(t)
	h := NewAuthHandler(AuthHandlerParams{AuthUC: authUC, Logger: discardLogger()})
	authUC.EXPECT().Signin(mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	c, _ := newContext(http.MethodPost, "/auth/signin", `{"email":"a@x.com","password":"secret"}`)

	assert.Error(t, h.Signin(c))
}

func TestUserHandler_FindUser(t *testing.T) {
	userUC := mockUsecase.NewMockUserUsecase(t)
	h := NewUserHandler(UserHandlerParams{UserUC: userUC, Logger: discardLogger()})
	user := sampleUser()

	userUC.EXPECT().FindUser(mock.Anything, user.ID).Return(user, nil)

	c, rec := newContext(http.MethodGet, "/auth/"+user.ID.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(user.ID.String())
	require.NoError(t, h.FindUser(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ID.String())
}

func TestUserHandler_FindUser_InvalidID(t *testing.T) {
	h := NewUserHandler(UserHandlerParams{UserUC: mockUsecase.NewMockUserUsecase(t), Logger: discardLogger()})

	c, rec := newContext(http.MethodGet, "/auth/nope", "")
	c.SetParamNames("id")
	c.SetParamValues("nope")
	require.NoError(t, h.FindUser(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", decode(t, rec).Error.Code)
}

func TestUserHandler_FindUsers(t *testing.T) {
	userUC := mockUsecase.NewMockUserUsecase(t)
	h := NewUserHandler(UserHandlerParams{UserUC: userUC, Logger: discardLogger()})
	first, second := sampleUser(), sampleUser()

	userUC.EXPECT().FindUsers(mock.Anything, "a@x.com").Return([]*entity.User{first, second}, nil)

	c, rec := newContext(http.MethodGet, "/auth?email=a@x.com", "")
	require.NoError(t, h.FindUsers(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var data []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Len(t, data, 2)
	assert.Equal(t, first.ID.String(), data[0]["id"])
	assert.Equal(t, second.ID.String(), data[1]["id"])
	assert.NotContains(t, data[0], "password")
}

func TestUserHandler_FindUsers_Empty(t *testing.T) {
	userUC := mockUsecase.NewMockUserUsecase(t)
	h := NewUserHandler(UserHandlerParams{UserUC: userUC, Logger: discardLogger()})

	userUC.EXPECT().FindUsers(mock.Anything, "none@x.com").Return(nil, nil)

	c, rec := newContext(http.MethodGet, "/auth?email=none@x.com", "")
	require.NoError(t, h.FindUsers(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(decode(t, rec).Data))
}

func TestUserHandler_UpdateUser(t *testing.T) {
	userUC := mockUsecase.NewMockUserUsecase(t)
	h := NewUserHandler(UserHandlerParams{UserUC: userUC, Logger: discardLogger()})
	user := sampleUser()
	user.Email = "new@x.com"

	userUC.EXPECT().
		UpdateUser(mock.Anything, user.ID, mock.MatchedBy(func(in *usecase.UpdateUserInput) bool {
			return in.Email != nil && *in.Email == "new@x.com" && in.Password == nil
		})).
		Return(user, nil)

	c, rec := newContext(http.MethodPatch, "/auth/"+user.ID.String(), `{"email":"new@x.com"}`)
	c.SetParamNames("id")
	c.SetParamValues(user.ID.String())
	require.NoError(t, h.UpdateUser(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new@x.com")
}

func TestUserHandler_RemoveUser_NotFound(t *testing.T) {
	userUC := mockUsecase.NewMockUserUsecase(t)
	h := NewUserHandler(UserHandlerParams{UserUC: userUC, Logger: discardLogger()})
	id := uuid.New()

	userUC.EXPECT().RemoveUser(mock.Anything, id).Return(nil, domainerrors.ErrUserNotFound.WrapMessage("remove"))

	c, rec := newContext(http.MethodDelete, "/auth/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	require.NoError(t, h.RemoveUser(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/health", "")
	require.NoError(t, HealthCheck(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(decode(t, rec).Data))
}
