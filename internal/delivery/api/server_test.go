package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"accounts/config"
	"accounts/internal/delivery/api/router"
	"accounts/internal/delivery/api/router/handler"
	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	mockUsecase "accounts/internal/mocks/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type testServer struct {
	echo   *echo.Echo
	authUC *mockUsecase.MockAuthUsecase
	userUC *mockUsecase.MockUserUsecase
}

func newTestServer(t *testing.T) testServer {
	cfg := &config.Config{}
	cfg.HTTP.MaxRequestBodySize = "1KB"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts := testServer{
		echo:   echo.New(),
		authUC: mockUsecase.NewMockAuthUsecase(t),
		userUC: mockUsecase.NewMockUserUsecase(t),
	}

	configureEcho(ts.echo, cfg, logger)
	router.NewRouter(router.RouterParams{
		AuthHandler: handler.NewAuthHandler(handler.AuthHandlerParams{AuthUC: ts.authUC, Logger: logger}),
		UserHandler: handler.NewUserHandler(handler.UserHandlerParams{UserUC: ts.userUC, Logger: logger}),
	}).RegisterRoutes(ts.echo)

	return ts
}

func (ts testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(deliverycontext.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)

	return rec
}

func TestServer_SignupRoute(t *testing.T) {
	ts := newTestServer(t)
	user := &entity.User{ID: uuid.New(), Email: "a@x.com", Password: "aa.bb"}
	ts.authUC.EXPECT().Signup(mock.Anything, mock.Anything).Return(user, nil)

	rec := ts.do(http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"secret"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"`+user.ID.String()+`","email":"a@x.com"},"meta":{"request_id":"req-1"}}`, rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get(deliverycontext.HeaderXRequestID))
}

func TestServer_ServiceSeesRequestContext(t *testing.T) {
	ts := newTestServer(t)
	ts.authUC.EXPECT().
		Signin(mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Value(deliverycontext.KeyRequestID) == "req-1"
		}), mock.Anything).
		Return(&entity.User{ID: uuid.New(), Email: "a@x.com"}, nil)

	rec := ts.do(http.MethodPost, "/auth/signin", `{"email":"a@x.com","password":"secret"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RoutesUserAdministration(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()
	user := &entity.User{ID: id, Email: "a@x.com"}
	ts.userUC.EXPECT().FindUser(mock.Anything, id).Return(user, nil)
	ts.userUC.EXPECT().FindUsers(mock.Anything, "a@x.com").Return([]*entity.User{user}, nil)
	ts.userUC.EXPECT().UpdateUser(mock.Anything, id, mock.Anything).Return(user, nil)
	ts.userUC.EXPECT().RemoveUser(mock.Anything, id).Return(user, nil)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/auth/"+id.String(), "").Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/auth?email=a@x.com", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodPatch, "/auth/"+id.String(), `{"password":"next"}`).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/auth/"+id.String(), "").Code)
}

func TestServer_InternalErrorIsGeneric(t *testing.T) {
	ts := newTestServer(t)
	ts.authUC.EXPECT().Signin(mock.Anything, mock.Anything).
		Return(nil, domainerrors.NewDatabaseExecuteError(errors.New("dial tcp: refused"), "find user"))

	rec := ts.do(http.MethodPost, "/auth/signin", `{"email":"a@x.com","password":"secret"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), domainerrors.ErrInternalError.ErrorCode())
	assert.NotContains(t, rec.Body.String(), "refused")
}

func TestServer_BodyLimit(t *testing.T) {
	ts := newTestServer(t)
	body := `{"email":"a@x.com","password":"` + strings.Repeat("x", 2048) + `"}`

	rec := ts.do(http.MethodPost, "/auth/signup", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
