package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pribylovaa/playlist-transfer-api/internal/auth"
	"github.com/pribylovaa/playlist-transfer-api/internal/config"
	apierrors "github.com/pribylovaa/playlist-transfer-api/internal/errors"
	"github.com/pribylovaa/playlist-transfer-api/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeService записывает аргументы вызовов и возвращает заданные результаты.
type fakeService struct {
	registered models.NewUser
	lookup     models.UserIdentifier
	password   string
	refreshUID int64
	refreshRaw string
	loggedOut  int64
	deleted    int64

	user    *models.PublicUser
	login   *models.LoginResult
	access  *models.AccessToken
	err     error
	refresh int
}

func (f *fakeService) RegisterUser(_ context.Context, in models.NewUser) (int64, error) {
	f.registered = in
	return 1, f.err
}

func (f *fakeService) GetUser(_ context.Context, id models.UserIdentifier) (*models.PublicUser, error) {
	f.lookup = id
	return f.user, f.err
}

func (f *fakeService) Login(_ context.Context, password string, id models.UserIdentifier) (*models.LoginResult, error) {
	f.password, f.lookup = password, id
	return f.login, f.err
}

func (f *fakeService) Refresh(_ context.Context, userID int64, raw string) (*models.AccessToken, error) {
	f.refresh++
	f.refreshUID, f.refreshRaw = userID, raw
	return f.access, f.err
}

func (f *fakeService) Logout(_ context.Context, userID int64) error {
	f.loggedOut = userID
	return f.err
}

func (f *fakeService) DeleteAccount(_ context.Context, userID int64) error {
	f.deleted = userID
	return f.err
}

var testCfg = config.AuthConfig{RefreshTokenTTL: 720 * time.Hour, CookieSecure: true}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func withClaims(r *http.Request) *http.Request {
	return r.WithContext(auth.Into(r.Context(), &models.AccessClaims{Subject: 7, Username: "alice"}))
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}

	return nil
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	New(&fakeService{}, testCfg).Health(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, decodeBody(t, rr)["isHealthCheckComplete"])
}

func TestRegister(t *testing.T) {
	svc := &fakeService{}
	h := New(svc, testCfg)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/users/register",
		strings.NewReader(`{"username":"alice","email":"alice@example.com","password":"pw1"}`))
	h.Register(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, decodeBody(t, rr)["userCreated"])
	require.Equal(t, models.NewUser{Username: "alice", Email: "alice@example.com", Password: "pw1"}, svc.registered)

	rr = httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/v1/users/register", strings.NewReader(`{"username":"alice"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "ParseError", decodeBody(t, rr)["errorKey"])

	svc.err = apierrors.Users("Username or email already taken!")
	rr = httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/v1/users/register",
		strings.NewReader(`{"username":"alice","email":"alice@example.com","password":"pw1"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Something went wrong with users: Username or email already taken!", decodeBody(t, rr)["message"])
}

func TestGetUser(t *testing.T) {
	svc := &fakeService{user: &models.PublicUser{UserID: 7, Username: "alice", Email: "alice@example.com"}}

	rr := httptest.NewRecorder()
	New(svc, testCfg).GetUser(rr, httptest.NewRequest(http.MethodGet, "/v1/users/user?username=alice", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, models.UserIdentifier{Username: "alice"}, svc.lookup)

	body := decodeBody(t, rr)
	require.EqualValues(t, 7, body["userId"])
	require.Equal(t, "alice", body["username"])
	require.NotContains(t, body, "passwordHash")
}

func TestLogin_SetsCookies(t *testing.T) {
	exp := time.Now().Add(720 * time.Hour)
	svc := &fakeService{login: &models.LoginResult{
		AccessToken: "acc", RefreshToken: "raw", RefreshExpiresAt: exp, UserID: 7,
	}}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/users/login", strings.NewReader(`{"email":"alice@example.com","password":"pw1"}`))
	New(svc, testCfg).Login(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "pw1", svc.password)
	require.Equal(t, models.UserIdentifier{Email: "alice@example.com"}, svc.lookup)

	body := decodeBody(t, rr)
	require.Equal(t, "acc", body["accessToken"])
	require.Equal(t, "raw", body["refreshToken"])
	require.EqualValues(t, 7, body["userId"])

	rt := findCookie(rr, cookieRefreshToken)
	require.NotNil(t, rt)
	require.Equal(t, "raw", rt.Value)
	require.True(t, rt.HttpOnly)
	require.True(t, rt.Secure)
	require.Equal(t, int((720 * time.Hour).Seconds()), rt.MaxAge)

	uid := findCookie(rr, cookieUserID)
	require.NotNil(t, uid)
	require.Equal(t, "7", uid.Value)
}

func TestLogin_Errors(t *testing.T) {
	svc := &fakeService{err: apierrors.ErrIncorrectPassword}

	rr := httptest.NewRecorder()
	New(svc, testCfg).Login(rr, httptest.NewRequest(http.MethodPost, "/v1/users/login",
		strings.NewReader(`{"username":"alice","password":"nope"}`)))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.EqualValues(t, 2003, decodeBody(t, rr)["errorCode"])
	require.Nil(t, findCookie(rr, cookieRefreshToken))
}

func TestRefresh_FromCookies(t *testing.T) {
	svc := &fakeService{access: &models.AccessToken{Token: "acc2"}}

	req := httptest.NewRequest(http.MethodPost, "/v1/users/refresh", nil)
	req.AddCookie(&http.Cookie{Name: cookieUserID, Value: "7"})
	req.AddCookie(&http.Cookie{Name: cookieRefreshToken, Value: "raw"})
	rr := httptest.NewRecorder()
	New(svc, testCfg).Refresh(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "acc2", decodeBody(t, rr)["accessToken"])
	require.Equal(t, int64(7), svc.refreshUID)
	require.Equal(t, "raw", svc.refreshRaw)
}

func TestRefresh_FallsBackToBody(t *testing.T) {
	svc := &fakeService{access: &models.AccessToken{Token: "acc2"}}

	req := httptest.NewRequest(http.MethodPost, "/v1/users/refresh", strings.NewReader(`{"userId":7,"refreshToken":"raw"}`))
	rr := httptest.NewRecorder()
	New(svc, testCfg).Refresh(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(7), svc.refreshUID)
}

func TestRefresh_MissingCookies(t *testing.T) {
	svc := &fakeService{}

	req := httptest.NewRequest(http.MethodPost, "/v1/users/refresh", nil)
	req.AddCookie(&http.Cookie{Name: cookieUserID, Value: "7"})
	rr := httptest.NewRecorder()
	New(svc, testCfg).Refresh(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, "MissingCookies", body["errorKey"])
	require.Equal(t, "Missing cookies from refresh request: refreshToken", body["message"])
	require.Zero(t, svc.refresh)
}

func TestRefresh_Rejected(t *testing.T) {
	svc := &fakeService{err: apierrors.ErrInvalidRefreshToken}

	req := httptest.NewRequest(http.MethodPost, "/v1/users/refresh", nil)
	req.AddCookie(&http.Cookie{Name: cookieUserID, Value: "7"})
	req.AddCookie(&http.Cookie{Name: cookieRefreshToken, Value: "stale"})
	rr := httptest.NewRecorder()
	New(svc, testCfg).Refresh(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.EqualValues(t, 2004, decodeBody(t, rr)["errorCode"])
}

func TestLogout_ClearsCookies(t *testing.T) {
	svc := &fakeService{}

	rr := httptest.NewRecorder()
	New(svc, testCfg).Logout(rr, withClaims(httptest.NewRequest(http.MethodPost, "/v1/users/logout", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(7), svc.loggedOut)
	require.Equal(t, "User logged out", decodeBody(t, rr)["message"])

	c := findCookie(rr, cookieRefreshToken)
	require.NotNil(t, c)
	require.Empty(t, c.Value)
	require.Less(t, c.MaxAge, 0)
}

func TestProtected_WithoutClaims(t *testing.T) {
	h := New(&fakeService{}, testCfg)

	for _, fn := range []http.HandlerFunc{h.Logout, h.Me, h.DeleteAccount} {
		rr := httptest.NewRecorder()
		fn(rr, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}
}

func TestMe(t *testing.T) {
	rr := httptest.NewRecorder()
	New(&fakeService{}, testCfg).Me(rr, withClaims(httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, "7", body["sub"])
	require.Equal(t, "alice", body["username"])
}

func TestDeleteAccount(t *testing.T) {
	svc := &fakeService{}

	rr := httptest.NewRecorder()
	New(svc, testCfg).DeleteAccount(rr, withClaims(httptest.NewRequest(http.MethodDelete, "/v1/users/account", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(7), svc.deleted)
	require.Equal(t, "User account deleted", decodeBody(t, rr)["message"])
}
