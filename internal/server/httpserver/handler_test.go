package httpserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsignup/internal/common"
	"github.com/dmitrijs2005/gophsignup/internal/dbx"
	"github.com/dmitrijs2005/gophsignup/internal/logging"
	"github.com/dmitrijs2005/gophsignup/internal/server/models"
	"github.com/dmitrijs2005/gophsignup/internal/server/services"
	"github.com/dmitrijs2005/gophsignup/internal/server/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeUsers struct {
	calls   int
	gotCred *validation.Credentials
	res     *services.SignupResult
	err     error
}

func (f *fakeUsers) Signup(ctx context.Context, creds *validation.Credentials) (*services.SignupResult, error) {
	f.calls++
	f.gotCred = creds
	return f.res, f.err
}

type fakeIssuer struct {
	validateUser *models.User
	validateErr  error
}

func (f *fakeIssuer) CookieName() string { return "auth_session" }

func (f *fakeIssuer) CreateBlankSessionCookie() *http.Cookie {
	return &http.Cookie{Name: "auth_session", Value: "", Path: "/", MaxAge: -1}
}

func (f *fakeIssuer) ValidateSessionCookie(ctx context.Context, db dbx.DBTX, value string) (*models.Session, *models.User, error) {
	if f.validateErr != nil {
		return nil, nil, f.validateErr
	}
	return &models.Session{ID: "s1", UserID: f.validateUser.ID}, f.validateUser, nil
}

// fakeStore only answers pings; the handlers under test never query it directly.
type fakeStore struct {
	dbx.DBTX
	pingErr error
}

func (f *fakeStore) PingContext(ctx context.Context) error { return f.pingErr }

func newTestServer(t *testing.T, us UserService, is SessionIssuer, st Store) (*HTTPServer, http.Handler) {
	t.Helper()
	reg := prometheus.NewRegistry()
	logger := logging.NewJSONLogger(io.Discard, "error")
	s := NewHTTPServer(Options{Address: ":0"}, logger, us, is, st, reg, reg)
	return s, s.Router()
}

func okResult() *services.SignupResult {
	return &services.SignupResult{
		User:    &models.User{ID: "abcdefghijklmno", UserName: "alice99"},
		Session: &models.Session{ID: "s1", UserID: "abcdefghijklmno", ExpiresAt: time.Now().Add(time.Hour)},
		Cookie:  &http.Cookie{Name: "auth_session", Value: "tok-s1", Path: "/", HttpOnly: true},
	}
}

func postForm(h http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postMultipart(t *testing.T, h http.Handler, fields map[string]string, files []string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, name := range files {
		fw, err := mw.CreateFormFile(name, name+".txt")
		require.NoError(t, err)
		_, err = fw.Write([]byte("content"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/signup", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func bodyText(rec *httptest.ResponseRecorder) string {
	return strings.TrimSpace(rec.Body.String())
}

// ---- POST /signup ----

func TestSignup_Success(t *testing.T) {
	us := &fakeUsers{res: okResult()}
	_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

	rec := postForm(h, url.Values{"username": {"alice99"}, "password": {"secret1"}})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	require.Len(t, rec.Result().Cookies(), 1)
	c := rec.Result().Cookies()[0]
	assert.Equal(t, "auth_session", c.Name)
	assert.Equal(t, "tok-s1", c.Value)

	require.Equal(t, 1, us.calls)
	assert.Equal(t, &validation.Credentials{Username: "alice99", Password: "secret1"}, us.gotCred)
}

func TestSignup_Multipart(t *testing.T) {
	us := &fakeUsers{res: okResult()}
	_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

	rec := postMultipart(t, h, map[string]string{"username": "alice99", "password": "secret1"}, nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))
}

func TestSignup_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   string
	}{
		{"missing username", url.Values{"password": {"secret1"}}, validation.MsgMissingField},
		{"missing password", url.Values{"username": {"alice"}}, validation.MsgMissingField},
		{"empty body", url.Values{}, validation.MsgMissingField},
		{"short username", url.Values{"username": {"al"}, "password": {"secret1"}}, validation.MsgInvalidUsername},
		{"short password", url.Values{"username": {"alice"}, "password": {"12345"}}, validation.MsgInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			us := &fakeUsers{res: okResult()}
			_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

			rec := postForm(h, tt.values)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, bodyText(rec))
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
			assert.Empty(t, rec.Header().Get("Set-Cookie"))
			assert.Zero(t, us.calls, "nothing may be persisted")
		})
	}
}

func TestSignup_FileParts(t *testing.T) {
	t.Run("username file", func(t *testing.T) {
		us := &fakeUsers{}
		_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

		rec := postMultipart(t, h, map[string]string{"password": "secret1"}, []string{"username"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, validation.MsgInvalidUsername, bodyText(rec))
		assert.Zero(t, us.calls)
	})

	t.Run("password file", func(t *testing.T) {
		us := &fakeUsers{}
		_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

		rec := postMultipart(t, h, map[string]string{"username": "alice"}, []string{"password"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, validation.MsgInvalidPassword, bodyText(rec))
	})

	t.Run("short username with password file", func(t *testing.T) {
		us := &fakeUsers{}
		_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

		rec := postMultipart(t, h, map[string]string{"username": "ab"}, []string{"password"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, validation.MsgInvalidUsername, bodyText(rec))
		assert.Zero(t, us.calls)
	})
}

func TestSignup_BodyTooLarge(t *testing.T) {
	us := &fakeUsers{}
	_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

	big := url.Values{"username": {"alice"}, "password": {strings.Repeat("x", maxFormBytes+1)}}
	rec := postForm(h, big)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgBadForm, bodyText(rec))
	assert.Zero(t, us.calls)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	us := &fakeUsers{err: errors.Join(errors.New("error creating user"), common.ErrAlreadyExists)}
	_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

	rec := postForm(h, url.Values{"username": {"alice99"}, "password": {"secret1"}})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, msgTaken, bodyText(rec))
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestSignup_InternalErrors(t *testing.T) {
	t.Run("service", func(t *testing.T) {
		us := &fakeUsers{err: common.ErrSessionCreation}
		_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

		rec := postForm(h, url.Values{"username": {"alice99"}, "password": {"secret1"}})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, msgInternal, bodyText(rec))
	})

	t.Run("other", func(t *testing.T) {
		us := &fakeUsers{err: errors.New("db down")}
		_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

		rec := postForm(h, url.Values{"username": {"alice99"}, "password": {"secret1"}})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, rec.Header().Get("Set-Cookie"))
	})
}

func TestSignup_MethodNotAllowed(t *testing.T) {
	_, h := newTestServer(t, &fakeUsers{}, &fakeIssuer{}, &fakeStore{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signup", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ---- GET / ----

func getHome(h http.Handler, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHome(t *testing.T) {
	t.Run("no cookie", func(t *testing.T) {
		_, h := newTestServer(t, &fakeUsers{}, &fakeIssuer{}, &fakeStore{})
		rec := getHome(h, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "not signed in", bodyText(rec))
	})

	t.Run("valid session", func(t *testing.T) {
		is := &fakeIssuer{validateUser: &models.User{ID: "u1", UserName: "alice99"}}
		_, h := newTestServer(t, &fakeUsers{}, is, &fakeStore{})
		rec := getHome(h, &http.Cookie{Name: "auth_session", Value: "tok"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "signed in as alice99", bodyText(rec))
		assert.Empty(t, rec.Header().Get("Set-Cookie"))
	})

	for _, verr := range []error{common.ErrInvalidToken, common.ErrSessionExpired} {
		t.Run("clears on "+verr.Error(), func(t *testing.T) {
			_, h := newTestServer(t, &fakeUsers{}, &fakeIssuer{validateErr: verr}, &fakeStore{})
			rec := getHome(h, &http.Cookie{Name: "auth_session", Value: "tok"})

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "not signed in", bodyText(rec))
			require.Len(t, rec.Result().Cookies(), 1)
			assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
		})
	}

	t.Run("lookup failure", func(t *testing.T) {
		_, h := newTestServer(t, &fakeUsers{}, &fakeIssuer{validateErr: errors.New("db down")}, &fakeStore{})
		rec := getHome(h, &http.Cookie{Name: "auth_session", Value: "tok"})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

// ---- health & metrics ----

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t, &fakeUsers{}, &fakeIssuer{}, &fakeStore{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", bodyText(rec))

	_, h = newTestServer(t, &fakeUsers{}, &fakeIssuer{}, &fakeStore{pingErr: errors.New("down")})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetrics(t *testing.T) {
	us := &fakeUsers{res: okResult()}
	_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

	postForm(h, url.Values{"username": {"alice99"}, "password": {"secret1"}})
	postForm(h, url.Values{"username": {"al"}, "password": {"secret1"}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `signup_attempts_total{outcome="created"} 1`)
	assert.Contains(t, body, `signup_attempts_total{outcome="invalid"} 1`)
	assert.Contains(t, body, `signup_http_requests_total{method="POST",path="/signup",status="302"} 1`)
	assert.Contains(t, body, `signup_http_requests_total{method="POST",path="/signup",status="400"} 1`)
}

func TestRecoverer(t *testing.T) {
	us := &fakeUsers{} // nil result with nil error makes the handler panic
	_, h := newTestServer(t, us, &fakeIssuer{}, &fakeStore{})

	rec := postForm(h, url.Values{"username": {"alice99"}, "password": {"secret1"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
