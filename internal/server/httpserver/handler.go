package httpserver

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophsignup/internal/common"
	"github.com/dmitrijs2005/gophsignup/internal/server/validation"
)

const (
	maxFormBytes = 1 << 20

	msgBadForm  = "invalid form data"
	msgTaken    = "username already taken"
	msgInternal = "internal error"

	healthTimeout = 2 * time.Second
)

// Signup handles POST /signup with a multipart or urlencoded form holding
// username and password. On success the session cookie is set and the
// client is redirected to "/".
func (s *HTTPServer) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := parseForm(r); err != nil {
		s.metrics.signup(outcomeInvalid)
		http.Error(w, msgBadForm, http.StatusBadRequest)
		return
	}

	creds, err := s.validator.Validate(formField(r, "username"), formField(r, "password"))
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			s.metrics.signup(outcomeInvalid)
			http.Error(w, verr.Message, http.StatusBadRequest)
			return
		}
		s.fail(ctx, w, "validation failed", err)
		return
	}

	result, err := s.users.Signup(ctx, creds)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			s.metrics.signup(outcomeTaken)
			http.Error(w, msgTaken, http.StatusConflict)
			return
		}
		s.fail(ctx, w, "signup failed", err)
		return
	}

	s.metrics.signup(outcomeCreated)
	s.logger.Info(ctx, "Signed up", "username", result.User.UserName, "user_id", result.User.ID)

	http.SetCookie(w, result.Cookie)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Home handles GET /, reporting who the session cookie belongs to.
func (s *HTTPServer) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if user := userFromContext(r.Context()); user != nil {
		_, _ = w.Write([]byte("signed in as " + user.UserName + "\n"))
		return
	}

	_, _ = w.Write([]byte("not signed in\n"))
}

// Healthz handles GET /healthz by pinging the database.
func (s *HTTPServer) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.store.PingContext(ctx); err != nil {
		s.logger.Warn(ctx, "health check failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *HTTPServer) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	s.metrics.signup(outcomeError)
	s.logger.Error(ctx, msg, "error", err)
	http.Error(w, msgInternal, http.StatusInternalServerError)
}

func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxFormBytes)
	}
	return r.ParseForm()
}

// formField reads a credential field. A file part under name counts as
// present but not text.
func formField(r *http.Request, name string) validation.Field {
	if r.MultipartForm != nil {
		if vs := r.MultipartForm.Value[name]; len(vs) > 0 {
			return validation.Text(vs[0])
		}
		if fs := r.MultipartForm.File[name]; len(fs) > 0 {
			return validation.Field{Present: true}
		}
		return validation.Field{}
	}

	if vs := r.PostForm[name]; len(vs) > 0 {
		return validation.Text(vs[0])
	}
	return validation.Field{}
}
