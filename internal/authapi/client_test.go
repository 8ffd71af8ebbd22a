package authapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func authServer(t *testing.T, path string, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			t.Errorf("path = %q, want %q", r.URL.Path, path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin_Success(t *testing.T) {
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotUser, gotPass = r.PostForm.Get("username"), r.PostForm.Get("password")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","user":{"id":1,"name":"Ada","email":"ada@example.com","is_admin":true,"created_at":"2025-01-01T00:00:00"}}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL+"/", 0).Login(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if gotUser != "ada@example.com" || gotPass != "pw" {
		t.Errorf("form = %q/%q", gotUser, gotPass)
	}
	if resp.AccessToken != "tok" || resp.TokenType != "bearer" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.User == nil || !resp.User.IsAdmin || resp.User.ID != 1 {
		t.Errorf("user = %+v", resp.User)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := authServer(t, "/auth/login", http.StatusUnauthorized, `{"detail":"Incorrect"}`)
	_, err := NewClient(srv.URL, 0).Login(context.Background(), "a@b.c", "bad")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if err.Error() != "incorrect email or password" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestLogin_ServerError(t *testing.T) {
	srv := authServer(t, "/auth/login", http.StatusInternalServerError, `oops`)
	_, err := NewClient(srv.URL, 0).Login(context.Background(), "a@b.c", "pw")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != 500 {
		t.Fatalf("err = %v, want *StatusError 500", err)
	}
	if err.Error() != "login failed (status 500)" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestLogin_InvalidBody(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   `nope`,
		"no token":   `{"token_type":"bearer","user":{"email":"a@b.c"}}`,
		"no user":    `{"access_token":"t","token_type":"bearer"}`,
		"user email": `{"access_token":"t","user":{"id":1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := authServer(t, "/auth/login", http.StatusOK, body)
			_, err := NewClient(srv.URL, 0).Login(context.Background(), "a@b.c", "pw")
			if !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("err = %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestLogin_TransportError(t *testing.T) {
	srv := authServer(t, "/auth/login", http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()
	_, err := NewClient(url, 0).Login(context.Background(), "a@b.c", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestRegister_Success(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		form = map[string]string{"name": r.PostForm.Get("name"), "email": r.PostForm.Get("email"), "password": r.PostForm.Get("password")}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":3,"name":"Bo","email":"bo@example.com"}`))
	}))
	defer srv.Close()
	u, err := NewClient(srv.URL, 0).Register(context.Background(), "Bo", "bo@example.com", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID != 3 || u.Email != "bo@example.com" {
		t.Errorf("user = %+v", u)
	}
	if form["name"] != "Bo" || form["email"] != "bo@example.com" || form["password"] != "pw" {
		t.Errorf("form = %v", form)
	}
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", 400, `{"detail":"Email already registered"}`, "Email already registered"},
		{"validation list", 422, `{"detail":[{"msg":"invalid email"},{"msg":"password too short"}]}`, "invalid email; password too short"},
		{"unparsable", 500, `<html>`, "registration failed (500)"},
		{"no detail", 409, `{"error":"x"}`, "registration failed (409)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := authServer(t, "/auth/register", tt.status, tt.body)
			_, err := NewClient(srv.URL, 0).Register(context.Background(), "n", "e@x.y", "p")
			var re *RegisterError
			if !errors.As(err, &re) {
				t.Fatalf("err = %v, want *RegisterError", err)
			}
			if re.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", re.StatusCode, tt.status)
			}
			if err.Error() != tt.want {
				t.Errorf("message = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestRegister_EmptyOrInvalidBody(t *testing.T) {
	for _, body := range []string{``, `not json`} {
		srv := authServer(t, "/auth/register", http.StatusOK, body)
		_, err := NewClient(srv.URL, 0).Register(context.Background(), "n", "e@x.y", "p")
		if !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("body %q: err = %v, want ErrInvalidResponse", body, err)
		}
	}
}
