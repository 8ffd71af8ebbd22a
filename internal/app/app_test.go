package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"portfolio-client/internal/apiclient"
	"portfolio-client/internal/config"
	"portfolio-client/internal/guard"
	"portfolio-client/internal/security"
	"portfolio-client/internal/session/domain"
	"portfolio-client/internal/session/repository"
)

type fakeBackend struct {
	token       string
	isAdmin     bool
	rejectAll   atomic.Bool
	pings       atomic.Int32
	lastBearer  atomic.Value
	projectHits atomic.Int32
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		admin := "false"
		if b.isAdmin {
			admin = "true"
		}
		_, _ = w.Write([]byte(`{"access_token":"` + b.token + `","token_type":"bearer","user":{"id":7,"name":"Ada","email":"` +
			r.PostForm.Get("username") + `","is_admin":` + admin + `,"created_at":"2025-01-01T00:00:00"}}`))
	})
	mux.HandleFunc("/api/v1/projects/", func(w http.ResponseWriter, r *http.Request) {
		b.projectHits.Add(1)
		b.lastBearer.Store(r.Header.Get("Authorization"))
		if b.rejectAll.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"title":"Alpha","shortDesc":"a","techTags":[]}]`))
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		b.pings.Add(1)
	})
	return mux
}

func newTestApp(t *testing.T, isAdmin bool, repo repository.Repository) (*App, *fakeBackend, *bytes.Buffer) {
	t.Helper()
	tok, err := security.NewTestToken("7", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("NewTestToken: %v", err)
	}
	b := &fakeBackend{token: tok, isAdmin: isAdmin}
	srv := httptest.NewServer(b.handler(t))
	t.Cleanup(srv.Close)

	cfg := &config.Config{APIURL: srv.URL, SessionBackend: config.BackendMemory, KeepaliveInterval: "0"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if repo == nil {
		repo = repository.NewMemoryRepository()
	}
	out := &bytes.Buffer{}
	a, err := New(context.Background(), cfg, Deps{Out: out, Repository: repo})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a, b, out
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(context.Background(), nil, Deps{}); err == nil {
		t.Fatal("New(nil) should fail")
	}
}

func TestApp_LoginGuardAndUnauthorized(t *testing.T) {
	ctx := context.Background()
	a, b, out := newTestApp(t, true, nil)

	if a.Session.State() != domain.StateAnonymous {
		t.Fatalf("State = %v, want anonymous", a.Session.State())
	}
	if a.Pinger != nil {
		t.Error("Pinger should be nil when keep-alive is disabled")
	}

	d := a.Open(ctx, "/admin/users")
	if d.Action != guard.Redirect || d.Location != "/login" || d.From != "/admin/users" {
		t.Fatalf("anonymous /admin/users = %+v", d)
	}

	if _, err := a.Session.Login(ctx, "ada@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if a.Navigator.Current() != "/admin" {
		t.Errorf("Current = %q, want /admin", a.Navigator.Current())
	}
	if d := a.Open(ctx, "/admin/users"); d.Action != guard.Render {
		t.Errorf("admin /admin/users = %+v", d)
	}

	list, err := a.Projects.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if got := b.lastBearer.Load(); got != "Bearer "+b.token {
		t.Errorf("Authorization = %v", got)
	}

	b.rejectAll.Store(true)
	if _, err := a.Projects.List(ctx); !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("List after revoke = %v, want ErrUnauthorized", err)
	}
	if a.Session.State() != domain.StateAnonymous {
		t.Errorf("State after 401 = %v, want anonymous", a.Session.State())
	}
	if a.Navigator.Current() != "/login" {
		t.Errorf("Current after 401 = %q, want /login", a.Navigator.Current())
	}
	if tok, ok := a.Storage.AccessToken(ctx); ok || tok != "" {
		t.Errorf("stored token after 401 = %q", tok)
	}

	before := b.projectHits.Load()
	_, _ = a.Projects.List(ctx)
	if got := b.lastBearer.Load(); got != "" {
		t.Errorf("Authorization after logout = %v, want none", got)
	}
	if b.projectHits.Load() != before+1 {
		t.Errorf("request after logout was not sent")
	}
	if !strings.Contains(out.String(), "-> /login (replace") {
		t.Errorf("navigator output = %q", out.String())
	}
}

func TestApp_NonAdminLandsHome(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t, false, nil)
	if _, err := a.Session.Login(ctx, "bob@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if a.Navigator.Current() != "/" {
		t.Errorf("Current = %q, want /", a.Navigator.Current())
	}
	d := a.Open(ctx, "/admin")
	if d.Action != guard.Redirect || d.Location != "/login" {
		t.Errorf("non-admin /admin = %+v", d)
	}
	if d := a.Open(ctx, "/project/3"); d.Action != guard.Render || d.Params["id"] != "3" {
		t.Errorf("/project/3 = %+v", d)
	}
}

func TestApp_RestoresStoredSession(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	a, _, _ := newTestApp(t, true, repo)
	if _, err := a.Session.Login(ctx, "ada@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	cfg := *a.Config
	b, err := New(ctx, &cfg, Deps{Repository: repo})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close(ctx)
	if b.Session.State() != domain.StateAuthenticated {
		t.Errorf("restored State = %v, want authenticated", b.Session.State())
	}
	if u := b.Session.CurrentUser(); u == nil || u.Email != "ada@example.com" {
		t.Errorf("restored user = %+v", u)
	}
}

func TestApp_CustomRoutePolicy(t *testing.T) {
	fs := afero.NewMemMapFs()
	policy := `package portfolio.routes

default privileged := false
default allow := false

privileged if startswith(input.path, "/project/")

allow if not privileged
allow if {
	privileged
	input.authenticated
}
`
	if err := afero.WriteFile(fs, "/etc/routes.rego", []byte(policy), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	cfg := &config.Config{APIURL: srv.URL, SessionBackend: config.BackendMemory, RoutePolicyFile: "/etc/routes.rego", KeepaliveInterval: "0"}
	a, err := New(context.Background(), cfg, Deps{PolicyFS: fs})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())

	if d := a.Open(context.Background(), "/project/1"); d.Action != guard.Redirect {
		t.Errorf("/project/1 under custom policy = %+v, want redirect", d)
	}
	if d := a.Open(context.Background(), "/admin"); d.Action != guard.Render {
		t.Errorf("/admin under custom policy = %+v, want render", d)
	}
}

func TestApp_KeepaliveConfigured(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	cfg := &config.Config{APIURL: srv.URL, SessionBackend: config.BackendMemory, KeepaliveInterval: "1m"}
	a, err := New(context.Background(), cfg, Deps{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())
	if a.Pinger == nil || a.Pinger.Interval != time.Minute || a.Pinger.BaseURL != srv.URL {
		t.Errorf("Pinger = %+v", a.Pinger)
	}
}

func TestOpenRepository(t *testing.T) {
	ctx := context.Background()
	repo, closeFn, err := OpenRepository(ctx, &config.Config{SessionBackend: config.BackendMemory})
	if err != nil || repo == nil {
		t.Fatalf("memory: %v", err)
	}
	_ = closeFn()

	dir := t.TempDir()
	repo, closeFn, err = OpenRepository(ctx, &config.Config{SessionBackend: config.BackendFile, SessionDir: dir})
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if err := repo.Put(ctx, "auth", []byte("x")); err != nil {
		t.Fatalf("file Put: %v", err)
	}
	_ = closeFn()

	if _, _, err := OpenRepository(ctx, &config.Config{SessionBackend: config.BackendRedis, RedisAddr: "127.0.0.1:1"}); err == nil {
		t.Error("redis: unreachable address should fail")
	}
	if _, _, err := OpenRepository(ctx, &config.Config{SessionBackend: config.BackendPostgres, DatabaseURL: "postgres://u:p@127.0.0.1:1/db"}); err == nil {
		t.Error("postgres: unreachable database should fail")
	}
	if _, _, err := OpenRepository(ctx, &config.Config{SessionBackend: "floppy"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestNew_InvalidVerifyKey(t *testing.T) {
	cfg := &config.Config{APIURL: "http://localhost:1", SessionBackend: config.BackendMemory, TokenVerifyKey: "-----BEGIN NOTHING-----"}
	if _, err := New(context.Background(), cfg, Deps{}); err == nil || !strings.Contains(err.Error(), "TOKEN_VERIFY_KEY") {
		t.Errorf("New = %v, want TOKEN_VERIFY_KEY error", err)
	}
}
