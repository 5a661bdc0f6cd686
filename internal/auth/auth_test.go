package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// fakeClock drives session expiry without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedAuth(password string) (*Auth, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)}
	a := New(password)
	a.now = clock.Now
	return a, clock
}

// adminRouter mounts the routes the admin session guards
func adminRouter(a *Auth, cleared *int) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(a.RequireAuth)
		r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("clue bank"))
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(a.RequireAuthAPI)
		r.Delete("/api/admin/cache", func(w http.ResponseWriter, r *http.Request) {
			*cleared++
			w.Write([]byte(`{"removed":12}`))
		})
	})
	return r
}

// loginCookie logs in and returns the cookie a browser would store
func loginCookie(t *testing.T, a *Auth, password string) *http.Cookie {
	t.Helper()
	token, ok := a.Login(password)
	if !ok {
		t.Fatalf("login with %q failed", password)
	}
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, token)
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestGeneratePassword_UsesShowWords(t *testing.T) {
	words := make(map[string]bool, len(showWords))
	for _, w := range showWords {
		words[w] = true
	}

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		pw := GeneratePassword()
		parts := strings.Split(pw, "-")
		if len(parts) != 3 {
			t.Fatalf("expected 3 dash-separated words, got %q", pw)
		}
		for _, p := range parts {
			if !words[p] {
				t.Errorf("word %q is not a show word", p)
			}
		}
		seen[pw] = true
	}
	if len(seen) < 5 {
		t.Errorf("expected varied passwords, got %d distinct in 20", len(seen))
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		attempt    string
		ok         bool
	}{
		{"matching password", "daily-double-wager", "daily-double-wager", true},
		{"wrong password", "daily-double-wager", "final-wager", false},
		{"prefix only", "daily-double-wager", "daily-double", false},
		{"case differs", "daily-double-wager", "Daily-Double-Wager", false},
		{"empty configured password", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.configured)
			token, ok := a.Login(tt.attempt)
			if ok != tt.ok {
				t.Fatalf("Login(%q) ok = %v, want %v", tt.attempt, ok, tt.ok)
			}
			if ok && len(token) != 64 {
				t.Errorf("expected 64-char hex token, got %d chars", len(token))
			}
			if !ok && a.ActiveSessions() != 0 {
				t.Error("failed login should not create a session")
			}
		})
	}
}

func TestSession_LastsOneShowThenExpires(t *testing.T) {
	a, clock := newClockedAuth("host")
	token, _ := a.Login("host")

	clock.Advance(SessionExpiry - time.Minute)
	if !a.ValidateSession(token) {
		t.Fatal("session should still be valid near the end of the evening")
	}

	clock.Advance(2 * time.Minute)
	if a.ValidateSession(token) {
		t.Fatal("session should expire after SessionExpiry")
	}
	if a.ActiveSessions() != 0 {
		t.Error("expired session should be removed on validation")
	}
}

func TestLogin_PrunesExpiredSessions(t *testing.T) {
	a, clock := newClockedAuth("host")
	a.Login("host")
	a.Login("host")

	clock.Advance(SessionExpiry + time.Second)
	a.Login("host")

	if n := a.ActiveSessions(); n != 1 {
		t.Errorf("expected only the fresh session to remain, got %d", n)
	}
}

func TestAdminRoutes_RequireSession(t *testing.T) {
	a := New("host")
	cleared := 0
	router := adminRouter(a, &cleared)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/login" {
		t.Errorf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/cache", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "forged"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for the cache API, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"code":"UNAUTHORIZED"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if cleared != 0 {
		t.Error("cache must not be cleared without a session")
	}
}

func TestAdminRoutes_LoginLogoutFlow(t *testing.T) {
	a := New("host")
	cleared := 0
	router := adminRouter(a, &cleared)
	cookie := loginCookie(t, a, "host")

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "clue bank" {
		t.Fatalf("expected dashboard, got %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/cache", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || cleared != 1 {
		t.Fatalf("expected cache cleared once, got %d cleared=%d", rec.Code, cleared)
	}

	a.Logout(cookie.Value)

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/cache", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized || cleared != 1 {
		t.Errorf("expected 401 after logout, got %d cleared=%d", rec.Code, cleared)
	}
}

func TestAdminRoutes_ExpiredSessionLosesAccess(t *testing.T) {
	a, clock := newClockedAuth("host")
	cleared := 0
	router := adminRouter(a, &cleared)
	cookie := loginCookie(t, a, "host")

	clock.Advance(SessionExpiry + time.Minute)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/cache", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 once the session expired, got %d", rec.Code)
	}
}

func TestSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "tok")
	set := rec.Result().Cookies()[0]
	if set.Value != "tok" || !set.HttpOnly || set.Path != "/" || set.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected session cookie %+v", set)
	}
	if set.MaxAge != int(SessionExpiry.Seconds()) {
		t.Errorf("expected MaxAge %d, got %d", int(SessionExpiry.Seconds()), set.MaxAge)
	}

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec)
	cleared := rec.Result().Cookies()[0]
	if cleared.Name != CookieName || cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Errorf("expected cookie removal, got %+v", cleared)
	}
}

func TestConcurrentLoginsAndChecks(t *testing.T) {
	a := New("host")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, _ := a.Login("host")
			a.ValidateSession(token)
			a.Logout(token)
		}()
	}
	wg.Wait()

	if n := a.ActiveSessions(); n != 0 {
		t.Errorf("expected no sessions left, got %d", n)
	}
}
