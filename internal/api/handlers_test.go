package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/auth"
	"portfolio-site/internal/config"
	"portfolio-site/internal/contact"
	"portfolio-site/internal/limiter"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore backs the guards in-memory so handler tests run without postgres.
type memStore struct {
	events    map[string][]time.Time
	messages  int
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{events: make(map[string][]time.Time)}
}

func (m *memStore) Append(_ context.Context, kind, key string, at time.Time) error {
	m.events[kind+"/"+key] = append(m.events[kind+"/"+key], at)
	return nil
}

func (m *memStore) DeleteKey(_ context.Context, kind, key string) error {
	delete(m.events, kind+"/"+key)
	return nil
}

func (m *memStore) InsertMessage(_ context.Context, _, _, _, _, _ string, _ time.Time) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.messages++
	return nil
}

func (m *memStore) MarkVisitorsContacted(_ context.Context, _ string) error { return nil }

func (m *memStore) CountSince(_ context.Context, kind, key string, since time.Time) (int, error) {
	n := 0
	for _, at := range m.events[kind+"/"+key] {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) OldestSince(_ context.Context, kind, key string, since time.Time) (time.Time, error) {
	var oldest time.Time
	for _, at := range m.events[kind+"/"+key] {
		if at.Before(since) {
			continue
		}
		if oldest.IsZero() || at.Before(oldest) {
			oldest = at
		}
	}
	return oldest, nil
}

// testServer wires a Server around the in-memory store with no db, redis, or
// templates. Only JSON/redirect handlers are routable here.
func testServer(store *memStore) (*Server, *gin.Engine) {
	log := slog.New(slog.DiscardHandler)
	lim := limiter.New(store, log)
	cfg := config.Config{SecretKey: "secret", AdminPassword: "hunter2"}

	s := &Server{
		log:     log,
		cfg:     cfg,
		login:   auth.NewGuard(store, lim, log, cfg.SecretKey, cfg.AdminPassword),
		contact: contact.NewGuard(store, lim, nil, log),
	}

	r := gin.New()
	r.POST("/api/contact", s.contactAPI)
	r.GET("/admin-panel/logout", s.adminLogout)
	return s, r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:40000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return out
}

func TestContactAPI_MalformedJSON(t *testing.T) {
	_, r := testServer(newMemStore())
	w := postJSON(r, "/api/contact", `{"name": `)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if out := decode(t, w); out["error"] != "Invalid JSON." {
		t.Errorf("error = %v", out["error"])
	}
}

func TestContactAPI_Honeypot(t *testing.T) {
	store := newMemStore()
	_, r := testServer(store)

	// name missing but the decoy wins: masked success, nothing saved
	w := postJSON(r, "/api/contact", `{"website":"http://spam","email":"a@b.c","subject":"s","message":"m"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	out := decode(t, w)
	if out["success"] != true || out["message"] != "Message sent successfully!" {
		t.Errorf("honeypot response must be indistinguishable from success: %v", out)
	}
	if store.messages != 0 {
		t.Error("honeypot submission must not be saved")
	}
}

func TestContactAPI_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"website":"","email":"a@b.c","subject":"s","message":"m"}`, "All fields are required."},
		{"email without dot after at", `{"name":"a","email":"a@example","subject":"s","message":"m"}`, "Invalid email."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, r := testServer(newMemStore())
			w := postJSON(r, "/api/contact", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if out := decode(t, w); out["error"] != tt.want {
				t.Errorf("error = %v, want %q", out["error"], tt.want)
			}
		})
	}
}

func TestContactAPI_RateLimited(t *testing.T) {
	store := newMemStore()
	_, r := testServer(store)
	body := `{"name":"a","email":"a@b.c","subject":"s","message":"m"}`

	for i := 0; i < 3; i++ {
		if w := postJSON(r, "/api/contact", body); w.Code != http.StatusOK {
			t.Fatalf("submission %d: status = %d, want 200", i+1, w.Code)
		}
	}

	w := postJSON(r, "/api/contact", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("4th submission: status = %d, want 429", w.Code)
	}
	if out := decode(t, w); out["error"] != "Too many messages. Please wait a few minutes." {
		t.Errorf("error = %v", out["error"])
	}
}

func TestContactAPI_PersistFailure(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("db down")
	_, r := testServer(store)

	w := postJSON(r, "/api/contact", `{"name":"a","email":"a@b.c","subject":"s","message":"m"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestAdminRequired(t *testing.T) {
	s, _ := testServer(newMemStore())

	r := gin.New()
	protected := r.Group("/admin-panel")
	protected.Use(s.adminRequired())
	protected.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "panel") })

	get := func(cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/admin-panel/", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: sessionCookie, Value: cookie})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := get(""); w.Code != http.StatusFound || w.Header().Get("Location") != "/admin-panel/login" {
		t.Errorf("no cookie: status = %d location = %q, want redirect to login", w.Code, w.Header().Get("Location"))
	}
	if w := get("not-the-token"); w.Code != http.StatusFound {
		t.Errorf("wrong token: status = %d, want 302", w.Code)
	}
	if w := get(auth.Token("secret", "hunter2")); w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}
}

func TestAdminLogin_Success(t *testing.T) {
	s, _ := testServer(newMemStore())
	r := gin.New()
	r.POST("/admin-panel/login", s.adminLogin)

	postLogin := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/admin-panel/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "203.0.113.7:40000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := postLogin(url.Values{"password": {"hunter2"}})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/admin-panel/" {
		t.Fatalf("status = %d location = %q, want redirect to dashboard", w.Code, w.Header().Get("Location"))
	}

	cookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, sessionCookie+"="+auth.Token("secret", "hunter2")) {
		t.Error("session cookie must carry the derived token")
	}
	if !strings.Contains(cookie, "Max-Age=3600") {
		t.Errorf("cookie %q should expire in 1h without remember", cookie)
	}

	w = postLogin(url.Values{"password": {"hunter2"}, "remember": {"on"}})
	if cookie := w.Header().Get("Set-Cookie"); !strings.Contains(cookie, "Max-Age=2592000") {
		t.Errorf("cookie %q should expire in 30 days with remember", cookie)
	}
}

func TestAdminLogout_ClearsCookie(t *testing.T) {
	_, r := testServer(newMemStore())

	req := httptest.NewRequest("GET", "/admin-panel/logout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if cookie := w.Header().Get("Set-Cookie"); !strings.Contains(cookie, "Max-Age=0") {
		t.Errorf("cookie %q should be expired", cookie)
	}
}
