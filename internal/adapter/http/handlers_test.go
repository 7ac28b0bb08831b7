package adapthttp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"itemboard/internal/adapter/memory"
	"itemboard/internal/app"
	"itemboard/internal/domain"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	db := memory.New()
	auth := app.NewAuthService(db, db.NewSessionTokenRepo(), time.Hour)
	items := app.NewItemService(db, true)
	return New(auth, items, OIDCConfig{}, t.TempDir()).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func register(t *testing.T, h http.Handler, email, password string) *http.Cookie {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", credentialsRequest{Email: email, Password: password}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body)
	}
	return sessionCookie(t, rec)
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, newTestHandler(t), http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d; want 200", rec.Code)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	h := newTestHandler(t)

	register(t, h, "a@x.com", "secret1")

	tests := []struct {
		name  string
		path  string
		creds credentialsRequest
		want  int
	}{
		{"duplicate email", "/api/auth/register", credentialsRequest{Email: "a@x.com", Password: "secret1"}, http.StatusConflict},
		{"weak password", "/api/auth/register", credentialsRequest{Email: "b@x.com", Password: "short"}, http.StatusBadRequest},
		{"wrong password", "/api/auth/login", credentialsRequest{Email: "a@x.com", Password: "wrongpass"}, http.StatusUnauthorized},
		{"unknown email", "/api/auth/login", credentialsRequest{Email: "nobody@x.com", Password: "secret1"}, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, tc.path, tc.creds, nil)
			if rec.Code != tc.want {
				t.Errorf("status = %d; want %d (body %s)", rec.Code, tc.want, rec.Body)
			}
		})
	}

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", credentialsRequest{Email: "a@x.com", Password: "secret1"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	cookie := sessionCookie(t, rec)

	rec = doJSON(t, h, http.MethodGet, "/api/auth/me", nil, cookie)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "a@x.com") {
		t.Errorf("me = %d %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth/logout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}

	// The revoked token no longer authenticates.
	rec = doJSON(t, h, http.MethodGet, "/api/auth/me", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d; want 401", rec.Code)
	}
}

func TestItemsCRUD(t *testing.T) {
	h := newTestHandler(t)
	cookie := register(t, h, "a@x.com", "secret1")

	rec := doJSON(t, h, http.MethodPost, "/api/items", itemRequest{Title: "Buy milk", Description: "2%"}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created["id"] == "" {
		t.Fatalf("create body = %s (%v)", rec.Body, err)
	}
	id := created["id"]

	rec = doJSON(t, h, http.MethodGet, "/api/items", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var items []domain.Item
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != id || items[0].Title != "Buy milk" {
		t.Fatalf("list = %+v", items)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/items/"+id, itemRequest{Title: "Buy oat milk", Description: "barista"}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/items/missing", itemRequest{Title: "x", Description: "y"}, cookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("update missing = %d; want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/items", itemRequest{Title: "", Description: "y"}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create empty title = %d; want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/items/"+id, nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	// Deleting again is still a success.
	rec = doJSON(t, h, http.MethodDelete, "/api/items/"+id, nil, cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("second delete = %d; want 200", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/items", nil, cookie)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("list after delete = %s; want []", body)
	}
}

func TestItemsScopedToOwner(t *testing.T) {
	h := newTestHandler(t)
	alice := register(t, h, "alice@x.com", "secret1")
	bob := register(t, h, "bob@x.com", "secret1")

	rec := doJSON(t, h, http.MethodPost, "/api/items", itemRequest{Title: "alice's", Description: "d"}, alice)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/items", nil, bob)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("bob sees alice's items: %s", body)
	}
}

func TestUnauthorized(t *testing.T) {
	h := newTestHandler(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/items"},
		{http.MethodPost, "/api/items"},
	}
	for _, p := range paths {
		rec := doJSON(t, h, p.method, p.path, nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d; want 401", p.method, p.path, rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/items", nil, &http.Cookie{Name: "session", Value: "bogus"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bogus token = %d; want 401", rec.Code)
	}
}

func TestConfigAndDisabledSSO(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/config", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"sso_enabled":false`) {
		t.Errorf("config = %d %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/auth/sso/login", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("sso login while disabled = %d; want 404", rec.Code)
	}
}

func TestSSOCallbackAbandoned(t *testing.T) {
	db := memory.New()
	auth := app.NewAuthService(db, db.NewSessionTokenRepo(), time.Hour)
	items := app.NewItemService(db, true)
	h := New(auth, items, OIDCConfig{Enabled: true}, t.TempDir()).Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/auth/sso/callback?error=access_denied", nil, nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d; want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=popup_closed") {
		t.Errorf("redirect = %q; want popup_closed error", loc)
	}
}

func TestItemsStream(t *testing.T) {
	h := newTestHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	cookie := register(t, h, "a@x.com", "secret1")

	createItem := func(title string) {
		rec := doJSON(t, h, http.MethodPost, "/api/items", itemRequest{Title: title, Description: "d"}, cookie)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rec.Code)
		}
	}
	createItem("first")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/items/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(cookie)

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	events := make(chan []domain.Item, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var items []domain.Item
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &items); err == nil {
				events <- items
			}
		}
	}()

	recvEvent := func() []domain.Item {
		select {
		case items := <-events:
			return items
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a stream event")
			return nil
		}
	}

	if items := recvEvent(); len(items) != 1 || items[0].Title != "first" {
		t.Fatalf("initial snapshot = %+v", items)
	}

	createItem("second")
	deadline := time.After(2 * time.Second)
	for {
		var items []domain.Item
		select {
		case items = <-events:
		case <-deadline:
			t.Fatal("snapshot with the new item never streamed")
		}
		if len(items) == 2 {
			if items[0].Title != "second" {
				t.Errorf("newest item not first: %+v", items)
			}
			return
		}
	}
}
