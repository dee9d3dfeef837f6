package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"

	"eternity-backend/config"
	"eternity-backend/database"
	"eternity-backend/services"
	"eternity-backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Warning string          `json:"warning"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *services.WeddingStore
	cookie *http.Cookie
}

// flakyKV fails every write once broken is set.
type flakyKV struct {
	database.KeyValue
	broken atomic.Bool
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.broken.Load() {
		return errors.New("disk full")
	}
	return f.KeyValue.Set(ctx, key, value)
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithKV(t, database.NewFileKV(t.TempDir()))
}

func newTestServerWithKV(t *testing.T, kv database.KeyValue) *testServer {
	t.Helper()
	ctx := context.Background()

	backend, err := database.NewLocalBackend(ctx, kv)
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	store := services.NewWeddingStore(backend, services.StoreOptions{
		Passcode: "wedding",
		AppURL:   "https://eternity.test/#",
	})
	if err := store.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		AppName:     "Eternity",
		AppEnv:      "test",
		JWTSecret:   "test-secret",
		CORSOrigins: []string{"http://localhost:5173"},
	}
	return &testServer{t: t, router: SetupRouter(store, cfg), store: store}
}

func (s *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, env
}

func (s *testServer) login() {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/auth/login", map[string]string{"passcode": "wedding"})
	if w.Code != http.StatusOK {
		s.t.Fatalf("login status = %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == utils.SessionCookie {
			s.cookie = c
		}
	}
	if s.cookie == nil {
		s.t.Fatal("login did not set a session cookie")
	}
}

func decode(t *testing.T, raw json.RawMessage, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"mode":"local"`) {
		t.Errorf("health body = %s", w.Body.String())
	}
}

func TestAdminRoutesRequireLogin(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodGet, "/api/invitees", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status without session = %d", w.Code)
	}

	w, _ = s.do(http.MethodPost, "/auth/login", map[string]string{"passcode": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong passcode status = %d", w.Code)
	}

	s.login()
	w, _ = s.do(http.MethodGet, "/api/invitees", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status with session = %d", w.Code)
	}

	w, env := s.do(http.MethodGet, "/auth/session", nil)
	if w.Code != http.StatusOK || !strings.Contains(string(env.Data), `"authenticated":true`) {
		t.Errorf("session = %d %s", w.Code, env.Data)
	}
}

func TestLoginCookieIsHttpOnlySession(t *testing.T) {
	s := newTestServer(t)
	s.login()

	if !s.cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if s.cookie.MaxAge != 0 || !s.cookie.Expires.IsZero() {
		t.Errorf("session cookie should not expire, got MaxAge=%d Expires=%v", s.cookie.MaxAge, s.cookie.Expires)
	}
}

func TestInviteeLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w, env := s.do(http.MethodPost, "/api/invitees", map[string]string{"name": "Mary Jane", "title": "Mrs"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", w.Code, env.Message)
	}
	var created struct {
		ID        string `json:"id"`
		Slug      string `json:"slug"`
		Status    string `json:"status"`
		InviteURL string `json:"inviteUrl"`
	}
	decode(t, env.Data, &created)
	if created.Slug != "mary-jane" || created.Status != "pending" {
		t.Errorf("created = %+v", created)
	}
	if created.InviteURL != "https://eternity.test/#/mary-jane" {
		t.Errorf("inviteUrl = %q", created.InviteURL)
	}

	w, _ = s.do(http.MethodPost, "/api/invitees", map[string]string{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty name status = %d", w.Code)
	}

	w, env = s.do(http.MethodPatch, "/api/invitees/"+created.ID, map[string]string{"message": "See you there"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d (%s)", w.Code, env.Message)
	}
	if got, _ := s.store.GetInvitee(created.ID); got.Message != "See you there" || got.Name != "Mary Jane" {
		t.Errorf("after patch = %+v", got)
	}

	w, _ = s.do(http.MethodPatch, "/api/invitees/missing", map[string]string{"message": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("patch missing status = %d", w.Code)
	}

	w, _ = s.do(http.MethodDelete, "/api/invitees/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if _, ok := s.store.GetInvitee(created.ID); ok {
		t.Error("invitee still present after delete")
	}
}

func TestBatchAndSearch(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w, env := s.do(http.MethodPost, "/api/invitees/batch", []map[string]string{
		{"name": "Mary"},
		{"name": "Mary"},
		{"name": "John Smith", "title": "Mr"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("batch status = %d (%s)", w.Code, env.Message)
	}
	var batch []struct {
		Slug string `json:"slug"`
	}
	decode(t, env.Data, &batch)
	if len(batch) != 3 || batch[0].Slug != "mary" || batch[1].Slug != "mary-1" || batch[2].Slug != "john-smith" {
		t.Fatalf("batch slugs = %+v", batch)
	}

	w, env = s.do(http.MethodGet, "/api/invitees?q=mary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var found []struct {
		Name string `json:"name"`
	}
	decode(t, env.Data, &found)
	if len(found) != 2 {
		t.Errorf("search mary found %d", len(found))
	}
}

func TestInvitationAndRSVP(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.store.AddInvitee(context.Background(), "Mary", "Mrs"); err != nil {
		t.Fatalf("AddInvitee: %v", err)
	}

	w, env := s.do(http.MethodGet, "/invite/mary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("invitation status = %d", w.Code)
	}
	var view struct {
		Invitee  *struct{ Name string } `json:"invitee"`
		Greeting string                 `json:"greeting"`
		RSVPForm *struct {
			GuestCount int  `json:"guestCount"`
			Editable   bool `json:"editable"`
		} `json:"rsvpForm"`
	}
	decode(t, env.Data, &view)
	if view.Invitee == nil || view.Invitee.Name != "Mary" {
		t.Fatalf("invitation invitee = %+v", view.Invitee)
	}
	if view.RSVPForm == nil || view.RSVPForm.GuestCount != 1 || !view.RSVPForm.Editable {
		t.Errorf("rsvp form = %+v", view.RSVPForm)
	}

	w, _ = s.do(http.MethodPost, "/invite/mary/rsvp", map[string]interface{}{"status": "attending", "guestCount": 0})
	if w.Code != http.StatusBadRequest {
		t.Errorf("attending with zero guests status = %d", w.Code)
	}

	w, env = s.do(http.MethodPost, "/invite/mary/rsvp", map[string]interface{}{
		"status": "attending", "guestCount": 2, "dietaryRestrictions": "  vegetarian ",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("rsvp status = %d (%s)", w.Code, env.Message)
	}
	got, _ := s.store.GetInvitee("mary")
	if got.RSVPStatus != "attending" || got.GuestCount != 2 || got.DietaryRestrictions != "vegetarian" {
		t.Errorf("after rsvp = %+v", got)
	}

	w, _ = s.do(http.MethodPost, "/invite/mary/rsvp", map[string]interface{}{"status": "declined"})
	if w.Code != http.StatusConflict {
		t.Errorf("second rsvp without change status = %d", w.Code)
	}

	w, _ = s.do(http.MethodPost, "/invite/mary/rsvp", map[string]interface{}{"status": "declined", "changeResponse": true})
	if w.Code != http.StatusOK {
		t.Fatalf("changed rsvp status = %d", w.Code)
	}
	got, _ = s.store.GetInvitee("mary")
	if got.RSVPStatus != "declined" || got.GuestCount != 0 || got.DietaryRestrictions != "" {
		t.Errorf("after change = %+v", got)
	}

	w, _ = s.do(http.MethodPost, "/invite/nobody/rsvp", map[string]interface{}{"status": "declined"})
	if w.Code != http.StatusNotFound {
		t.Errorf("rsvp unknown slug status = %d", w.Code)
	}
}

func TestUnknownSlugGetsGenericInvitation(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/invite/stranger", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var view struct {
		Invitee  interface{} `json:"invitee"`
		Greeting string      `json:"greeting"`
		RSVPForm interface{} `json:"rsvpForm"`
	}
	decode(t, env.Data, &view)
	if view.Invitee != nil || view.RSVPForm != nil {
		t.Errorf("generic view should have no guest: %+v", view)
	}
	if view.Greeting == "" {
		t.Error("generic view should carry the default greeting")
	}
}

func TestSettingsUpdate(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodPut, "/api/settings", map[string]string{"coupleName": "A & B"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous settings update status = %d", w.Code)
	}

	s.login()
	w, env := s.do(http.MethodPut, "/api/settings", map[string]interface{}{"coupleName": "A & B", "inviteImage": nil})
	if w.Code != http.StatusOK {
		t.Fatalf("settings update status = %d (%s)", w.Code, env.Message)
	}
	if env.Warning != "" {
		t.Errorf("unexpected warning %q", env.Warning)
	}

	w, env = s.do(http.MethodGet, "/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get settings status = %d", w.Code)
	}
	var settings struct {
		CoupleName  string  `json:"coupleName"`
		InviteImage *string `json:"inviteImage"`
	}
	decode(t, env.Data, &settings)
	if settings.CoupleName != "A & B" || settings.InviteImage != nil {
		t.Errorf("settings = %+v", settings)
	}
}

func TestSummaryAndActivity(t *testing.T) {
	s := newTestServer(t)
	s.login()

	s.do(http.MethodPost, "/api/invitees", map[string]string{"name": "Mary"})
	s.do(http.MethodPost, "/api/invitees", map[string]string{"name": "John"})
	s.do(http.MethodPost, "/invite/mary/rsvp", map[string]interface{}{"status": "attending", "guestCount": 3})

	w, env := s.do(http.MethodGet, "/api/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary status = %d", w.Code)
	}
	var summary struct {
		Summary struct {
			Total     int `json:"total"`
			Attending int `json:"attending"`
			Pending   int `json:"pending"`
			HeadCount int `json:"headCount"`
		} `json:"summary"`
	}
	decode(t, env.Data, &summary)
	if summary.Summary.Total != 2 || summary.Summary.Attending != 1 || summary.Summary.Pending != 1 || summary.Summary.HeadCount != 3 {
		t.Errorf("summary = %+v", summary.Summary)
	}

	w, env = s.do(http.MethodGet, "/api/activity?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("activity status = %d", w.Code)
	}
	var feed []struct {
		Type string `json:"type"`
	}
	decode(t, env.Data, &feed)
	if len(feed) != 2 || feed[0].Type != "rsvp_submitted" {
		t.Errorf("activity = %+v", feed)
	}
}

func TestWriteFailures(t *testing.T) {
	kv := &flakyKV{KeyValue: database.NewFileKV(t.TempDir())}
	s := newTestServerWithKV(t, kv)
	s.login()
	kv.broken.Store(true)

	w, env := s.do(http.MethodPut, "/api/settings", map[string]string{"coupleName": "A & B"})
	if w.Code != http.StatusOK {
		t.Fatalf("settings status = %d", w.Code)
	}
	if env.Warning == "" {
		t.Error("failed settings save should carry a warning")
	}
	if got := s.store.Settings().CoupleName; got != "A & B" {
		t.Errorf("optimistic coupleName = %q", got)
	}

	w, env = s.do(http.MethodPost, "/api/invitees", map[string]string{"name": "John"})
	if w.Code != http.StatusCreated || env.Warning == "" {
		t.Fatalf("create with failing storage = %d warning=%q", w.Code, env.Warning)
	}
	var created struct {
		Slug string `json:"slug"`
	}
	decode(t, env.Data, &created)
	if created.Slug != "john" {
		t.Errorf("created slug = %q", created.Slug)
	}

	w, env = s.do(http.MethodPost, "/invite/john/rsvp", map[string]interface{}{"status": "attending", "guestCount": 2})
	if w.Code != http.StatusOK || env.Warning == "" {
		t.Fatalf("rsvp with failing storage = %d warning=%q", w.Code, env.Warning)
	}

	// The guest saw a recorded reply, so changing it is an explicit action.
	w, _ = s.do(http.MethodPost, "/invite/john/rsvp", map[string]interface{}{"status": "declined", "changeResponse": true})
	if w.Code != http.StatusOK {
		t.Errorf("changed rsvp status = %d", w.Code)
	}

	invs := s.store.Invitees()
	if len(invs) != 1 || invs[0].Slug != "john" || invs[0].RSVPStatus != "declined" {
		t.Errorf("mirror = %+v, want a single declined john", invs)
	}

	kv.broken.Store(false)
	w, env = s.do(http.MethodPatch, "/api/invitees/"+invs[0].ID, map[string]string{"message": "Hi"})
	if w.Code != http.StatusOK || env.Warning != "" {
		t.Errorf("patch after repair = %d warning=%q", w.Code, env.Warning)
	}
}

func TestActivityPaging(t *testing.T) {
	s := newTestServer(t)
	s.login()
	s.do(http.MethodPost, "/api/invitees", map[string]string{"name": "Mary"})

	for _, query := range []string{"page=3&limit=-5", "page=0", "limit=0", "limit=500"} {
		w, _ := s.do(http.MethodGet, "/api/activity?"+query, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", query, w.Code)
		}
	}

	for _, query := range []string{"page=1000", "page=9223372036854775807&limit=200"} {
		w, env := s.do(http.MethodGet, "/api/activity?"+query, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", query, w.Code)
		}
		var feed []json.RawMessage
		decode(t, env.Data, &feed)
		if len(feed) != 0 {
			t.Errorf("%s: got %d entries past the end", query, len(feed))
		}
	}
}

func TestBatchTooLarge(t *testing.T) {
	s := newTestServer(t)
	s.login()

	entries := make([]map[string]string, 501)
	for i := range entries {
		entries[i] = map[string]string{"name": "Guest"}
	}
	w, _ := s.do(http.MethodPost, "/api/invitees/batch", entries)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(s.store.Invitees()) != 0 {
		t.Error("oversized batch wrote invitees")
	}
}
