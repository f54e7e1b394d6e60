package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/TezottoWell/app-rodrigo-martins/internal/api"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository/memory"
	"github.com/TezottoWell/app-rodrigo-martins/internal/service"
	"github.com/TezottoWell/app-rodrigo-martins/internal/session"
	"github.com/TezottoWell/app-rodrigo-martins/internal/storage"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	svc    api.Services
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New()
	ts := &testServer{t: t, router: gin.New(), now: time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)}
	clock := session.ClockFunc(func() time.Time { return ts.now })
	fs := storage.Disabled{}
	ts.svc = api.Services{
		Auth:     service.NewAuthService(store.Users(), "test-secret", time.Hour),
		Users:    service.NewUserService(store.Users(), store.Plans(), store.Weights(), store.AccessRequests(), fs),
		Plans:    service.NewPlanService(store.Users(), store.Plans()),
		Sessions: service.NewSessionService(store.Users(), store.Plans(), clock),
		Access:   service.NewAccessService(store.Users(), store.AccessRequests()),
		Clients:  service.NewClientService(store.Users(), store.Weights(), fs, time.Minute),
		Template: service.NewTemplateService(store.Templates(), store.Levels(), store.Plans(), store.Users()),
	}
	api.SetupRoutes(ts.router, ts.svc)
	return ts
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			ts.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

// signup registers and logs in an account, returning its token and id.
func (ts *testServer) signup(name, email string) (string, string) {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": name, "email": email, "password": "s3cret-pass"})
	expectStatus(ts.t, w, http.StatusCreated)
	return ts.login(email), decode[api.UserResponse](ts.t, w).ID
}

func (ts *testServer) login(email string) string {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "s3cret-pass"})
	expectStatus(ts.t, w, http.StatusOK)
	return decode[api.LoginResponse](ts.t, w).Token
}

func (ts *testServer) admin() string {
	ts.t.Helper()
	ts.signup("Rodrigo", "coach@example.com")
	if _, err := ts.svc.Users.PromoteByEmail(context.Background(), "coach@example.com"); err != nil {
		ts.t.Fatal(err)
	}
	return ts.login("coach@example.com")
}

func exercise(name string) gin.H {
	return gin.H{"muscleGroup": "chest", "name": name, "repsOrDuration": "12", "sets": "3"}
}

func planBody() gin.H {
	return gin.H{
		"frequency": 2,
		"days": gin.H{
			"1": []gin.H{
				{"exercises": []gin.H{exercise("Bench press")}},
				{"exercises": []gin.H{exercise("Fly"), exercise("Push-up")}},
			},
			"2": []gin.H{{"exercises": []gin.H{exercise("Dips")}}},
		},
	}
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t)
	token, id := ts.signup("Ana", "Ana@Example.com")

	w := ts.do(http.MethodGet, "/api/v1/me", token, nil)
	expectStatus(t, w, http.StatusOK)
	me := decode[api.UserResponse](t, w)
	if me.ID != id || me.Email != "ana@example.com" || me.Role != "client" || me.ActivePlan {
		t.Errorf("me = %+v", me)
	}

	expectStatus(t, ts.do(http.MethodGet, "/api/v1/me", "", nil), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodGet, "/api/v1/me", "garbage", nil), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodPost, "/api/v1/auth/register", "",
		gin.H{"name": "Ana", "email": "ana@example.com", "password": "another-pass"}), http.StatusConflict)
	expectStatus(t, ts.do(http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"email": "ana@example.com", "password": "wrong-pass"}), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodGet, "/api/v1/admin/users?q=ana", token, nil), http.StatusForbidden)
}

func TestAccessRequestFlow(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.admin()
	token, _ := ts.signup("Bruno", "bruno@example.com")

	w := ts.do(http.MethodGet, "/api/v1/client/plans", token, nil)
	expectStatus(t, w, http.StatusForbidden)

	w = ts.do(http.MethodPost, "/api/v1/client/requests", token, nil)
	expectStatus(t, w, http.StatusCreated)
	reqID := decode[map[string]any](t, w)["id"].(string)
	expectStatus(t, ts.do(http.MethodPost, "/api/v1/client/requests", token, nil), http.StatusConflict)

	w = ts.do(http.MethodGet, "/api/v1/admin/requests?status=pending", adminToken, nil)
	expectStatus(t, w, http.StatusOK)
	if n := len(decode[[]map[string]any](t, w)); n != 1 {
		t.Fatalf("pending requests = %d", n)
	}
	expectStatus(t, ts.do(http.MethodGet, "/api/v1/admin/requests?status=bogus", adminToken, nil), http.StatusBadRequest)

	expectStatus(t, ts.do(http.MethodPost, "/api/v1/admin/requests/"+reqID+"/approve", adminToken, nil), http.StatusOK)

	w = ts.do(http.MethodGet, "/api/v1/client/plans", token, nil)
	expectStatus(t, w, http.StatusOK)
	if got := w.Body.String(); got != "[]" {
		t.Errorf("plans = %s", got)
	}
}

func TestPlanEditingNeedsConfirmation(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.admin()
	_, clientID := ts.signup("Carla", "carla@example.com")

	w := ts.do(http.MethodPost, "/api/v1/admin/users/"+clientID+"/plans", adminToken, planBody())
	expectStatus(t, w, http.StatusCreated)
	plan := decode[api.PlanResponse](t, w)
	if diff := cmp.Diff([]int{1, 2}, plan.PopulatedDays); diff != "" {
		t.Errorf("populated days (-want +got):\n%s", diff)
	}
	base := "/api/v1/admin/plans/" + plan.ID

	w = ts.do(http.MethodDelete, base+"/days/1/items/0", adminToken, nil)
	expectStatus(t, w, http.StatusConflict)
	body := decode[struct {
		Code   string `json:"code"`
		Prompt struct {
			Kind string `json:"kind"`
		} `json:"prompt"`
	}](t, w)
	if body.Code != "confirmation_required" || body.Prompt.Kind != "remove_item" {
		t.Errorf("conflict body = %+v", body)
	}

	w = ts.do(http.MethodDelete, base+"/days/1/items/0?confirm=true", adminToken, nil)
	expectStatus(t, w, http.StatusOK)
	if n := len(decode[api.PlanResponse](t, w).Days[1]); n != 1 {
		t.Errorf("day 1 items = %d, want 1", n)
	}

	w = ts.do(http.MethodDelete, base+"/days/1/items/0/members/1?confirm=true", adminToken, nil)
	expectStatus(t, w, http.StatusOK)
	if collapsed := decode[map[string]any](t, w)["collapsed"]; collapsed == nil {
		t.Error("expected the combo to collapse")
	}

	expectStatus(t, ts.do(http.MethodPut, base+"/frequency", adminToken, gin.H{"frequency": 1}), http.StatusConflict)
	w = ts.do(http.MethodPut, base+"/frequency?confirm=true", adminToken, gin.H{"frequency": 1})
	expectStatus(t, w, http.StatusOK)
	if p := decode[api.PlanResponse](t, w); p.Frequency != 1 || len(p.Days[2]) != 0 {
		t.Errorf("after frequency change: %+v", p)
	}

	expectStatus(t, ts.do(http.MethodPost, base+"/days/9/items", adminToken,
		gin.H{"exercises": []gin.H{exercise("Row")}}), http.StatusBadRequest)
	expectStatus(t, ts.do(http.MethodGet, "/api/v1/admin/plans/not-an-id", adminToken, nil), http.StatusBadRequest)

	expectStatus(t, ts.do(http.MethodDelete, base, adminToken, nil), http.StatusConflict)
	expectStatus(t, ts.do(http.MethodDelete, base+"?confirm=true", adminToken, nil), http.StatusNoContent)
	expectStatus(t, ts.do(http.MethodGet, base, adminToken, nil), http.StatusNotFound)
}

func TestAssignTemplate(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.admin()
	_, clientID := ts.signup("Davi", "davi@example.com")

	tpl := planBody()
	tpl["level"] = "beginner"
	w := ts.do(http.MethodPost, "/api/v1/admin/templates", adminToken, tpl)
	expectStatus(t, w, http.StatusCreated)
	tplID := decode[map[string]any](t, w)["id"].(string)

	assign := "/api/v1/admin/templates/" + tplID + "/assign"
	expectStatus(t, ts.do(http.MethodPost, assign, adminToken, gin.H{"userId": clientID}), http.StatusCreated)

	w = ts.do(http.MethodPost, assign, adminToken, gin.H{"userId": clientID})
	expectStatus(t, w, http.StatusConflict)
	if code := decode[map[string]any](t, w)["code"]; code != "duplicate_assignment" {
		t.Errorf("code = %v", code)
	}
	expectStatus(t, ts.do(http.MethodPost, assign+"?confirm=true", adminToken, gin.H{"userId": clientID}), http.StatusCreated)

	w = ts.do(http.MethodGet, "/api/v1/admin/users/"+clientID+"/plans", adminToken, nil)
	expectStatus(t, w, http.StatusOK)
	if n := len(decode[[]api.PlanResponse](t, w)); n != 2 {
		t.Errorf("plans = %d, want 2", n)
	}

	w = ts.do(http.MethodGet, "/api/v1/admin/templates", adminToken, nil)
	expectStatus(t, w, http.StatusOK)
	groups := decode[[]service.TemplateGroup](t, w)
	if len(groups) == 0 || groups[0].Level.Key != "beginner" || len(groups[0].Templates) != 1 {
		t.Errorf("groups = %+v", groups)
	}
}

func TestTrainingSession(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.admin()
	token, clientID := ts.signup("Elisa", "elisa@example.com")
	expectStatus(t, ts.do(http.MethodPut, "/api/v1/admin/users/"+clientID+"/active", adminToken, gin.H{"active": true}), http.StatusOK)

	w := ts.do(http.MethodPost, "/api/v1/admin/users/"+clientID+"/plans", adminToken, planBody())
	expectStatus(t, w, http.StatusCreated)
	planID := decode[api.PlanResponse](t, w).ID

	w = ts.do(http.MethodPost, "/api/v1/client/session", token, gin.H{"planId": planID, "day": 2})
	expectStatus(t, w, http.StatusCreated)
	if s := decode[session.Snapshot](t, w); s.State != session.StateCountdown {
		t.Fatalf("state = %s", s.State)
	}
	expectStatus(t, ts.do(http.MethodPost, "/api/v1/client/session", token, gin.H{"planId": planID, "day": 1}), http.StatusConflict)

	ts.now = ts.now.Add(6 * time.Second)
	w = ts.do(http.MethodGet, "/api/v1/client/session", token, nil)
	expectStatus(t, w, http.StatusOK)
	if s := decode[session.Snapshot](t, w); s.State != session.StateInProgress {
		t.Fatalf("state = %s", s.State)
	}

	ts.now = ts.now.Add(3*time.Minute + 4*time.Second)
	w = ts.do(http.MethodPost, "/api/v1/client/session/items/0/complete", token, nil)
	expectStatus(t, w, http.StatusOK)
	if s := decode[session.Snapshot](t, w); s.State != session.StateCompleted || s.ElapsedText != "3min 5s" {
		t.Fatalf("snapshot = %s %q", s.State, s.ElapsedText)
	}

	w = ts.do(http.MethodPost, "/api/v1/client/session/acknowledge", token, nil)
	expectStatus(t, w, http.StatusOK)
	done := decode[struct {
		Day           int              `json:"day"`
		CycleComplete bool             `json:"cycleComplete"`
		Plan          api.PlanResponse `json:"plan"`
	}](t, w)
	if done.Day != 2 || done.CycleComplete {
		t.Errorf("acknowledge = %+v", done)
	}
	if diff := cmp.Diff([]int{2}, done.Plan.CompletedDays); diff != "" {
		t.Errorf("completed days (-want +got):\n%s", diff)
	}
	expectStatus(t, ts.do(http.MethodPost, "/api/v1/client/session/acknowledge", token, nil), http.StatusConflict)
}

func TestWeightsAndPhoto(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signup("Fabio", "fabio@example.com")

	expectStatus(t, ts.do(http.MethodPost, "/api/v1/client/weights", token, gin.H{"weightKg": 81.5}), http.StatusCreated)
	expectStatus(t, ts.do(http.MethodPost, "/api/v1/client/weights", token, gin.H{"weightKg": 900}), http.StatusBadRequest)
	w := ts.do(http.MethodGet, "/api/v1/client/weights", token, nil)
	expectStatus(t, w, http.StatusOK)
	if n := len(decode[[]map[string]any](t, w)); n != 1 {
		t.Errorf("weights = %d", n)
	}
	expectStatus(t, ts.do(http.MethodDelete, "/api/v1/client/weights", token, nil), http.StatusConflict)
	expectStatus(t, ts.do(http.MethodDelete, "/api/v1/client/weights?confirm=true", token, nil), http.StatusOK)

	expectStatus(t, ts.do(http.MethodPost, "/api/v1/client/photo/upload-url", token, gin.H{"contentType": "image/png"}), http.StatusBadGateway)
	expectStatus(t, ts.do(http.MethodGet, "/api/v1/client/photo", token, nil), http.StatusNotFound)
}

func TestPlanEvents(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.admin()
	token, clientID := ts.signup("Gabi", "gabi@example.com")
	expectStatus(t, ts.do(http.MethodPut, "/api/v1/admin/users/"+clientID+"/active", adminToken, gin.H{"active": true}), http.StatusOK)
	w := ts.do(http.MethodPost, "/api/v1/admin/users/"+clientID+"/plans", adminToken, planBody())
	expectStatus(t, w, http.StatusCreated)
	plan := decode[api.PlanResponse](t, w)

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/client/plans/"+plan.ID+"/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	next := func() (string, api.PlanResponse) {
		t.Helper()
		var event string
		var p api.PlanResponse
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				_ = json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &p)
			case line == "" && event != "":
				return event, p
			}
		}
		t.Fatalf("stream ended: %v", scanner.Err())
		return "", p
	}

	if event, p := next(); event != "plan" || p.Name != plan.Name {
		t.Fatalf("first event = %s %+v", event, p)
	}

	expectStatus(t, ts.do(http.MethodPut, "/api/v1/admin/plans/"+plan.ID+"/name", adminToken, gin.H{"name": "Leg day"}), http.StatusOK)
	if event, p := next(); event != "plan" || p.CustomName != "Leg day" {
		t.Fatalf("rename event = %s %+v", event, p)
	}

	expectStatus(t, ts.do(http.MethodDelete, "/api/v1/admin/plans/"+plan.ID+"?confirm=true", adminToken, nil), http.StatusNoContent)
	if event, _ := next(); event != "deleted" {
		t.Fatalf("delete event = %s", event)
	}
}
