package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"scrumline/internal/db"
	"scrumline/internal/domain"
	"scrumline/internal/engine"
	"scrumline/internal/migrate"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn)
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth:     AuthConfig{JWTSecret: testSecret},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func authHeaders(t *testing.T) map[string]string {
	return map[string]string{"Authorization": "Bearer " + signToken(t, "tester")}
}

func runRequest() CreateRunRequest {
	return CreateRunRequest{
		Backlog: []domain.StorySpec{
			{Title: "login", Points: 1, Profile: map[domain.Status]int{
				domain.StatusActive:   2,
				domain.StatusResolved: 1,
				domain.StatusDeployed: 1,
			}},
		},
		Team: []domain.MemberSpec{
			{Name: "dee", Role: domain.RoleDeveloper},
			{Name: "olly", Role: domain.RoleOps},
			{Name: "quinn", Role: domain.RoleQA},
		},
	}
}

func TestHealthUnauthenticated(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	resp, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
}

func TestRequestsWithoutTokenRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	resp, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/runs", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "unauthorized" {
		t.Fatalf("code = %q, want unauthorized", envelope.Error.Code)
	}
}

func TestRequestsWithBadTokenRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	headers := map[string]string{"Authorization": "Bearer not-a-token"}
	resp, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/runs", nil, headers)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCreateAndFetchRun(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := authHeaders(t)

	resp, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/runs", runRequest(), headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", resp.StatusCode, data)
	}
	var created RunResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal run: %v", err)
	}
	if created.ID == "" || created.StoriesClosed != 1 {
		t.Fatalf("created run = %+v, want one closed story", created)
	}

	resp, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/runs/"+created.ID, nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200: %s", resp.StatusCode, data)
	}
	var fetched RunResponse
	if err := json.Unmarshal(data, &fetched); err != nil {
		t.Fatalf("unmarshal run: %v", err)
	}
	if fetched != created {
		t.Fatalf("fetched %+v, want %+v", fetched, created)
	}

	resp, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/runs", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var listed []RunResponse
	if err := json.Unmarshal(data, &listed); err != nil {
		t.Fatalf("unmarshal runs: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("listed = %+v, want the created run", listed)
	}
}

func TestRunEventsEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := authHeaders(t)

	_, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/runs", runRequest(), headers)
	var created RunResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal run: %v", err)
	}

	resp, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/runs/"+created.ID+"/events", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("events status = %d, want 200: %s", resp.StatusCode, data)
	}
	var evts []domain.Event
	if err := json.Unmarshal(data, &evts); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(evts) == 0 || evts[0].Type != domain.EventRunStarted {
		t.Fatalf("events = %+v, want stream starting with run.started", evts)
	}

	resp, data = doJSON(t, srv.Client(), http.MethodGet,
		srv.URL+"/v0/runs/"+created.ID+"/events?type="+domain.EventStoryAssigned, nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filtered status = %d, want 200", resp.StatusCode)
	}
	if err := json.Unmarshal(data, &evts); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	for _, e := range evts {
		if e.Type != domain.EventStoryAssigned {
			t.Fatalf("filter leaked type %s", e.Type)
		}
	}
}

func TestUnknownRunIs404(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	resp, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/runs/nope", nil, authHeaders(t))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", resp.StatusCode, data)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "not_found" {
		t.Fatalf("code = %q, want not_found", envelope.Error.Code)
	}
}

func TestCreateRunRejectsInvalidConfig(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	req := runRequest()
	req.Backlog[0].Points = 0
	resp, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/runs", req, authHeaders(t))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", resp.StatusCode, data)
	}
}
