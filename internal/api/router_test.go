package api

import (
	"chatpat/internal/api/ws"
	"chatpat/internal/auth"
	"chatpat/internal/logger"
	"chatpat/internal/repository/memory"
	"chatpat/internal/testutil"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

type testServer struct {
	*httptest.Server
	gateway *testutil.MockGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gateway := &testutil.MockGateway{
		GenerateTextFunc: func(ctx context.Context, prompt string) (string, error) {
			return "pong", nil
		},
	}
	cfg := testutil.NewMockConfig(memory.New(), gateway)
	authService := auth.NewService(cfg.DB, auth.NewTokenManager(cfg.AppConfig.Auth))

	hub := ws.NewHub(cfg.AppConfig.Server.AllowedOrigins)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(NewRouter(Deps{Config: cfg, Auth: authService, Hub: hub}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{Server: srv, gateway: gateway}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) register(t *testing.T) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/register", "", `{"username":"alice","password":"secret123"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return body.Token
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/api/health", "", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("health = %d %q, want 200 OK", resp.StatusCode, body)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/user"},
		{http.MethodGet, "/api/conversations"},
		{http.MethodPost, "/api/conversations"},
		{http.MethodPost, "/api/chat"},
		{http.MethodPatch, "/api/conversations/abc"},
		{http.MethodDelete, "/api/conversations/abc"},
		{http.MethodGet, "/api/conversations/abc/messages"},
		{http.MethodPost, "/api/conversations/abc/messages"},
		{http.MethodGet, "/ws"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			resp := srv.do(t, route.method, route.path, "", `{}`)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
			}
		})
	}

	resp := srv.do(t, http.MethodGet, "/api/conversations", "not-a-token", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestRouter_ChatFlow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t)

	resp := srv.do(t, http.MethodPost, "/api/chat", token, `{"content":"ping"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d", resp.StatusCode)
	}
	var chat struct {
		Conversation struct {
			ID string `json:"id"`
		} `json:"conversation"`
		AIMessage struct {
			Content string `json:"content"`
		} `json:"aiMessage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	if chat.AIMessage.Content != "pong" {
		t.Errorf("aiMessage.content = %q, want pong", chat.AIMessage.Content)
	}

	resp = srv.do(t, http.MethodGet, "/api/conversations/"+chat.Conversation.ID+"/messages", token, "")
	var messages []struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(messages) != 2 || messages[0].Role != "user" || messages[1].Role != "assistant" {
		t.Errorf("messages = %+v, want user then assistant", messages)
	}
}

func TestRouter_CookieSession(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t)

	resp := srv.do(t, http.MethodPost, "/api/login", "", `{"username":"alice","password":"secret123"}`)
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "chatpat_session" {
			session = c
		}
	}
	if session == nil {
		t.Fatal("login did not set a session cookie")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/user", nil)
	req.AddCookie(session)
	userResp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/auth/user error = %v", err)
	}
	defer userResp.Body.Close()
	if userResp.StatusCode != http.StatusOK {
		t.Errorf("cookie auth status = %d, want %d", userResp.StatusCode, http.StatusOK)
	}
}

func TestRouter_Preflight(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodOptions, "/api/conversations/abc", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Errorf("Access-Control-Allow-Methods = %q, want PATCH included", resp.Header.Get("Access-Control-Allow-Methods"))
	}
}

func TestRouter_WebSocket(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial() error = %v (response %v)", err, resp)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t)

	body := `{"content":"` + strings.Repeat("a", 1<<20) + `"}`
	resp := srv.do(t, http.MethodPost, "/api/chat", token, body)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
	if len(srv.gateway.TextCalls) != 0 {
		t.Error("gateway should not be called for an oversized body")
	}
}

func TestCORS_AllowList(t *testing.T) {
	h := cors([]string{"http://app.test"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "http://app.test", want: "http://app.test"},
		{origin: "http://evil.test", want: ""},
		{origin: "", want: ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %q: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
		if rec.Code != http.StatusNoContent {
			t.Errorf("origin %q: status = %d, want handler to run", tt.origin, rec.Code)
		}
	}
}

func TestRecoverer(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Errorf("panic value leaked into response: %s", rec.Body.String())
	}
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	var seen string
	h := requestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get(requestIDHeader) != "req-123" || seen != "req-123" {
		t.Errorf("request id = %q (seen %q), want req-123", rec.Header().Get(requestIDHeader), seen)
	}
}
