package core

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/breachsim/breachsim/utils"
)

func newTestServer(t *testing.T, resolver *Resolver) *APIServer {
	t.Helper()
	logger := utils.NewLoggerAt(t.TempDir(), false)
	t.Cleanup(logger.Close)
	if resolver == nil {
		resolver = NewResolver()
	}
	return NewAPIServer(logger, utils.DefaultConfig(), NewMemoryStore(), resolver, NewEventFeed(logger))
}

func doJSON(t *testing.T, server *APIServer, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) *GameState {
	t.Helper()
	var state GameState
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v (body %s)", err, w.Body.String())
	}
	return &state
}

func TestGetGameStateMintsSessionCookie(t *testing.T) {
	server := newTestServer(t, nil)

	w := doJSON(t, server, "GET", "/api/v1/game/state", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "breachsim_session" || cookies[0].Value == "" {
		t.Fatalf("expected a minted session cookie, got %+v", cookies)
	}

	state := decodeState(t, w)
	if state.VulnerabilityScore != 100 || state.GameStarted {
		t.Errorf("fresh session must return defaults, got %+v", state)
	}
}

func TestSessionPersistsAcrossRequests(t *testing.T) {
	server := newTestServer(t, nil)

	w := doJSON(t, server, "POST", "/api/v1/game/start", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", w.Code)
	}
	cookies := w.Result().Cookies()

	w = doJSON(t, server, "GET", "/api/v1/game/state", nil, cookies)
	state := decodeState(t, w)
	if !state.GameStarted || state.RoundID != 1 {
		t.Errorf("session state must persist, got %+v", state)
	}

	// A cookie-less request sees a different, fresh session.
	w = doJSON(t, server, "GET", "/api/v1/game/state", nil, nil)
	if decodeState(t, w).GameStarted {
		t.Error("new session must not see another session's state")
	}
}

func TestCreateAccountEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	w := doJSON(t, server, "POST", "/api/v1/account/create", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "Correct1Horse!",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	state := decodeState(t, w)
	if !state.CasualUser.AccountCreated || state.CasualUser.Name != "Alice" {
		t.Errorf("account not created: %+v", state.CasualUser)
	}

	w = doJSON(t, server, "POST", "/api/v1/account/create", map[string]string{
		"name": "", "email": "", "password": "",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty fields: expected 400, got %d", w.Code)
	}
}

func TestExecuteAttackEndpointStatusCodes(t *testing.T) {
	at := time.Unix(1000, 0)
	server := newTestServer(t, fixedResolver(at, 99))

	w := doJSON(t, server, "POST", "/api/v1/attack/execute", map[string]string{"attackId": "brute_force"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	state := decodeState(t, w)
	if state.Hacker.AttacksAttempted != 1 {
		t.Errorf("attempt not recorded: %+v", state.Hacker)
	}

	// Same session, same attack, same instant: cooldown conflict.
	w = doJSON(t, server, "POST", "/api/v1/attack/execute", map[string]string{"attackId": "brute_force"}, cookies)
	if w.Code != http.StatusConflict {
		t.Errorf("cooldown: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, server, "POST", "/api/v1/attack/execute", map[string]string{"attackId": "rubber_hose"}, cookies)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown attack: expected 404, got %d", w.Code)
	}

	w = doJSON(t, server, "POST", "/api/v1/attack/execute", map[string]string{}, cookies)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing attackId: expected 400, got %d", w.Code)
	}
}

func TestListAttacksEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	w := doJSON(t, server, "GET", "/api/v1/attacks", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var catalog []AttackInfo
	if err := json.Unmarshal(w.Body.Bytes(), &catalog); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(catalog) != 12 {
		t.Errorf("expected 12 attacks, got %d", len(catalog))
	}
}

func TestConfigureSecurityEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	w := doJSON(t, server, "POST", "/api/v1/security/configure", map[string]interface{}{
		"measure": "sessionManagement",
		"config":  map[string]int{"maxSessions": 3, "autoLogoutMinutes": 30},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	state := decodeState(t, w)
	if !state.CasualUser.SecurityMeasures.SessionManagement {
		t.Error("measure not activated")
	}
	if state.CasualUser.SecurityConfig.SessionManagement.MaxSessions != 3 {
		t.Errorf("config not stored: %+v", state.CasualUser.SecurityConfig.SessionManagement)
	}

	// Out-of-range limits are rejected.
	w = doJSON(t, server, "POST", "/api/v1/security/configure", map[string]interface{}{
		"measure": "sessionManagement",
		"config":  map[string]int{"maxSessions": 99, "autoLogoutMinutes": 30},
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid limits: expected 400, got %d", w.Code)
	}

	w = doJSON(t, server, "POST", "/api/v1/security/configure", map[string]interface{}{
		"measure": "twoFactorAuth",
		"config":  map[string]int{},
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unconfigurable measure: expected 400, got %d", w.Code)
	}

	w = doJSON(t, server, "POST", "/api/v1/security/configure", map[string]interface{}{
		"measure": "tinfoilHat",
		"config":  map[string]int{},
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown measure: expected 400, got %d", w.Code)
	}
}

func TestUpdateSecurityEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	w := doJSON(t, server, "POST", "/api/v1/security/update", map[string]interface{}{
		"measure": "twoFactorAuth", "enabled": true,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decodeState(t, w).VulnerabilityScore != 85 {
		t.Error("score not recomputed after toggle")
	}
}

func TestNotificationRespondEndpoint(t *testing.T) {
	at := time.Unix(1000, 0)
	server := newTestServer(t, fixedResolver(at, 99))

	w := doJSON(t, server, "POST", "/api/v1/attack/execute", map[string]string{"attackId": "phishing"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("launch: expected 200, got %d", w.Code)
	}
	cookies := w.Result().Cookies()
	state := decodeState(t, w)
	id := state.Notifications[len(state.Notifications)-1].ID

	w = doJSON(t, server, "POST", "/api/v1/notification/respond", map[string]interface{}{
		"notificationId": id, "accepted": true,
	}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("respond: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !decodeState(t, w).CasualUser.AccountCompromised {
		t.Error("accepted phishing must compromise")
	}

	// Second response to the same notification: gone.
	w = doJSON(t, server, "POST", "/api/v1/notification/respond", map[string]interface{}{
		"notificationId": id, "accepted": true,
	}, cookies)
	if w.Code != http.StatusNotFound {
		t.Errorf("double respond: expected 404, got %d", w.Code)
	}
}

func TestGeneratePasswordEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	w := doJSON(t, server, "POST", "/api/v1/passwords/generate", map[string]int{"length": 20}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if len(response["password"]) != 20 {
		t.Errorf("expected 20 characters, got %q", response["password"])
	}
}

func TestMutationsBroadcastStateUpdates(t *testing.T) {
	server := newTestServer(t, nil)
	live := httptest.NewServer(server.router)
	defer live.Close()

	wsURL := "ws" + strings.TrimPrefix(live.URL, "http") + "/api/v1/events/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for server.feed.clientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("feed client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	body := bytes.NewBufferString(`{"measure":"twoFactorAuth","enabled":true}`)
	resp, err := http.Post(live.URL+"/api/v1/security/update", "application/json", body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var event GameEvent
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Type != EventStateUpdated {
		t.Fatalf("expected %s, got %s", EventStateUpdated, event.Type)
	}
	payload, ok := event.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected payload shape: %#v", event.Payload)
	}
	if payload["vulnerabilityScore"] != float64(85) {
		t.Errorf("expected vulnerabilityScore 85 in payload, got %v", payload["vulnerabilityScore"])
	}

	// Reads must not announce anything.
	resp, err = http.Get(live.URL + "/api/v1/game/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("state read must not broadcast an event")
	}
}

func TestVaultEndpoints(t *testing.T) {
	server := newTestServer(t, nil)

	var cookies []*http.Cookie
	for _, title := range []string{"Mail", "Bank", "Forum"} {
		w := doJSON(t, server, "POST", "/api/v1/passwords/save", map[string]string{
			"title": title, "password": "pw",
		}, cookies)
		if w.Code != http.StatusOK {
			t.Fatalf("save %q: expected 200, got %d", title, w.Code)
		}
		if len(cookies) == 0 {
			cookies = w.Result().Cookies()
		}
	}

	w := doJSON(t, server, "GET", "/api/v1/game/state", nil, cookies)
	state := decodeState(t, w)
	if !state.CasualUser.SecurityMeasures.PasswordVault {
		t.Error("third entry must activate the vault")
	}

	w = doJSON(t, server, "POST", "/api/v1/passwords/delete", map[string]string{
		"id": state.CasualUser.PasswordVault[0].ID,
	}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}

	w = doJSON(t, server, "POST", "/api/v1/passwords/delete", map[string]string{"id": "no-such-id"}, cookies)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown entry: expected 404, got %d", w.Code)
	}
}
