package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	return resp, decodeBody(t, resp.Body)
}

func getJSON(t *testing.T, url string, header http.Header) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	return resp, decodeBody(t, resp.Body)
}

func decodeBody(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
	return body
}

func TestHandleRegister_Success(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))

	resp, body := postJSON(t, srv.URL+"/auth/register", `{"username":"testuser123","password":"password123"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, body)
	}

	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %v", body)
	}
	if user["username"] != "testuser123" {
		t.Fatalf("expected username testuser123, got %v", user["username"])
	}
	if id, _ := user["id"].(float64); id == 0 {
		t.Fatalf("expected id to be assigned, got %v", user["id"])
	}
	for _, forbidden := range []string{"password", "passwordHash", "password_hash"} {
		if _, present := user[forbidden]; present {
			t.Fatalf("user object leaked %q: %v", forbidden, user)
		}
	}
}

func TestHandleRegister_Errors(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))

	if resp, _ := postJSON(t, srv.URL+"/auth/register", `{"username":"taken","password":"password123"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed register: expected 201, got %d", resp.StatusCode)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"duplicate", `{"username":"taken","password":"otherpass"}`, http.StatusConflict, ""},
		{"malformed json", `{"username":`, http.StatusBadRequest, ""},
		{"unknown field", `{"username":"newuser","password":"password123","admin":true}`, http.StatusBadRequest, ""},
		{"trailing data", `{"username":"newuser","password":"password123"}{}`, http.StatusBadRequest, ""},
		{"short username", `{"username":"ab","password":"password123"}`, http.StatusBadRequest, "username"},
		{"long username", `{"username":"abcdefghijklmnopqrstu","password":"password123"}`, http.StatusBadRequest, "username"},
		{"short password", `{"username":"newuser","password":"12345"}`, http.StatusBadRequest, "password"},
		{"missing password", `{"username":"newuser"}`, http.StatusBadRequest, "password"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+"/auth/register", tc.body)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %v", tc.wantStatus, resp.StatusCode, body)
			}
			if tc.wantField != "" {
				if _, ok := body["fields"]; ok {
					t.Fatalf("per-field errors belong under \"errors\", got %v", body)
				}
				fieldErrs, _ := body["errors"].(map[string]any)
				if _, ok := fieldErrs[tc.wantField]; !ok {
					t.Fatalf("expected field error for %q, got %v", tc.wantField, body)
				}
			}
		})
	}
}

func TestHandleLogin(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))

	postJSON(t, srv.URL+"/auth/register", `{"username":"loginuser","password":"password123"}`)

	resp, body := postJSON(t, srv.URL+"/auth/login", `{"username":"loginuser","password":"password123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if token, _ := body["access_token"].(string); token == "" {
		t.Fatalf("expected access_token, got %v", body)
	}
	if body["token_type"] != "Bearer" || body["expires_in"] != float64(3600) {
		t.Fatalf("unexpected token metadata %v", body)
	}

	wrong, wrongBody := postJSON(t, srv.URL+"/auth/login", `{"username":"loginuser","password":"wrong"}`)
	unknown, unknownBody := postJSON(t, srv.URL+"/auth/login", `{"username":"ghost","password":"password123"}`)
	if wrong.StatusCode != http.StatusUnauthorized || unknown.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrong.StatusCode, unknown.StatusCode)
	}
	if wrongBody["error"] != unknownBody["error"] {
		t.Fatalf("wrong-password and unknown-user responses differ: %v vs %v", wrongBody, unknownBody)
	}

	empty, emptyBody := postJSON(t, srv.URL+"/auth/login", `{"username":"","password":""}`)
	if empty.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty credentials, got %d: %v", empty.StatusCode, emptyBody)
	}
}

func TestHandleListUsers(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))

	for _, name := range []string{"alpha", "bravo"} {
		postJSON(t, srv.URL+"/auth/register", `{"username":"`+name+`","password":"password123"}`)
	}

	resp, body := getJSON(t, srv.URL+"/auth/users", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["total"] != float64(2) {
		t.Fatalf("expected total 2, got %v", body["total"])
	}
	users, _ := body["users"].([]any)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %v", body["users"])
	}

	raw, _ := json.Marshal(body)
	if bytes.Contains(raw, []byte("password")) || bytes.Contains(raw, []byte("$2a$")) {
		t.Fatalf("user list leaked password data: %s", raw)
	}
}

func TestHandleMe(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))

	postJSON(t, srv.URL+"/auth/register", `{"username":"meuser","password":"password123"}`)
	_, login := postJSON(t, srv.URL+"/auth/login", `{"username":"meuser","password":"password123"}`)
	token := login["access_token"].(string)

	resp, body := getJSON(t, srv.URL+"/auth/me", http.Header{"Authorization": {"Bearer " + token}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	user, _ := body["user"].(map[string]any)
	if user["username"] != "meuser" {
		t.Fatalf("expected meuser, got %v", body)
	}

	resp, _ = getJSON(t, srv.URL+"/auth/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate header on 401")
	}
}
