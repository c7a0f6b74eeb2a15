package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pairlink/pairlink/internal/identity"
	"github.com/pairlink/pairlink/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func testAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	directory := identity.New([]models.User{
		{Username: "alice", PasswordHash: string(hash)},
		{Username: "bob", PasswordHash: string(hash)},
	}, nil)
	return &AuthHandler{Directory: directory}
}

func postLogin(t *testing.T, handler *AuthHandler, creds Credentials) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(creds)
	req, err := http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, req)
	return rr
}

func TestLogin(t *testing.T) {
	handler := testAuthHandler(t)

	rr := postLogin(t, handler, Credentials{Username: "alice", Password: "password123"})

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	var resp map[string]any
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["ok"] != true || resp["username"] != "alice" {
		t.Errorf("unexpected response: %v", resp)
	}

	// Check cookies
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Error("Expected session cookie to be set")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	handler := testAuthHandler(t)

	rr := postLogin(t, handler, Credentials{Username: "mallory", Password: "password123"})

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusUnauthorized)
	}

	var resp map[string]any
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["ok"] != false || resp["message"] != "unknown user" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	handler := testAuthHandler(t)

	rr := postLogin(t, handler, Credentials{Username: "alice", Password: "wrong"})

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusUnauthorized)
	}

	var resp map[string]any
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["message"] != "invalid password" {
		t.Errorf("unexpected response: %v", resp)
	}

	if len(rr.Result().Cookies()) != 0 {
		t.Error("Expected no cookie on failed login")
	}
}

func TestLoginBadBody(t *testing.T) {
	handler := testAuthHandler(t)

	req, _ := http.NewRequest("POST", "/login", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusBadRequest)
	}
}
