package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pairlink/pairlink/internal/models"
	"github.com/pairlink/pairlink/internal/store/memstore"
)

func TestGetMessages(t *testing.T) {
	ledger := memstore.New()
	ledger.Append(models.Envelope{ID: "m1", From: "alice", To: "bob", Ts: 10})
	ledger.Append(models.Envelope{ID: "m2", From: "bob", To: "alice", Ts: 20})

	handler := &MessageHandler{Ledger: ledger}

	req, _ := http.NewRequest("GET", "/messages?since=15", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.GetMessages).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	var resp struct {
		OK       bool              `json:"ok"`
		Messages []models.Envelope `json:"messages"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if !resp.OK {
		t.Error("expected ok response")
	}
	if len(resp.Messages) != 1 || resp.Messages[0].ID != "m2" {
		t.Errorf("expected [m2], got %+v", resp.Messages)
	}
}

func TestGetMessagesDefaultsSinceZero(t *testing.T) {
	ledger := memstore.New()
	ledger.Append(models.Envelope{ID: "m1", Ts: 10})

	handler := &MessageHandler{Ledger: ledger}

	req, _ := http.NewRequest("GET", "/messages", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.GetMessages).ServeHTTP(rr, req)

	var resp struct {
		Messages []models.Envelope `json:"messages"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Messages) != 1 {
		t.Errorf("expected 1 message, got %d", len(resp.Messages))
	}
}

func TestGetMessagesEmptyLedgerReturnsList(t *testing.T) {
	handler := &MessageHandler{Ledger: memstore.New()}

	req, _ := http.NewRequest("GET", "/messages", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.GetMessages).ServeHTTP(rr, req)

	var resp map[string]any
	json.NewDecoder(rr.Body).Decode(&resp)
	if _, ok := resp["messages"].([]any); !ok {
		t.Errorf("expected messages to be a JSON array, got %v", resp["messages"])
	}
}

func TestGetMessagesBadCursor(t *testing.T) {
	handler := &MessageHandler{Ledger: memstore.New()}

	req, _ := http.NewRequest("GET", "/messages?since=notanumber", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.GetMessages).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusBadRequest)
	}
}
