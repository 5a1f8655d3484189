package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendMessage(t *testing.T) {
	t.Run("PostsChatIDAndText", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("decode body: %v", err)
			}
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		c := NewClient("secret-token", WithBaseURL(srv.URL))
		if err := c.SendMessage(t.Context(), 42, "Your code is 123456"); err != nil {
			t.Fatalf("send: %v", err)
		}

		if gotPath != "/botsecret-token/sendMessage" {
			t.Fatalf("unexpected path %q", gotPath)
		}
		if gotBody["chat_id"].(float64) != 42 || gotBody["text"] != "Your code is 123456" {
			t.Fatalf("unexpected payload: %v", gotBody)
		}
	})

	t.Run("SurfacesAPIRejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
		}))
		defer srv.Close()

		c := NewClient("secret-token", WithBaseURL(srv.URL))
		err := c.SendMessage(t.Context(), 42, "hello")
		if err == nil || !strings.Contains(err.Error(), "chat not found") {
			t.Fatalf("expected rejection error, got %v", err)
		}
	})

	t.Run("ErrorsOnNonJSONResponse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("bad gateway"))
		}))
		defer srv.Close()

		c := NewClient("secret-token", WithBaseURL(srv.URL))
		if err := c.SendMessage(t.Context(), 42, "hello"); err == nil {
			t.Fatal("expected error for non json body")
		}
	})
}
