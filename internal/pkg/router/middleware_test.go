package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nikstrim/otpgate/internal/pkg/instrument"
)

func tagMiddleware(tag string, order *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, tag)
			next.ServeHTTP(w, r)
		})
	}
}

func TestChain(t *testing.T) {
	t.Run("FirstMiddlewareIsOutermost", func(t *testing.T) {
		var order []string
		h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}), tagMiddleware("a", &order), tagMiddleware("b", &order), tagMiddleware("c", &order))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if got := strings.Join(order, ","); got != "a,b,c,handler" {
			t.Fatalf("unexpected order: %s", got)
		}
	})

	t.Run("NoMiddlewares", func(t *testing.T) {
		called := false
		h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if !called {
			t.Fatal("handler should run unchanged")
		}
	})
}

type staticUUID struct{ v string }

func (s staticUUID) Generate() string { return s.v }

func TestMiddlewareCorrelationID(t *testing.T) {
	t.Run("PropagatesInboundHeader", func(t *testing.T) {
		var got string
		h := middlewareCorrelationID(staticUUID{v: "generated"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = instrument.GetCorrelationID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderCorrelationID, "cid-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got != "cid-123" {
			t.Fatalf("expected inbound correlation id in context, got %q", got)
		}
		if rec.Header().Get(HeaderCorrelationID) != "cid-123" {
			t.Fatal("correlation id should echo back on the response")
		}
	})

	t.Run("GeneratesWhenAbsent", func(t *testing.T) {
		var got string
		h := middlewareCorrelationID(staticUUID{v: "generated"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = instrument.GetCorrelationID(r.Context())
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if got != "generated" {
			t.Fatalf("expected generated correlation id, got %q", got)
		}
	})
}
