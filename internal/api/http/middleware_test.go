package apihttp

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCorsMiddleware_AllowAllWhenNoOriginsConfigured(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	corsMiddleware(nil, okHandler()).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("expected origin reflected, got %q", got)
	}
}

func TestCorsMiddleware_Whitelist(t *testing.T) {
	handler := corsMiddleware([]string{"http://allowed.com/"}, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Origin", "http://allowed.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://allowed.com" {
		t.Errorf("expected whitelisted origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Origin", "http://evil.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no ACAO header for rejected origin, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected handler to still execute, got %d", rec.Code)
	}
}

func TestCorsMiddleware_PreflightReturns204(t *testing.T) {
	called := false
	handler := corsMiddleware(nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodOptions, "/favorites/toggle", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent || called {
		t.Fatalf("expected 204 without calling next, got %d called=%v", rec.Code, called)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(slog.Default(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRouteTemplate(t *testing.T) {
	var got string
	r := mux.NewRouter()
	r.HandleFunc("/media/{kind}/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = routeTemplate(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/media/movie/42", nil))
	if got != "/media/{kind}/{id}" {
		t.Fatalf("routeTemplate = %q", got)
	}
	if other := routeTemplate(httptest.NewRequest(http.MethodGet, "/x", nil)); other != "/other" {
		t.Fatalf("unmatched route = %q", other)
	}
}

func TestPickRequestLogLevel(t *testing.T) {
	if pickRequestLogLevel("/home", 502) != slog.LevelError {
		t.Fatal("5xx must log at error")
	}
	if pickRequestLogLevel("/home", 404) != slog.LevelWarn {
		t.Fatal("4xx must log at warn")
	}
	if pickRequestLogLevel("/health", 200) != slog.LevelDebug {
		t.Fatal("health must log at debug")
	}
}
