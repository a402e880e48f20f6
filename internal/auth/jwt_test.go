package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT("alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT returned error: %v", err)
	}
	if claims["sub"] != "alice" {
		t.Fatalf("sub claim is %v, want alice", claims["sub"])
	}
	if claims["role"] != "admin" {
		t.Fatalf("role claim is %v, want admin", claims["role"])
	}
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	short, err := GenerateJWT("alice", time.Millisecond)
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ValidateJWT(short); err == nil {
		t.Fatal("ValidateJWT accepted an expired token")
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	if _, err := ValidateJWT("not-a-token"); err == nil {
		t.Fatal("ValidateJWT accepted a malformed token")
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("request without token got %d, want 401", rec.Code)
	}

	token, err := GenerateJWT("alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("request with token got %d, want 204", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole("operator")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := GenerateJWT("alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}

	// tokens carry role admin; an operator-only handler must refuse them
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin token on operator endpoint got %d, want 403", rec.Code)
	}
}
