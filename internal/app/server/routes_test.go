package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fa993/rama/internal/api/dto"
	"github.com/fa993/rama/internal/auth"
	"github.com/fa993/rama/internal/proxydb"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	country := func(v string) *proxydb.StringFilter {
		f := proxydb.NewStringFilter(v)
		return &f
	}
	anyCountry := proxydb.WildcardFilter()
	creds := proxydb.NewBasicCredentialsWithPassword("user", "pass")

	db, err := proxydb.NewMemoryProxyDB([]proxydb.Proxy{
		{ID: "a", Address: "10.0.0.1:8080", TCP: true, Datacenter: true, Country: country("US"), Credentials: &creds},
		{ID: "b", Address: "10.0.0.2:8080", TCP: true, Residential: true, Country: country("DE")},
		{ID: "c", Address: "10.0.0.3:1080", UDP: true, SOCKS5: true, Mobile: true, Country: &anyCountry},
	})
	if err != nil {
		t.Fatalf("building test pool: %v", err)
	}

	return New(db)
}

func decodeProxyInfo(t *testing.T, rec *httptest.ResponseRecorder) dto.ProxyInfo {
	t.Helper()
	var info dto.ProxyInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return info
}

func TestSelectProxyNoFilter(t *testing.T) {
	handler := newTestServer(t).Routes()

	req := httptest.NewRequest(http.MethodPost, "/proxy", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /proxy returned %d, want 200", rec.Code)
	}
	info := decodeProxyInfo(t, rec)
	// an http/1 request needs a tcp-capable upstream
	if info.ID != "a" && info.ID != "b" {
		t.Fatalf("selected %s, want a tcp-capable record", info.ID)
	}
}

func TestSelectProxyWithFilter(t *testing.T) {
	handler := newTestServer(t).Routes()

	body := strings.NewReader(`{"country":"DE"}`)
	req := httptest.NewRequest(http.MethodPost, "/proxy", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /proxy returned %d, want 200", rec.Code)
	}
	if info := decodeProxyInfo(t, rec); info.ID != "b" {
		t.Fatalf("selected %s, want b", info.ID)
	}
}

func TestSelectProxyNotFound(t *testing.T) {
	handler := newTestServer(t).Routes()

	body := strings.NewReader(`{"country":"JP","datacenter":true}`)
	req := httptest.NewRequest(http.MethodPost, "/proxy", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("POST /proxy returned %d, want 404", rec.Code)
	}
}

func TestSelectProxyByIDMismatch(t *testing.T) {
	handler := newTestServer(t).Routes()

	// record a is in the US; pinning its id with another country conflicts
	body := strings.NewReader(`{"id":"a","country":"DE"}`)
	req := httptest.NewRequest(http.MethodPost, "/proxy", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("POST /proxy returned %d, want 409", rec.Code)
	}
}

func TestSelectProxyInvalidBody(t *testing.T) {
	handler := newTestServer(t).Routes()

	req := httptest.NewRequest(http.MethodPost, "/proxy", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /proxy returned %d, want 400", rec.Code)
	}
}

func TestSelectProxyCredentialsInResponse(t *testing.T) {
	handler := newTestServer(t).Routes()

	body := strings.NewReader(`{"id":"a"}`)
	req := httptest.NewRequest(http.MethodPost, "/proxy", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /proxy returned %d, want 200", rec.Code)
	}
	info := decodeProxyInfo(t, rec)
	if info.Credentials != "Basic dXNlcjpwYXNz" {
		t.Fatalf("credentials rendered as %q, want the Basic header value", info.Credentials)
	}
}

func TestHealth(t *testing.T) {
	handler := newTestServer(t).Routes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health returned %d, want 200", rec.Code)
	}
	var info dto.HealthInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	if info.Status != "ok" || info.PoolSize != 3 || info.PoolEmpty {
		t.Fatalf("health reported %+v, want ok with 3 records", info)
	}
}

func TestGetProxyByIDRequiresAuth(t *testing.T) {
	handler := newTestServer(t).Routes()

	req := httptest.NewRequest(http.MethodGet, "/proxies/a", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("GET /proxies/a without token returned %d, want 401", rec.Code)
	}

	token, err := auth.GenerateJWT("tester", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/proxies/a", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /proxies/a with token returned %d, want 200", rec.Code)
	}
	if info := decodeProxyInfo(t, rec); info.ID != "a" {
		t.Fatalf("returned %s, want a", info.ID)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestServer(t).Routes()

	req := httptest.NewRequest(http.MethodOptions, "/proxy", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("OPTIONS /proxy returned %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("preflight response missing CORS headers")
	}
}

func TestForwardedHostFeedsRequestContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/proxy", nil)
	req.Header.Set("X-Forwarded-Host", "client.example.com:8443")

	ctx := requestContextFrom(req)
	if ctx.Host != "client.example.com" || ctx.Port != 8443 {
		t.Fatalf("request context carries %s:%d, want client.example.com:8443", ctx.Host, ctx.Port)
	}

	// malformed header falls back to the request host
	req.Header.Set("X-Forwarded-Host", "host:0")
	ctx = requestContextFrom(req)
	if ctx.Host != req.Host {
		t.Fatalf("request context carries %s, want %s", ctx.Host, req.Host)
	}
}
