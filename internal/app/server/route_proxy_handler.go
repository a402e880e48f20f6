package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/fa993/rama/internal/api/dto"
	"github.com/fa993/rama/internal/proxydb"
	"github.com/fa993/rama/internal/support"
)

// requestContextFrom derives the selection context from the inbound
// request. The major protocol version decides the transport requirement;
// the authority comes from X-Forwarded-Host when a proxy in front of us
// set it, otherwise from the Host header.
func requestContextFrom(r *http.Request) proxydb.RequestContext {
	ctx := proxydb.RequestContext{
		Version: proxydb.VersionFromProto(r.ProtoMajor),
		Scheme:  "http",
		Host:    r.Host,
	}
	if r.TLS != nil {
		ctx.Scheme = "https"
	}

	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		authority, err := support.ParseForwardedAuthority(forwarded)
		if err != nil {
			log.Debug("ignoring invalid X-Forwarded-Host", "value", forwarded, "error", err)
		} else {
			ctx.Host = authority.Host
			ctx.Port = authority.Port
		}
	}

	return ctx
}

func (s *Server) selectProxy(w http.ResponseWriter, r *http.Request) {
	var filter proxydb.ProxyFilter
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
			writeError(w, "Invalid filter body", http.StatusBadRequest)
			return
		}
	}

	proxy, err := s.db.GetProxy(r.Context(), requestContextFrom(r), filter)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProxyInfoFromProxy(proxy))
}

func (s *Server) getProxyByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, "Missing proxy id", http.StatusBadRequest)
		return
	}

	proxy, err := s.db.GetProxy(r.Context(), requestContextFrom(r), proxydb.ProxyFilter{ID: &id})
	if err != nil {
		writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProxyInfoFromProxy(proxy))
}

func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, proxydb.ErrProxyNotFound):
		writeError(w, "No proxy matches the requested filter", http.StatusNotFound)
	case errors.Is(err, proxydb.ErrProxyMismatch):
		writeError(w, "Proxy exists but does not satisfy the filter", http.StatusConflict)
	default:
		log.Error("proxy selection failed", "error", err)
		writeError(w, "Proxy selection failed", http.StatusInternalServerError)
	}
}
