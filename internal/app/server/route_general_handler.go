package server

import (
	"context"
	"net/http"

	"github.com/fa993/rama/internal/api/dto"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	info := dto.HealthInfo{Status: "ok"}
	info.PoolSize = poolSize(r.Context(), s.db)
	info.PoolEmpty = info.PoolSize == 0

	writeJSON(w, http.StatusOK, info)
}

// poolSize works across both store implementations; the in-memory one
// counts without a context, the SQL one counts with one.
func poolSize(ctx context.Context, db any) int64 {
	switch counter := db.(type) {
	case interface {
		Len(context.Context) (int64, error)
	}:
		n, err := counter.Len(ctx)
		if err != nil {
			return 0
		}
		return n
	case interface{ Len() int }:
		return int64(counter.Len())
	default:
		return 0
	}
}
