package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/memoirs/internal/models"
	"github.com/starford/memoirs/internal/resolver"
)

// NewRouter creates a chi router with all API routes mounted.
// defaults is the partition used for sessions without a partition cookie.
func NewRouter(res *resolver.Resolver, defaults models.Partition) chi.Router {
	h := NewHandler(res, defaults)

	r := chi.NewRouter()
	r.Use(PartitionMiddleware(defaults))

	// Single memos.
	r.Get("/memo/{id}", h.GetMemo)
	r.Delete("/memo/{id}", h.InvalidateMemo)

	// Lists.
	r.Get("/memos", h.ListMemos)
	r.Delete("/memos", h.InvalidateList)

	r.Get("/menu", h.Menu)
	r.Get("/stats", h.Stats)

	// Session.
	r.Post("/server", h.ChangeServer)

	return r
}
