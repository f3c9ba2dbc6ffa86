package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/middleware"
)

func (a *App) PoolsList(w http.ResponseWriter, r *http.Request) {
	pools, err := a.Pools.List(r.Context())
	if err != nil {
		a.fail(w, r, err, "load pools")
		return
	}
	if pools == nil {
		pools = []domain.CommunityPool{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": pools})
}

func (a *App) PoolGet(w http.ResponseWriter, r *http.Request) {
	pool, err := a.Pools.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err, "load pool")
		return
	}
	a.json(w, http.StatusOK, pool)
}

// PoolForLocation finds the pool for ?city=&province= without creating one.
func (a *App) PoolForLocation(w http.ResponseWriter, r *http.Request) {
	loc := domain.Location{City: r.URL.Query().Get("city"), Province: r.URL.Query().Get("province")}.Normalize()
	if loc.IsZero() {
		a.error(w, http.StatusBadRequest, "bad_request", "city and province required")
		return
	}
	pool, err := a.Pools.ForLocation(r.Context(), loc)
	if err != nil {
		a.fail(w, r, err, "find pool")
		return
	}
	a.json(w, http.StatusOK, pool)
}

// PoolSuggest proposes a pool from the caller's resolved location.
func (a *App) PoolSuggest(w http.ResponseWriter, r *http.Request) {
	suggestion, err := a.Pools.Suggest(r.Context(), middleware.PlaceFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err, "suggest pool")
		return
	}
	a.json(w, http.StatusOK, suggestion)
}

func (a *App) PoolImpact(w http.ResponseWriter, r *http.Request) {
	reports, err := a.Impact.List(r.Context(), chi.URLParam(r, "id"), queryLimit(r, 12, 104))
	if err != nil {
		a.fail(w, r, err, "load impact reports")
		return
	}
	if reports == nil {
		reports = []domain.ImpactReport{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": reports})
}

func (a *App) ImpactSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Impact.Summary(r.Context())
	if err != nil {
		a.fail(w, r, err, "load impact summary")
		return
	}
	a.json(w, http.StatusOK, summary)
}
