package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

// Charities lists partner charities, optionally filtered by ?category=.
func (a *App) Charities(w http.ResponseWriter, r *http.Request) {
	items, err := a.Reference.Charities(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		a.fail(w, r, err, "load charities")
		return
	}
	if items == nil {
		items = []domain.Charity{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) Charity(w http.ResponseWriter, r *http.Request) {
	c, err := a.Reference.Charity(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		a.fail(w, r, err, "load charity")
		return
	}
	a.json(w, http.StatusOK, c)
}

// Needs returns the needs record for ?city=&province=, or every record when
// no location is given.
func (a *App) Needs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("city") == "" && q.Get("province") == "" {
		items, err := a.Reference.AllNeeds(r.Context())
		if err != nil {
			a.fail(w, r, err, "load needs data")
			return
		}
		if items == nil {
			items = []domain.NeedsData{}
		}
		a.json(w, http.StatusOK, map[string]any{"items": items})
		return
	}
	needs, err := a.Reference.Needs(r.Context(), domain.Location{City: q.Get("city"), Province: q.Get("province")})
	if err != nil {
		a.fail(w, r, err, "load needs data")
		return
	}
	a.json(w, http.StatusOK, needs)
}
