package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/storage"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"payments": a.Config.PaymentsEnabled(),
	})
}

// LiveUpdates upgrades to the websocket hub.
func (a *App) LiveUpdates(w http.ResponseWriter, r *http.Request) {
	if a.Live == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "live updates are disabled")
		return
	}
	a.Live.ServeHTTP(w, r)
}

// Static serves filesystem-stored bill images behind signed URLs.
func (a *App) Static(w http.ResponseWriter, r *http.Request) {
	if a.Files == nil {
		a.error(w, http.StatusNotFound, "not_found", "not found")
		return
	}
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	q := r.URL.Query()
	if err := a.Files.Verify(key, q.Get("exp"), q.Get("sig")); err != nil {
		a.error(w, http.StatusForbidden, "forbidden", "invalid or expired link")
		return
	}
	data, err := a.Files.Read(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "not found")
			return
		}
		a.fail(w, r, err, "read file")
		return
	}
	contentType, err := storage.DetectContentType(data)
	if err != nil {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("Content-Disposition", `inline; filename="`+path.Base(key)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
