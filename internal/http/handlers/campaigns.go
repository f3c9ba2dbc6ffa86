package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/service"
)

type createCampaignRequest struct {
	Title             string     `json:"title" validate:"required,max=120"`
	Story             string     `json:"story" validate:"max=5000"`
	GoalCents         int64      `json:"goalCents" validate:"gt=0"`
	BillID            *string    `json:"billId"`
	HideRecipientName bool       `json:"hideRecipientName"`
	HideAmounts       bool       `json:"hideAmounts"`
	EndsAt            *time.Time `json:"endsAt"`
}

func (a *App) CampaignCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req createCampaignRequest
	if !a.decode(w, r, &req) {
		return
	}
	c, err := a.Campaigns.Create(r.Context(), userID, service.CampaignInput{
		Title:             req.Title,
		Story:             req.Story,
		GoalCents:         req.GoalCents,
		BillID:            req.BillID,
		HideRecipientName: req.HideRecipientName,
		HideAmounts:       req.HideAmounts,
		EndsAt:            req.EndsAt,
	})
	if err != nil {
		a.fail(w, r, err, "create campaign")
		return
	}
	a.json(w, http.StatusCreated, c)
}

type updateCampaignRequest struct {
	Title             *string    `json:"title" validate:"omitempty,max=120"`
	Story             *string    `json:"story" validate:"omitempty,max=5000"`
	GoalCents         *int64     `json:"goalCents" validate:"omitempty,gt=0"`
	HideRecipientName *bool      `json:"hideRecipientName"`
	HideAmounts       *bool      `json:"hideAmounts"`
	EndsAt            *time.Time `json:"endsAt"`
	Status            *string    `json:"status" validate:"omitempty,oneof=closed"`
}

// CampaignUpdate edits the caller's campaign. The slug is never changed.
func (a *App) CampaignUpdate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req updateCampaignRequest
	if !a.decode(w, r, &req) {
		return
	}
	patch := service.CampaignPatch{
		Title:             req.Title,
		Story:             req.Story,
		GoalCents:         req.GoalCents,
		HideRecipientName: req.HideRecipientName,
		HideAmounts:       req.HideAmounts,
		EndsAt:            req.EndsAt,
	}
	if req.Status != nil {
		status := domain.CampaignStatus(*req.Status)
		patch.Status = &status
	}
	c, err := a.Campaigns.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		a.fail(w, r, err, "update campaign")
		return
	}
	a.json(w, http.StatusOK, c)
}

func (a *App) CampaignsMine(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	items, err := a.Campaigns.ListMine(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err, "load campaigns")
		return
	}
	if items == nil {
		items = []domain.Campaign{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) CampaignsActive(w http.ResponseWriter, r *http.Request) {
	items, err := a.Campaigns.ListActive(r.Context(), queryLimit(r, 20, 100))
	if err != nil {
		a.fail(w, r, err, "load campaigns")
		return
	}
	if items == nil {
		items = []service.PublicCampaign{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// CampaignBySlug is the public campaign page payload.
func (a *App) CampaignBySlug(w http.ResponseWriter, r *http.Request) {
	c, err := a.Campaigns.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		a.fail(w, r, err, "load campaign")
		return
	}
	a.json(w, http.StatusOK, c)
}

func (a *App) CampaignDonations(w http.ResponseWriter, r *http.Request) {
	items, err := a.Campaigns.Donations(r.Context(), chi.URLParam(r, "slug"), queryLimit(r, 50, 200))
	if err != nil {
		a.fail(w, r, err, "load donations")
		return
	}
	if items == nil {
		items = []service.PublicDonation{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// CampaignQRCode renders a PNG QR code linking to the campaign page.
func (a *App) CampaignQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := a.Campaigns.QRCode(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		a.fail(w, r, err, "render qr code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
