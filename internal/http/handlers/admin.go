package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/service"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/pkg/zip"
)

// AdminBills lists the review queue. Filters: verification, payment, pool, limit.
func (a *App) AdminBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.BillFilter{
		VerificationStatus: domain.VerificationStatus(q.Get("verification")),
		PaymentStatus:      domain.PaymentStatus(q.Get("payment")),
		PoolID:             q.Get("pool"),
		Limit:              queryLimit(r, 50, 200),
	}
	bills, err := a.Bills.ListForReview(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err, "load bills")
		return
	}
	if bills == nil {
		bills = []domain.BillSubmission{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": bills})
}

type reviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve decline"`
	Notes    string `json:"notes" validate:"max=2000"`
}

func (a *App) AdminReviewBill(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !a.decode(w, r, &req) {
		return
	}
	bill, err := a.Bills.Review(r.Context(), a.currentUserID(r), chi.URLParam(r, "id"), req.Decision, req.Notes)
	if err != nil {
		a.fail(w, r, err, "review bill")
		return
	}
	a.json(w, http.StatusOK, bill)
}

type payBillRequest struct {
	ConfirmationNumber string `json:"confirmationNumber" validate:"max=120"`
	Method             string `json:"method" validate:"omitempty,oneof=manual eft cheque card"`
}

type payBillResponse struct {
	Payment *domain.Payment       `json:"payment"`
	Pool    *domain.CommunityPool `json:"pool"`
}

// AdminPayBill disburses an approved bill from its pool.
func (a *App) AdminPayBill(w http.ResponseWriter, r *http.Request) {
	var req payBillRequest
	if !a.decode(w, r, &req) {
		return
	}
	payment, pool, err := a.Pools.ProcessPayment(r.Context(), a.currentUserID(r), chi.URLParam(r, "id"), service.PaymentInput{
		ConfirmationNumber: req.ConfirmationNumber,
		Method:             req.Method,
	})
	if err != nil {
		a.fail(w, r, err, "pay bill")
		return
	}
	a.json(w, http.StatusOK, payBillResponse{Payment: payment, Pool: pool})
}

// AdminExportBill returns a zip with the bill record, its payment when paid,
// and the original image.
func (a *App) AdminExportBill(w http.ResponseWriter, r *http.Request) {
	bill, err := a.Bills.Get(r.Context(), a.actor(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err, "load bill")
		return
	}
	record, _ := json.MarshalIndent(bill, "", "  ")
	assets := []zip.Asset{{Filename: "bill.json", Data: record, Modified: bill.CreatedAt}}

	payment, err := a.Pools.Payment(r.Context(), bill.ID)
	switch {
	case err == nil:
		body, _ := json.MarshalIndent(payment, "", "  ")
		assets = append(assets, zip.Asset{Filename: "payment.json", Data: body, Modified: payment.CreatedAt})
	case !errors.Is(err, domain.ErrNotFound):
		a.fail(w, r, err, "load payment")
		return
	}

	if a.Store != nil && bill.ImageKey != "" {
		image, err := a.Store.Read(r.Context(), bill.ImageKey)
		if err != nil {
			a.Logger.Warn().Err(err).Str("bill_id", bill.ID).Msg("bill image missing from export")
		} else {
			assets = append(assets, zip.Asset{Filename: "image" + path.Ext(bill.ImageKey), Data: image, Modified: bill.CreatedAt})
		}
	}

	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.fail(w, r, err, "build export")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bill-%s.zip"`, bill.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) AdminPoolLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := a.Pools.Ledger(r.Context(), chi.URLParam(r, "id"), queryLimit(r, 100, 500))
	if err != nil {
		a.fail(w, r, err, "load ledger")
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": entries})
}

func (a *App) AdminPoolPayments(w http.ResponseWriter, r *http.Request) {
	items, err := a.Pools.Payments(r.Context(), chi.URLParam(r, "id"), queryLimit(r, 100, 500))
	if err != nil {
		a.fail(w, r, err, "load payments")
		return
	}
	if items == nil {
		items = []domain.Payment{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type buildImpactRequest struct {
	PeriodStart string `json:"periodStart" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"periodEnd" validate:"required,datetime=2006-01-02"`
}

// AdminBuildImpact (re)builds one pool's impact report for [periodStart, periodEnd).
func (a *App) AdminBuildImpact(w http.ResponseWriter, r *http.Request) {
	var req buildImpactRequest
	if !a.decode(w, r, &req) {
		return
	}
	start, _ := time.Parse(dueDateLayout, req.PeriodStart)
	end, _ := time.Parse(dueDateLayout, req.PeriodEnd)
	report, err := a.Impact.Build(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		a.fail(w, r, err, "build impact report")
		return
	}
	a.json(w, http.StatusOK, report)
}

type needsRequest struct {
	City              string  `json:"city" validate:"required,max=100"`
	Province          string  `json:"province" validate:"required,len=2,alpha"`
	HouseholdsInNeed  int     `json:"householdsInNeed" validate:"gte=0"`
	AverageBillCents  int64   `json:"averageBillCents" validate:"gte=0"`
	EnergyPovertyRate float64 `json:"energyPovertyRate" validate:"gte=0,lte=1"`
	Source            string  `json:"source" validate:"max=200"`
}

func (a *App) AdminUpsertNeeds(w http.ResponseWriter, r *http.Request) {
	var req needsRequest
	if !a.decode(w, r, &req) {
		return
	}
	needs := &domain.NeedsData{
		City:              req.City,
		Province:          req.Province,
		HouseholdsInNeed:  req.HouseholdsInNeed,
		AverageBillCents:  req.AverageBillCents,
		EnergyPovertyRate: req.EnergyPovertyRate,
		Source:            req.Source,
	}
	if err := a.Reference.UpsertNeeds(r.Context(), needs); err != nil {
		a.fail(w, r, err, "save needs data")
		return
	}
	a.json(w, http.StatusOK, needs)
}
