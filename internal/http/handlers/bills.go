package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/service"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/storage"
)

const dueDateLayout = "2006-01-02"

func (a *App) BillEligibility(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	eligibility, err := a.Bills.CheckEligibility(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err, "check eligibility")
		return
	}
	a.json(w, http.StatusOK, eligibility)
}

// BillUpload accepts a multipart "file" field and returns the storage key to
// submit with the bill.
func (a *App) BillUpload(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUploadBytes+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", storage.ErrTooLarge.Error())
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "file field required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}
	key, err := a.Bills.Upload(r.Context(), userID, header.Filename, data)
	if err != nil {
		a.fail(w, r, err, "store upload")
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"key": key})
}

type submitBillRequest struct {
	UtilityType    string `json:"utilityType" validate:"required"`
	ProviderName   string `json:"providerName" validate:"max=120"`
	AccountNumber  string `json:"accountNumber" validate:"max=64"`
	AmountDueCents int64  `json:"amountDueCents" validate:"gt=0"`
	DueDate        string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	ImageKey       string `json:"imageKey" validate:"required"`
}

func (a *App) BillSubmit(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req submitBillRequest
	if !a.decode(w, r, &req) {
		return
	}
	in := service.SubmitInput{
		UtilityType:    domain.UtilityType(req.UtilityType),
		ProviderName:   req.ProviderName,
		AccountNumber:  req.AccountNumber,
		AmountDueCents: req.AmountDueCents,
		ImageKey:       req.ImageKey,
	}
	if req.DueDate != "" {
		due, _ := time.Parse(dueDateLayout, req.DueDate)
		in.DueDate = &due
	}
	bill, err := a.Bills.Submit(r.Context(), userID, in)
	if err != nil {
		a.fail(w, r, err, "submit bill")
		return
	}
	a.json(w, http.StatusCreated, bill)
}

func (a *App) BillsMine(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	bills, err := a.Bills.ListMine(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err, "load bills")
		return
	}
	if bills == nil {
		bills = []domain.BillSubmission{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": bills})
}

func (a *App) BillGet(w http.ResponseWriter, r *http.Request) {
	bill, err := a.Bills.Get(r.Context(), a.actor(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err, "load bill")
		return
	}
	a.json(w, http.StatusOK, bill)
}

// BillImage returns a short-lived link to the bill image.
func (a *App) BillImage(w http.ResponseWriter, r *http.Request) {
	url, err := a.Bills.ImageURL(r.Context(), a.actor(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err, "sign image url")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"url": url})
}

// BillVerify re-runs AI verification synchronously. Verification problems end
// in needs_review rather than an error response.
func (a *App) BillVerify(w http.ResponseWriter, r *http.Request) {
	bill, err := a.Bills.Verify(r.Context(), a.actor(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err, "verify bill")
		return
	}
	a.json(w, http.StatusOK, bill)
}
