package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/geoip"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/middleware"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/payments"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/service"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/storage"
)

type UserAPI interface {
	Session(ctx context.Context, idToken string) (*service.Session, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	Patch(ctx context.Context, userID string, patch service.ProfilePatch) (*domain.User, *domain.CommunityPool, error)
}

type BillAPI interface {
	CheckEligibility(ctx context.Context, userID string) (domain.Eligibility, error)
	Submit(ctx context.Context, userID string, in service.SubmitInput) (*domain.BillSubmission, error)
	Upload(ctx context.Context, userID, filename string, data []byte) (string, error)
	Get(ctx context.Context, actor service.Actor, id string) (*domain.BillSubmission, error)
	ImageURL(ctx context.Context, actor service.Actor, id string) (string, error)
	ListMine(ctx context.Context, userID string) ([]domain.BillSubmission, error)
	ListForReview(ctx context.Context, filter domain.BillFilter) ([]domain.BillSubmission, error)
	Review(ctx context.Context, adminID, billID, decision, notes string) (*domain.BillSubmission, error)
	Verify(ctx context.Context, actor service.Actor, billID string) (*domain.BillSubmission, error)
}

type PoolAPI interface {
	Get(ctx context.Context, id string) (*domain.CommunityPool, error)
	List(ctx context.Context) ([]domain.CommunityPool, error)
	ForLocation(ctx context.Context, loc domain.Location) (*domain.CommunityPool, error)
	Suggest(ctx context.Context, place geoip.Place) (*service.Suggestion, error)
	ProcessPayment(ctx context.Context, adminID, billID string, in service.PaymentInput) (*domain.Payment, *domain.CommunityPool, error)
	Ledger(ctx context.Context, poolID string, limit int) ([]domain.LedgerEntry, error)
	Payments(ctx context.Context, poolID string, limit int) ([]domain.Payment, error)
	Payment(ctx context.Context, billID string) (*domain.Payment, error)
}

type CampaignAPI interface {
	Create(ctx context.Context, userID string, in service.CampaignInput) (*domain.Campaign, error)
	Update(ctx context.Context, userID, id string, patch service.CampaignPatch) (*domain.Campaign, error)
	GetBySlug(ctx context.Context, slug string) (*service.PublicCampaign, error)
	ListActive(ctx context.Context, limit int) ([]service.PublicCampaign, error)
	ListMine(ctx context.Context, userID string) ([]domain.Campaign, error)
	Donations(ctx context.Context, slug string, limit int) ([]service.PublicDonation, error)
	QRCode(ctx context.Context, slug string) ([]byte, error)
}

type ContributionAPI interface {
	Checkout(ctx context.Context, userID string, in service.CheckoutInput) (*payments.CheckoutSession, error)
	CampaignCheckout(ctx context.Context, in service.CampaignCheckoutInput) (*payments.CheckoutSession, error)
	PortalSession(ctx context.Context, userID, returnURL string) (string, error)
	UpdateSubscription(ctx context.Context, userID, stripeID string, amountCents int64) (*domain.Subscription, error)
	CancelSubscription(ctx context.Context, userID, stripeID string, atPeriodEnd bool) (*domain.Subscription, error)
	SubscriptionDetails(ctx context.Context, userID, stripeID string) (*payments.SubscriptionSnapshot, error)
	Mine(ctx context.Context, userID string) (*service.Contributions, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type ImpactAPI interface {
	Build(ctx context.Context, poolID string, start, end time.Time) (*domain.ImpactReport, error)
	List(ctx context.Context, poolID string, limit int) ([]domain.ImpactReport, error)
	Summary(ctx context.Context) (*domain.ImpactSummary, error)
}

type ReferenceAPI interface {
	Charities(ctx context.Context, category string) ([]domain.Charity, error)
	Charity(ctx context.Context, slug string) (*domain.Charity, error)
	Needs(ctx context.Context, loc domain.Location) (*domain.NeedsData, error)
	AllNeeds(ctx context.Context) ([]domain.NeedsData, error)
	UpsertNeeds(ctx context.Context, n *domain.NeedsData) error
}

// App holds the handler dependencies. Services are narrowed to the calls the
// HTTP layer makes so tests can stub them.
type App struct {
	Config        *infra.Config
	Logger        zerolog.Logger
	Users         UserAPI
	Bills         BillAPI
	Pools         PoolAPI
	Campaigns     CampaignAPI
	Contributions ContributionAPI
	Impact        ImpactAPI
	Reference     ReferenceAPI
	// Store backs the admin export; Files serves signed /static URLs when the
	// filesystem driver is active.
	Store    storage.Store
	Files    *storage.FileStore
	Live     http.Handler
	Geo      geoip.LocationResolver
	Validate *validator.Validate
}

func NewApp(cfg *infra.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger, Validate: newValidator()}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) actor(r *http.Request) service.Actor {
	return service.Actor{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   domain.UserRole(middleware.RoleFromContext(r.Context())),
	}
}

// decode reads a JSON body and runs the validate tags on it. It writes the 400
// itself and reports whether the handler should continue.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	if a.Validate == nil {
		return true
	}
	if err := a.Validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			a.error(w, http.StatusBadRequest, "validation", fe.Field()+": failed "+fe.Tag())
			return false
		}
		a.error(w, http.StatusBadRequest, "validation", "invalid payload")
		return false
	}
	return true
}

// fail maps service errors onto status codes. Unknown errors are logged and
// reported as internal without leaking details.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrAssistanceLimit):
		a.error(w, http.StatusConflict, "assistance_limit", domain.ErrAssistanceLimit.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		a.error(w, http.StatusConflict, "insufficient_funds", domain.ErrInsufficientFunds.Error())
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "validation", validationMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "not allowed")
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrDuplicateOperation):
		a.error(w, http.StatusConflict, "duplicate", err.Error())
	case errors.Is(err, domain.ErrSlugExhausted):
		a.error(w, http.StatusConflict, "slug_exhausted", "could not allocate a campaign link, try another title")
	case errors.Is(err, domain.ErrPaymentsDisabled):
		a.error(w, http.StatusServiceUnavailable, "payments_disabled", "payments are not configured")
	case errors.Is(err, context.Canceled):
		a.error(w, 499, "canceled", "request canceled")
	default:
		a.Logger.Error().Err(err).
			Str("op", op).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to "+op)
	}
}

func validationMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return "invalid request"
}

func queryLimit(r *http.Request, fallback, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
