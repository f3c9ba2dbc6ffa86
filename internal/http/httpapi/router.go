package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/http/handlers"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/middleware"
)

const costlyPerMinute = 10

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Get("/static/*", app.Static)

	secret := app.Config.JWTSecret
	// Uploads and re-verification are limited per account.
	userLimit := middleware.RateLimitBy(costlyPerMinute, time.Minute, middleware.UserOrClientKey)
	r.Route("/api", func(r chi.Router) {
		// Webhooks bypass the rate limiter and locale detection.
		r.Post("/stripe/webhook", app.StripeWebhook)
		r.Get("/live", app.LiveUpdates)

		r.Group(func(r chi.Router) {
			if app.Config.RateLimitPerMin > 0 {
				r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
			}
			r.Use(middleware.Geo(app.Geo), middleware.I18N("en"))

			// Public
			r.Group(func(r chi.Router) {
				r.Use(middleware.OptionalAuthJWT(secret))
				r.Post("/auth/session", app.AuthSession)
				r.Get("/pools", app.PoolsList)
				r.Get("/pools/suggest", app.PoolSuggest)
				r.Get("/pools/for-location", app.PoolForLocation)
				r.Get("/pools/{id}", app.PoolGet)
				r.Get("/pools/{id}/impact", app.PoolImpact)
				r.Get("/impact/summary", app.ImpactSummary)
				r.Get("/campaigns/active", app.CampaignsActive)
				r.Get("/campaigns/by-slug/{slug}", app.CampaignBySlug)
				r.Get("/campaigns/by-slug/{slug}/donations", app.CampaignDonations)
				r.Get("/campaigns/by-slug/{slug}/qr.png", app.CampaignQRCode)
				r.Post("/stripe/campaign-donation", app.StripeCampaignDonation)
				r.Get("/charities", app.Charities)
				r.Get("/charities/{slug}", app.Charity)
				r.Get("/needs", app.Needs)
			})

			// Signed in
			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthJWT(secret))
				r.Get("/me", app.Me)
				r.Patch("/me", app.PatchMe)

				r.Route("/bills", func(r chi.Router) {
					r.Post("/", app.BillSubmit)
					r.With(userLimit).Post("/upload", app.BillUpload)
					r.Get("/eligibility", app.BillEligibility)
					r.Get("/mine", app.BillsMine)
					r.Get("/{id}", app.BillGet)
					r.Get("/{id}/image", app.BillImage)
					r.With(userLimit).Post("/{id}/verify", app.BillVerify)
				})

				r.Post("/campaigns", app.CampaignCreate)
				r.Get("/campaigns/mine", app.CampaignsMine)
				r.Patch("/campaigns/{id}", app.CampaignUpdate)

				r.Post("/stripe/create-checkout", app.StripeCheckout)
				r.Post("/stripe/create-portal-session", app.StripePortal)
				r.Post("/stripe/update-subscription", app.StripeUpdateSubscription)
				r.Post("/stripe/cancel-subscription", app.StripeCancelSubscription)
				r.Get("/stripe/get-subscription-details", app.StripeSubscriptionDetails)
				r.Get("/contributions/mine", app.ContributionsMine)

				r.Route("/admin", func(r chi.Router) {
					r.Use(middleware.RequireRole(string(domain.UserRoleAdmin)))
					r.Get("/bills", app.AdminBills)
					r.Post("/bills/{id}/review", app.AdminReviewBill)
					r.Post("/bills/{id}/pay", app.AdminPayBill)
					r.Get("/bills/{id}/export", app.AdminExportBill)
					r.Get("/pools/{id}/ledger", app.AdminPoolLedger)
					r.Get("/pools/{id}/payments", app.AdminPoolPayments)
					r.Post("/pools/{id}/impact", app.AdminBuildImpact)
					r.Put("/needs", app.AdminUpsertNeeds)
				})
			})
		})
	})

	return r
}
