package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/adapter/repo"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/http/handlers"
	httpapi "github.com/Syed-Ahmed02/ummahhacks-sub000/internal/http/httpapi"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/credentials"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/geoip"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/oidc"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/live"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/payments"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/providers/verify"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/service"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg, "api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)

	store, files, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}

	creds := credentials.NewStore(runner)
	verifier, err := verify.New(cfg.VerifyProvider, verify.OpenAIOptions{
		APIKey:  cfg.OpenAIAPIKey,
		KeyFunc: creds.KeyFunc(credentials.ProviderOpenAI, cfg.OpenAIAPIKey, credentials.DefaultKeyTTL),
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		OnFallback: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("verification fell back")
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build verifier")
	}

	var gateway payments.Gateway
	stripeGateway, err := payments.NewStripeGateway(payments.StripeOptions{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Currency:      cfg.StripeCurrency,
		Logger:        logger,
	})
	switch {
	case err == nil:
		gateway = stripeGateway
	case errors.Is(err, domain.ErrPaymentsDisabled):
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, payment endpoints disabled")
	default:
		logger.Fatal().Err(err).Msg("failed to configure stripe")
	}

	hub := live.NewHub(logger, cfg.CORSAllowedOrigins)
	go hub.Run(ctx)

	users := repo.NewUserRepository(runner)
	pools := repo.NewPoolRepository(runner)
	bills := repo.NewBillRepository(runner)
	paymentsRepo := repo.NewPaymentRepository(runner)
	campaigns := repo.NewCampaignRepository(runner)
	reference := repo.NewReferenceRepository(runner)
	now := time.Now

	app := handlers.NewApp(cfg, logger)
	app.Store = store
	app.Files = files
	app.Live = hub
	app.Users = service.NewUserService(service.UserDeps{
		Users:       users,
		Pools:       pools,
		Tokens:      oidc.NewVerifier(cfg.AuthIssuer, cfg.AuthAudience),
		JWTSecret:   cfg.JWTSecret,
		AdminEmails: cfg.AdminEmails,
		Logger:      logger,
		Now:         now,
	})
	app.Bills = service.NewBillService(service.BillDeps{
		Bills:        bills,
		Users:        users,
		Pools:        pools,
		Store:        store,
		Verifier:     verifier,
		Publisher:    hub,
		Policy:       domain.EligibilityPolicy{MaxPaidBills: cfg.AssistanceMaxPaidBills, Window: cfg.AssistanceWindow},
		SignedURLTTL: cfg.SignedURLTTL,
		InlineImages: files != nil,
		Logger:       logger,
		Now:          now,
	})
	app.Pools = service.NewPoolService(service.PoolDeps{
		Pools:     pools,
		Payments:  paymentsRepo,
		Bills:     bills,
		Publisher: hub,
		Logger:    logger,
		Now:       now,
	})
	app.Campaigns = service.NewCampaignService(service.CampaignDeps{
		Campaigns:    campaigns,
		Donations:    campaigns,
		Bills:        bills,
		Users:        users,
		Publisher:    hub,
		PublicAppURL: cfg.PublicAppURL,
		Logger:       logger,
		Now:          now,
	})
	app.Contributions = service.NewContributionService(service.ContributionDeps{
		Gateway:           gateway,
		Users:             users,
		Pools:             pools,
		Donations:         repo.NewDonationRepository(runner),
		Subscriptions:     repo.NewSubscriptionRepository(runner),
		Campaigns:         campaigns,
		CampaignDonations: campaigns,
		Events:            repo.NewWebhookEventRepository(runner),
		Publisher:         hub,
		PublicAppURL:      cfg.PublicAppURL,
		Logger:            logger,
		Now:               now,
	})
	app.Impact = service.NewImpactService(service.ImpactDeps{
		Impact: repo.NewImpactRepository(runner),
		Pools:  pools,
		Logger: logger,
		Now:    now,
	})
	app.Reference = service.NewReferenceService(reference.Charities(), reference.Needs())

	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip database unavailable, pool suggestions disabled")
		} else {
			defer resolver.Close()
			app.Geo = resolver
		}
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router, logger)

	logger.Info().
		Str("port", cfg.Port).
		Bool("payments", gateway != nil).
		Str("verifier", verifier.Name()).
		Msg("API listening")
	if err := server.Run(ctx, cfg.HTTPIdleTimeout); err != nil {
		logger.Error().Err(err).Msg("http server stopped with error")
	}
	logger.Info().Msg("server stopped")
}

// openStore returns the configured object store. files is non-nil only for the
// filesystem driver, whose objects are served by /static.
func openStore(ctx context.Context, cfg *infra.Config) (storage.Store, *storage.FileStore, error) {
	if cfg.StorageDriver == "s3" {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		return s3Store, nil, nil
	}
	files, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL, cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	return files, files, nil
}
