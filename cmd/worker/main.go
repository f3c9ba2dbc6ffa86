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
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/credentials"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/providers/verify"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/service"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/storage"
)

const defaultPollInterval = 2 * time.Second

// verificationQueue is satisfied by service.BillService.
type verificationQueue interface {
	ProcessNext(ctx context.Context) (bool, error)
}

// impactBuilder is satisfied by service.ImpactService.
type impactBuilder interface {
	BuildPreviousWeek(ctx context.Context) (int, error)
}

type billWorker struct {
	queue        verificationQueue
	impact       impactBuilder
	logger       infra.Logger
	pollInterval time.Duration
	impactEvery  time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg, "worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	var (
		store  storage.Store
		inline bool
	)
	if cfg.StorageDriver == "s3" {
		store, err = storage.NewS3Store(ctx, cfg.S3Bucket, cfg.AWSRegion)
	} else {
		store, err = storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL, cfg.JWTSecret)
		inline = true
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	creds := credentials.NewStore(runner)
	verifier, err := verify.New(cfg.VerifyProvider, verify.OpenAIOptions{
		APIKey:  cfg.OpenAIAPIKey,
		KeyFunc: creds.KeyFunc(credentials.ProviderOpenAI, cfg.OpenAIAPIKey, credentials.DefaultKeyTTL),
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		OnFallback: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("worker: verification fell back")
		},
		OnWarning: func(reason, detail string) {
			logger.Warn().Str("reason", reason).Str("detail", detail).Msg("worker: verifier warning")
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure verifier")
	}

	pools := repo.NewPoolRepository(runner)
	bills := service.NewBillService(service.BillDeps{
		Bills:        repo.NewBillRepository(runner),
		Users:        repo.NewUserRepository(runner),
		Pools:        pools,
		Store:        store,
		Verifier:     verifier,
		Policy:       domain.EligibilityPolicy{MaxPaidBills: cfg.AssistanceMaxPaidBills, Window: cfg.AssistanceWindow},
		SignedURLTTL: cfg.SignedURLTTL,
		InlineImages: inline,
		Logger:       logger,
	})
	impact := service.NewImpactService(service.ImpactDeps{
		Impact: repo.NewImpactRepository(runner),
		Pools:  pools,
		Logger: logger,
	})

	w := &billWorker{
		queue:        bills,
		impact:       impact,
		logger:       logger,
		pollInterval: cfg.WorkerPollInterval,
		impactEvery:  cfg.ImpactInterval,
	}
	logger.Info().Str("verifier", verifier.Name()).Msg("worker: started")
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// Run drains the verification queue until ctx is cancelled, sleeping for the
// poll interval whenever the queue is empty. Weekly impact reports are rebuilt
// on their own ticker.
func (w *billWorker) Run(ctx context.Context) error {
	poll := w.pollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	if w.impact != nil && w.impactEvery > 0 {
		go w.runImpact(ctx)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		claimed, err := w.queue.ProcessNext(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("worker: verification failed")
		}
		if claimed {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

func (w *billWorker) runImpact(ctx context.Context) {
	w.buildImpact(ctx)
	ticker := time.NewTicker(w.impactEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.buildImpact(ctx)
		}
	}
}

func (w *billWorker) buildImpact(ctx context.Context) {
	built, err := w.impact.BuildPreviousWeek(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error().Err(err).Int("reports", built).Msg("worker: impact reports incomplete")
	}
}
