package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
)

// env is opened once per invocation by the root command's PersistentPreRunE.
type env struct {
	cfg    *infra.Config
	logger infra.Logger
	pool   *pgxpool.Pool
	runner *infra.SQLRunner
}

func (e *env) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &env{}
	defer e.Close()

	if err := newRootCmd(e).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "poolctl",
		Short:         "Operator tasks for the community pool service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := infra.LoadConfig()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = infra.NewLogger(cfg.AppEnv, "poolctl")
			pool, err := infra.NewDBPool(cmd.Context(), cfg, "poolctl")
			if err != nil {
				return err
			}
			e.pool = pool
			e.runner = infra.NewSQLRunner(pool, e.logger)
			return nil
		},
	}

	root.AddCommand(
		migrateCmd(e),
		seedCmd(e),
		setRoleCmd(e),
		setAIKeyCmd(e),
		impactCmd(e),
	)
	return root
}
