package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/adapter/repo"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/credentials"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/service"
)

const dateLayout = "2006-01-02"

func migrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return infra.Migrate(cmd.Context(), e.pool, e.logger)
		},
	}
}

func seedCmd(e *env) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert charities and needs data from a YAML file",
		Long: `Upsert charities and needs data from a YAML file.

The file defaults to CHARITY_SEED_PATH. Records are matched by charity slug
and by city and province, so the command can be re-run after edits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = e.cfg.CharitySeedPath
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open seed: %w", err)
			}
			defer f.Close()

			seed, err := service.LoadSeed(f)
			if err != nil {
				return err
			}
			reference := repo.NewReferenceRepository(e.runner)
			svc := service.NewReferenceService(reference.Charities(), reference.Needs())
			charities, needs, err := svc.Seed(cmd.Context(), seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d charities and %d needs records from %s\n", charities, needs, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "seed file (default CHARITY_SEED_PATH)")
	return cmd
}

func setRoleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <contributor|recipient|admin>",
		Short: "Change the role of a registered account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := domain.UserRole(strings.ToLower(strings.TrimSpace(args[1])))
			if !role.Valid() {
				return fmt.Errorf("unsupported role %q", args[1])
			}
			users := service.NewUserService(service.UserDeps{
				Users:     repo.NewUserRepository(e.runner),
				Pools:     repo.NewPoolRepository(e.runner),
				JWTSecret: e.cfg.JWTSecret,
				Logger:    e.logger,
			})
			user, err := users.SetRole(cmd.Context(), args[0], role)
			if err != nil {
				return fmt.Errorf("set role: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.Email, user.ID, user.Role)
			return nil
		},
	}
}

func setAIKeyCmd(e *env) *cobra.Command {
	var (
		model  string
		remove bool
	)
	cmd := &cobra.Command{
		Use:   "set-ai-key [key]",
		Short: "Store the bill verification API key in the database",
		Long: `Store the bill verification API key in the database.

The API and worker re-read the stored key at most once a minute, so a rotated
key takes effect without a restart. OPENAI_API_KEY is used only while no key
is stored; --clear removes the stored key.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if remove {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			store := credentials.NewStore(e.runner)
			if remove {
				if err := store.Clear(cmd.Context(), credentials.ProviderOpenAI); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "stored verification key removed")
				return nil
			}
			if err := store.SetOpenAIAPIKey(cmd.Context(), args[0], model); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verification key %s stored\n", credentials.Mask(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model to record alongside the key")
	cmd.Flags().BoolVar(&remove, "clear", false, "remove the stored key")
	return cmd
}

func impactCmd(e *env) *cobra.Command {
	var poolID, start, end string
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Build impact reports",
		Long: `Build impact reports.

Without flags the previous full week is built for every pool. With --pool,
--start and --end a single report covers [start, end).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := service.NewImpactService(service.ImpactDeps{
				Impact: repo.NewImpactRepository(e.runner),
				Pools:  repo.NewPoolRepository(e.runner),
				Logger: e.logger,
			})
			if poolID == "" {
				built, err := svc.BuildPreviousWeek(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "built %d weekly reports\n", built)
				return err
			}
			from, to, err := parsePeriod(start, end)
			if err != nil {
				return err
			}
			report, err := svc.Build(cmd.Context(), poolID, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pool %s: %d families helped, %d cents distributed\n",
				report.PoolID, report.FamiliesHelped, report.DistributedCents)
			return nil
		},
	}
	cmd.Flags().StringVar(&poolID, "pool", "", "pool id to build a single report for")
	cmd.Flags().StringVar(&start, "start", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "period end, exclusive (YYYY-MM-DD)")
	return cmd
}

func parsePeriod(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, strings.TrimSpace(start))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
	}
	to, err := time.Parse(dateLayout, strings.TrimSpace(end))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end must be after --start")
	}
	return from, to, nil
}
