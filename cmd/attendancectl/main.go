package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/attendance-control/internal/app"
	"github.com/cmlabs-hris/attendance-control/internal/config"
	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database/migrations"
	serviceAuth "github.com/cmlabs-hris/attendance-control/internal/service/auth"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// runtime is an opened configuration with its stores and services. The
// caller must defer Close.
type runtime struct {
	cfg      *config.Config
	stores   *app.Stores
	services app.Services
}

func (r *runtime) Close() {
	r.stores.Close()
}

// newRuntime loads the config and connects every data source. Commands run
// as the system principal.
func newRuntime(cmd *cobra.Command) (*runtime, context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	stores, err := app.OpenStores(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}

	ctx := user.WithPrincipal(cmd.Context(), user.SystemPrincipal())
	return &runtime{cfg: cfg, stores: stores, services: app.NewServices(cfg, stores)}, ctx, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var rootCmd = &cobra.Command{
	Use:          "attendancectl",
	Short:        "Attendance reconciliation maintenance tool",
	SilenceUsage: true,
}

var cleanDuplicatesCmd = &cobra.Command{
	Use:   "clean-duplicates",
	Short: "Collapse duplicate marks and restore entry/exit alternation",
	RunE: func(cmd *cobra.Command, args []string) error {
		startDate, _ := cmd.Flags().GetString("start")
		endDate, _ := cmd.Flags().GetString("end")
		days, _ := cmd.Flags().GetInt("days")
		dept, _ := cmd.Flags().GetInt("dept")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		workers, _ := cmd.Flags().GetInt("workers")

		rt, ctx, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if workers == 0 {
			workers = rt.cfg.Attendance.CleanupWorkers
		}

		resp, err := rt.services.Corrections.CleanDuplicates(ctx, attendance.CleanDuplicatesRequest{
			AttendanceFilter: attendance.AttendanceFilter{
				DepartmentID: dept,
				Days:         days,
				StartDate:    optional(startDate),
				EndDate:      optional(endDate),
			},
			DryRun:  dryRun,
			Workers: workers,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%s..%s: %d scanned, %d changed, %d failed\n",
			resp.StartDate, resp.EndDate, resp.DaysScanned, resp.DaysChanged, resp.DaysFailed)
		if err := printJSON(cmd, resp.Results); err != nil {
			return err
		}
		if resp.DaysFailed > 0 {
			return fmt.Errorf("%d days failed", resp.DaysFailed)
		}
		return nil
	},
}

var autofixCmd = &cobra.Command{
	Use:   "autofix",
	Short: "Fill an incomplete day with marks from its assigned shifts",
	RunE: func(cmd *cobra.Command, args []string) error {
		employeeID, _ := cmd.Flags().GetInt64("user")
		date, _ := cmd.Flags().GetString("date")
		source, _ := cmd.Flags().GetString("source")

		rt, ctx, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		resp, err := rt.services.Corrections.AutoFixIncompleteDay(ctx, attendance.DayRequest{
			EmployeeID: employeeID,
			Date:       date,
			DataSource: source,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [path]",
	Short: "Apply the SQLite schema migrations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.Database.Driver != config.DriverSQLite {
				return errors.New("migrations are only managed for SQLite stores; pass a database path")
			}
			path = cfg.Database.SQLitePath
		}

		db, err := database.OpenSQLite(path)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.MigrateUp(db.DB); err != nil {
			return err
		}
		version, dirty, err := migrations.Version(db.DB)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d (dirty=%t)\n", path, version, dirty)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print the bcrypt hash of a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := serviceAuth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user <username> <password>",
	Short: "Create an operator account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, _ := cmd.Flags().GetBool("admin")
		departments, _ := cmd.Flags().GetIntSlice("dept")

		hash, err := serviceAuth.HashPassword(args[1])
		if err != nil {
			return err
		}

		rt, ctx, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		role := user.RoleUser
		if admin {
			role = user.RoleAdmin
		}
		id, err := rt.stores.Users.Create(ctx, user.AuthUser{
			Username:     args[0],
			PasswordHash: hash,
			Role:         role,
			IsActive:     true,
		}, departments)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (id %d)\n", role, args[0], id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanDuplicatesCmd)
	cleanDuplicatesCmd.Flags().String("start", "", "First date (YYYY-MM-DD)")
	cleanDuplicatesCmd.Flags().String("end", "", "Last date (YYYY-MM-DD)")
	cleanDuplicatesCmd.Flags().IntP("days", "n", 0, "Number of days ending today, when no dates are given")
	cleanDuplicatesCmd.Flags().Int("dept", 0, "Department id, 0 for all, -10 for the alternate source")
	cleanDuplicatesCmd.Flags().Bool("dry-run", false, "Report changes without writing them")
	cleanDuplicatesCmd.Flags().IntP("workers", "w", 0, "Days resolved concurrently (default CLEANUP_WORKERS)")

	rootCmd.AddCommand(autofixCmd)
	autofixCmd.Flags().Int64("user", 0, "Employee id")
	autofixCmd.Flags().String("date", "", "Day to fix (YYYY-MM-DD)")
	autofixCmd.Flags().String("source", "primary", "Data source: primary or alternate")
	_ = autofixCmd.MarkFlagRequired("user")
	_ = autofixCmd.MarkFlagRequired("date")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(hashPasswordCmd)

	rootCmd.AddCommand(createUserCmd)
	createUserCmd.Flags().Bool("admin", false, "Grant the admin role")
	createUserCmd.Flags().IntSlice("dept", nil, "Granted department ids")
}
