package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/config"
	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/datasource"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database/migrations"
	"github.com/cmlabs-hris/attendance-control/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-control/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/attendance-control/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/service/correction"
)

const connectTimeout = 10 * time.Second

// Stores holds the opened databases of the primary and, when configured,
// alternate tenants.
type Stores struct {
	Registry *datasource.Registry
	Users    user.UserRepository

	// SQLite is the primary database when it runs on SQLite, nil otherwise.
	SQLite *database.SQLiteDB

	closers []func()
}

// OpenStores connects every configured data source. SQLite databases are
// migrated on open.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	s := &Stores{}

	var primary datasource.Store
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
			MaxConns:       cfg.Database.MaxConns,
			MinConns:       cfg.Database.MinConns,
			ConnectTimeout: connectTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to primary database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		primary = postgresStore(db)
		s.Users = postgresql.NewUserRepository(db)

	case config.DriverSQLite:
		db, err := openSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open primary database: %w", err)
		}
		s.closers = append(s.closers, func() { db.Close() })
		primary = sqliteStore(db)
		s.Users = sqlite.NewUserRepository(db)
		s.SQLite = db

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	s.Registry = datasource.NewRegistry(primary)

	if cfg.Alternate.Enabled() {
		alt, err := s.openAlternate(ctx, cfg.Alternate)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open alternate source: %w", err)
		}
		s.Registry.WithAlternate(alt)
		slog.Info("alternate source connected", "name", cfg.Alternate.Name, "driver", cfg.Alternate.Driver)
	}

	return s, nil
}

func (s *Stores) openAlternate(ctx context.Context, cfg config.AlternateConfig) (datasource.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.URL, database.PoolConfig{ConnectTimeout: connectTimeout})
		if err != nil {
			return datasource.Store{}, err
		}
		s.closers = append(s.closers, db.Close)
		return postgresStore(db), nil
	case config.DriverSQLite:
		db, err := openSQLite(cfg.SQLitePath)
		if err != nil {
			return datasource.Store{}, err
		}
		s.closers = append(s.closers, func() { db.Close() })
		return sqliteStore(db), nil
	}
	return datasource.Store{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Close releases every connection in reverse open order.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func openSQLite(path string) (*database.SQLiteDB, error) {
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func postgresStore(db *database.DB) datasource.Store {
	return datasource.Store{
		Punches:     postgresql.NewPunchRepository(db),
		Assignments: postgresql.NewAssignmentRepository(db),
		Employees:   postgresql.NewEmployeeRepository(db),
		Tx:          postgresql.NewTransactor(db),
	}
}

func sqliteStore(db *database.SQLiteDB) datasource.Store {
	return datasource.Store{
		Punches:     sqlite.NewPunchRepository(db),
		Assignments: sqlite.NewAssignmentRepository(db),
		Employees:   sqlite.NewEmployeeRepository(db),
		Tx:          sqlite.NewTransactor(db),
	}
}

// Services is the reconciliation engine wired onto a set of stores.
type Services struct {
	Loader      *attendanceService.Loader
	Attendance  attendance.AttendanceService
	Corrections attendance.CorrectionService
}

func NewServices(cfg *config.Config, stores *Stores) Services {
	loader := attendanceService.NewLoader(attendanceService.NewReconciler(attendanceService.Rules{
		Tolerance: cfg.Attendance.Tolerance,
	}))
	return Services{
		Loader:      loader,
		Attendance:  attendanceService.NewAttendanceService(stores.Registry, loader, cfg.Alternate.Name),
		Corrections: correction.NewCorrectionService(stores.Registry, loader),
	}
}
