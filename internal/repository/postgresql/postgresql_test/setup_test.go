package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
)

// TestDatabaseSetup holds a connection to the integration database
type TestDatabaseSetup struct {
	DB *database.DB
}

// schema mirrors the external time-and-attendance tables this service reads.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS dept (dept_id INT PRIMARY KEY, dept_name TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS userinfo (userid BIGINT PRIMARY KEY, name TEXT NOT NULL, user_code TEXT, dept_id INT NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS checkinout (
		userid BIGINT NOT NULL, check_time TIMESTAMP NOT NULL, check_type INT NOT NULL, sensor_id INT NOT NULL DEFAULT 0,
		PRIMARY KEY (userid, check_time, check_type))`,
	`CREATE TABLE IF NOT EXISTS schedule (sch_id INT PRIMARY KEY, sch_name TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS time_table (time_id INT PRIMARY KEY, time_name TEXT NOT NULL, in_time TIME, out_time TIME)`,
	`CREATE TABLE IF NOT EXISTS sch_time (sch_id INT NOT NULL, begin_day INT, time_id INT)`,
	`CREATE TABLE IF NOT EXISTS user_shift (userid BIGINT NOT NULL, sch_id INT NOT NULL, begin_date DATE, end_date DATE)`,
	`CREATE TABLE IF NOT EXISTS auth_users (auth_user_id BIGSERIAL PRIMARY KEY, username TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL, role TEXT NOT NULL, is_active BOOLEAN NOT NULL DEFAULT TRUE)`,
	`CREATE TABLE IF NOT EXISTS auth_user_departments (auth_user_id BIGINT NOT NULL, dept_id INT NOT NULL, PRIMARY KEY (auth_user_id, dept_id))`,
}

// NewTestDatabase connects to TEST_DATABASE_URL and skips the test when it
// is not set.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 4, MinConns: 1})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			db.Close()
			t.Fatalf("failed to create schema: %v", err)
		}
	}

	setup := &TestDatabaseSetup{DB: db}
	if err := setup.TruncateAllTables(ctx); err != nil {
		db.Close()
		t.Fatalf("%v", err)
	}
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes every row of the attendance tables
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"checkinout",
		"user_shift",
		"sch_time",
		"time_table",
		"schedule",
		"userinfo",
		"dept",
		"auth_user_departments",
		"auth_users",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
