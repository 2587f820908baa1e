package migrations

import (
	"testing"

	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	version, _, err := Version(db.DB)
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, MigrateUp(db.DB))

	tables := []string{"dept", "userinfo", "checkinout", "schedule", "time_table", "sch_time", "user_shift", "auth_users", "auth_user_departments", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s was not created", table)
	}

	version, dirty, err := Version(db.DB)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateUp(db.DB))
	assert.NoError(t, MigrateUp(db.DB))
}

func TestCheckinoutKey(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, MigrateUp(db.DB))

	insert := "INSERT INTO checkinout (userid, check_time, check_type, sensor_id) VALUES (?, ?, ?, ?)"
	_, err = db.Exec(insert, 1, "2025-05-05 08:00:00", 0, 5)
	require.NoError(t, err)
	_, err = db.Exec(insert, 1, "2025-05-05 08:00:00", 1, 5)
	require.NoError(t, err)

	_, err = db.Exec(insert, 1, "2025-05-05 08:00:00", 0, 1)
	assert.Error(t, err)
}
