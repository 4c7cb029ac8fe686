package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup wraps the connection used by repository tests
type TestDatabaseSetup struct {
	DB *database.DB
}

const testSchema = `
	CREATE TABLE IF NOT EXISTS students (
		id          UUID PRIMARY KEY,
		full_name   TEXT NOT NULL,
		roll_number TEXT NOT NULL,
		department  TEXT,
		semester    INT,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS attendance_records (
		id         UUID PRIMARY KEY,
		student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		date       DATE,
		subject    TEXT NOT NULL,
		present    BOOLEAN NOT NULL,
		remarks    TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// NewTestDatabase connects to TEST_DATABASE_URL, skipping the test when it is unset
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 4})
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(db.Close)

	_, err = db.Exec(ctx, testSchema)
	require.NoError(t, err)

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.TruncateAllTables(ctx))

	return setup
}

// TruncateAllTables removes all rows from the tables under test
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"attendance_records", "students"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// InsertStudent seeds a student row
func (s *TestDatabaseSetup) InsertStudent(t *testing.T, id, name, roll string, active bool) {
	t.Helper()
	_, err := s.DB.Exec(context.Background(), `
		INSERT INTO students (id, full_name, roll_number, is_active)
		VALUES ($1, $2, $3, $4)
	`, id, name, roll, active)
	require.NoError(t, err)
}
