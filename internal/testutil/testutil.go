// Package testutil provides shared test fixtures and assertion helpers
// for the rdbms engine's test suite.
package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/IanDublew/rdbms/internal/engine"
)

// TestDB wraps a disposable SQLite database used as a differential-testing
// oracle: join results computed by the engine are cross-checked against
// what a real SQL engine returns for the equivalent query.
type TestDB struct {
	*sql.DB
	Path string
	t    *testing.T
}

// NewTestDB creates a new temporary SQLite database for testing. The
// database is automatically cleaned up after the test completes.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "oracle.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	testDB := &TestDB{DB: db, Path: dbPath, t: t}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return testDB
}

// MustExec executes a SQL statement and fails the test on error.
func (db *TestDB) MustExec(query string, args ...interface{}) sql.Result {
	db.t.Helper()
	result, err := db.Exec(query, args...)
	if err != nil {
		db.t.Fatalf("SQL exec failed: %v\nQuery: %s", err, query)
	}
	return result
}

// MustQuery executes a SQL query and fails the test on error.
func (db *TestDB) MustQuery(query string, args ...interface{}) *sql.Rows {
	db.t.Helper()
	rows, err := db.Query(query, args...)
	if err != nil {
		db.t.Fatalf("SQL query failed: %v\nQuery: %s", err, query)
	}
	return rows
}

// Count returns the number of rows in a table.
func (db *TestDB) Count(table string) int {
	db.t.Helper()
	var count int
	err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	if err != nil {
		db.t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return count
}

// AssertRowCount asserts that a table has exactly n rows.
func (db *TestDB) AssertRowCount(table string, expected int) {
	db.t.Helper()
	actual := db.Count(table)
	if actual != expected {
		db.t.Errorf("Expected %d rows in %s, got %d", expected, table, actual)
	}
}

// NewUsersDB builds an *engine.Database with the users(id, name) table
// used throughout the engine tests: id INTEGER PRIMARY KEY, name TEXT
// UNIQUE.
func NewUsersDB(t *testing.T) *engine.Database {
	t.Helper()
	db := engine.NewDatabase()
	err := db.CreateTable(&engine.TableSchema{
		Name: "users",
		Columns: []engine.Column{
			{Name: "id", Type: engine.TypeInteger, PrimaryKey: true},
			{Name: "name", Type: engine.TypeText, Unique: true},
		},
	})
	AssertNoError(t, err)
	return db
}

// NewUsersOrdersDB builds a users/orders pair for referential-integrity
// and join tests: orders.uid references users.id.
func NewUsersOrdersDB(t *testing.T) *engine.Database {
	t.Helper()
	db := NewUsersDB(t)
	err := db.CreateTable(&engine.TableSchema{
		Name: "orders",
		Columns: []engine.Column{
			{Name: "oid", Type: engine.TypeInteger, PrimaryKey: true},
			{Name: "uid", Type: engine.TypeInteger, ForeignKey: &engine.ForeignKeyRef{Table: "users", Column: "id"}},
		},
	})
	AssertNoError(t, err)
	return db
}

// NewTxDB builds a tx(amt REAL, type TEXT) table for aggregation tests,
// pre-populated with three rows.
func NewTxDB(t *testing.T) *engine.Database {
	t.Helper()
	db := engine.NewDatabase()
	err := db.CreateTable(&engine.TableSchema{
		Name: "tx",
		Columns: []engine.Column{
			{Name: "amt", Type: engine.TypeReal},
			{Name: "type", Type: engine.TypeText},
		},
	})
	AssertNoError(t, err)

	table, _ := db.Table("tx")
	for _, row := range [][2]interface{}{{100.0, "CR"}, {50.0, "DR"}, {200.0, "CR"}} {
		_, err := table.Insert(nil, []engine.Value{
			engine.RealValue(row[0].(float64)),
			engine.TextValue(row[1].(string)),
		})
		AssertNoError(t, err)
	}
	return db
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
