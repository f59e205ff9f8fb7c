package testutil

import (
	"testing"

	"github.com/IanDublew/rdbms/internal/engine"
)

func TestNewTestDB(t *testing.T) {
	db := NewTestDB(t)

	if err := db.Ping(); err != nil {
		t.Fatalf("Database ping failed: %v", err)
	}
}

func TestNewUsersDB(t *testing.T) {
	db := NewUsersDB(t)
	table, ok := db.Table("users")
	if !ok {
		t.Fatal("users table not created")
	}
	_, err := table.Insert(nil, []engine.Value{engine.IntValue(1), engine.TextValue("Alice")})
	AssertNoError(t, err)
}

func TestNewUsersOrdersDB(t *testing.T) {
	db := NewUsersOrdersDB(t)
	users, _ := db.Table("users")
	orders, _ := db.Table("orders")

	_, err := users.Insert(nil, []engine.Value{engine.IntValue(1), engine.TextValue("Alice")})
	AssertNoError(t, err)

	_, err = orders.Insert(nil, []engine.Value{engine.IntValue(100), engine.IntValue(1)})
	AssertNoError(t, err)

	_, err = orders.Insert(nil, []engine.Value{engine.IntValue(101), engine.IntValue(9)})
	if err == nil {
		t.Fatal("expected a foreign-key violation for a missing parent")
	}
}

func TestNewTxDB(t *testing.T) {
	db := NewTxDB(t)
	table, _ := db.Table("tx")
	_, tuples := table.Scan()
	if len(tuples) != 3 {
		t.Fatalf("expected 3 pre-populated rows, got %d", len(tuples))
	}
}
