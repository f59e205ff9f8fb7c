package engine_test

import (
	"testing"

	"github.com/IanDublew/rdbms/internal/engine"
	"github.com/IanDublew/rdbms/internal/testutil"
)

// TestHashJoinAndAggregate runs a two-table hash-equi-join followed by a
// GROUP BY aggregate through the statement dispatcher end to end.
func TestHashJoinAndAggregate(t *testing.T) {
	db := testutil.NewUsersOrdersDB(t)
	users, _ := db.Table("users")
	orders, _ := db.Table("orders")

	testutil.AssertNoError(t, insertRow(users, engine.IntValue(1), engine.TextValue("Alice")))
	testutil.AssertNoError(t, insertRow(users, engine.IntValue(2), engine.TextValue("Bob")))
	testutil.AssertNoError(t, insertRow(orders, engine.IntValue(100), engine.IntValue(1)))
	testutil.AssertNoError(t, insertRow(orders, engine.IntValue(101), engine.IntValue(1)))
	testutil.AssertNoError(t, insertRow(orders, engine.IntValue(102), engine.IntValue(2)))

	res, err := db.Execute(
		"SELECT users.name, COUNT(*) FROM users JOIN orders ON users.id = orders.uid GROUP BY users.name")
	testutil.AssertNoError(t, err)

	counts := map[string]int64{}
	for _, row := range res.Rows {
		counts[row[0].Text()] = row[1].Int()
	}
	if counts["Alice"] != 2 || counts["Bob"] != 1 {
		t.Fatalf("unexpected group counts: %v", counts)
	}
}

// TestGroupByAggregateOrdering checks grouped aggregation over one table:
// groups come back in ascending key order, COUNT(*) counts rows, and SUM
// adds the group's non-null values.
func TestGroupByAggregateOrdering(t *testing.T) {
	db := testutil.NewTxDB(t)

	res, err := db.Execute("SELECT type, COUNT(*), SUM(amt) FROM tx GROUP BY type")
	testutil.AssertNoError(t, err)

	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(res.Rows))
	}
	cr, dr := res.Rows[0], res.Rows[1]
	if cr[0].Text() != "CR" || dr[0].Text() != "DR" {
		t.Fatalf("groups out of ascending key order: %v, %v", cr[0], dr[0])
	}
	if cr[1].Int() != 2 || cr[2].Real() != 300.0 {
		t.Errorf("CR group: want (2, 300.0), got (%v, %v)", cr[1], cr[2])
	}
	if dr[1].Int() != 1 || dr[2].Real() != 50.0 {
		t.Errorf("DR group: want (1, 50.0), got (%v, %v)", dr[1], dr[2])
	}
}

// TestJoinEquivalenceAgainstOracle checks the engine's hash-equi-join
// output, as a set, matches what a real SQL engine returns for the same
// join.
func TestJoinEquivalenceAgainstOracle(t *testing.T) {
	db := testutil.NewUsersOrdersDB(t)
	users, _ := db.Table("users")
	orders, _ := db.Table("orders")

	rowsData := []struct {
		uid  int64
		name string
	}{{1, "Alice"}, {2, "Bob"}, {3, "Carol"}}
	for _, r := range rowsData {
		testutil.AssertNoError(t, insertRow(users, engine.IntValue(r.uid), engine.TextValue(r.name)))
	}
	orderData := []struct{ oid, uid int64 }{{100, 1}, {101, 1}, {102, 2}}
	for _, o := range orderData {
		testutil.AssertNoError(t, insertRow(orders, engine.IntValue(o.oid), engine.IntValue(o.uid)))
	}

	res, err := db.Execute("SELECT users.name, orders.oid FROM users JOIN orders ON users.id = orders.uid")
	testutil.AssertNoError(t, err)

	got := map[string]bool{}
	for _, row := range res.Rows {
		got[row[0].Text()+"|"+row[1].String()] = true
	}

	oracle := testutil.NewTestDB(t)
	oracle.MustExec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
	oracle.MustExec(`CREATE TABLE orders (oid INTEGER PRIMARY KEY, uid INTEGER)`)
	for _, r := range rowsData {
		oracle.MustExec(`INSERT INTO users VALUES (?, ?)`, r.uid, r.name)
	}
	for _, o := range orderData {
		oracle.MustExec(`INSERT INTO orders VALUES (?, ?)`, o.oid, o.uid)
	}
	oracle.AssertRowCount("users", len(rowsData))
	oracle.AssertRowCount("orders", len(orderData))

	oracleRows := oracle.MustQuery(
		`SELECT users.name, orders.oid FROM users JOIN orders ON users.id = orders.uid`)
	defer oracleRows.Close()

	want := map[string]bool{}
	n := 0
	for oracleRows.Next() {
		var name string
		var oid int64
		testutil.AssertNoError(t, oracleRows.Scan(&name, &oid))
		want[name+"|"+engine.IntValue(oid).String()] = true
		n++
	}

	if len(got) != len(want) || n != 3 {
		t.Fatalf("row count mismatch: engine=%d oracle=%d", len(got), len(want))
	}
	for k := range want {
		if !got[k] {
			t.Errorf("oracle produced %q but engine did not", k)
		}
	}
	for k := range got {
		if !want[k] {
			t.Errorf("engine produced %q but oracle did not", k)
		}
	}
}

// TestExplainReportsPlanKind checks the query-plan hook: an equality
// predicate on an indexed column reports IndexScan, anything else
// FullScan.
func TestExplainReportsPlanKind(t *testing.T) {
	db := testutil.NewUsersDB(t)
	users, _ := db.Table("users")
	testutil.AssertNoError(t, insertRow(users, engine.IntValue(1), engine.TextValue("Alicia")))

	plan, err := db.Explain("SELECT * FROM users WHERE name = 'Alicia'")
	testutil.AssertNoError(t, err)
	if plan != engine.IndexScan {
		t.Fatalf("expected IndexScan on a UNIQUE-indexed column, got %v", plan)
	}

	plan, err = db.Explain("SELECT * FROM users WHERE name LIKE 'A%'")
	testutil.AssertNoError(t, err)
	if plan != engine.FullScan {
		t.Fatalf("expected FullScan for a LIKE predicate, got %v", plan)
	}

	if _, err := db.Explain("DELETE FROM users"); err == nil {
		t.Fatal("expected an error for a non-SELECT statement")
	}
}

func insertRow(tbl *engine.Table, values ...engine.Value) error {
	_, err := tbl.Insert(nil, values)
	return err
}
