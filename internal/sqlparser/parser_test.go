package sqlparser

import "testing"

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT UNIQUE, age INTEGER NOT NULL)`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ct, ok := stmt.(*CreateTableStmt)
	if !ok {
		t.Fatalf("expected *CreateTableStmt, got %T", stmt)
	}
	if ct.Name != "users" || len(ct.Columns) != 3 {
		t.Fatalf("unexpected statement: %+v", ct)
	}
	if !ct.Columns[0].PrimaryKey {
		t.Error("id should be PRIMARY KEY")
	}
	if !ct.Columns[1].Unique {
		t.Error("name should be UNIQUE")
	}
	if !ct.Columns[2].NotNull {
		t.Error("age should be NOT NULL")
	}
}

func TestParseCreateTableWithForeignKey(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE orders (oid INTEGER PRIMARY KEY, uid INTEGER FOREIGN KEY (uid) REFERENCES users(id))`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ct := stmt.(*CreateTableStmt)
	fk := ct.Columns[1].ForeignKey
	if fk == nil || fk.RefTable != "users" || fk.RefColumn != "id" {
		t.Fatalf("expected foreign key to users(id), got %+v", fk)
	}
}

func TestParseCreateIndex(t *testing.T) {
	stmt, err := Parse(`CREATE INDEX idx_name ON users (name)`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ci := stmt.(*CreateIndexStmt)
	if ci.Name != "idx_name" || ci.Table != "users" || ci.Column != "name" {
		t.Fatalf("unexpected statement: %+v", ci)
	}
}

func TestParseDropTable(t *testing.T) {
	stmt, err := Parse(`DROP TABLE users`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if dt := stmt.(*DropTableStmt); dt.Name != "users" {
		t.Fatalf("unexpected statement: %+v", dt)
	}
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse(`INSERT INTO users VALUES (1, 'Alice', TRUE, NULL, 3.5)`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ins := stmt.(*InsertStmt)
	if ins.Table != "users" || len(ins.Values) != 5 {
		t.Fatalf("unexpected statement: %+v", ins)
	}
	if ins.Values[0].(int64) != 1 {
		t.Errorf("expected int64(1), got %#v", ins.Values[0])
	}
	if ins.Values[1].(string) != "Alice" {
		t.Errorf("expected string Alice, got %#v", ins.Values[1])
	}
	if ins.Values[2].(bool) != true {
		t.Errorf("expected bool true, got %#v", ins.Values[2])
	}
	if ins.Values[3] != nil {
		t.Errorf("expected nil, got %#v", ins.Values[3])
	}
	if ins.Values[4].(float64) != 3.5 {
		t.Errorf("expected float64(3.5), got %#v", ins.Values[4])
	}
}

func TestParseSelectSimpleWhere(t *testing.T) {
	stmt, err := Parse(`SELECT id, name FROM users WHERE id = 2 AND name LIKE 'A%'`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if sel.From != "users" || len(sel.Projections) != 2 {
		t.Fatalf("unexpected statement: %+v", sel)
	}
	if len(sel.Where) != 2 {
		t.Fatalf("expected 2 predicates, got %d", len(sel.Where))
	}
	if sel.Where[0].Op != "=" || sel.Where[1].Op != "LIKE" {
		t.Fatalf("unexpected predicate ops: %+v", sel.Where)
	}
}

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse(`SELECT * FROM users`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if len(sel.Projections) != 1 || !sel.Projections[0].Star {
		t.Fatalf("expected a single star projection, got %+v", sel.Projections)
	}
}

func TestParseSelectJoin(t *testing.T) {
	stmt, err := Parse(`SELECT users.name, orders.oid FROM users JOIN orders ON users.id = orders.uid`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if sel.Join == nil {
		t.Fatal("expected a join clause")
	}
	if sel.Join.Table != "orders" || sel.Join.LeftTable != "users" || sel.Join.LeftCol != "id" ||
		sel.Join.RightTable != "orders" || sel.Join.RightCol != "uid" {
		t.Fatalf("unexpected join clause: %+v", sel.Join)
	}
}

func TestParseSelectGroupByAggregate(t *testing.T) {
	stmt, err := Parse(`SELECT type, COUNT(*), SUM(amt) FROM tx GROUP BY type`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if len(sel.GroupBy) != 1 || sel.GroupBy[0] != "type" {
		t.Fatalf("unexpected group by: %+v", sel.GroupBy)
	}
	if !sel.Projections[1].CountStar || sel.Projections[1].Agg != "COUNT" {
		t.Fatalf("expected COUNT(*) projection, got %+v", sel.Projections[1])
	}
	if sel.Projections[2].Agg != "SUM" || sel.Projections[2].Column != "amt" {
		t.Fatalf("expected SUM(amt) projection, got %+v", sel.Projections[2])
	}
}

func TestParseUpdate(t *testing.T) {
	stmt, err := Parse(`UPDATE users SET name = 'Alicia', age = 31 WHERE id = 1`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	upd := stmt.(*UpdateStmt)
	if upd.Table != "users" || len(upd.Assignments) != 2 || len(upd.Where) != 1 {
		t.Fatalf("unexpected statement: %+v", upd)
	}
}

func TestParseDelete(t *testing.T) {
	stmt, err := Parse(`DELETE FROM users WHERE id = 2`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	del := stmt.(*DeleteStmt)
	if del.Table != "users" || len(del.Where) != 1 {
		t.Fatalf("unexpected statement: %+v", del)
	}
}

func TestParseTransactionControl(t *testing.T) {
	cases := map[string]Statement{
		"BEGIN":    &BeginStmt{},
		"COMMIT":   &CommitStmt{},
		"ROLLBACK": &RollbackStmt{},
	}
	for src, want := range cases {
		stmt, err := Parse(src)
		if err != nil {
			t.Fatalf("parse %q failed: %v", src, err)
		}
		switch want.(type) {
		case *BeginStmt:
			if _, ok := stmt.(*BeginStmt); !ok {
				t.Errorf("%q: expected *BeginStmt, got %T", src, stmt)
			}
		case *CommitStmt:
			if _, ok := stmt.(*CommitStmt); !ok {
				t.Errorf("%q: expected *CommitStmt, got %T", src, stmt)
			}
		case *RollbackStmt:
			if _, ok := stmt.(*RollbackStmt); !ok {
				t.Errorf("%q: expected *RollbackStmt, got %T", src, stmt)
			}
		}
	}
}

func TestParseTrailingSemicolonTolerated(t *testing.T) {
	if _, err := Parse(`DELETE FROM users;`); err != nil {
		t.Fatalf("expected a trailing semicolon to be tolerated, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"SELECT FROM users",
		"CREATE TABLE",
		"INSERT INTO users VALUES (1 2)",
		"SELECT * FROM users WHERE id ===",
		"SELECT * FROM users EXTRA TOKENS HERE",
	}
	for _, src := range cases {
		_, err := Parse(src)
		if err == nil {
			t.Errorf("expected a parse error for %q", src)
			continue
		}
		if _, ok := err.(*ParseError); !ok {
			t.Errorf("expected *ParseError for %q, got %T", src, err)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := SplitStatements(`CREATE TABLE t (a INTEGER);
INSERT INTO t VALUES (1);
SELECT * FROM t;`)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %v", len(stmts), stmts)
	}
}
