package engine

import (
	"io"
	"strconv"

	"github.com/IanDublew/rdbms/internal/logging"
	"github.com/IanDublew/rdbms/internal/sqlparser"
)

// Execute parses a single statement and runs it against db, the one
// entry point for driving the engine from line-oriented SQL-like text.
// Parser failures surface as SyntaxError.
func (db *Database) Execute(stmtText string) (*Result, error) {
	stmt, err := sqlparser.Parse(stmtText)
	if err != nil {
		if pe, ok := err.(*sqlparser.ParseError); ok {
			return nil, &SyntaxError{Token: pe.Token, Pos: pe.Pos, Msg: pe.Msg}
		}
		return nil, &SyntaxError{Msg: err.Error()}
	}
	return db.dispatch(stmt)
}

// ExecuteScript runs every statement of a semicolon-separated script in
// order, stopping at the first error. This is the batch entry point the
// cmd/rdbms exec subcommand drives.
func (db *Database) ExecuteScript(r io.Reader) ([]Result, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var results []Result
	for _, stmtText := range sqlparser.SplitStatements(string(text)) {
		res, err := db.Execute(stmtText)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

func (db *Database) dispatch(stmt sqlparser.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *sqlparser.CreateTableStmt:
		return db.execCreateTable(s)
	case *sqlparser.CreateIndexStmt:
		if err := db.CreateIndex(s.Name, s.Table, s.Column); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultAck, Message: "index created"}, nil
	case *sqlparser.DropTableStmt:
		if err := db.DropTable(s.Name); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultAck, Message: "table dropped"}, nil
	case *sqlparser.InsertStmt:
		return db.execInsert(s)
	case *sqlparser.UpdateStmt:
		return db.execUpdate(s)
	case *sqlparser.DeleteStmt:
		return db.execDelete(s)
	case *sqlparser.SelectStmt:
		return db.executeSelect(s)
	case *sqlparser.BeginStmt:
		if err := db.Begin(); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultAck, Message: "transaction started"}, nil
	case *sqlparser.CommitStmt:
		db.Commit()
		return &Result{Kind: ResultAck, Message: "transaction committed"}, nil
	case *sqlparser.RollbackStmt:
		db.Rollback()
		return &Result{Kind: ResultAck, Message: "transaction rolled back"}, nil
	default:
		return nil, &SyntaxError{Msg: "unrecognized statement"}
	}
}

func (db *Database) execCreateTable(s *sqlparser.CreateTableStmt) (*Result, error) {
	schema := &TableSchema{Name: s.Name}
	for _, cd := range s.Columns {
		typ, ok := ParseValueType(cd.Type)
		if !ok {
			return nil, &SchemaError{Msg: "unknown column type " + cd.Type}
		}
		col := Column{
			Name:       cd.Name,
			Type:       typ,
			NotNull:    cd.NotNull,
			PrimaryKey: cd.PrimaryKey,
			Unique:     cd.Unique,
		}
		if cd.ForeignKey != nil {
			col.ForeignKey = &ForeignKeyRef{Table: cd.ForeignKey.RefTable, Column: cd.ForeignKey.RefColumn}
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := db.CreateTable(schema); err != nil {
		return nil, err
	}
	return &Result{Kind: ResultAck, Message: "table created"}, nil
}

func (db *Database) execInsert(s *sqlparser.InsertStmt) (*Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.tables[s.Table]
	if !ok {
		return nil, &SchemaError{Msg: "unknown table " + s.Table}
	}
	values := make([]Value, len(s.Values))
	for i, raw := range s.Values {
		values[i] = rawLiteralValue(raw)
	}
	rid, err := t.Insert(db.txm, values)
	if err != nil {
		return nil, err
	}
	db.opLogger().LogOperation(logging.OpInsert, "table", s.Table, "rid", rid)
	return &Result{Kind: ResultCount, Count: 1, Message: "inserted row " + strconv.FormatInt(rid, 10)}, nil
}

func (db *Database) execUpdate(s *sqlparser.UpdateStmt) (*Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.tables[s.Table]
	if !ok {
		return nil, &SchemaError{Msg: "unknown table " + s.Table}
	}
	where, err := resolveWhereAgainstSchema(s.Where, t.schema)
	if err != nil {
		return nil, err
	}
	assignments := make([]Assignment, len(s.Assignments))
	for i, a := range s.Assignments {
		assignments[i] = Assignment{Column: a.Column, Operand: rawLiteralValue(a.Operand)}
	}
	n, err := t.Update(db.txm, where, assignments)
	if err != nil {
		return nil, err
	}
	db.opLogger().LogOperation(logging.OpUpdate, "table", s.Table, "rows", n)
	return &Result{Kind: ResultCount, Count: n}, nil
}

func (db *Database) execDelete(s *sqlparser.DeleteStmt) (*Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.tables[s.Table]
	if !ok {
		return nil, &SchemaError{Msg: "unknown table " + s.Table}
	}
	where, err := resolveWhereAgainstSchema(s.Where, t.schema)
	if err != nil {
		return nil, err
	}
	n, err := t.Delete(db.txm, where)
	if err != nil {
		return nil, err
	}
	db.opLogger().LogOperation(logging.OpDelete, "table", s.Table, "rows", n)
	return &Result{Kind: ResultCount, Count: n}, nil
}

// opLogger returns a Logger tagged with the active transaction's
// correlation ID when one is open, so INSERT/UPDATE/DELETE lines issued
// inside a BEGIN…COMMIT/ROLLBACK block can be traced as one unit (see
// internal/logging's WithTxn and TransactionManager.Begin's uuid.New()).
func (db *Database) opLogger() *logging.Logger {
	if db.txm.active() {
		return log.WithTxn(db.txm.txnID)
	}
	return log
}

// rawLiteralValue wraps a parser literal (nil, int64, float64, string, or
// bool) as a provisional Value tagged with its own natural type. Coerce
// unwraps it via Native() and re-validates against the destination
// column's declared type, so the provisional tag here never leaks into
// stored data.
func rawLiteralValue(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Null()
	case int64:
		return IntValue(v)
	case float64:
		return RealValue(v)
	case string:
		return TextValue(v)
	case bool:
		return BoolValue(v)
	default:
		return Null()
	}
}
