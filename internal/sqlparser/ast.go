package sqlparser

// Statement is the structured result of parsing one SQL-like statement.
// The engine package's dispatcher type-switches on it.
type Statement interface {
	statementNode()
}

// ColumnDef is one `col_def` of a CREATE TABLE statement.
type ColumnDef struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
	Unique     bool
	ForeignKey *ForeignKeyDef
}

// ForeignKeyDef is a `FOREIGN KEY (col) REFERENCES table(col)` constraint.
type ForeignKeyDef struct {
	Column     string
	RefTable   string
	RefColumn  string
}

// CreateTableStmt is `CREATE TABLE name (col_def, ...)`.
type CreateTableStmt struct {
	Name    string
	Columns []ColumnDef
}

func (*CreateTableStmt) statementNode() {}

// CreateIndexStmt is `CREATE INDEX name ON table (col)`.
type CreateIndexStmt struct {
	Name   string
	Table  string
	Column string
}

func (*CreateIndexStmt) statementNode() {}

// DropTableStmt is `DROP TABLE name`.
type DropTableStmt struct {
	Name string
}

func (*DropTableStmt) statementNode() {}

// InsertStmt is `INSERT INTO table VALUES (lit, ...)`. Values are raw Go
// literals: nil, int64, float64, string, or bool; the engine coerces them
// against the declared column types.
type InsertStmt struct {
	Table  string
	Values []any
}

func (*InsertStmt) statementNode() {}

// Predicate is one `table.col OP lit` or `col OP lit` conjunct of a WHERE
// clause. Table is empty when the column is unqualified.
type Predicate struct {
	Table   string
	Column  string
	Op      string // "=", "<", ">", "LIKE"
	Operand any
}

// Assignment is one `col = lit` term of an UPDATE's SET list.
type Assignment struct {
	Column  string
	Operand any
}

// UpdateStmt is `UPDATE table SET col = lit, ... [WHERE ...]`.
type UpdateStmt struct {
	Table       string
	Assignments []Assignment
	Where       []Predicate
}

func (*UpdateStmt) statementNode() {}

// DeleteStmt is `DELETE FROM table [WHERE ...]`.
type DeleteStmt struct {
	Table string
	Where []Predicate
}

func (*DeleteStmt) statementNode() {}

// Projection is one item of a SELECT's projection list: `*`, a bare or
// qualified column name, or an aggregate function applied to one.
type Projection struct {
	Star      bool
	Table     string // qualifier, if any
	Column    string // empty together with CountStar for COUNT(*)
	Agg       string // "", "COUNT", "SUM", "AVG", "MIN", "MAX"
	CountStar bool
}

// JoinClause is `JOIN table ON l.col = r.col`.
type JoinClause struct {
	Table      string
	LeftTable  string
	LeftCol    string
	RightTable string
	RightCol   string
}

// SelectStmt is a full SELECT, restricted to a single optional two-table
// equi-join and a flat conjunction of WHERE predicates.
type SelectStmt struct {
	Projections []Projection
	From        string
	Join        *JoinClause
	Where       []Predicate
	GroupBy     []string
}

func (*SelectStmt) statementNode() {}

// BeginStmt, CommitStmt, RollbackStmt are the transaction-control
// statements; they carry no fields.
type BeginStmt struct{}

func (*BeginStmt) statementNode() {}

type CommitStmt struct{}

func (*CommitStmt) statementNode() {}

type RollbackStmt struct{}

func (*RollbackStmt) statementNode() {}
