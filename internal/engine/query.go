package engine

import (
	"sort"

	"github.com/IanDublew/rdbms/internal/sqlparser"
)

// sourceColumn names one column of a query's row source, tagged with the
// table it came from so `table.column` qualification can disambiguate a
// post-join projection or predicate.
type sourceColumn struct {
	table string
	name  string
	typ   ValueType
}

// rowSource is the query evaluator's working representation of "what
// SELECT is reading from": either one table's rows, or the result of a
// hash-equi-join between two.
type rowSource struct {
	singleTable string // non-empty only when this is a plain single-table source
	columns     []sourceColumn
	rows        [][]Value
}

func (rs *rowSource) resolve(table, column string) (int, error) {
	idx := -1
	count := 0
	for i, c := range rs.columns {
		if c.name != column {
			continue
		}
		if table != "" && c.table != table {
			continue
		}
		idx = i
		count++
	}
	if count == 0 {
		return -1, &SchemaError{Msg: "unknown column " + column}
	}
	if count > 1 {
		return -1, &AmbiguousColumn{Column: column}
	}
	return idx, nil
}

// executeSelect runs one SELECT: selection, projection, filtering,
// hash-equi-join, and grouped aggregation.
func (db *Database) executeSelect(stmt *sqlparser.SelectStmt) (*Result, error) {
	var src *rowSource
	var plan PlanKind

	if stmt.Join == nil {
		t, ok := db.tables[stmt.From]
		if !ok {
			return nil, &SchemaError{Msg: "unknown table " + stmt.From}
		}
		where, err := resolveWhereAgainstSchema(stmt.Where, t.schema)
		if err != nil {
			return nil, err
		}
		_, tuples, p := t.Select(where)
		plan = p
		src = &rowSource{singleTable: stmt.From, columns: schemaColumns(stmt.From, t.schema), rows: tuples}
	} else {
		s, err := db.executeJoin(stmt)
		if err != nil {
			return nil, err
		}
		src = s
		plan = FullScan

		where, err := resolveWhereAgainstSource(stmt.Where, src)
		if err != nil {
			return nil, err
		}
		filtered := src.rows[:0:0]
		for _, row := range src.rows {
			if matchesResolved(where, row) {
				filtered = append(filtered, row)
			}
		}
		src.rows = filtered
	}
	_ = plan

	return db.project(stmt, src)
}

func schemaColumns(table string, schema *TableSchema) []sourceColumn {
	cols := make([]sourceColumn, len(schema.Columns))
	for i, c := range schema.Columns {
		cols[i] = sourceColumn{table: table, name: c.Name, typ: c.Type}
	}
	return cols
}

// resolvedPredicate is a Predicate already bound to a column index in a
// rowSource, rather than a name needing resolution per row.
type resolvedPredicate struct {
	idx     int
	op      Op
	operand Value
}

func matchesResolved(preds []resolvedPredicate, row []Value) bool {
	for _, p := range preds {
		if !predicateMatches(Predicate{Op: p.op, Operand: p.operand}, row[p.idx]) {
			return false
		}
	}
	return true
}

func opFromString(s string) Op {
	switch s {
	case "<":
		return OpLt
	case ">":
		return OpGt
	case "LIKE":
		return OpLike
	default:
		return OpEq
	}
}

// resolveWhereAgainstSchema converts parser predicates into a single-table
// Where, coercing each operand against its column's declared type so a
// comparison like `real_col = 5` matches the same way `real_col = 5.0`
// would.
func resolveWhereAgainstSchema(preds []sqlparser.Predicate, schema *TableSchema) (Where, error) {
	out := make(Where, 0, len(preds))
	for _, p := range preds {
		col, ok := schema.Column(p.Column)
		if !ok {
			return nil, &SchemaError{Msg: "unknown column " + p.Column}
		}
		var v Value
		if p.Operand == nil {
			v = Null()
		} else {
			var err error
			v, err = Coerce(p.Operand, col.Type)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, Predicate{Column: p.Column, Op: opFromString(p.Op), Operand: v})
	}
	return out, nil
}

func resolveWhereAgainstSource(preds []sqlparser.Predicate, src *rowSource) ([]resolvedPredicate, error) {
	out := make([]resolvedPredicate, 0, len(preds))
	for _, p := range preds {
		idx, err := src.resolve(p.Table, p.Column)
		if err != nil {
			return nil, err
		}
		v, err := Coerce(p.Operand, src.columns[idx].typ)
		if err != nil {
			if p.Operand == nil {
				v = Null()
			} else {
				return nil, err
			}
		}
		out = append(out, resolvedPredicate{idx: idx, op: opFromString(p.Op), operand: v})
	}
	return out, nil
}


// executeJoin performs a two-table inner equi-join: hash the right
// relation on its join column, then probe with the left.
func (db *Database) executeJoin(stmt *sqlparser.SelectStmt) (*rowSource, error) {
	lTable, ok := db.tables[stmt.From]
	if !ok {
		return nil, &SchemaError{Msg: "unknown table " + stmt.From}
	}
	rTable, ok := db.tables[stmt.Join.Table]
	if !ok {
		return nil, &SchemaError{Msg: "unknown table " + stmt.Join.Table}
	}

	var lCol, rCol string
	switch {
	case stmt.Join.LeftTable == stmt.From && stmt.Join.RightTable == stmt.Join.Table:
		lCol, rCol = stmt.Join.LeftCol, stmt.Join.RightCol
	case stmt.Join.RightTable == stmt.From && stmt.Join.LeftTable == stmt.Join.Table:
		lCol, rCol = stmt.Join.RightCol, stmt.Join.LeftCol
	default:
		return nil, &SchemaError{Msg: "join condition does not reference both joined tables"}
	}

	lColIdx := lTable.schema.ColumnIndex(lCol)
	rColIdx := rTable.schema.ColumnIndex(rCol)
	if lColIdx < 0 || rColIdx < 0 {
		return nil, &SchemaError{Msg: "unknown join column"}
	}

	// Build phase: hash R on its join column, in R's scan order.
	_, rRows := rTable.Scan()
	buildMap := make(map[any][]int, len(rRows))
	for i, row := range rRows {
		v := row[rColIdx]
		if v.IsNull() {
			continue
		}
		key := v.hashKey()
		buildMap[key] = append(buildMap[key], i)
	}

	// Probe phase: scan L, emitting L-row || R-row for every match, in
	// L-scan x R-scan order.
	_, lRows := lTable.Scan()
	cols := append(schemaColumns(stmt.From, lTable.schema), schemaColumns(stmt.Join.Table, rTable.schema)...)
	var out [][]Value
	for _, lRow := range lRows {
		v := lRow[lColIdx]
		if v.IsNull() {
			continue
		}
		matches := buildMap[v.hashKey()]
		for _, ri := range matches {
			combined := make([]Value, 0, len(cols))
			combined = append(combined, lRow...)
			combined = append(combined, rRows[ri]...)
			out = append(out, combined)
		}
	}

	return &rowSource{columns: cols, rows: out}, nil
}

// aggKind enumerates the aggregate functions.
type aggKind int

const (
	aggNone aggKind = iota
	aggCount
	aggSum
	aggAvg
	aggMin
	aggMax
)

func aggKindFromString(s string) aggKind {
	switch s {
	case "COUNT":
		return aggCount
	case "SUM":
		return aggSum
	case "AVG":
		return aggAvg
	case "MIN":
		return aggMin
	case "MAX":
		return aggMax
	default:
		return aggNone
	}
}

// project applies the projection list, including GROUP BY and
// aggregation, to src.
func (db *Database) project(stmt *sqlparser.SelectStmt, src *rowSource) (*Result, error) {
	aggregating := len(stmt.GroupBy) > 0
	for _, p := range stmt.Projections {
		if p.Agg != "" {
			aggregating = true
		}
	}

	if !aggregating {
		return projectFlat(stmt.Projections, src)
	}
	return db.projectGrouped(stmt, src)
}

func projectFlat(projs []sqlparser.Projection, src *rowSource) (*Result, error) {
	var colIdxs []int
	var colNames []string
	if len(projs) == 1 && projs[0].Star {
		for i, c := range src.columns {
			colIdxs = append(colIdxs, i)
			colNames = append(colNames, c.name)
		}
	} else {
		for _, p := range projs {
			if p.Star {
				for i, c := range src.columns {
					colIdxs = append(colIdxs, i)
					colNames = append(colNames, c.name)
				}
				continue
			}
			idx, err := src.resolve(p.Table, p.Column)
			if err != nil {
				return nil, err
			}
			colIdxs = append(colIdxs, idx)
			colNames = append(colNames, p.Column)
		}
	}

	rows := make([][]Value, len(src.rows))
	for i, row := range src.rows {
		out := make([]Value, len(colIdxs))
		for j, idx := range colIdxs {
			out[j] = row[idx]
		}
		rows[i] = out
	}
	return &Result{Kind: ResultRows, Columns: colNames, Rows: rows}, nil
}

// groupKey is a hashable representation of a GROUP BY key tuple.
type groupKey string

func makeGroupKey(values []Value) groupKey {
	var b []byte
	for _, v := range values {
		if v.IsNull() {
			b = append(b, 0)
			continue
		}
		b = append(b, 1)
		b = append(b, []byte(v.String())...)
		b = append(b, '\x1f')
	}
	return groupKey(b)
}

func (db *Database) projectGrouped(stmt *sqlparser.SelectStmt, src *rowSource) (*Result, error) {
	groupIdxs := make([]int, len(stmt.GroupBy))
	for i, g := range stmt.GroupBy {
		idx, err := src.resolve("", g)
		if err != nil {
			return nil, err
		}
		groupIdxs[i] = idx
	}

	for _, p := range stmt.Projections {
		if p.Agg == "" && !p.Star {
			isKey := false
			for _, g := range stmt.GroupBy {
				if g == p.Column {
					isKey = true
					break
				}
			}
			if !isKey {
				return nil, &SchemaError{Msg: "non-aggregate projection column " + p.Column + " must be a GROUP BY key"}
			}
		}
	}

	type group struct {
		key  []Value
		rows [][]Value
	}
	groups := make(map[groupKey]*group)
	var order []groupKey

	if len(groupIdxs) == 0 {
		// A pure aggregate query forms one implicit group, even over
		// zero rows: COUNT(*) of an empty table is one row holding 0.
		k := groupKey("")
		groups[k] = &group{rows: src.rows}
		order = append(order, k)
	} else {
		for _, row := range src.rows {
			key := make([]Value, len(groupIdxs))
			for i, idx := range groupIdxs {
				key[i] = row[idx]
			}
			gk := makeGroupKey(key)
			g, ok := groups[gk]
			if !ok {
				g = &group{key: key}
				groups[gk] = g
				order = append(order, gk)
			}
			g.rows = append(g.rows, row)
		}
		sort.Slice(order, func(i, j int) bool {
			return compareGroupKeys(groups[order[i]].key, groups[order[j]].key)
		})
	}

	var colNames []string
	for _, p := range stmt.Projections {
		switch {
		case p.Agg != "" && p.CountStar:
			colNames = append(colNames, "COUNT(*)")
		case p.Agg != "":
			colNames = append(colNames, p.Agg+"("+p.Column+")")
		default:
			colNames = append(colNames, p.Column)
		}
	}

	rows := make([][]Value, 0, len(order))
	for _, gk := range order {
		g := groups[gk]
		row := make([]Value, len(stmt.Projections))
		for i, p := range stmt.Projections {
			if p.Agg != "" {
				v, err := computeAggregate(p, src, g.rows)
				if err != nil {
					return nil, err
				}
				row[i] = v
				continue
			}
			idx, err := src.resolve("", p.Column)
			if err != nil {
				return nil, err
			}
			if len(g.rows) > 0 {
				row[i] = g.rows[0][idx]
			} else {
				row[i] = Null()
			}
		}
		rows = append(rows, row)
	}

	return &Result{Kind: ResultRows, Columns: colNames, Rows: rows}, nil
}

// compareGroupKeys orders ascending lexicographically, with null sorted
// first in each position.
func compareGroupKeys(a, b []Value) bool {
	for i := range a {
		av, bv := a[i], b[i]
		if av.IsNull() && bv.IsNull() {
			continue
		}
		if av.IsNull() {
			return true
		}
		if bv.IsNull() {
			return false
		}
		if av.Equal(bv) {
			continue
		}
		return av.Less(bv)
	}
	return false
}

func computeAggregate(p sqlparser.Projection, src *rowSource, rows [][]Value) (Value, error) {
	kind := aggKindFromString(p.Agg)
	if kind == aggCount && p.CountStar {
		return IntValue(int64(len(rows))), nil
	}

	idx, err := src.resolve(p.Table, p.Column)
	if err != nil {
		return Value{}, err
	}
	colType := src.columns[idx].typ

	switch kind {
	case aggCount:
		n := 0
		for _, r := range rows {
			if !r[idx].IsNull() {
				n++
			}
		}
		return IntValue(int64(n)), nil
	case aggSum, aggAvg:
		var sum float64
		var isInt = colType == TypeInteger
		var intSum int64
		n := 0
		for _, r := range rows {
			v := r[idx]
			if v.IsNull() {
				continue
			}
			n++
			if isInt {
				intSum += v.Int()
				sum += float64(v.Int())
			} else {
				sum += v.Real()
			}
		}
		if n == 0 {
			return Null(), nil
		}
		if kind == aggSum {
			if isInt {
				return IntValue(intSum), nil
			}
			return RealValue(sum), nil
		}
		return RealValue(sum / float64(n)), nil
	case aggMin, aggMax:
		var best Value
		found := false
		for _, r := range rows {
			v := r[idx]
			if v.IsNull() {
				continue
			}
			if !found {
				best = v
				found = true
				continue
			}
			if kind == aggMin && v.Less(best) {
				best = v
			}
			if kind == aggMax && best.Less(v) {
				best = v
			}
		}
		if !found {
			return Null(), nil
		}
		return best, nil
	default:
		return Value{}, &SchemaError{Msg: "unknown aggregate function"}
	}
}

// Explain reports whether a SELECT's WHERE clause would be answered via
// an index lookup or a full scan, without executing the query.
func (db *Database) Explain(stmtText string) (PlanKind, error) {
	parsed, err := sqlparser.Parse(stmtText)
	if err != nil {
		return FullScan, &SyntaxError{Msg: err.Error()}
	}
	stmt, ok := parsed.(*sqlparser.SelectStmt)
	if !ok {
		return FullScan, &SyntaxError{Msg: "EXPLAIN requires a SELECT statement"}
	}
	if stmt.Join != nil {
		return FullScan, nil
	}
	t, ok := db.tables[stmt.From]
	if !ok {
		return FullScan, &SchemaError{Msg: "unknown table " + stmt.From}
	}
	where, err := resolveWhereAgainstSchema(stmt.Where, t.schema)
	if err != nil {
		return FullScan, err
	}
	_, plan := t.candidates(where)
	return plan, nil
}
