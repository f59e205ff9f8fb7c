package engine

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"
)

// snapshotMagic and snapshotVersion tag every encoded snapshot so format
// changes stay detectable. A mismatch on either is a CorruptSnapshot.
const (
	snapshotMagic   = "RDBMSNAP"
	snapshotVersion = 1
)

// valueSnapshot is Value's wire form: Value's fields are unexported so
// encoding/gob cannot reach them directly.
type valueSnapshot struct {
	Typ      ValueType
	IsNull   bool
	I        int64
	R        float64
	S        string
	B        bool
	DateUnix int64
}

func (v Value) toSnapshot() valueSnapshot {
	if v.IsNull() {
		return valueSnapshot{IsNull: true}
	}
	switch v.Type() {
	case TypeInteger:
		return valueSnapshot{Typ: TypeInteger, I: v.Int()}
	case TypeReal:
		return valueSnapshot{Typ: TypeReal, R: v.Real()}
	case TypeText:
		return valueSnapshot{Typ: TypeText, S: v.Text()}
	case TypeBoolean:
		return valueSnapshot{Typ: TypeBoolean, B: v.Bool()}
	case TypeDate:
		return valueSnapshot{Typ: TypeDate, DateUnix: v.Date().Unix()}
	default:
		return valueSnapshot{IsNull: true}
	}
}

func (vs valueSnapshot) toValue() Value {
	if vs.IsNull {
		return Null()
	}
	switch vs.Typ {
	case TypeInteger:
		return IntValue(vs.I)
	case TypeReal:
		return RealValue(vs.R)
	case TypeText:
		return TextValue(vs.S)
	case TypeBoolean:
		return BoolValue(vs.B)
	case TypeDate:
		return DateValue(time.Unix(vs.DateUnix, 0).UTC())
	default:
		return Null()
	}
}

// indexMeta records one index's identity so Load can recreate it without
// guessing at auto-generated names.
type indexMeta struct {
	Name   string
	Column string
	Unique bool
}

type tableSnapshot struct {
	Schema  TableSchema
	NextRid int64
	Rows    map[int64][]valueSnapshot
	Indexes []indexMeta
}

type dbSnapshot struct {
	Magic   string
	Version int
	Order   []string
	Tables  map[string]tableSnapshot
}

// Save encodes the entire database state, every table's schema, rows,
// rid counter, and indexes, as a single gob stream.
func (db *Database) Save(w io.Writer) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snap := dbSnapshot{
		Magic:   snapshotMagic,
		Version: snapshotVersion,
		Order:   append([]string(nil), db.order...),
		Tables:  make(map[string]tableSnapshot, len(db.tables)),
	}

	for name, t := range db.tables {
		rows := make(map[int64][]valueSnapshot, len(t.rows))
		for rid, tuple := range t.rows {
			vs := make([]valueSnapshot, len(tuple))
			for i, v := range tuple {
				vs[i] = v.toSnapshot()
			}
			rows[rid] = vs
		}
		var indexes []indexMeta
		for col, ix := range t.indexes {
			indexes = append(indexes, indexMeta{Name: ix.Name, Column: col, Unique: ix.Unique})
		}
		snap.Tables[name] = tableSnapshot{
			Schema:  *t.schema,
			NextRid: t.nextRid,
			Rows:    rows,
			Indexes: indexes,
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return fmt.Errorf("engine: encode snapshot: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// SaveFile writes a snapshot to path and, when fsync is true, flushes it
// to stable storage before closing. Persistence is checkpoint-style, not
// a write-ahead log, so fsync only shortens the crash window between
// write and flush; it is not a durability guarantee.
func (db *Database) SaveFile(path string, fsync bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := db.Save(f); err != nil {
		return err
	}
	if fsync {
		return f.Sync()
	}
	return nil
}

// Load decodes a snapshot written by Save into a fresh Database. Any
// structural inconsistency discovered while rebuilding — a broken index,
// a NOT NULL/UNIQUE/foreign-key violation, a corrupted rid counter — fails
// with CorruptSnapshot rather than silently producing an unsound database.
func Load(r io.Reader) (*Database, error) {
	var snap dbSnapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, &CorruptSnapshot{Msg: "decode failed: " + err.Error()}
	}
	if snap.Magic != snapshotMagic {
		return nil, &CorruptSnapshot{Msg: "bad magic prefix"}
	}
	if snap.Version != snapshotVersion {
		return nil, &CorruptSnapshot{Msg: fmt.Sprintf("unsupported format version %d", snap.Version)}
	}

	db := NewDatabase()

	for _, name := range snap.Order {
		ts, ok := snap.Tables[name]
		if !ok {
			return nil, &CorruptSnapshot{Msg: "table in order list missing from snapshot: " + name}
		}
		schema := ts.Schema
		t := newTable(db, &schema)
		t.nextRid = ts.NextRid
		db.tables[name] = t
		db.order = append(db.order, name)

		for _, c := range schema.Columns {
			if c.ForeignKey != nil {
				db.childRefs[c.ForeignKey.Table] = append(db.childRefs[c.ForeignKey.Table], childRef{
					childTable:  name,
					childColumn: c.Name,
					parentCol:   c.ForeignKey.Column,
				})
			}
		}
	}

	for _, name := range snap.Order {
		ts := snap.Tables[name]
		t := db.tables[name]
		maxRid := int64(-1)
		for rid, vsRow := range ts.Rows {
			if len(vsRow) != len(t.schema.Columns) {
				return nil, &CorruptSnapshot{Msg: "row arity mismatch in table " + name}
			}
			tuple := make([]Value, len(vsRow))
			for i, vs := range vsRow {
				tuple[i] = vs.toValue()
			}
			t.reinsert(rid, tuple)
			if rid > maxRid {
				maxRid = rid
			}
		}
		if maxRid >= ts.NextRid {
			return nil, &CorruptSnapshot{Msg: "nextRid counter predates a stored row in table " + name}
		}
		for _, im := range ts.Indexes {
			if _, exists := t.indexes[im.Column]; exists {
				continue
			}
			ix := newIndex(im.Name, im.Column, im.Unique)
			col := t.schema.ColumnIndex(im.Column)
			if col < 0 {
				return nil, &CorruptSnapshot{Msg: "index on unknown column " + im.Column + " in table " + name}
			}
			for rid, tuple := range t.rows {
				if err := ix.add(tuple[col], rid); err != nil {
					return nil, &CorruptSnapshot{Msg: "index " + im.Name + " violates uniqueness on reload"}
				}
			}
			t.indexes[im.Column] = ix
		}
	}

	if err := db.verifyInvariants(); err != nil {
		return nil, err
	}
	return db, nil
}

// verifyInvariants re-checks every constraint that held at save time
// still holds after decode: NOT NULL, uniqueness, foreign keys, rid
// counters, and index consistency.
func (db *Database) verifyInvariants() error {
	for name, t := range db.tables {
		for rid, tuple := range t.rows {
			if rid >= t.nextRid {
				return &CorruptSnapshot{Msg: "rid " + t.schema.Name + fmt.Sprintf("#%d", rid) + " is not less than the table's rid counter"}
			}
			for i, c := range t.schema.Columns {
				v := tuple[i]
				if v.IsNull() && c.effectiveNotNull() {
					return &CorruptSnapshot{Msg: "NOT NULL violated in " + name + "." + c.Name}
				}
				if c.ForeignKey != nil && !v.IsNull() {
					if err := db.checkParentExists(*c.ForeignKey, v); err != nil {
						return &CorruptSnapshot{Msg: "dangling foreign key in " + name + "." + c.Name}
					}
				}
			}
		}
		for _, ix := range t.indexes {
			if !ix.rebuildCheck(t) {
				return &CorruptSnapshot{Msg: "index " + ix.Name + " inconsistent with row data in table " + name}
			}
			if ix.Unique {
				col := t.schema.ColumnIndex(ix.Column)
				seen := make(map[any]int64, len(t.rows))
				for rid, tuple := range t.rows {
					v := tuple[col]
					if v.IsNull() {
						continue
					}
					key := v.hashKey()
					if other, dup := seen[key]; dup && other != rid {
						return &CorruptSnapshot{Msg: "unique constraint violated in " + name + "." + ix.Column}
					}
					seen[key] = rid
				}
			}
		}
	}
	return nil
}
