package engine

import (
	"github.com/google/uuid"

	"github.com/IanDublew/rdbms/internal/logging"
)

var txnLog = logging.GetLogger("txn")

// sessionState is one of Idle or InTransaction.
type sessionState int

const (
	stateIdle sessionState = iota
	stateInTransaction
)

// undoEntry reverses exactly one mutation. One concrete kind exists per
// mutating operation: insert, update, delete.
type undoEntry interface {
	undo(db *Database)
}

type insertUndo struct {
	table string
	rid   int64
}

func (u insertUndo) undo(db *Database) {
	db.tables[u.table].forceDelete(u.rid)
}

type updateUndo struct {
	table string
	rid   int64
	pre   []Value
}

func (u updateUndo) undo(db *Database) {
	db.tables[u.table].forceSet(u.rid, u.pre)
}

type deleteUndo struct {
	table string
	rid   int64
	tuple []Value
}

func (u deleteUndo) undo(db *Database) {
	db.tables[u.table].reinsert(u.rid, u.tuple)
}

// TransactionManager is the single-writer undo-log controller shared by a
// Database: BEGIN opens an empty log, every mutating operation appends to
// it, COMMIT discards it, ROLLBACK replays it in reverse.
type TransactionManager struct {
	state  sessionState
	log    []undoEntry
	txnID  string
}

func newTransactionManager() *TransactionManager {
	return &TransactionManager{state: stateIdle}
}

func (m *TransactionManager) active() bool { return m.state == stateInTransaction }

// Begin opens a new transaction. A nested BEGIN fails with TransactionError.
func (m *TransactionManager) Begin() error {
	if m.state == stateInTransaction {
		return &TransactionError{Msg: "transaction already in progress"}
	}
	m.state = stateInTransaction
	m.log = nil
	m.txnID = uuid.New().String()
	txnLog.WithTxn(m.txnID).LogOperation(logging.OpBegin)
	return nil
}

// record appends an undo entry. Only called while a transaction is active;
// auto-committed mutations never reach it.
func (m *TransactionManager) record(e undoEntry) {
	m.log = append(m.log, e)
}

// Commit discards the undo log. Outside a transaction this is a no-op.
func (m *TransactionManager) Commit() {
	if m.state != stateInTransaction {
		return
	}
	txnLog.WithTxn(m.txnID).LogOperation(logging.OpCommit, "entries", len(m.log))
	m.state = stateIdle
	m.log = nil
	m.txnID = ""
}

// Rollback replays the undo log in reverse against db, then discards it.
// Outside a transaction this is a no-op. A well-formed undo log cannot
// fail to apply, so the replay calls are unconditional.
func (m *TransactionManager) Rollback(db *Database) {
	if m.state != stateInTransaction {
		return
	}
	txnLog.WithTxn(m.txnID).LogOperation(logging.OpRollback, "entries", len(m.log))
	for i := len(m.log) - 1; i >= 0; i-- {
		m.log[i].undo(db)
	}
	m.state = stateIdle
	m.log = nil
	m.txnID = ""
}
