// Package record stores the bus activity of a run in an SQLite database.
//
// A SQLiteRecorder is an akita hook. Attach it to bus signals to record
// every value change, and to drivers and monitors to record every completed
// transaction. Rows are buffered and written in batches, so Flush or Close
// must be called before the database is read.
package record

import (
	"database/sql"
	"fmt"

	// Register the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/regbench/bus"
	"github.com/sarchlab/regbench/kernel"
)

// TimeTeller reports the current simulation time.
type TimeTeller interface {
	Now() kernel.Time
}

type change struct {
	time kernel.Time
	bus.Change
}

type txn struct {
	time kernel.Time
	bus.Transaction
}

// SQLiteRecorder writes signal changes and transactions to a database.
type SQLiteRecorder struct {
	*sql.DB

	path      string
	runID     xid.ID
	timer     TimeTeller
	batchSize int

	changes []change
	txns    []txn
}

// NewSQLiteRecorder opens the database at path for the run runID.
func NewSQLiteRecorder(
	path string,
	runID xid.ID,
	timer TimeTeller,
) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}

	r := &SQLiteRecorder{
		DB:        db,
		path:      path,
		runID:     runID,
		timer:     timer,
		batchSize: 100000,
	}

	return r, nil
}

// Path returns the database file.
func (r *SQLiteRecorder) Path() string {
	return r.path
}

// Init creates the tables and the row of the run.
func (r *SQLiteRecorder) Init(name string, seed int64) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id     TEXT PRIMARY KEY,
			name   TEXT,
			seed   INTEGER,
			state  TEXT,
			passed INTEGER,
			error  TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS signal_changes (
			run_id  TEXT,
			time_ps INTEGER,
			signal  TEXT,
			old     INTEGER,
			new     INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			run_id  TEXT,
			time_ps INTEGER,
			cycle   INTEGER,
			kind    TEXT,
			channel TEXT,
			addr    INTEGER,
			data    INTEGER
		)`,
	}

	for _, s := range stmts {
		if _, err := r.Exec(s); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	_, err := r.Exec(
		`INSERT INTO runs (id, name, seed) VALUES (?, ?, ?)`,
		r.runID.String(), name, seed)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Attach registers the recorder on every signal of a bus.
func (r *SQLiteRecorder) Attach(sigs *bus.Bus) {
	for _, s := range sigs.Signals() {
		s.AcceptHook(r)
	}
}

// Func records the item of a hook.
func (r *SQLiteRecorder) Func(ctx sim.HookCtx) {
	now := r.timer.Now()

	switch item := ctx.Item.(type) {
	case bus.Change:
		r.changes = append(r.changes, change{time: now, Change: item})
	case bus.Transaction:
		r.txns = append(r.txns, txn{time: now, Transaction: item})
	default:
		return
	}

	if len(r.changes)+len(r.txns) >= r.batchSize {
		if err := r.Flush(); err != nil {
			panic(err)
		}
	}
}

// Flush writes the buffered rows in one database transaction.
func (r *SQLiteRecorder) Flush() error {
	if len(r.changes) == 0 && len(r.txns) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin trace batch: %w", err)
	}

	if err := r.insertChanges(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := r.insertTxns(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trace batch: %w", err)
	}

	r.changes = r.changes[:0]
	r.txns = r.txns[:0]

	return nil
}

func (r *SQLiteRecorder) insertChanges(tx *sql.Tx) error {
	stmt, err := tx.Prepare(`INSERT INTO signal_changes
		(run_id, time_ps, signal, old, new) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare signal insert: %w", err)
	}
	defer stmt.Close()

	id := r.runID.String()
	for _, c := range r.changes {
		_, err := stmt.Exec(id, int64(c.time), c.Signal.Name(),
			int64(c.Old), int64(c.New))
		if err != nil {
			return fmt.Errorf("failed to insert signal change: %w", err)
		}
	}

	return nil
}

func (r *SQLiteRecorder) insertTxns(tx *sql.Tx) error {
	stmt, err := tx.Prepare(`INSERT INTO transactions
		(run_id, time_ps, cycle, kind, channel, addr, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	id := r.runID.String()
	for _, t := range r.txns {
		_, err := stmt.Exec(id, int64(t.time), int64(t.Cycle),
			t.Kind.Name(), t.Channel, int64(t.Addr), int64(t.Data))
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	return nil
}

// Finish stores the outcome of the run.
func (r *SQLiteRecorder) Finish(state string, runErr error) error {
	var msg sql.NullString
	if runErr != nil {
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	_, err := r.Exec(
		`UPDATE runs SET state = ?, passed = ?, error = ? WHERE id = ?`,
		state, runErr == nil, msg, r.runID.String())
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return nil
}

// Close flushes the buffered rows and closes the database.
func (r *SQLiteRecorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}

	return r.DB.Close()
}
