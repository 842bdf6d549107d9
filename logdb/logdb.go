// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"math"
	"math/big"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/lsd/lsd"
)

const (
	newestSeqQuery = "SELECT seq FROM event ORDER BY seq DESC LIMIT 1"
	insertStmt = "INSERT OR REPLACE INTO event(seq, epoch, kind, account, provider, amount, extra, opID) VALUES(?,?,?,?,?,?,?,?)"
)

// LogDB indexes pool events in sqlite.
type LogDB struct {
	path          string
	driverVersion string
	db            *sql.DB
	stmtCache     *stmtCache
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()

	// a single connection keeps an in-memory db alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		driverVersion: driverVer,
		db:            db,
		stmtCache:     newStmtCache(db),
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close closes the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the version of the sqlite library.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// NewestHeight returns the height of the latest written event, 0 if empty.
func (db *LogDB) NewestHeight() (uint32, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRow(newestSeqQuery).Scan(&seq); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return sequence(seq.Int64).Height(), nil
}

// FilterEvents returns events matching the filter.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		filter = &EventFilter{}
	}
	metricsHandleEventsFilter(filter)

	var (
		conds []string
		args  []any
	)
	if filter.Range != nil {
		conds = append(conds, "seq >= ?")
		args = append(args, newSequence(filter.Range.From, 0))
		if filter.Range.To >= filter.Range.From {
			conds = append(conds, "seq <= ?")
			args = append(args, newSequence(filter.Range.To, math.MaxInt32))
		}
	}
	if len(filter.Kinds) > 0 {
		conds = append(conds, "kind IN ("+strings.TrimSuffix(strings.Repeat("?,", len(filter.Kinds)), ",")+")")
		for _, k := range filter.Kinds {
			args = append(args, k)
		}
	}
	if filter.Account != nil {
		conds = append(conds, "account = ?")
		args = append(args, filter.Account.Bytes())
	}
	if filter.Provider != nil {
		conds = append(conds, "provider = ?")
		args = append(args, filter.Provider.Bytes())
	}
	if filter.OpID != nil {
		conds = append(conds, "opID = ?")
		args = append(args, *filter.OpID)
	}

	query := "SELECT seq, epoch, kind, account, provider, amount, extra, opID FROM event"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if filter.Order == DESC {
		query += " ORDER BY seq DESC"
	} else {
		query += " ORDER BY seq ASC"
	}
	if filter.Options != nil {
		query += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, query, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, release, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer release()
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			seq               int64
			epoch             uint64
			kind              string
			account, provider []byte
			amount, extra     []byte
			opID              uint64
		)
		if err := rows.Scan(&seq, &epoch, &kind, &account, &provider, &amount, &extra, &opID); err != nil {
			return nil, err
		}
		events = append(events, &Event{
			Height:   sequence(seq).Height(),
			Index:    sequence(seq).Index(),
			Epoch:    epoch,
			Kind:     kind,
			Account:  lsd.BytesToAddress(account),
			Provider: lsd.BytesToAddress(provider),
			Amount:   bigValue(amount),
			Extra:    bigValue(extra),
			OpID:     opID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func blobValue(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	return v.Bytes()
}

func bigValue(b []byte) *big.Int {
	if b == nil {
		return nil
	}
	return new(big.Int).SetBytes(b)
}

// NewWriter creates a writer. Events are written in a single transaction on Commit.
func (db *LogDB) NewWriter() *Writer {
	return &Writer{db: db}
}

// Writer accumulates the events of consecutive blocks.
type Writer struct {
	db      *LogDB
	tx      *sql.Tx
	stmt    *sql.Stmt
	release func()
	height  uint32
	index   uint32
	count   int
}

func (w *Writer) begin() error {
	if w.tx != nil {
		return nil
	}
	// prepare before Begin, the transaction holds the only connection
	stmt, release, err := w.db.stmtCache.Prepare(insertStmt)
	if err != nil {
		return err
	}
	tx, err := w.db.db.Begin()
	if err != nil {
		release()
		return err
	}
	w.release = release
	w.tx = tx
	w.stmt = tx.Stmt(stmt)
	return nil
}

// Write appends the events of the block at height. Heights must not go backwards.
func (w *Writer) Write(height uint32, epoch uint64, events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := w.begin(); err != nil {
		return err
	}
	if height != w.height {
		w.height = height
		w.index = 0
	}
	for _, ev := range events {
		seq := newSequence(height, w.index)
		if _, err := w.stmt.Exec(
			seq,
			epoch,
			ev.Kind,
			ev.Account.Bytes(),
			ev.Provider.Bytes(),
			blobValue(ev.Amount),
			blobValue(ev.Extra),
			ev.OpID,
		); err != nil {
			return err
		}
		w.index++
		w.count++
	}
	return nil
}

// Commit commits accumulated events.
func (w *Writer) Commit() error {
	if w.tx == nil {
		return nil
	}
	defer w.reset()
	if err := w.tx.Commit(); err != nil {
		return errors.Wrap(err, "commit events")
	}
	return nil
}

// Rollback drops uncommitted events.
func (w *Writer) Rollback() error {
	if w.tx == nil {
		return nil
	}
	defer w.reset()
	return w.tx.Rollback()
}

// Truncate deletes every event at or above height.
func (w *Writer) Truncate(height uint32) error {
	if err := w.Rollback(); err != nil {
		return err
	}
	if _, err := w.db.db.Exec("DELETE FROM event WHERE seq >= ?", newSequence(height, 0)); err != nil {
		return errors.Wrap(err, "truncate events")
	}
	return nil
}

// UncommittedCount returns the count of uncommitted events.
func (w *Writer) UncommittedCount() int {
	return w.count
}

func (w *Writer) reset() {
	if w.stmt != nil {
		_ = w.stmt.Close()
	}
	if w.release != nil {
		w.release()
	}
	w.tx, w.stmt, w.release, w.count = nil, nil, nil, 0
}
