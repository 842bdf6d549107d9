// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"database/sql"
	"sync"

	"github.com/vechain/lsd/cache"
)

// maxCachedStmts bounds the filter query shapes kept prepared.
const maxCachedStmts = 256

// stmtCache keeps prepared statements keyed by query text.
type stmtCache struct {
	db    *sql.DB
	lock  sync.Mutex
	stmts map[string]*sql.Stmt
	stats cache.Stats
}

func newStmtCache(db *sql.DB) *stmtCache {
	return &stmtCache{db: db, stmts: make(map[string]*sql.Stmt)}
}

// Prepare returns the statement for query and a func to call once done with it.
// Once the cache is full, new statements are closed on release.
func (sc *stmtCache) Prepare(query string) (*sql.Stmt, func(), error) {
	sc.lock.Lock()
	stmt, ok := sc.stmts[query]
	sc.lock.Unlock()
	if ok {
		sc.stats.Hit()
		return stmt, func() {}, nil
	}
	sc.stats.Miss()

	// prepared outside the lock, a reader may hold the only connection
	stmt, err := sc.db.Prepare(query)
	if err != nil {
		return nil, nil, err
	}

	sc.lock.Lock()
	defer sc.lock.Unlock()
	if cached, ok := sc.stmts[query]; ok {
		_ = stmt.Close()
		return cached, func() {}, nil
	}
	if len(sc.stmts) >= maxCachedStmts {
		return stmt, func() { _ = stmt.Close() }, nil
	}
	sc.stmts[query] = stmt
	return stmt, func() {}, nil
}

// Len returns the count of kept statements.
func (sc *stmtCache) Len() int {
	sc.lock.Lock()
	defer sc.lock.Unlock()
	return len(sc.stmts)
}

func (sc *stmtCache) Clear() {
	sc.lock.Lock()
	defer sc.lock.Unlock()
	for q, stmt := range sc.stmts {
		_ = stmt.Close()
		delete(sc.stmts, q)
	}
}
