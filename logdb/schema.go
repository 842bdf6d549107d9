// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// seq encodes the block height and the index of the event in the block.
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY NOT NULL,
	epoch INTEGER NOT NULL,
	kind TEXT NOT NULL,
	account BLOB(20),
	provider BLOB(20),
	amount BLOB,
	extra BLOB,
	opID INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(account);
CREATE INDEX IF NOT EXISTS event_i1 ON event(kind);
CREATE INDEX IF NOT EXISTS event_i2 ON event(provider);
CREATE INDEX IF NOT EXISTS event_i3 ON event(opID);`
