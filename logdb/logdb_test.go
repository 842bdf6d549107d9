// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lsd/logdb"
	"github.com/vechain/lsd/lsd"
)

var (
	alice = lsd.BytesToAddress([]byte("alice"))
	bob   = lsd.BytesToAddress([]byte("bob"))
	provA = lsd.BytesToAddress([]byte("provider-a"))
)

func newEvent(kind string, account lsd.Address, amount int64, opID uint64) *logdb.Event {
	return &logdb.Event{Kind: kind, Account: account, Provider: provA, Amount: big.NewInt(amount), OpID: opID}
}

func seed(t *testing.T, db *logdb.LogDB) {
	w := db.NewWriter()
	require.NoError(t, w.Write(1, 0, []*logdb.Event{
		newEvent("delegate", alice, 10, 1),
		newEvent("delegate", bob, 20, 2),
	}))
	require.NoError(t, w.Write(2, 0, []*logdb.Event{
		newEvent("delegated", alice, 10, 1),
	}))
	require.NoError(t, w.Write(5, 1, []*logdb.Event{
		newEvent("undelegate", alice, 3, 0),
		{Kind: "param-set"},
	}))
	assert.Equal(t, 5, w.UncommittedCount())
	require.NoError(t, w.Commit())
	assert.Equal(t, 0, w.UncommittedCount())
}

func TestFilterEvents(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	seed(t, db)

	ctx := context.Background()

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, uint32(1), all[1].Height)
	assert.Equal(t, uint32(1), all[1].Index)
	assert.Equal(t, bob, all[1].Account)
	assert.Equal(t, big.NewInt(20), all[1].Amount)
	assert.Nil(t, all[4].Amount)
	assert.Equal(t, uint64(1), all[4].Epoch)

	height, err := db.NewestHeight()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), height)

	tests := []struct {
		name   string
		filter *logdb.EventFilter
		want   []string
	}{
		{"range", &logdb.EventFilter{Range: &logdb.Range{From: 2, To: 4}}, []string{"delegated"}},
		{"open range", &logdb.EventFilter{Range: &logdb.Range{From: 2}}, []string{"delegated", "undelegate", "param-set"}},
		{"kinds", &logdb.EventFilter{Kinds: []string{"delegate", "undelegate"}}, []string{"delegate", "delegate", "undelegate"}},
		{"account", &logdb.EventFilter{Account: &alice, Order: logdb.DESC}, []string{"undelegate", "delegated", "delegate"}},
		{"opID", &logdb.EventFilter{OpID: func() *uint64 { v := uint64(1); return &v }()}, []string{"delegate", "delegated"}},
		{"paged", &logdb.EventFilter{Options: &logdb.Options{Offset: 1, Limit: 2}}, []string{"delegate", "delegated"}},
		{"provider", &logdb.EventFilter{Provider: &provA, Kinds: []string{"delegated"}}, []string{"delegated"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			var kinds []string
			for _, ev := range events {
				kinds = append(kinds, ev.Kind)
			}
			assert.Equal(t, tt.want, kinds)
		})
	}
}

func TestNewestHeight(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	height, err := db.NewestHeight()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), height)

	seed(t, db)
	height, err = db.NewestHeight()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), height)
}

func TestWriterRollbackAndTruncate(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	seed(t, db)

	w := db.NewWriter()
	require.NoError(t, w.Write(9, 2, []*logdb.Event{newEvent("withdraw", bob, 1, 0)}))
	require.NoError(t, w.Rollback())

	events, err := db.FilterEvents(context.Background(), &logdb.EventFilter{Kinds: []string{"withdraw"}})
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, w.Truncate(2))
	events, err = db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	height, err := db.NewestHeight()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), height)
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	db, err := logdb.New(path)
	require.NoError(t, err)
	seed(t, db)
	require.NoError(t, db.Close())

	db, err = logdb.New(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())
	assert.NotEmpty(t, db.DriverVersion())

	events, err := db.FilterEvents(context.Background(), &logdb.EventFilter{Account: &bob})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "delegate", events[0].Kind)
}
