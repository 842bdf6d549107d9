// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lsd/kv"
)

func TestLevelDB(t *testing.T) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	disk, err := New(filepath.Join(t.TempDir(), "main.db"), Options{16, 16})
	require.NoError(t, err)
	defer disk.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{disk, mem} {
		require.NoError(t, db.Put(key, value))

		got, err := db.Get(key)
		assert.NoError(t, err)
		assert.Equal(t, value, got)

		has, err := db.Has(key)
		assert.NoError(t, err)
		assert.True(t, has)

		has, err = db.Has(inValidKey)
		assert.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, db.Delete(key))
		_, err = db.Get(key)
		assert.True(t, db.IsNotFound(err))
	}
}

func TestBulkAndIterate(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	bulk := db.Bulk()
	require.NoError(t, bulk.Put([]byte("a1"), []byte("1")))
	require.NoError(t, bulk.Put([]byte("a2"), []byte("2")))
	require.NoError(t, bulk.Put([]byte("b1"), []byte("3")))
	assert.Equal(t, 3, bulk.Len())

	has, _ := db.Has([]byte("a1"))
	assert.False(t, has, "bulk writes are not visible before Write")

	require.NoError(t, bulk.Write())
	assert.Equal(t, 0, bulk.Len())

	it := db.Iterate(kv.Range{Start: []byte("a"), Limit: []byte("b")})
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.NoError(t, it.Error())
	assert.Equal(t, []string{"a1", "a2"}, keys)
}

func TestBucket(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	pool := kv.Bucket("p").NewStore(db)
	other := kv.Bucket("q").NewStore(db)

	require.NoError(t, pool.Put([]byte("k"), []byte("v")))
	_, err = other.Get([]byte("k"))
	assert.True(t, other.IsNotFound(err))

	raw, err := db.Get([]byte("pk"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), raw)

	bulk := other.Bulk()
	require.NoError(t, bulk.Put([]byte("x"), []byte("1")))
	require.NoError(t, bulk.Write())

	it := other.Iterate(kv.Range{})
	defer it.Release()
	require.True(t, it.Next())
	assert.Equal(t, []byte("x"), it.Key())
	assert.False(t, it.Next())
}
