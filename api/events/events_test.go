// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
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

func newServer(t *testing.T, limit uint64) *httptest.Server {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	w := db.NewWriter()
	require.NoError(t, w.Write(1, 0, []*logdb.Event{
		{Kind: "delegate", Account: alice, Provider: provA, Amount: big.NewInt(10), Extra: big.NewInt(10), OpID: 1},
		{Kind: "add-reserve", Account: bob, Amount: big.NewInt(20)},
	}))
	require.NoError(t, w.Write(3, 0, []*logdb.Event{
		{Kind: "delegated", Account: alice, Provider: provA, Amount: big.NewInt(10), Extra: big.NewInt(10), OpID: 1},
	}))
	require.NoError(t, w.Commit())

	router := mux.NewRouter()
	New(db, limit).Mount(router, "/logs/events")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func filter(t *testing.T, ts *httptest.Server, body any) ([]*FilteredEvent, int) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(ts.URL+"/logs/events", "application/json", bytes.NewReader(data)) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if res.StatusCode != http.StatusOK {
		return nil, res.StatusCode
	}
	var out []*FilteredEvent
	require.NoError(t, json.Unmarshal(raw, &out))
	return out, res.StatusCode
}

func TestFilter(t *testing.T) {
	ts := newServer(t, 10)

	events, code := filter(t, ts, map[string]any{})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, events, 3)
	assert.Equal(t, "delegate", events[0].Kind)
	assert.Equal(t, alice, *events[0].Account)
	assert.Equal(t, provA, *events[0].Provider)
	assert.Equal(t, big.NewInt(10), (*big.Int)(events[0].Amount))
	assert.Nil(t, events[1].Provider)
	assert.Equal(t, uint32(3), events[2].Height)

	tests := []struct {
		name  string
		body  map[string]any
		kinds []string
	}{
		{"by kind", map[string]any{"kinds": []string{"add-reserve"}}, []string{"add-reserve"}},
		{"by account", map[string]any{"account": alice}, []string{"delegate", "delegated"}},
		{"by operation", map[string]any{"opID": 1, "order": "desc"}, []string{"delegated", "delegate"}},
		{"from", map[string]any{"range": map[string]any{"from": 2}}, []string{"delegated"}},
		{"to", map[string]any{"range": map[string]any{"to": 2}}, []string{"delegate", "add-reserve"}},
		{"page", map[string]any{"options": map[string]any{"offset": 1, "limit": 1}}, []string{"add-reserve"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, code := filter(t, ts, tt.body)
			require.Equal(t, http.StatusOK, code)
			var kinds []string
			for _, ev := range events {
				kinds = append(kinds, ev.Kind)
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestFilterErrors(t *testing.T) {
	ts := newServer(t, 2)

	_, code := filter(t, ts, map[string]any{"options": map[string]any{"limit": 3}})
	assert.Equal(t, http.StatusForbidden, code)

	// three events match, above the limit
	_, code = filter(t, ts, map[string]any{})
	assert.Equal(t, http.StatusForbidden, code)

	_, code = filter(t, ts, map[string]any{"range": map[string]any{"from": 3, "to": 1}})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = filter(t, ts, map[string]any{"order": "up"})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = filter(t, ts, map[string]any{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, code)
}
