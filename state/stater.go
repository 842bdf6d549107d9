// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/vechain/lsd/cache"
	"github.com/vechain/lsd/kv"
	"github.com/vechain/lsd/log"
)

var logger = log.WithContext("pkg", "state")

const (
	// StoreName is the bucket prefix of state slots.
	StoreName = "s"

	defaultCacheSize = 8192
)

// Stater is the state creator.
type Stater struct {
	store kv.Store
	cache *cache.LRU[storageKey, []byte]
}

// NewStater create a new stater over the given store.
// cacheSize is the count of slots kept in memory, default value used when <= 0.
func NewStater(store kv.Store, cacheSize int) *Stater {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	c, err := cache.NewLRU[storageKey, []byte](cacheSize)
	if err != nil {
		panic(err) // cacheSize always > 0
	}
	return &Stater{
		store: kv.Bucket(StoreName).NewStore(store),
		cache: c,
	}
}

// NewState create a new state object reading the latest committed slots.
func (s *Stater) NewState() *State {
	return newState(s)
}

func (s *Stater) load(key storageKey) ([]byte, error) {
	defer s.logCacheStats()
	return s.cache.GetOrLoad(key, func(key storageKey) ([]byte, error) {
		metricSlotCounter().AddWithLabel(1, map[string]string{"type": "read", "target": "store"})
		val, err := s.store.Get(key.encode())
		if err != nil {
			if s.store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return val, nil
	})
}

func (s *Stater) logCacheStats() {
	if changed, hit, miss := s.cache.Stats().Stats(); changed {
		logger.Debug("slot cache stats", "hit", hit, "miss", miss, "size", s.cache.Len())
	}
}
