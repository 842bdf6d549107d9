// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/ethereum/go-ethereum/rlp"

// Stage abstracts changes on the slots store.
type Stage struct {
	stater  *Stater
	changes map[storageKey]rlp.RawValue
	order   []storageKey
}

// Len returns count of changed slots.
func (s *Stage) Len() int {
	return len(s.order)
}

// Commit writes all changes into the store atomically.
func (s *Stage) Commit() error {
	bulk := s.stater.store.Bulk()
	for _, k := range s.order {
		v := s.changes[k]
		if len(v) == 0 {
			if err := bulk.Delete(k.encode()); err != nil {
				return &Error{err}
			}
		} else {
			if err := bulk.Put(k.encode(), v); err != nil {
				return &Error{err}
			}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{err}
	}
	for _, k := range s.order {
		v := s.changes[k]
		if len(v) == 0 {
			s.stater.cache.Add(k, nil)
		} else {
			s.stater.cache.Add(k, append([]byte(nil), v...))
		}
	}
	metricSlotCounter().AddWithLabel(int64(len(s.order)), map[string]string{"type": "write", "target": "store"})
	return nil
}
